package agent

import (
	"log/slog"
	"regexp"
	"time"

	readability "github.com/go-shiori/go-readability"
)

var urlRegex = regexp.MustCompile(`https?://[^\s<>"']+`)

const linkFetchTimeout = 10 * time.Second

// fetchLinkContext extracts readable text from the first http(s) URL in the
// message, truncated to maxChars. Best-effort: any failure returns "".
func (l *Loop) fetchLinkContext(text string, maxChars int) string {
	rawURL := urlRegex.FindString(text)
	if rawURL == "" {
		return ""
	}

	article, err := readability.FromURL(rawURL, linkFetchTimeout)
	if err != nil {
		slog.Debug("link context fetch failed", "url", rawURL, "err", err)
		return ""
	}

	content := article.TextContent
	if maxChars > 0 && len(content) > maxChars {
		content = content[:maxChars]
	}
	return content
}
