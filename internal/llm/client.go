// Package llm talks to an OpenAI-compatible chat completion endpoint. It
// builds the persona reply request, the history-compaction summary request,
// and a best-effort emoji reaction suggestion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/personafin/personafin/internal/convo"
)

// DefaultAPIBase is the OpenRouter endpoint, the backend the bot was built
// against. Any OpenAI-compatible base works.
const DefaultAPIBase = "https://openrouter.ai/api/v1"

// Input-shape errors. Surfaced to the caller, never swallowed.
var (
	ErrEmptyMessage = errors.New("llm: user message is empty")
	ErrEmptyBatch   = errors.New("llm: no messages to summarize")
)

// Client is a thin HTTP wrapper around POST {base}/chat/completions.
type Client struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Client. An empty apiBase falls back to DefaultAPIBase.
func NewClient(apiKey, apiBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		apiKey:     apiKey,
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// ReplyRequest carries everything needed to generate one persona reply.
type ReplyRequest struct {
	Persona      string
	SystemPrompt string
	Model        string
	Memories     []convo.MemoryEntry
	History      []string
	UserMessage  string
	LinkContext  string // optional article excerpt, appended as extra context
}

// GenerateReply asks the backend for a persona reply. The history snapshot
// is mapped back to chat roles: lines with a literal "Bot: " prefix become
// assistant turns (prefix stripped), everything else becomes a user turn
// with the speaker label before the first ": " removed. Lines without a
// separator are passed through whole.
func (c *Client) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return "", ErrEmptyMessage
	}

	system := req.SystemPrompt + "\nPersona: " + req.Persona

	memoryBlob := "None"
	if len(req.Memories) > 0 {
		lines := make([]string, len(req.Memories))
		for i, m := range req.Memories {
			lines[i] = "- " + m.Text
		}
		memoryBlob = strings.Join(lines, "\n")
	}

	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "system", Content: "Relevant persona memories (optional):\n" + memoryBlob},
	}
	if req.LinkContext != "" {
		messages = append(messages, chatMessage{
			Role:    "system",
			Content: "Linked article excerpt (optional context):\n" + req.LinkContext,
		})
	}
	for _, line := range req.History {
		messages = append(messages, historyLineToMessage(line))
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserMessage})

	return c.complete(ctx, req.Model, messages, 0.8, 512)
}

// SummaryRequest carries one compaction batch.
type SummaryRequest struct {
	Messages []string
	Persona  string
	Model    string
}

// GenerateSummary condenses a batch of history lines into a short note
// suitable for storage as a memory entry.
func (c *Client) GenerateSummary(ctx context.Context, req SummaryRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrEmptyBatch
	}

	prompt := fmt.Sprintf(
		"Summarize the following chat messages in 2-3 sentences. Keep names, "+
			"decisions, and facts worth remembering. You are %s; write the summary "+
			"in neutral third person.\n\n%s",
		req.Persona, strings.Join(req.Messages, "\n"),
	)

	messages := []chatMessage{
		{Role: "system", Content: "You condense chat history into compact notes."},
		{Role: "user", Content: prompt},
	}

	return c.complete(ctx, req.Model, messages, 0.3, 300)
}

// allowedReactions is the emoji set the backend may pick from; it matches
// the reactions Telegram accepts on arbitrary messages.
var allowedReactions = []string{"👍", "❤", "🔥", "😁", "😢", "🤔", "👏", "🎉"}

// SuggestReaction asks the backend to pick one reaction emoji for a message.
// Best-effort: any failure or an answer outside the allowed set yields
// ("", false). Errors never propagate to the caller.
func (c *Client) SuggestReaction(ctx context.Context, message, model string) (string, bool) {
	if strings.TrimSpace(message) == "" {
		return "", false
	}

	prompt := fmt.Sprintf(
		"Pick the single most fitting reaction emoji for this chat message, or "+
			"answer NONE if no reaction fits. Allowed: %s\n\nMessage: %s",
		strings.Join(allowedReactions, " "), message,
	)

	messages := []chatMessage{
		{Role: "system", Content: "You answer with exactly one emoji from the allowed set, or NONE."},
		{Role: "user", Content: prompt},
	}

	answer, err := c.complete(ctx, model, messages, 0, 8)
	if err != nil {
		slog.Debug("reaction suggestion failed", "err", err)
		return "", false
	}

	answer = strings.TrimSpace(answer)
	for _, r := range allowedReactions {
		if answer == r {
			return r, true
		}
	}
	return "", false
}

// historyLineToMessage maps one stored history line back to a chat role.
func historyLineToMessage(line string) chatMessage {
	if rest, ok := strings.CutPrefix(line, "Bot: "); ok {
		return chatMessage{Role: "assistant", Content: rest}
	}
	if _, rest, ok := strings.Cut(line, ": "); ok {
		return chatMessage{Role: "user", Content: rest}
	}
	return chatMessage{Role: "user", Content: line}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete performs one chat completion round trip.
func (c *Client) complete(ctx context.Context, model string, messages []chatMessage, temperature float64, maxTokens int) (string, error) {
	body := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
