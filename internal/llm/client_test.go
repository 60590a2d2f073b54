package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/personafin/personafin/internal/convo"
)

// newTestClient returns a Client pointed at a stub server that records the
// last request body and answers with content.
func newTestClient(t *testing.T, status int, content string) (*Client, *chatRequest) {
	t.Helper()
	var last chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL), &last
}

func TestGenerateReply_BuildsMessages(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, "  hey there  ")

	reply, err := client.GenerateReply(context.Background(), ReplyRequest{
		Persona:      "a cat",
		SystemPrompt: "Stay in character.",
		Model:        "openai/gpt-4o-mini",
		Memories: []convo.MemoryEntry{
			{Text: "Loves hiking"},
			{Text: "Hates mondays"},
		},
		History: []string{
			"Alice: hi everyone",
			"Bot: hello Alice",
			"no separator line",
		},
		UserMessage: "how are you?",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hey there" {
		t.Errorf("expected trimmed reply, got %q", reply)
	}

	msgs := last.Messages
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d: %v", len(msgs), msgs)
	}
	if msgs[0].Role != "system" || msgs[0].Content != "Stay in character.\nPersona: a cat" {
		t.Errorf("unexpected system message: %+v", msgs[0])
	}
	if msgs[1].Role != "system" || msgs[1].Content != "Relevant persona memories (optional):\n- Loves hiking\n- Hates mondays" {
		t.Errorf("unexpected memory message: %+v", msgs[1])
	}
	// "Alice: hi everyone" → user turn with the speaker label stripped.
	if msgs[2].Role != "user" || msgs[2].Content != "hi everyone" {
		t.Errorf("unexpected history mapping: %+v", msgs[2])
	}
	// "Bot: hello Alice" → assistant turn.
	if msgs[3].Role != "assistant" || msgs[3].Content != "hello Alice" {
		t.Errorf("unexpected bot line mapping: %+v", msgs[3])
	}
	// Lines without ": " pass through whole.
	if msgs[4].Role != "user" || msgs[4].Content != "no separator line" {
		t.Errorf("unexpected raw line mapping: %+v", msgs[4])
	}
	if msgs[5].Role != "user" || msgs[5].Content != "how are you?" {
		t.Errorf("unexpected final message: %+v", msgs[5])
	}

	if last.Model != "openai/gpt-4o-mini" {
		t.Errorf("unexpected model: %q", last.Model)
	}
}

func TestGenerateReply_NoMemories(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, "ok")

	_, err := client.GenerateReply(context.Background(), ReplyRequest{
		Persona: "a cat", SystemPrompt: "p", Model: "m", UserMessage: "hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Messages[1].Content != "Relevant persona memories (optional):\nNone" {
		t.Errorf("expected None memory blob, got %q", last.Messages[1].Content)
	}
}

func TestGenerateReply_EmptyMessageRejected(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, "ok")

	_, err := client.GenerateReply(context.Background(), ReplyRequest{UserMessage: "   "})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestGenerateReply_BackendError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, "")

	_, err := client.GenerateReply(context.Background(), ReplyRequest{UserMessage: "hi"})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestGenerateSummary_EmptyBatchRejected(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, "ok")

	_, err := client.GenerateSummary(context.Background(), SummaryRequest{})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestGenerateSummary_IncludesBatch(t *testing.T) {
	client, last := newTestClient(t, http.StatusOK, "they planned a trip")

	summary, err := client.GenerateSummary(context.Background(), SummaryRequest{
		Messages: []string{"Alice: lets go hiking", "Bot: when?"},
		Persona:  "a cat",
		Model:    "m",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "they planned a trip" {
		t.Errorf("unexpected summary: %q", summary)
	}

	prompt := last.Messages[1].Content
	for _, want := range []string{"Alice: lets go hiking", "Bot: when?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSuggestReaction_ValidEmoji(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, "👍")

	emoji, ok := client.SuggestReaction(context.Background(), "great news!", "m")
	if !ok || emoji != "👍" {
		t.Errorf("expected (👍, true), got (%q, %v)", emoji, ok)
	}
}

func TestSuggestReaction_DegradesToNoReaction(t *testing.T) {
	// Backend failure never propagates.
	failing, _ := newTestClient(t, http.StatusInternalServerError, "")
	if emoji, ok := failing.SuggestReaction(context.Background(), "hi", "m"); ok || emoji != "" {
		t.Errorf("expected no reaction on backend failure, got (%q, %v)", emoji, ok)
	}

	// Answer outside the allowed set is dropped.
	offList, _ := newTestClient(t, http.StatusOK, "🦄")
	if emoji, ok := offList.SuggestReaction(context.Background(), "hi", "m"); ok || emoji != "" {
		t.Errorf("expected no reaction for disallowed emoji, got (%q, %v)", emoji, ok)
	}

	// NONE answer is dropped.
	none, _ := newTestClient(t, http.StatusOK, "NONE")
	if _, ok := none.SuggestReaction(context.Background(), "hi", "m"); ok {
		t.Error("expected no reaction for NONE answer")
	}

	// Empty input short-circuits.
	client, _ := newTestClient(t, http.StatusOK, "👍")
	if _, ok := client.SuggestReaction(context.Background(), "  ", "m"); ok {
		t.Error("expected no reaction for empty message")
	}
}
