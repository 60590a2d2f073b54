// Package convo holds per-conversation short-term history and long-term
// memories. All state lives in process memory, partitioned strictly by an
// opaque conversation key ("channel:chat_id" as produced by the bus); nothing
// survives a restart.
package convo

import (
	"strings"
	"sync"
	"time"
)

// MemoryEntry is one durable note attached to a conversation, either written
// by the user via /memory add or produced by the summarization pipeline.
// Entries are immutable after creation.
type MemoryEntry struct {
	ConversationID string
	Text           string
	CreatedAt      time.Time
}

// conversation is the unit of isolation. Each conversation carries its own
// mutex so traffic in one chat never blocks another.
type conversation struct {
	mu         sync.Mutex
	history    []string
	memories   []MemoryEntry
	summarized int // successful compaction batches removed so far
}

// Store owns all conversation state. Conversations are created lazily on
// first use and never expire. Safe for concurrent use across and within
// conversation keys; every exported operation is individually atomic.
type Store struct {
	mu          sync.RWMutex
	convs       map[string]*conversation
	historySize int
}

// DefaultHistorySize caps a conversation's history buffer when NewStore is
// given a non-positive size. Matches the original bot's default window.
const DefaultHistorySize = 20

// NewStore creates a Store whose history buffers hold at most historySize
// lines each.
func NewStore(historySize int) *Store {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Store{
		convs:       make(map[string]*conversation),
		historySize: historySize,
	}
}

// HistoryCap reports the configured per-conversation history cap.
func (s *Store) HistoryCap() int { return s.historySize }

// get returns the conversation for id, creating it if needed.
func (s *Store) get(id string) *conversation {
	s.mu.RLock()
	c, ok := s.convs[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.convs[id]; ok {
		return c
	}
	c = &conversation{}
	s.convs[id] = c
	return c
}

// peek returns the conversation for id without creating it.
func (s *Store) peek(id string) *conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convs[id]
}

// AddMemory stores text as a new memory for the conversation, stamped with
// the current UTC time. Surrounding whitespace is stripped; an empty result
// is stored as-is, callers are expected to pre-validate.
func (s *Store) AddMemory(id, text string) MemoryEntry {
	entry := MemoryEntry{
		ConversationID: id,
		Text:           strings.TrimSpace(text),
		CreatedAt:      time.Now().UTC(),
	}

	c := s.get(id)
	c.mu.Lock()
	c.memories = append(c.memories, entry)
	c.mu.Unlock()
	return entry
}

// Memories returns a snapshot of the conversation's memories in insertion
// order. Unseen conversations yield nil.
func (s *Store) Memories(id string) []MemoryEntry {
	c := s.peek(id)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MemoryEntry, len(c.memories))
	copy(out, c.memories)
	return out
}

// ClearMemories drops every memory for the conversation. Idempotent.
func (s *Store) ClearMemories(id string) {
	c := s.peek(id)
	if c == nil {
		return
	}
	c.mu.Lock()
	c.memories = nil
	c.mu.Unlock()
}

// AppendHistory appends one formatted line ("Name: text" / "Bot: text") to
// the conversation's buffer, evicting the oldest lines when the buffer would
// exceed the configured cap.
func (s *Store) AppendHistory(id, line string) {
	c := s.get(id)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, line)
	if excess := len(c.history) - s.historySize; excess > 0 {
		c.history = append(c.history[:0], c.history[excess:]...)
	}
}

// History returns the last limit lines in original order, or the whole
// buffer when limit <= 0. The result is an independent copy.
func (s *Store) History(id string, limit int) []string {
	c := s.peek(id)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]string, len(h))
	copy(out, h)
	return out
}

// HistorySize returns the current buffer length, 0 for unseen conversations.
func (s *Store) HistorySize(id string) int {
	c := s.peek(id)
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// ShouldSummarize reports whether the conversation's history has reached
// threshold lines. Pure predicate, no side effects.
func (s *Store) ShouldSummarize(id string, threshold int) bool {
	return s.HistorySize(id) >= threshold
}

// MessagesForSummary returns the oldest batch lines (fewer if the buffer is
// shorter) in original order plus the total buffer length at call time. It
// never mutates the buffer; the caller removes the batch afterwards with
// ClearSummarized.
func (s *Store) MessagesForSummary(id string, batch int) ([]string, int) {
	c := s.peek(id)
	if c == nil {
		return nil, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.history)
	if batch > total {
		batch = total
	}
	if batch < 0 {
		batch = 0
	}
	out := make([]string, batch)
	copy(out, c.history[:batch])
	return out, total
}

// ClearSummarized removes the oldest count lines from the buffer, clamped to
// the available length, and bumps the summarization counter. The counter is
// incremented on every call, even for count <= 0 or an empty buffer; callers
// that care about accurate counts must only call this after a successful
// summarization.
func (s *Store) ClearSummarized(id string, count int) {
	c := s.get(id)
	c.mu.Lock()
	defer c.mu.Unlock()

	if count > len(c.history) {
		count = len(c.history)
	}
	if count > 0 {
		c.history = append(c.history[:0], c.history[count:]...)
	}
	c.summarized++
}

// SummarizationCount reports how many times ClearSummarized has run for the
// conversation. 0 for unseen conversations.
func (s *Store) SummarizationCount(id string) int {
	c := s.peek(id)
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summarized
}

// ConversationIDs returns a snapshot of every conversation key seen so far.
// Used by the periodic summarization sweep.
func (s *Store) ConversationIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	return ids
}
