package convo

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestAddMemory_TrimsAndPreservesOrder(t *testing.T) {
	s := NewStore(10)

	entry := s.AddMemory("tg:1", "  Loves hiking  \n")
	if entry.Text != "Loves hiking" {
		t.Errorf("expected trimmed text, got %q", entry.Text)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if entry.ConversationID != "tg:1" {
		t.Errorf("expected conversation id tg:1, got %q", entry.ConversationID)
	}

	s.AddMemory("tg:1", "Hates mondays")
	mems := s.Memories("tg:1")
	if len(mems) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(mems))
	}
	if mems[0].Text != "Loves hiking" || mems[1].Text != "Hates mondays" {
		t.Errorf("insertion order not preserved: %v", mems)
	}
}

func TestAddMemory_EmptyTextAccepted(t *testing.T) {
	s := NewStore(10)
	entry := s.AddMemory("tg:1", "   ")
	if entry.Text != "" {
		t.Errorf("expected empty text stored as-is, got %q", entry.Text)
	}
	if len(s.Memories("tg:1")) != 1 {
		t.Error("empty memory should still be stored")
	}
}

func TestMemories_ReturnsSnapshot(t *testing.T) {
	s := NewStore(10)
	s.AddMemory("tg:1", "a")

	mems := s.Memories("tg:1")
	mems[0].Text = "mutated"

	if s.Memories("tg:1")[0].Text != "a" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestClearMemories_Idempotent(t *testing.T) {
	s := NewStore(10)

	// Clearing an unseen conversation must not panic or create state.
	s.ClearMemories("tg:9")
	if got := s.Memories("tg:9"); len(got) != 0 {
		t.Errorf("expected no memories, got %v", got)
	}

	s.AddMemory("tg:1", "a")
	s.ClearMemories("tg:1")
	s.ClearMemories("tg:1")
	if got := s.Memories("tg:1"); len(got) != 0 {
		t.Errorf("expected no memories after clear, got %v", got)
	}
}

func TestAppendHistory_EvictsOldestBeyondCap(t *testing.T) {
	s := NewStore(3)
	for _, line := range []string{"A", "B", "C", "D"} {
		s.AppendHistory("tg:1", line)
	}

	got := s.History("tg:1", 0)
	want := []string{"B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if size := s.HistorySize("tg:1"); size != 3 {
		t.Errorf("expected size 3, got %d", size)
	}
}

func TestHistory_LimitReturnsTail(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.AppendHistory("tg:1", fmt.Sprintf("line %d", i))
	}

	got := s.History("tg:1", 2)
	want := []string{"line 3", "line 4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Limit larger than the buffer returns everything.
	if got := s.History("tg:1", 100); len(got) != 5 {
		t.Errorf("expected 5 lines, got %d", len(got))
	}
	// Non-positive limit returns the full buffer.
	if got := s.History("tg:1", 0); len(got) != 5 {
		t.Errorf("expected full buffer, got %d lines", len(got))
	}
}

func TestHistory_ReturnsSnapshot(t *testing.T) {
	s := NewStore(10)
	s.AppendHistory("tg:1", "a")

	h := s.History("tg:1", 0)
	h[0] = "mutated"

	if s.History("tg:1", 0)[0] != "a" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestShouldSummarize_ThresholdBoundary(t *testing.T) {
	s := NewStore(50)
	for i := 0; i < 10; i++ {
		s.AppendHistory("tg:1", "x")
	}

	if !s.ShouldSummarize("tg:1", 10) {
		t.Error("expected true at exactly the threshold")
	}
	if !s.ShouldSummarize("tg:1", 5) {
		t.Error("expected true above the threshold")
	}
	if s.ShouldSummarize("tg:1", 11) {
		t.Error("expected false below the threshold")
	}
	if s.ShouldSummarize("tg:unseen", 1) {
		t.Error("unseen conversation should not summarize")
	}
	if !s.ShouldSummarize("tg:unseen", 0) {
		t.Error("threshold 0 is always reached")
	}
}

func TestMessagesForSummary_ReadOnlyAndIdempotent(t *testing.T) {
	s := NewStore(50)
	for i := 0; i < 20; i++ {
		s.AppendHistory("tg:1", fmt.Sprintf("Message %d", i))
	}

	batch, total := s.MessagesForSummary("tg:1", 10)
	if total != 20 {
		t.Errorf("expected total 20, got %d", total)
	}
	if len(batch) != 10 || batch[0] != "Message 0" || batch[9] != "Message 9" {
		t.Errorf("unexpected batch: %v", batch)
	}

	// Repeated calls without mutation return identical results.
	batch2, total2 := s.MessagesForSummary("tg:1", 10)
	if !reflect.DeepEqual(batch, batch2) || total != total2 {
		t.Error("MessagesForSummary is not idempotent")
	}
	if size := s.HistorySize("tg:1"); size != 20 {
		t.Errorf("read must not mutate the buffer, size is %d", size)
	}
}

func TestMessagesForSummary_EmptyBuffer(t *testing.T) {
	s := NewStore(50)
	batch, total := s.MessagesForSummary("tg:unseen", 10)
	if len(batch) != 0 || total != 0 {
		t.Errorf("expected empty batch and zero total, got %v, %d", batch, total)
	}
}

func TestClearSummarized_RemovesFrontAndCounts(t *testing.T) {
	s := NewStore(50)
	for i := 0; i < 20; i++ {
		s.AppendHistory("tg:1", fmt.Sprintf("Message %d", i))
	}

	s.ClearSummarized("tg:1", 10)

	h := s.History("tg:1", 0)
	if len(h) != 10 || h[0] != "Message 10" || h[9] != "Message 19" {
		t.Errorf("unexpected remaining history: %v", h)
	}
	if n := s.SummarizationCount("tg:1"); n != 1 {
		t.Errorf("expected counter 1, got %d", n)
	}
}

// The counter is bumped on every call, even for a zero count or an empty
// buffer. Pinned deliberately: the orchestration layer relies on calling
// this only after a successful summarization.
func TestClearSummarized_CounterIncrementsOnEveryCall(t *testing.T) {
	s := NewStore(50)

	s.ClearSummarized("tg:1", 0)
	if n := s.SummarizationCount("tg:1"); n != 1 {
		t.Errorf("count=0 call must still increment, got %d", n)
	}

	s.ClearSummarized("tg:1", 5) // buffer empty, clamped to 0 removals
	if n := s.SummarizationCount("tg:1"); n != 2 {
		t.Errorf("empty-buffer call must still increment, got %d", n)
	}

	s.AppendHistory("tg:1", "a")
	s.ClearSummarized("tg:1", 99) // clamped to buffer length
	if size := s.HistorySize("tg:1"); size != 0 {
		t.Errorf("expected empty history, got %d", size)
	}
	if n := s.SummarizationCount("tg:1"); n != 3 {
		t.Errorf("expected counter 3, got %d", n)
	}
}

func TestSummarizationCount_UnseenIsZero(t *testing.T) {
	s := NewStore(50)
	if n := s.SummarizationCount("tg:unseen"); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	s := NewStore(5)

	s.AppendHistory("tg:1", "a")
	s.AddMemory("tg:1", "one")
	s.ClearSummarized("tg:1", 0)

	if s.HistorySize("tg:2") != 0 {
		t.Error("history leaked across conversations")
	}
	if len(s.Memories("tg:2")) != 0 {
		t.Error("memories leaked across conversations")
	}
	if s.SummarizationCount("tg:2") != 0 {
		t.Error("counter leaked across conversations")
	}

	s.ClearMemories("tg:2")
	if len(s.Memories("tg:1")) != 1 {
		t.Error("clearing tg:2 affected tg:1")
	}
}

func TestConversationIDs(t *testing.T) {
	s := NewStore(5)
	s.AppendHistory("tg:1", "a")
	s.AddMemory("slack:C1", "b")

	ids := s.ConversationIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["tg:1"] || !seen["slack:C1"] {
		t.Errorf("missing ids: %v", ids)
	}
}

func TestConcurrentAppends_NoLostUpdates(t *testing.T) {
	const n = 100
	s := NewStore(2 * n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.AppendHistory("tg:1", fmt.Sprintf("a%d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			s.AppendHistory("tg:2", fmt.Sprintf("b%d", i))
		}(i)
	}
	wg.Wait()

	if size := s.HistorySize("tg:1"); size != n {
		t.Errorf("expected %d lines in tg:1, got %d", n, size)
	}
	if size := s.HistorySize("tg:2"); size != n {
		t.Errorf("expected %d lines in tg:2, got %d", n, size)
	}
}
