package extract

import (
	"testing"
	"time"
)

func TestLLMStats_Empty(t *testing.T) {
	s := NewLLMStats(time.Hour)
	snap := s.Snapshot()
	if snap.Count != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestLLMStats_Aggregates(t *testing.T) {
	s := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400} {
		s.Record(ms)
	}

	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Fatalf("expected 4 samples, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 400 {
		t.Errorf("expected min 100 max 400, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 250 {
		t.Errorf("expected avg 250, got %f", snap.AvgMs)
	}
	if snap.P50Ms < 200 || snap.P50Ms > 300 {
		t.Errorf("expected p50 between 200 and 300, got %f", snap.P50Ms)
	}
}

func TestLLMStats_NegativeClamped(t *testing.T) {
	s := NewLLMStats(time.Hour)
	s.Record(-5)
	snap := s.Snapshot()
	if snap.MinMs != 0 {
		t.Errorf("expected negative duration clamped to 0, got %d", snap.MinMs)
	}
}

func TestLLMStats_WindowPruning(t *testing.T) {
	s := NewLLMStats(10 * time.Millisecond)
	s.Record(100)
	time.Sleep(20 * time.Millisecond)
	s.Record(200)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected old sample pruned, got %d samples", snap.Count)
	}
	if snap.MinMs != 200 {
		t.Errorf("expected surviving sample 200, got %d", snap.MinMs)
	}
}
