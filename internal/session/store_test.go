package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/metrics"
	"github.com/hitoshi/kbase/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(Config{MaxAge: time.Hour, CleanupInterval: time.Hour})
	t.Cleanup(s.Stop)
	return s
}

func TestGet_UnknownSession_ReturnsDefault(t *testing.T) {
	s := newTestStore(t)

	got := s.Get("missing")
	if got.Category != model.CategoryAll || got.SortBy != model.SortNewest {
		t.Errorf("Get(missing) = %+v, want default state", got)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, Get should not create sessions", s.Count())
	}
}

func TestUpdate_StoresNewState(t *testing.T) {
	s := newTestStore(t)

	next, err := s.Update("s1", func(st filter.State) (filter.State, error) {
		return st.SetCategory(model.CategoryPapers), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Category != model.CategoryPapers {
		t.Errorf("Update returned %+v", next)
	}
	if got := s.Get("s1"); got.Category != model.CategoryPapers {
		t.Errorf("Get(s1).Category = %q, want %q", got.Category, model.CategoryPapers)
	}
	if got := s.Get("s2"); got.Category != model.CategoryAll {
		t.Errorf("sessions must be independent, got %q", got.Category)
	}
}

func TestUpdate_ErrorKeepsState(t *testing.T) {
	s := newTestStore(t)
	s.Update("s1", func(st filter.State) (filter.State, error) {
		return st.SetSearchQuery("系统"), nil
	})

	wantErr := errors.New("rejected")
	got, err := s.Update("s1", func(st filter.State) (filter.State, error) {
		return st.SetSearchQuery("other"), wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if got.SearchQuery != "系统" {
		t.Errorf("returned state = %+v, want unchanged", got)
	}
	if s.Get("s1").SearchQuery != "系统" {
		t.Error("stored state should be unchanged after error")
	}
}

func TestUpdate_ConcurrentTransitionsAreSerialized(t *testing.T) {
	s := newTestStore(t)

	const n = 50
	tags := make([]string, n)
	for i := range tags {
		tags[i] = string(rune('A' + i))
	}

	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			s.Update("s1", func(st filter.State) (filter.State, error) {
				return st.ToggleTag(tag), nil
			})
		}(tag)
	}
	wg.Wait()

	if got := len(s.Get("s1").Tags); got != n {
		t.Errorf("len(Tags) = %d, want %d (no lost updates)", got, n)
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)
	identity := func(st filter.State) (filter.State, error) { return st, nil }

	s.Update("a", identity)
	s.Update("b", identity)
	s.Update("a", identity)
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}
}

func TestCleanup_RemovesIdleSessions(t *testing.T) {
	s := newTestStore(t)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	identity := func(st filter.State) (filter.State, error) { return st, nil }
	s.Update("old", identity)

	current = current.Add(50 * time.Minute)
	s.Update("fresh", identity)

	current = current.Add(20 * time.Minute)
	if removed := s.cleanup(); removed != 1 {
		t.Errorf("cleanup removed %d, want 1", removed)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if _, ok := s.entries["fresh"]; !ok {
		t.Error("fresh session should survive cleanup")
	}
}

// activeSessions はレジストリから kbase_active_sessions の現在値を読む。
func activeSessions(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "kbase_active_sessions" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("kbase_active_sessions metric not found")
	return 0
}

func TestCleanup_LowersSessionGauge(t *testing.T) {
	s := newTestStore(t)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	reg := prometheus.NewRegistry()
	metrics.RegisterSessionGauge(reg, s.Count)

	identity := func(st filter.State) (filter.State, error) { return st, nil }
	for _, id := range []string{"a", "b", "c"} {
		s.Update(id, identity)
	}
	if got := activeSessions(t, reg); got != 3 {
		t.Fatalf("active_sessions = %v, want 3", got)
	}

	current = current.Add(2 * time.Hour)
	s.cleanup()

	if got := activeSessions(t, reg); got != 0 {
		t.Errorf("active_sessions after cleanup = %v, want 0", got)
	}
}

func TestCleanupLoop_LowersSessionGauge(t *testing.T) {
	s := NewStore(Config{MaxAge: 20 * time.Millisecond, CleanupInterval: 10 * time.Millisecond})
	t.Cleanup(s.Stop)

	reg := prometheus.NewRegistry()
	metrics.RegisterSessionGauge(reg, s.Count)

	identity := func(st filter.State) (filter.State, error) { return st, nil }
	for _, id := range []string{"a", "b", "c"} {
		s.Update(id, identity)
	}

	deadline := time.Now().Add(2 * time.Second)
	for activeSessions(t, reg) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("active_sessions = %v, want 0 after idle sessions expire", activeSessions(t, reg))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGet_RefreshesLastAccess(t *testing.T) {
	s := newTestStore(t)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Update("s1", func(st filter.State) (filter.State, error) { return st, nil })

	current = current.Add(50 * time.Minute)
	s.Get("s1")

	current = current.Add(50 * time.Minute)
	if removed := s.cleanup(); removed != 0 {
		t.Errorf("cleanup removed %d, want 0 after recent Get", removed)
	}
}

func TestStop_Idempotent(t *testing.T) {
	s := NewStore(Config{MaxAge: time.Minute, CleanupInterval: time.Millisecond})
	s.Stop()
	s.Stop()
}
