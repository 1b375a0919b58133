package memory

import (
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *time.Time) {
	t.Helper()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestAppendAndLoad(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{})
	s.Append("owner-1", "t1", Turn{Role: "user", Content: "hi"}, Turn{Role: "assistant", Content: "hello"})
	s.Append("owner-1", "t1", Turn{Role: "user", Content: "jobs?"})

	got := s.Load("owner-1", "t1")
	if len(got) != 3 || got[0].Content != "hi" || got[2].Content != "jobs?" {
		t.Fatalf("unexpected turns: %+v", got)
	}

	got[0].Content = "mutated"
	if s.Load("owner-1", "t1")[0].Content != "hi" {
		t.Fatalf("Load must return a copy")
	}
}

func TestThreadsAreScopedByOwner(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{})
	s.Append("owner-1", "shared", Turn{Role: "user", Content: "secret"})

	if got := s.Load("owner-2", "shared"); got != nil {
		t.Fatalf("owner-2 must not see owner-1 thread, got %+v", got)
	}
	if got := s.Load("owner-1", ""); got != nil {
		t.Fatalf("empty thread must not be stored, got %+v", got)
	}
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(t, Config{TTL: time.Minute})
	s.Append("o", "t", Turn{Role: "user", Content: "hi"})

	*clock = clock.Add(59 * time.Second)
	if len(s.Load("o", "t")) != 1 {
		t.Fatalf("expected entry before ttl")
	}

	*clock = clock.Add(2 * time.Second)
	if got := s.Load("o", "t"); got != nil {
		t.Fatalf("expected entry to expire, got %+v", got)
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry should be evicted, len=%d", s.Len())
	}
}

func TestMaxTurnsAndSize(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t, Config{Size: 2, MaxTurns: 3})
	for i := 0; i < 5; i++ {
		s.Append("o", "t", Turn{Role: "user", Content: fmt.Sprint(i)})
	}

	got := s.Load("o", "t")
	if len(got) != 3 || got[0].Content != "2" {
		t.Fatalf("expected last three turns, got %+v", got)
	}

	s.Append("o", "t2", Turn{Content: "x"})
	s.Append("o", "t3", Turn{Content: "y"})
	if s.Len() != 2 {
		t.Fatalf("expected cache bounded to 2, got %d", s.Len())
	}
	if s.Load("o", "t") != nil {
		t.Fatalf("least recently used thread should be evicted")
	}

	s.Forget("o", "t3")
	if s.Load("o", "t3") != nil {
		t.Fatalf("forgotten thread still present")
	}
}
