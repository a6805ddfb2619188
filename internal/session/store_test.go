package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/revenue-copilot/models"
)

type fakeSnapshotter struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeSnapshotter() *fakeSnapshotter {
	return &fakeSnapshotter{saved: make(map[string][]byte)}
}

func (f *fakeSnapshotter) SaveSession(userID string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[userID] = append([]byte(nil), data...)
	return nil
}

func (f *fakeSnapshotter) LoadSession(userID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[userID], nil
}

func (f *fakeSnapshotter) has(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved[userID]) > 0
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestWithSession_CreatesOnFirstContact(t *testing.T) {
	s := NewStore(DefaultConfig(), nil, nil)

	s.WithSession("u1", func(sess *models.Session) {
		if sess.UserID != "u1" {
			t.Errorf("UserID = %q, want u1", sess.UserID)
		}
		sess.Entities.Company = "Acme"
	})

	got, ok := s.Peek("u1")
	if !ok {
		t.Fatal("session missing after WithSession")
	}
	if got.Entities.Company != "Acme" {
		t.Errorf("mutation lost: %+v", got.Entities)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestPeek_NeverCreates(t *testing.T) {
	s := NewStore(DefaultConfig(), nil, nil)
	if _, ok := s.Peek("ghost"); ok {
		t.Error("Peek created a session")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestWithSession_SerializesSameUser(t *testing.T) {
	s := NewStore(DefaultConfig(), nil, nil)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.WithSession("u1", func(sess *models.Session) {
				sess.AppendTurn(models.Turn{
					Text:      fmt.Sprintf("message %d", i),
					Intent:    models.IntentSmalltalk,
					Timestamp: time.Now(),
				}, s.MaxHistory())
			})
		}(i)
	}
	wg.Wait()

	got, _ := s.Peek("u1")
	if len(got.History) != n {
		t.Errorf("history length = %d, want %d (turns lost to a race)", len(got.History), n)
	}
}

func TestWithSession_HistoryBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 3
	s := NewStore(cfg, nil, nil)

	for i := 0; i < 5; i++ {
		i := i
		s.WithSession("u1", func(sess *models.Session) {
			sess.AppendTurn(models.Turn{Text: fmt.Sprintf("m%d", i)}, s.MaxHistory())
		})
	}

	got, _ := s.Peek("u1")
	if len(got.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(got.History))
	}
	// Oldest turns are the ones evicted.
	if got.History[0].Text != "m2" || got.History[2].Text != "m4" {
		t.Errorf("wrong turns survived: %q..%q", got.History[0].Text, got.History[2].Text)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := newFakeSnapshotter()

	s1 := NewStore(DefaultConfig(), snap, nil)
	s1.WithSession("u1", func(sess *models.Session) {
		sess.Entities.Company = "Acme"
		sess.LeadID = "lead-123"
	})
	waitFor(t, func() bool { return snap.has("u1") })

	// A fresh store (as after a restart) rehydrates from the snapshot.
	s2 := NewStore(DefaultConfig(), snap, nil)
	s2.WithSession("u1", func(sess *models.Session) {
		if sess.Entities.Company != "Acme" {
			t.Errorf("Company = %q, want Acme from snapshot", sess.Entities.Company)
		}
		if sess.LeadID != "lead-123" {
			t.Errorf("LeadID = %q, want lead-123 from snapshot", sess.LeadID)
		}
	})
}

func TestEvict(t *testing.T) {
	snap := newFakeSnapshotter()
	s := NewStore(DefaultConfig(), snap, nil)

	s.WithSession("u1", func(sess *models.Session) { sess.Entities.Name = "John" })
	s.Evict("u1")

	if s.Len() != 0 {
		t.Errorf("Len = %d after evict, want 0", s.Len())
	}
	if !snap.has("u1") {
		t.Error("evict did not persist a final snapshot")
	}

	// Evicting an unknown user is a no-op.
	s.Evict("ghost")
}

func TestSessionCapEvictsLeastRecent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSessions = 2
	s := NewStore(cfg, nil, nil)

	s.WithSession("old", func(*models.Session) {})
	time.Sleep(10 * time.Millisecond)
	s.WithSession("mid", func(*models.Session) {})
	time.Sleep(10 * time.Millisecond)
	s.WithSession("new", func(*models.Session) {})

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want cap of 2", s.Len())
	}
	if _, ok := s.Peek("old"); ok {
		t.Error("least recently active session survived the cap")
	}
	if _, ok := s.Peek("new"); !ok {
		t.Error("newest session was evicted")
	}
}

func TestEvictionUnderConcurrentDispatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSessions = 4
	s := NewStore(cfg, nil, nil)

	// Cap eviction scans run while other goroutines are mid-dispatch; the
	// race detector flags any unsynchronized activity-timestamp access here.
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				user := fmt.Sprintf("u%d", (g+i)%8)
				s.WithSession(user, func(sess *models.Session) {
					sess.AppendTurn(models.Turn{Text: "ping"}, s.MaxHistory())
				})
			}
		}(g)
	}
	wg.Wait()

	if n := s.Len(); n == 0 || n > 8 {
		t.Errorf("Len = %d, want between 1 and 8 after concurrent eviction", n)
	}

	// The store still dispatches cleanly afterwards.
	s.WithSession("after", func(sess *models.Session) {
		sess.AppendTurn(models.Turn{Text: "pong"}, s.MaxHistory())
	})
	got, ok := s.Peek("after")
	if !ok || len(got.History) != 1 {
		t.Errorf("post-eviction dispatch broken: ok=%v history=%d", ok, len(got.History))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewStore(DefaultConfig(), nil, nil)
	s.StartSweeper()
	s.Close()
	s.Close()
}
