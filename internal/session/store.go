// Package session owns per-user conversational state. The store hands out
// exclusive access to one session at a time per user id, so dispatches for
// the same user are strictly serialized while different users proceed in
// parallel.
package session

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/models"
)

// Snapshotter persists session snapshots. Failures are logged and never
// surfaced to the caller; persistence is best effort.
type Snapshotter interface {
	SaveSession(userID string, data []byte) error
	LoadSession(userID string) ([]byte, error)
}

// Config bounds the store.
type Config struct {
	MaxHistory    int           `mapstructure:"max_history"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// DefaultConfig returns the default session bounds.
func DefaultConfig() Config {
	return Config{
		MaxHistory:    50,
		MaxSessions:   10_000,
		TTL:           24 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}

type entry struct {
	mu      sync.Mutex
	session *models.Session

	// lastActive mirrors session.LastActivity as unix nanos so the cap and
	// TTL scans can read it without taking mu.
	lastActive atomic.Int64
}

func (e *entry) touch(t time.Time) {
	e.session.LastActivity = t
	e.lastActive.Store(t.UnixNano())
}

// Store keeps one session per user id with per-key exclusivity.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	cfg     Config
	snap    Snapshotter
	logger  *zap.Logger
	done    chan struct{}
	once    sync.Once
}

// NewStore creates a session store. snap may be nil to disable persistence.
func NewStore(cfg Config, snap Snapshotter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultConfig().MaxHistory
	}
	return &Store{
		entries: make(map[string]*entry),
		cfg:     cfg,
		snap:    snap,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// MaxHistory exposes the configured history bound for callers appending turns.
func (s *Store) MaxHistory() int { return s.cfg.MaxHistory }

// WithSession runs fn with exclusive access to the user's session, creating
// it on first contact. The per-key lock is held for the whole of fn, which
// is what serializes same-user dispatches. A snapshot is written
// asynchronously after fn returns.
func (s *Store) WithSession(userID string, fn func(*models.Session)) {
	e := s.getOrCreate(userID)

	e.mu.Lock()
	e.touch(time.Now())
	fn(e.session)
	snapshot := *e.session
	snapshot.History = append([]models.Turn(nil), e.session.History...)
	e.mu.Unlock()

	if s.snap != nil {
		go s.save(&snapshot)
	}
}

// Peek returns a copy of the user's session, or false if none exists yet.
// It never creates a session.
func (s *Store) Peek(userID string) (models.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return models.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := *e.session
	snapshot.History = append([]models.Turn(nil), e.session.History...)
	return snapshot, true
}

// Evict removes the user's session, saving a final snapshot first. It takes
// the session's own lock so an in-flight dispatch is never evicted mid-turn.
func (s *Store) Evict(userID string) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	if s.snap != nil {
		s.save(e.session)
	}
	e.mu.Unlock()

	s.mu.Lock()
	if cur, ok := s.entries[userID]; ok && cur == e {
		delete(s.entries, userID)
	}
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper launches the background TTL sweep. Close stops it.
func (s *Store) StartSweeper() {
	if s.cfg.SweepInterval <= 0 || s.cfg.TTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Close stops the background sweeper.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) getOrCreate(userID string) *entry {
	s.mu.Lock()
	if e, ok := s.entries[userID]; ok {
		s.mu.Unlock()
		return e
	}

	sess := s.load(userID)
	if sess == nil {
		now := time.Now()
		sess = &models.Session{
			UserID:       userID,
			History:      make([]models.Turn, 0, s.cfg.MaxHistory),
			CreatedAt:    now,
			LastActivity: now,
		}
	}
	e := &entry{session: sess}
	e.lastActive.Store(sess.LastActivity.UnixNano())
	s.entries[userID] = e

	var evictID string
	if s.cfg.MaxSessions > 0 && len(s.entries) > s.cfg.MaxSessions {
		evictID = s.leastRecentLocked(userID)
	}
	s.mu.Unlock()

	if evictID != "" {
		s.logger.Info("session cap reached, evicting least recently active",
			zap.String("evicted_user", evictID))
		s.Evict(evictID)
	}
	return e
}

// leastRecentLocked finds the least recently active session other than the
// one just created. Caller holds s.mu.
func (s *Store) leastRecentLocked(exclude string) string {
	var oldest string
	var oldestAt int64
	for id, e := range s.entries {
		if id == exclude {
			continue
		}
		if at := e.lastActive.Load(); oldest == "" || at < oldestAt {
			oldest = id
			oldestAt = at
		}
	}
	return oldest
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.cfg.TTL).UnixNano()

	s.mu.Lock()
	var stale []string
	for id, e := range s.entries {
		if e.lastActive.Load() < cutoff {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.mu.Lock()
		e, ok := s.entries[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		// Re-check in case a dispatch touched the session after the scan.
		if e.lastActive.Load() < cutoff {
			s.logger.Debug("evicting idle session", zap.String("user_id", id))
			s.Evict(id)
		}
	}
}

func (s *Store) save(sess *models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Warn("failed to marshal session snapshot",
			zap.String("user_id", sess.UserID), zap.Error(err))
		return
	}
	if err := s.snap.SaveSession(sess.UserID, data); err != nil {
		s.logger.Warn("failed to persist session snapshot",
			zap.String("user_id", sess.UserID), zap.Error(err))
	}
}

func (s *Store) load(userID string) *models.Session {
	if s.snap == nil {
		return nil
	}
	data, err := s.snap.LoadSession(userID)
	if err != nil || len(data) == 0 {
		return nil
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("discarding corrupt session snapshot",
			zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return &sess
}
