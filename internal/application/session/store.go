package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/event"
)

// ErrSessionNotFound is returned for unknown or expired session IDs
var ErrSessionNotFound = errors.New("session not found")

// StoreConfig holds session store settings
type StoreConfig struct {
	// IdleTTL ends sessions that have not been accessed for this long; 0 disables expiry
	IdleTTL time.Duration
}

// Store keeps live sessions in memory, keyed by UUID
type Store struct {
	config     StoreConfig
	catalog    *entity.Catalog
	defaults   Defaults
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// StoreOption configures the store
type StoreOption func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithDispatcher sets the dispatcher that receives session events
func WithDispatcher(d dispatcher.Dispatcher) StoreOption {
	return func(s *Store) {
		s.dispatcher = d
	}
}

// WithLogger sets the store logger
func WithLogger(logger Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty session store
func NewStore(config StoreConfig, catalog *entity.Catalog, defaults Defaults, opts ...StoreOption) *Store {
	s := &Store{
		config:   config,
		catalog:  catalog,
		defaults: defaults,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a session seeded with the configured defaults and runs the
// one-time date backfill
func (s *Store) Create(ctx context.Context) *Session {
	now := s.now()
	return s.start(ctx, NewInvoiceData(s.defaults, now), now)
}

// CreateFrom starts a session from an existing draft. Empty dates are backfilled,
// the discount is clamped and a tier outside its category is cleared.
func (s *Store) CreateFrom(ctx context.Context, data entity.InvoiceData) *Session {
	data.ServiceSelection = NormalizeSelection(s.catalog, data.ServiceSelection, data.ServiceSelection)
	return s.start(ctx, data, s.now())
}

func (s *Store) start(ctx context.Context, data entity.InvoiceData, now time.Time) *Session {
	sess := newSession(uuid.NewString(), data, s.catalog, s.dispatcher, s.logger, now)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Session created", "session_id", sess.id)
	}
	sess.notify(ctx, event.TypeInvoiceCreated, nil)
	sess.BackfillDates(ctx, now)
	return sess
}

// Get returns a live session and refreshes its idle timer
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if s.expired(sess, now) {
		s.end(context.Background(), id, "expired")
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete ends a session
func (s *Store) Delete(ctx context.Context, id string) error {
	if !s.end(ctx, id, "deleted") {
		return ErrSessionNotFound
	}
	return nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep ends every idle session and returns how many were removed
func (s *Store) Sweep(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if s.end(ctx, id, "expired") {
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.config.IdleTTL <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 && s.logger != nil {
				s.logger.Info("Expired idle sessions", "count", n)
			}
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	if s.config.IdleTTL <= 0 {
		return false
	}
	return now.Sub(sess.idleSince()) > s.config.IdleTTL
}

func (s *Store) end(ctx context.Context, id, reason string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	sess.notify(ctx, event.TypeSessionEnded, map[string]interface{}{"reason": reason})
	return true
}
