package history

import (
	"context"
	"errors"
	"sync"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"
)

var (
	// ErrUnauthorized is returned when there is no authenticated identity
	ErrUnauthorized = errors.New("authentication required for history")
	// ErrDeleteInFlight is returned when a delete of the same id is already running
	ErrDeleteInFlight = errors.New("delete already in progress for this entry")
	// ErrDeclined is returned when the user does not confirm a delete
	ErrDeclined = errors.New("delete not confirmed")
	// ErrStaleFetch is returned when a newer refresh superseded this one
	ErrStaleFetch = errors.New("history refresh superseded by a newer one")
)

// Backend lists and deletes saved analyses
type Backend interface {
	List(ctx context.Context, token string) ([]types.HistoryEntry, error)
	Delete(ctx context.Context, token string, id int64) error
}

// Confirmer asks the user to confirm deleting entry id
type Confirmer func(id int64) bool

// Sync keeps a local copy of the saved analyses in step with the server.
// Every successful mutation bumps the version, and every version change
// refreshes the list.
type Sync struct {
	mu          sync.Mutex
	backend     Backend
	token       string
	version     uint64
	fetchSeq    uint64
	entries     []types.HistoryEntry
	inFlight    map[int64]struct{}
	subscribers []chan uint64
	logger      *resumeforgeErrors.Logger
}

// NewSync creates a history sync with no identity
func NewSync(backend Backend, logger *resumeforgeErrors.Logger) *Sync {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}
	return &Sync{
		backend:  backend,
		inFlight: make(map[int64]struct{}),
		logger:   logger,
	}
}

// Version returns the current version; it starts at 0
func (s *Sync) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Entries returns a copy of the held list
func (s *Sync) Entries() []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.HistoryEntry(nil), s.entries...)
}

// Find returns the held entry with id
func (s *Sync) Find(id int64) (types.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return types.HistoryEntry{}, false
}

// Subscribe returns a channel receiving every new version. Slow readers
// miss intermediate versions rather than blocking Bump.
func (s *Sync) Subscribe() <-chan uint64 {
	ch := make(chan uint64, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// Start performs the initial refresh
func (s *Sync) Start(ctx context.Context) error {
	return s.Refresh(ctx)
}

// SetIdentity switches the bearer token and refreshes. An empty token means
// a guest or signed-out user.
func (s *Sync) SetIdentity(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Bump records a successful mutation, notifies subscribers and refreshes
func (s *Sync) Bump(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	s.version++
	version := s.version
	for _, ch := range s.subscribers {
		select {
		case ch <- version:
		default:
			// drop the stale pending version, keep the newest
			select {
			case <-ch:
			default:
			}
			ch <- version
		}
	}
	s.mu.Unlock()

	return version, s.Refresh(ctx)
}

// Refresh replaces the held list with the server's. When several refreshes
// overlap only the most recently started one is applied.
func (s *Sync) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	token := s.token
	if token == "" {
		s.entries = nil
		s.mu.Unlock()
		return ErrUnauthorized
	}
	s.mu.Unlock()

	entries, err := s.backend.List(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		s.logger.Debug("Discarding superseded history refresh", "seq", seq, "latest", s.fetchSeq)
		return ErrStaleFetch
	}
	if err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// Delete removes entry id after confirm approves it
func (s *Sync) Delete(ctx context.Context, id int64, confirm Confirmer) error {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.mu.Unlock()
		return ErrUnauthorized
	}
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return ErrDeleteInFlight
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}()

	if confirm == nil || !confirm(id) {
		return ErrDeclined
	}

	if err := s.backend.Delete(ctx, token, id); err != nil {
		return err
	}

	if _, err := s.Bump(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
		s.logger.Warn("History refresh after delete failed", "id", id, "error", err.Error())
	}
	return nil
}
