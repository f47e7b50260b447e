package workflow

import (
	"context"
	"errors"
	"fmt"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/history"
)

// Session ties an identity to its workflow engine and history
type Session struct {
	Engine  *Engine
	History *history.Sync
	logger  *resumeforgeErrors.Logger
}

// NewSession creates a session for a guest until SetIdentity is called
func NewSession(deps Collaborators, guest Identity, logger *resumeforgeErrors.Logger) *Session {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}
	engine := NewEngine(deps, logger)
	engine.SetIdentity(guest)
	return &Session{
		Engine:  engine,
		History: history.NewSync(deps.Persistence, logger),
		logger:  logger,
	}
}

// SetIdentity switches identity and refreshes history. Guests get an empty
// history with history.ErrUnauthorized.
func (s *Session) SetIdentity(ctx context.Context, id Identity) error {
	s.Engine.SetIdentity(id)
	return s.History.SetIdentity(ctx, id.BearerToken())
}

// Save stores the current analysis and bumps the history version
func (s *Session) Save(ctx context.Context, jobTitleOverride string) (int64, error) {
	id, err := s.Engine.Save(ctx, jobTitleOverride)
	if err != nil {
		return 0, err
	}
	if _, err := s.History.Bump(ctx); err != nil && !errors.Is(err, history.ErrStaleFetch) {
		s.logger.Warn("History refresh after save failed", "id", id, "error", err.Error())
	}
	return id, nil
}

// Delete removes a saved analysis after confirmation
func (s *Session) Delete(ctx context.Context, id int64, confirm history.Confirmer) error {
	return s.History.Delete(ctx, id, confirm)
}

// Load restores a held history entry into the engine
func (s *Session) Load(id int64) error {
	entry, ok := s.History.Find(id)
	if !ok {
		return fmt.Errorf("history entry %d not found", id)
	}
	return s.Engine.LoadHistoryEntry(entry)
}
