package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/store"
	apperrors "ai-persona-chat/backend/pkg/errors"
)

// SessionService manages conversations and their message history.
type SessionService struct {
	store store.Store
	now   func() time.Time
}

func NewSessionService(s store.Store) *SessionService {
	return &SessionService{store: s, now: time.Now}
}

// Create starts a new conversation bound to an existing persona.
func (s *SessionService) Create(ctx context.Context, personaID, title string) (*models.Session, error) {
	if _, err := s.store.GetPersona(ctx, personaID); err != nil {
		if errors.Is(err, store.ErrPersonaNotFound) {
			return nil, apperrors.NewNotFoundError("persona not found")
		}
		return nil, apperrors.NewStorageError("get persona").WithCause(err)
	}

	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, apperrors.NewStorageError("create session").WithCause(err)
	}
	return sess, nil
}

// Get fetches one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get session").WithCause(err)
	}
	return sess, nil
}

// List returns session summaries, most recently active first. An empty
// personaID lists all sessions.
func (s *SessionService) List(ctx context.Context, personaID string) ([]models.SessionSummary, error) {
	summaries, err := s.store.ListSessions(ctx, personaID)
	if err != nil {
		return nil, apperrors.NewStorageError("list sessions").WithCause(err)
	}
	return summaries, nil
}

// Rename updates a session's title.
func (s *SessionService) Rename(ctx context.Context, id, title string) (*models.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Title = title
	sess.UpdatedAt = s.now()
	if err := s.store.UpdateSession(ctx, sess); err != nil {
		return nil, apperrors.NewStorageError("update session").WithCause(err)
	}
	return sess, nil
}

// Delete removes a session and its messages.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteSession(ctx, id)
	if errors.Is(err, store.ErrSessionNotFound) {
		return apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return apperrors.NewStorageError("delete session").WithCause(err)
	}
	return nil
}

// Messages returns a session's full transcript, oldest first.
func (s *SessionService) Messages(ctx context.Context, id string) ([]models.Message, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("list messages").WithCause(err)
	}
	return messages, nil
}
