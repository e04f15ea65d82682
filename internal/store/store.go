// Package store defines the persistence boundary. Two implementations exist:
// a gorm/postgres store for production and an in-memory store for tests and
// local development without a database.
package store

import (
	"context"
	"errors"

	"ai-persona-chat/backend/internal/models"
)

// Sentinel errors returned by all implementations. Callers match with
// errors.Is and translate to transport errors at the API layer.
var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrVersionNotFound = errors.New("persona version not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the persistence interface for personas, versions, sessions,
// messages and metrics.
type Store interface {
	// CreatePersona persists a new persona together with its initial
	// version in one atomic operation.
	CreatePersona(ctx context.Context, p *models.Persona, v *models.PersonaVersion) error
	GetPersona(ctx context.Context, id string) (*models.Persona, error)
	ListPersonas(ctx context.Context, filter models.PersonaFilter) ([]models.Persona, error)
	UpdatePersona(ctx context.Context, p *models.Persona) error
	// DeletePersona removes the persona and cascades to its owned rows,
	// versions and metrics. Sessions reference personas loosely and
	// survive.
	DeletePersona(ctx context.Context, id string) error
	CountPersonas(ctx context.Context) (int64, error)

	CreateVersion(ctx context.Context, v *models.PersonaVersion) error
	// ListVersions returns versions newest-first.
	ListVersions(ctx context.Context, personaID string) ([]models.PersonaVersion, error)
	GetVersion(ctx context.Context, personaID string, version int) (*models.PersonaVersion, error)
	// MaxVersion returns 0 for a persona with no versions.
	MaxVersion(ctx context.Context, personaID string) (int, error)

	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	// ListSessions returns summaries most-recently-active first, optionally
	// narrowed to one persona.
	ListSessions(ctx context.Context, personaID string) ([]models.SessionSummary, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error

	// CreateMessage appends one turn; messages are never updated or
	// individually deleted.
	CreateMessage(ctx context.Context, m *models.Message) error
	// ListMessages returns a session's turns oldest-first.
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)

	CreateMetric(ctx context.Context, m *models.PersonaMetric) error
	ListMetrics(ctx context.Context, personaID string, limit int) ([]models.PersonaMetric, error)
}
