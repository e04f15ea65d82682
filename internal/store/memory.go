package store

import (
	"context"
	"sort"
	"sync"

	"ai-persona-chat/backend/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and local
// development runs where no postgres is available; data does not survive a
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	personas map[string]models.Persona
	versions map[string][]models.PersonaVersion
	sessions map[string]models.Session
	messages map[string][]models.Message
	metrics  map[string][]models.PersonaMetric
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		personas: make(map[string]models.Persona),
		versions: make(map[string][]models.PersonaVersion),
		sessions: make(map[string]models.Session),
		messages: make(map[string][]models.Message),
		metrics:  make(map[string][]models.PersonaMetric),
	}
}

func (s *MemoryStore) CreatePersona(_ context.Context, p *models.Persona, v *models.PersonaVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[p.ID] = *p
	s.versions[p.ID] = append(s.versions[p.ID], *v)
	return nil
}

func (s *MemoryStore) GetPersona(_ context.Context, id string) (*models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[id]
	if !ok {
		return nil, ErrPersonaNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListPersonas(_ context.Context, filter models.PersonaFilter) ([]models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		if filter.PublicOnly && !p.IsPublic {
			continue
		}
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdatePersona(_ context.Context, p *models.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[p.ID]; !ok {
		return ErrPersonaNotFound
	}
	s.personas[p.ID] = *p
	return nil
}

func (s *MemoryStore) DeletePersona(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[id]; !ok {
		return ErrPersonaNotFound
	}
	delete(s.personas, id)
	delete(s.versions, id)
	delete(s.metrics, id)
	return nil
}

func (s *MemoryStore) CountPersonas(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.personas)), nil
}

func (s *MemoryStore) CreateVersion(_ context.Context, v *models.PersonaVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[v.PersonaID] = append(s.versions[v.PersonaID], *v)
	return nil
}

func (s *MemoryStore) ListVersions(_ context.Context, personaID string) ([]models.PersonaVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.PersonaVersion(nil), s.versions[personaID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (s *MemoryStore) GetVersion(_ context.Context, personaID string, version int) (*models.PersonaVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[personaID] {
		if v.Version == version {
			return &v, nil
		}
	}
	return nil, ErrVersionNotFound
}

func (s *MemoryStore) MaxVersion(_ context.Context, personaID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, v := range s.versions[personaID] {
		if v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, personaID string) ([]models.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SessionSummary
	for _, sess := range s.sessions {
		if personaID != "" && sess.PersonaID != personaID {
			continue
		}
		summary := models.SessionSummary{
			Session:      sess,
			MessageCount: int64(len(s.messages[sess.ID])),
		}
		if p, ok := s.personas[sess.PersonaID]; ok {
			summary.PersonaName = p.Name
			summary.PersonaAvatar = p.Avatar
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sessions[sess.ID]
	if !ok {
		return ErrSessionNotFound
	}
	existing.Title = sess.Title
	existing.UpdatedAt = sess.UpdatedAt
	s.sessions[sess.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.SessionID] = append(s.messages[m.SessionID], *m)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.Message(nil), s.messages[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateMetric(_ context.Context, m *models.PersonaMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[m.PersonaID] = append(s.metrics[m.PersonaID], *m)
	return nil
}

func (s *MemoryStore) ListMetrics(_ context.Context, personaID string, limit int) ([]models.PersonaMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.PersonaMetric(nil), s.metrics[personaID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
