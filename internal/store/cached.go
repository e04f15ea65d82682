package store

import (
	"context"
	"encoding/json"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/pkg/cache"
)

const personaCacheTTL = 5 * time.Minute

// Cached decorates a Store with read-through caching for persona lookups,
// the hottest read in the chat pipeline. Writes invalidate. Cache failures
// degrade to the underlying store silently.
type Cached struct {
	Store
	cache cache.Cache
}

// NewCached wraps inner with a persona cache.
func NewCached(inner Store, c cache.Cache) *Cached {
	return &Cached{Store: inner, cache: c}
}

func personaKey(id string) string { return "persona:" + id }

func (s *Cached) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	if data, err := s.cache.Get(ctx, personaKey(id)); err == nil {
		var p models.Persona
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
	}

	p, err := s.Store.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, personaKey(id), data, personaCacheTTL)
	}
	return p, nil
}

func (s *Cached) UpdatePersona(ctx context.Context, p *models.Persona) error {
	if err := s.Store.UpdatePersona(ctx, p); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, personaKey(p.ID))
	return nil
}

func (s *Cached) DeletePersona(ctx context.Context, id string) error {
	if err := s.Store.DeletePersona(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, personaKey(id))
	return nil
}
