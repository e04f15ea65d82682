// Package service holds the application logic between the HTTP layer and the
// store: persona lifecycle and versioning, session management, and the chat
// turn pipeline.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-persona-chat/backend/internal/emotion"
	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/moderation"
	"ai-persona-chat/backend/internal/store"
	apperrors "ai-persona-chat/backend/pkg/errors"
	"ai-persona-chat/backend/pkg/logger"
)

// PersonaService implements persona CRUD, version history, restore and diff.
type PersonaService struct {
	store  store.Store
	filter *moderation.Filter
	log    *logger.Logger
	now    func() time.Time
}

// NewPersonaService wires a persona service. A nil filter disables content
// sanitization (tests only).
func NewPersonaService(s store.Store, filter *moderation.Filter, log *logger.Logger) *PersonaService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &PersonaService{store: s, filter: filter, log: log, now: time.Now}
}

// Create validates and persists a new persona together with its version 1,
// atomically. Text fields pass through the content filter; missing tone and
// reaction map get defaults.
func (s *PersonaService) Create(ctx context.Context, req models.CreatePersonaRequest) (*models.Persona, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return nil, apperrors.NewValidationError("systemPrompt is required")
	}

	snap := models.Snapshot{
		Name:          s.sanitize(req.Name),
		Avatar:        req.Avatar,
		Tags:          req.Tags,
		Description:   s.sanitize(req.Description),
		SystemPrompt:  s.sanitize(req.SystemPrompt),
		StyleGuide:    s.sanitize(req.StyleGuide),
		Dos:           req.Dos,
		Donts:         req.Donts,
		SafetyAdapter: req.SafetyAdapter,
		FewShots:      req.FewShots,
		ReactionMap:   req.ReactionMap,
	}
	if req.Tone != nil {
		snap.Tone = *req.Tone
	} else {
		snap.Tone = models.DefaultTone()
	}
	if len(snap.ReactionMap) == 0 {
		snap.ReactionMap = models.EmojiMap(emotion.DefaultEmojiMap())
	}

	now := s.now()
	p := &models.Persona{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		IsPublic:  req.IsPublic,
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v := &models.PersonaVersion{
		ID:        uuid.NewString(),
		PersonaID: p.ID,
		Version:   1,
		Snapshot:  snap,
		ChangeLog: "初始版本",
		CreatedAt: now,
	}

	if err := s.store.CreatePersona(ctx, p, v); err != nil {
		return nil, apperrors.NewStorageError("create persona").WithCause(err)
	}

	s.log.Info("persona created", "persona_id", p.ID, "name", p.Name)
	return p, nil
}

// Get fetches one persona by id.
func (s *PersonaService) Get(ctx context.Context, id string) (*models.Persona, error) {
	p, err := s.store.GetPersona(ctx, id)
	if errors.Is(err, store.ErrPersonaNotFound) {
		return nil, apperrors.NewNotFoundError("persona not found")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get persona").WithCause(err)
	}
	return p, nil
}

// List returns personas matching the filter, oldest first.
func (s *PersonaService) List(ctx context.Context, filter models.PersonaFilter) ([]models.Persona, error) {
	personas, err := s.store.ListPersonas(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageError("list personas").WithCause(err)
	}
	return personas, nil
}

// Update applies a partial patch. Patches touching systemPrompt, tone,
// fewShots or styleGuide append a new version; cosmetic patches update the
// persona in place.
func (s *PersonaService) Update(ctx context.Context, id string, req models.UpdatePersonaRequest) (*models.Persona, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(p, &req, s.filter)
	p.UpdatedAt = s.now()

	if req.Versioned() {
		next, err := s.store.MaxVersion(ctx, id)
		if err != nil {
			return nil, apperrors.NewStorageError("resolve next version").WithCause(err)
		}
		changeLog := req.ChangeLog
		if changeLog == "" {
			changeLog = "更新配置"
		}
		v := &models.PersonaVersion{
			ID:        uuid.NewString(),
			PersonaID: id,
			Version:   next + 1,
			Snapshot:  p.Snapshot,
			ChangeLog: changeLog,
			CreatedAt: p.UpdatedAt,
		}
		if err := s.store.CreateVersion(ctx, v); err != nil {
			return nil, apperrors.NewStorageError("create version").WithCause(err)
		}
	}

	if err := s.store.UpdatePersona(ctx, p); err != nil {
		return nil, apperrors.NewStorageError("update persona").WithCause(err)
	}
	return p, nil
}

// Delete removes a persona and everything hanging off it.
func (s *PersonaService) Delete(ctx context.Context, id string) error {
	err := s.store.DeletePersona(ctx, id)
	if errors.Is(err, store.ErrPersonaNotFound) {
		return apperrors.NewNotFoundError("persona not found")
	}
	if err != nil {
		return apperrors.NewStorageError("delete persona").WithCause(err)
	}
	s.log.Info("persona deleted", "persona_id", id)
	return nil
}

// ListVersions returns the persona's version history, newest first.
func (s *PersonaService) ListVersions(ctx context.Context, id string) ([]models.PersonaVersion, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.store.ListVersions(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("list versions").WithCause(err)
	}
	return versions, nil
}

// Restore appends a new version whose content equals the named historical
// version, and makes it the persona's live configuration. History is never
// rewritten.
func (s *PersonaService) Restore(ctx context.Context, id string, version int) (*models.Persona, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	old, err := s.store.GetVersion(ctx, id, version)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, apperrors.NewNotFoundError("version not found")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get version").WithCause(err)
	}

	next, err := s.store.MaxVersion(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("resolve next version").WithCause(err)
	}

	now := s.now()
	v := &models.PersonaVersion{
		ID:        uuid.NewString(),
		PersonaID: id,
		Version:   next + 1,
		Snapshot:  old.Snapshot,
		ChangeLog: "恢复到版本 " + strconv.Itoa(version),
		CreatedAt: now,
	}
	if err := s.store.CreateVersion(ctx, v); err != nil {
		return nil, apperrors.NewStorageError("create version").WithCause(err)
	}

	p.Snapshot = old.Snapshot
	p.UpdatedAt = now
	if err := s.store.UpdatePersona(ctx, p); err != nil {
		return nil, apperrors.NewStorageError("update persona").WithCause(err)
	}

	s.log.Info("persona restored", "persona_id", id, "from_version", version, "new_version", v.Version)
	return p, nil
}

// DiffVersions computes the field-level diff between two stored versions.
func (s *PersonaService) DiffVersions(ctx context.Context, id string, from, to int) ([]models.FieldDiff, error) {
	a, err := s.store.GetVersion(ctx, id, from)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, apperrors.NewNotFoundError("version not found")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get version").WithCause(err)
	}
	b, err := s.store.GetVersion(ctx, id, to)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, apperrors.NewNotFoundError("version not found")
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get version").WithCause(err)
	}
	return Diff(a.Snapshot, b.Snapshot), nil
}

func (s *PersonaService) sanitize(text string) string {
	if s.filter == nil {
		return text
	}
	return s.filter.Sanitize(text)
}

// applyPatch copies non-nil request fields onto the persona, sanitizing
// free-text fields on the way.
func applyPatch(p *models.Persona, req *models.UpdatePersonaRequest, filter *moderation.Filter) {
	clean := func(s string) string {
		if filter == nil {
			return s
		}
		return filter.Sanitize(s)
	}

	if req.Name != nil {
		p.Name = clean(*req.Name)
	}
	if req.Avatar != nil {
		p.Avatar = *req.Avatar
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.Description != nil {
		p.Description = clean(*req.Description)
	}
	if req.SystemPrompt != nil {
		p.SystemPrompt = clean(*req.SystemPrompt)
	}
	if req.Tone != nil {
		p.Tone = *req.Tone
	}
	if req.StyleGuide != nil {
		p.StyleGuide = clean(*req.StyleGuide)
	}
	if req.Dos != nil {
		p.Dos = *req.Dos
	}
	if req.Donts != nil {
		p.Donts = *req.Donts
	}
	if req.SafetyAdapter != nil {
		p.SafetyAdapter = *req.SafetyAdapter
	}
	if req.FewShots != nil {
		p.FewShots = *req.FewShots
	}
	if req.ReactionMap != nil {
		p.ReactionMap = *req.ReactionMap
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
}

