package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ai-persona-chat/backend/internal/models"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&models.Persona{},
		&models.PersonaVersion{},
		&models.Session{},
		&models.Message{},
		&models.PersonaMetric{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreatePersona(ctx context.Context, p *models.Persona, v *models.PersonaVersion) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(v).Error
	})
}

func (s *GormStore) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	var p models.Persona
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPersonaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListPersonas(ctx context.Context, filter models.PersonaFilter) ([]models.Persona, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if filter.PublicOnly {
		q = q.Where("is_public = ?", true)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var personas []models.Persona
	if err := q.Find(&personas).Error; err != nil {
		return nil, err
	}
	return personas, nil
}

func (s *GormStore) UpdatePersona(ctx context.Context, p *models.Persona) error {
	result := s.db.WithContext(ctx).Model(&models.Persona{}).Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").Updates(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPersonaNotFound
	}
	return nil
}

func (s *GormStore) DeletePersona(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Persona{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPersonaNotFound
		}

		// Sessions reference the persona loosely for display only and are
		// left in place; only owned rows cascade.
		if err := tx.Delete(&models.PersonaVersion{}, "persona_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PersonaMetric{}, "persona_id = ?", id).Error
	})
}

func (s *GormStore) CountPersonas(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Persona{}).Count(&count).Error
	return count, err
}

func (s *GormStore) CreateVersion(ctx context.Context, v *models.PersonaVersion) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) ListVersions(ctx context.Context, personaID string) ([]models.PersonaVersion, error) {
	var versions []models.PersonaVersion
	err := s.db.WithContext(ctx).
		Where("persona_id = ?", personaID).
		Order("version DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *GormStore) GetVersion(ctx context.Context, personaID string, version int) (*models.PersonaVersion, error) {
	var v models.PersonaVersion
	err := s.db.WithContext(ctx).
		First(&v, "persona_id = ? AND version = ?", personaID, version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *GormStore) MaxVersion(ctx context.Context, personaID string) (int, error) {
	var max int
	err := s.db.WithContext(ctx).Model(&models.PersonaVersion{}).
		Where("persona_id = ?", personaID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max, err
}

func (s *GormStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *GormStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *GormStore) ListSessions(ctx context.Context, personaID string) ([]models.SessionSummary, error) {
	q := s.db.WithContext(ctx).Table("sessions").
		Select(`sessions.*,
			(SELECT COUNT(*) FROM messages WHERE messages.session_id = sessions.id) AS message_count,
			personas.name AS persona_name,
			personas.avatar AS persona_avatar`).
		Joins("LEFT JOIN personas ON personas.id = sessions.persona_id").
		Order("sessions.updated_at DESC")
	if personaID != "" {
		q = q.Where("sessions.persona_id = ?", personaID)
	}

	var summaries []models.SessionSummary
	if err := q.Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *GormStore) UpdateSession(ctx context.Context, sess *models.Session) error {
	result := s.db.WithContext(ctx).Model(&models.Session{}).Where("id = ?", sess.ID).
		Updates(map[string]any{"title": sess.Title, "updated_at": sess.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *GormStore) DeleteSession(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Session{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return tx.Delete(&models.Message{}, "session_id = ?", id).Error
	})
}

func (s *GormStore) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) CreateMetric(ctx context.Context, m *models.PersonaMetric) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) ListMetrics(ctx context.Context, personaID string, limit int) ([]models.PersonaMetric, error) {
	q := s.db.WithContext(ctx).
		Where("persona_id = ?", personaID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var metrics []models.PersonaMetric
	if err := q.Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}
