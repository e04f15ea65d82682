package models

import (
	"database/sql/driver"
	"time"
)

// ToneConfig holds the six persona tone sliders, each in [0,1].
type ToneConfig struct {
	Gentle   float64 `json:"gentle"`
	Direct   float64 `json:"direct"`
	Academic float64 `json:"academic"`
	Healing  float64 `json:"healing"`
	Humor    float64 `json:"humor"`
	Formal   float64 `json:"formal"`
}

func (t ToneConfig) Value() (driver.Value, error) { return jsonValue(t) }
func (t *ToneConfig) Scan(src any) error          { return jsonScan(t, src) }

// DefaultTone returns the neutral midpoint configuration.
func DefaultTone() ToneConfig {
	return ToneConfig{Gentle: 0.5, Direct: 0.5, Academic: 0.5, Healing: 0.5, Humor: 0.5, Formal: 0.5}
}

// FewShotExample is one (context?, user, assistant) triple used to steer
// generation.
type FewShotExample struct {
	ID        string `json:"id,omitempty"`
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	Context   string `json:"context,omitempty"`
}

// Snapshot holds the versionable content fields of a persona. A PersonaVersion
// is an immutable copy of these at a point in time.
type Snapshot struct {
	Name          string      `json:"name" gorm:"not null"`
	Avatar        string      `json:"avatar"`
	Tags          StringList  `json:"tags" gorm:"type:jsonb"`
	Description   string      `json:"description"`
	SystemPrompt  string      `json:"systemPrompt" gorm:"not null"`
	Tone          ToneConfig  `json:"tone" gorm:"type:jsonb"`
	StyleGuide    string      `json:"styleGuide,omitempty"`
	Dos           StringList  `json:"dos,omitempty" gorm:"type:jsonb"`
	Donts         StringList  `json:"donts,omitempty" gorm:"type:jsonb"`
	SafetyAdapter string      `json:"safetyAdapter,omitempty"`
	FewShots      FewShotList `json:"fewShots,omitempty" gorm:"type:jsonb"`
	ReactionMap   EmojiMap    `json:"reactionMap" gorm:"type:jsonb"`
}

// Persona is a named behavioral configuration for the assistant.
type Persona struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     string `json:"userId,omitempty" gorm:"index"`
	IsPublic   bool   `json:"isPublic" gorm:"default:false"`
	ShareToken string `json:"shareToken,omitempty"`

	Snapshot `gorm:"embedded"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PersonaVersion is an immutable snapshot of a persona's content fields.
// Version numbers for a persona are strictly increasing from 1 with no gaps.
type PersonaVersion struct {
	ID        string `json:"id" gorm:"primaryKey;type:uuid"`
	PersonaID string `json:"personaId" gorm:"index;not null"`
	Version   int    `json:"version" gorm:"not null"`

	Snapshot `gorm:"embedded"`

	ChangeLog string    `json:"changeLog"`
	CreatedAt time.Time `json:"createdAt"`
}

// PersonaMetric is a derived analytics snapshot written per preview/response
// event. Append-only, never mutated.
type PersonaMetric struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	PersonaID      string    `json:"personaId" gorm:"index;not null"`
	AdherenceScore float64   `json:"adherenceScore"`
	TokenCount     int       `json:"tokenCount"`
	WordCount      int       `json:"wordCount"`
	EmojiCount     int       `json:"emojiCount"`
	ParagraphCount int       `json:"paragraphCount"`
	ResponseTimeMs int64     `json:"responseTime"`
	Cost           float64   `json:"cost"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreatePersonaRequest carries the studio's create form fields.
type CreatePersonaRequest struct {
	Name          string            `json:"name" binding:"required"`
	Avatar        string            `json:"avatar"`
	Tags          []string          `json:"tags"`
	Description   string            `json:"description"`
	SystemPrompt  string            `json:"systemPrompt" binding:"required"`
	Tone          *ToneConfig       `json:"tone"`
	StyleGuide    string            `json:"styleGuide"`
	Dos           []string          `json:"dos"`
	Donts         []string          `json:"donts"`
	SafetyAdapter string            `json:"safetyAdapter"`
	FewShots      []FewShotExample  `json:"fewShots"`
	ReactionMap   map[string]string `json:"reactionMap"`
	IsPublic      bool              `json:"isPublic"`
	UserID        string            `json:"userId"`
}

// UpdatePersonaRequest is a partial patch; nil fields are left untouched.
// Touching systemPrompt, tone, fewShots or styleGuide appends a new version;
// cosmetic-only patches update the persona in place.
type UpdatePersonaRequest struct {
	Name          *string            `json:"name"`
	Avatar        *string            `json:"avatar"`
	Tags          *[]string          `json:"tags"`
	Description   *string            `json:"description"`
	SystemPrompt  *string            `json:"systemPrompt"`
	Tone          *ToneConfig        `json:"tone"`
	StyleGuide    *string            `json:"styleGuide"`
	Dos           *[]string          `json:"dos"`
	Donts         *[]string          `json:"donts"`
	SafetyAdapter *string            `json:"safetyAdapter"`
	FewShots      *[]FewShotExample  `json:"fewShots"`
	ReactionMap   *map[string]string `json:"reactionMap"`
	IsPublic      *bool              `json:"isPublic"`
	ChangeLog     string             `json:"changeLog"`
}

// Versioned reports whether the patch touches any field that requires a new
// persona version.
func (r *UpdatePersonaRequest) Versioned() bool {
	return r.SystemPrompt != nil || r.Tone != nil || r.FewShots != nil || r.StyleGuide != nil
}

// FieldDiff is one differing field between two persona versions.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// PersonaFilter narrows persona listings.
type PersonaFilter struct {
	PublicOnly bool
	UserID     string
}
