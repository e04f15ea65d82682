package models

import "time"

// Message roles. Closed two-value set.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one conversation between a user and a bound persona.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	PersonaID string    `json:"personaId" gorm:"index;not null"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`
}

// SessionSummary is a session row joined with display data for listings.
type SessionSummary struct {
	Session
	MessageCount  int64  `json:"messageCount"`
	PersonaName   string `json:"personaName,omitempty"`
	PersonaAvatar string `json:"personaAvatar,omitempty"`
}

// Message is one conversation turn. Append-only; never mutated after creation.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	SessionID string    `json:"sessionId" gorm:"index;not null"`
	PersonaID string    `json:"personaId" gorm:"index"`
	Role      string    `json:"role" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// ChatRequest is the chat endpoint's input.
type ChatRequest struct {
	PersonaID string `json:"personaId"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// ChatResult is the terminal outcome of one chat turn.
type ChatResult struct {
	Content   string `json:"content"`
	Emotion   string `json:"emotion"`
	Emoji     string `json:"emoji"`
	SessionID string `json:"sessionId"`
}

// ReactionRequest asks for an emotion classification of arbitrary text.
type ReactionRequest struct {
	Text      string `json:"text"`
	PersonaID string `json:"personaId"`
}

// ReactionResponse carries the classified emotion and resolved emoji.
type ReactionResponse struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Emoji      string  `json:"emoji"`
}

// PreviewRequest drives the studio's live preview: generate against an
// unsaved persona configuration without persisting anything.
type PreviewRequest struct {
	Persona *Persona `json:"persona" binding:"required"`
	Message string   `json:"message" binding:"required"`
}

// PreviewMetrics summarizes one preview generation.
type PreviewMetrics struct {
	TokenCount     int     `json:"tokenCount"`
	WordCount      int     `json:"wordCount"`
	EmojiCount     int     `json:"emojiCount"`
	ParagraphCount int     `json:"paragraphCount"`
	AdherenceScore float64 `json:"adherenceScore"`
	ResponseTimeMs int64   `json:"responseTime"`
	Cost           float64 `json:"cost"`
}

// PreviewResponse is the studio preview payload.
type PreviewResponse struct {
	Content string         `json:"content"`
	Emotion string         `json:"emotion"`
	Emoji   string         `json:"emoji"`
	Metrics PreviewMetrics `json:"metrics"`
}
