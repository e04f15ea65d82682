// Package ai generates persona-conditioned chat replies. Three backends are
// tried in order: the OpenAI API, a local OpenAI-compatible endpoint, and a
// built-in mock that always succeeds, so generation as a whole never fails
// outright.
package ai

import (
	"time"

	"ai-persona-chat/backend/internal/models"
)

// Source identifies which backend produced a reply.
type Source string

const (
	SourceOpenAI Source = "openai"
	SourceLocal  Source = "local"
	SourceMock   Source = "mock"
)

// Config carries the generator's backend settings.
type Config struct {
	// OpenAIKey enables the hosted tier when non-empty.
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// LocalURL points at an OpenAI-compatible chat completions endpoint,
	// enabling the local tier when non-empty.
	LocalURL   string
	LocalModel string

	// MaxTokens caps reply length on the real backends.
	MaxTokens int
	// Timeout bounds a single backend attempt.
	Timeout time.Duration
	// MockDelay simulates generation latency on the mock tier.
	MockDelay time.Duration
}

// Request is one generation task.
type Request struct {
	Persona *models.Persona
	// History is the prior conversation, oldest first.
	History []models.Message
	// UserMessage is the new user turn being answered.
	UserMessage string
}

// Result is a completed generation.
type Result struct {
	Content string
	// Emotion is set only by backends that know it (the mock); empty means
	// the caller should classify the content itself.
	Emotion string
	Source  Source
}

// DeltaFunc receives incremental content fragments during streaming
// generation. It is called from the generation goroutine; implementations
// must be fast or buffer internally.
type DeltaFunc func(delta string)
