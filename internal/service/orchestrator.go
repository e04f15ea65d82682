package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/adherence"
	"ai-persona-chat/backend/internal/emotion"
	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/moderation"
	"ai-persona-chat/backend/internal/ratelimit"
	"ai-persona-chat/backend/internal/store"
	apperrors "ai-persona-chat/backend/pkg/errors"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/shared/observability"
)

// historyLimit caps how many prior turns are replayed into the prompt.
const historyLimit = 20

// ChatOrchestrator runs the full chat turn pipeline: quota, validation,
// content filtering, persona resolution, session bookkeeping, generation,
// emotion classification and metric recording.
type ChatOrchestrator struct {
	store     store.Store
	limiter   *ratelimit.Limiter
	filter    *moderation.Filter
	generator *ai.Generator
	analyzer  *emotion.Analyzer
	metrics   *observability.Metrics
	log       *logger.Logger
	now       func() time.Time
}

// OrchestratorDeps names the orchestrator's collaborators. Metrics and
// analyzer may be nil.
type OrchestratorDeps struct {
	Store     store.Store
	Limiter   *ratelimit.Limiter
	Filter    *moderation.Filter
	Generator *ai.Generator
	Analyzer  *emotion.Analyzer
	Metrics   *observability.Metrics
	Log       *logger.Logger
}

func NewChatOrchestrator(deps OrchestratorDeps) *ChatOrchestrator {
	log := deps.Log
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ChatOrchestrator{
		store:     deps.Store,
		limiter:   deps.Limiter,
		filter:    deps.Filter,
		generator: deps.Generator,
		analyzer:  deps.Analyzer,
		metrics:   deps.Metrics,
		log:       log,
		now:       time.Now,
	}
}

// Chat runs one complete turn and returns the terminal result.
func (o *ChatOrchestrator) Chat(ctx context.Context, clientKey string, req models.ChatRequest) (*models.ChatResult, error) {
	return o.run(ctx, clientKey, req, nil)
}

// ChatStream is Chat with incremental content delivery via onDelta.
func (o *ChatOrchestrator) ChatStream(ctx context.Context, clientKey string, req models.ChatRequest, onDelta ai.DeltaFunc) (*models.ChatResult, error) {
	return o.run(ctx, clientKey, req, onDelta)
}

func (o *ChatOrchestrator) run(ctx context.Context, clientKey string, req models.ChatRequest, onDelta ai.DeltaFunc) (*models.ChatResult, error) {
	// Quota first: a limited client must cause no storage traffic at all.
	if o.limiter != nil && !o.limiter.Allow(clientKey) {
		if o.metrics != nil {
			o.metrics.RateLimitedTotal.Add(ctx, 1)
		}
		return nil, apperrors.NewRateLimitedError("请求过于频繁，请稍后再试")
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message is required")
	}
	if req.PersonaID == "" {
		return nil, apperrors.NewValidationError("personaId is required")
	}

	message := req.Message
	if o.filter != nil {
		if sanitized := o.filter.Sanitize(message); sanitized != message {
			if o.metrics != nil {
				o.metrics.FilteredTotal.Add(ctx, 1)
			}
			message = sanitized
		}
	}

	persona, err := o.store.GetPersona(ctx, req.PersonaID)
	if err != nil {
		if err == store.ErrPersonaNotFound {
			return nil, apperrors.NewNotFoundError("persona not found")
		}
		return nil, apperrors.NewStorageError("get persona").WithCause(err)
	}

	sess, history, err := o.resolveSession(ctx, persona, req.SessionID, message)
	if err != nil {
		return nil, err
	}

	now := o.now()
	userMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		PersonaID: persona.ID,
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: now,
	}
	if err := o.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, apperrors.NewStorageError("persist user message").WithCause(err)
	}

	start := o.now()
	result, err := o.generator.GenerateStream(ctx, ai.Request{
		Persona:     persona,
		History:     history,
		UserMessage: message,
	}, onDelta)
	if err != nil {
		return nil, apperrors.NewGenerationError("reply generation failed").WithCause(err)
	}
	elapsed := o.now().Sub(start)

	content := result.Content
	if o.filter != nil {
		content = o.filter.Sanitize(content)
	}

	label := emotion.Type(result.Emotion)
	if label == "" {
		if o.analyzer != nil {
			label = o.analyzer.Analyze(ctx, content, true)
		} else {
			label = emotion.Classify(content)
		}
	}
	emoji := emotion.ToEmoji(label, persona.ReactionMap)

	assistantMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		PersonaID: persona.ID,
		Role:      models.RoleAssistant,
		Content:   content,
		Emotion:   string(label),
		CreatedAt: o.now(),
	}
	if err := o.store.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, apperrors.NewStorageError("persist assistant message").WithCause(err)
	}

	sess.UpdatedAt = o.now()
	if err := o.store.UpdateSession(ctx, sess); err != nil {
		o.log.Warn("touch session failed", "session_id", sess.ID, "error", err.Error())
	}

	o.recordMetric(ctx, persona, content, elapsed)

	o.log.Info("chat turn completed",
		"persona_id", persona.ID,
		"session_id", sess.ID,
		"source", string(result.Source),
		"emotion", string(label),
		"latency_ms", elapsed.Milliseconds())

	return &models.ChatResult{
		Content:   content,
		Emotion:   string(label),
		Emoji:     emoji,
		SessionID: sess.ID,
	}, nil
}

// resolveSession loads the named session and its history, or creates a fresh
// session titled after the opening message.
func (o *ChatOrchestrator) resolveSession(ctx context.Context, persona *models.Persona, sessionID, message string) (*models.Session, []models.Message, error) {
	if sessionID != "" {
		sess, err := o.store.GetSession(ctx, sessionID)
		if err != nil {
			if err == store.ErrSessionNotFound {
				return nil, nil, apperrors.NewNotFoundError("session not found")
			}
			return nil, nil, apperrors.NewStorageError("get session").WithCause(err)
		}
		if sess.PersonaID != persona.ID {
			return nil, nil, apperrors.NewValidationError("session belongs to a different persona")
		}

		history, err := o.store.ListMessages(ctx, sess.ID)
		if err != nil {
			return nil, nil, apperrors.NewStorageError("list messages").WithCause(err)
		}
		if len(history) > historyLimit {
			history = history[len(history)-historyLimit:]
		}
		return sess, history, nil
	}

	now := o.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		PersonaID: persona.ID,
		Title:     sessionTitle(message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.CreateSession(ctx, sess); err != nil {
		return nil, nil, apperrors.NewStorageError("create session").WithCause(err)
	}
	return sess, nil, nil
}

// Preview generates against an unsaved persona configuration. Nothing is
// persisted; the response carries the full metric set for the studio.
func (o *ChatOrchestrator) Preview(ctx context.Context, req models.PreviewRequest) (*models.PreviewResponse, error) {
	if req.Persona == nil {
		return nil, apperrors.NewValidationError("persona is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message is required")
	}
	if strings.TrimSpace(req.Persona.SystemPrompt) == "" {
		return nil, apperrors.NewValidationError("persona.systemPrompt is required")
	}

	message := req.Message
	if o.filter != nil {
		message = o.filter.Sanitize(message)
	}

	start := o.now()
	result, err := o.generator.Generate(ctx, ai.Request{
		Persona:     req.Persona,
		UserMessage: message,
	})
	if err != nil {
		return nil, apperrors.NewGenerationError("preview generation failed").WithCause(err)
	}
	elapsed := o.now().Sub(start)

	content := result.Content
	if o.filter != nil {
		content = o.filter.Sanitize(content)
	}

	label := emotion.Type(result.Emotion)
	if label == "" {
		label = emotion.Classify(content)
	}

	metrics := adherence.Measure(content, req.Persona.Snapshot)
	metrics.ResponseTimeMs = elapsed.Milliseconds()

	return &models.PreviewResponse{
		Content: content,
		Emotion: string(label),
		Emoji:   emotion.ToEmoji(label, req.Persona.ReactionMap),
		Metrics: metrics,
	}, nil
}

// React classifies arbitrary text and resolves the emoji through the
// persona's reaction map when one is named.
func (o *ChatOrchestrator) React(ctx context.Context, req models.ReactionRequest) (*models.ReactionResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperrors.NewValidationError("text is required")
	}

	var override map[string]string
	if req.PersonaID != "" {
		persona, err := o.store.GetPersona(ctx, req.PersonaID)
		if err != nil {
			if err == store.ErrPersonaNotFound {
				return nil, apperrors.NewNotFoundError("persona not found")
			}
			return nil, apperrors.NewStorageError("get persona").WithCause(err)
		}
		override = persona.ReactionMap
	}

	var label emotion.Type
	if o.analyzer != nil {
		label = o.analyzer.Analyze(ctx, req.Text, true)
	} else {
		label = emotion.Classify(req.Text)
	}

	confidence := 0.8
	if label == emotion.Neutral {
		confidence = 0.5
	}

	return &models.ReactionResponse{
		Emotion:    string(label),
		Confidence: confidence,
		Emoji:      emotion.ToEmoji(label, override),
	}, nil
}

// recordMetric persists a per-turn analytics row and feeds the telemetry
// instruments. Failures are logged, never surfaced.
func (o *ChatOrchestrator) recordMetric(ctx context.Context, persona *models.Persona, content string, elapsed time.Duration) {
	m := adherence.Measure(content, persona.Snapshot)

	row := &models.PersonaMetric{
		ID:             uuid.NewString(),
		PersonaID:      persona.ID,
		AdherenceScore: m.AdherenceScore,
		TokenCount:     m.TokenCount,
		WordCount:      m.WordCount,
		EmojiCount:     m.EmojiCount,
		ParagraphCount: m.ParagraphCount,
		ResponseTimeMs: elapsed.Milliseconds(),
		Cost:           m.Cost,
		CreatedAt:      o.now(),
	}
	if err := o.store.CreateMetric(ctx, row); err != nil {
		o.log.Warn("record metric failed", "persona_id", persona.ID, "error", err.Error())
	}

	if o.metrics != nil {
		o.metrics.ChatTurns.Add(ctx, 1)
		o.metrics.GenerationSeconds.Record(ctx, elapsed.Seconds())
		o.metrics.AdherenceScore.Record(ctx, m.AdherenceScore)
	}
}

func sessionTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) <= 50 {
		return string(runes)
	}
	return string(runes[:50]) + "…"
}
