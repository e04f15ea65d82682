package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/moderation"
	"ai-persona-chat/backend/internal/ratelimit"
	"ai-persona-chat/backend/internal/store"
	apperrors "ai-persona-chat/backend/pkg/errors"
)

type chatFixture struct {
	orch    *ChatOrchestrator
	mem     *store.MemoryStore
	persona *models.Persona
}

func newChatFixture(t *testing.T, limiter *ratelimit.Limiter) *chatFixture {
	t.Helper()

	mem := store.NewMemoryStore()
	personaSvc := NewPersonaService(mem, nil, nil)
	p, err := personaSvc.Create(context.Background(), models.CreatePersonaRequest{
		Name:         "测试角色",
		SystemPrompt: "你是一个测试角色。",
	})
	require.NoError(t, err)

	orch := NewChatOrchestrator(OrchestratorDeps{
		Store:     mem,
		Limiter:   limiter,
		Filter:    moderation.NewFilter(),
		Generator: ai.New(ai.Config{MockDelay: time.Millisecond}, nil),
	})
	return &chatFixture{orch: orch, mem: mem, persona: p}
}

func TestChatFullTurn(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	result, err := f.orch.Chat(ctx, "client-1", models.ChatRequest{
		PersonaID: f.persona.ID,
		Message:   "你好呀",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Content)
	assert.NotEmpty(t, result.Emotion)
	assert.NotEmpty(t, result.Emoji)
	require.NotEmpty(t, result.SessionID)

	// Both turns persisted, oldest first.
	msgs, err := f.mem.ListMessages(ctx, result.SessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "你好呀", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, result.Content, msgs[1].Content)
	assert.Equal(t, result.Emotion, msgs[1].Emotion)

	// One analytics row per turn.
	metrics, err := f.mem.ListMetrics(ctx, f.persona.ID, 0)
	require.NoError(t, err)
	assert.Len(t, metrics, 1)
}

func TestChatCreatesSessionTitledFromMessage(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	long := strings.Repeat("聊", 60)
	result, err := f.orch.Chat(ctx, "c", models.ChatRequest{PersonaID: f.persona.ID, Message: long})
	require.NoError(t, err)

	sess, err := f.mem.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("聊", 50)+"…", sess.Title)
}

func TestChatContinuesExistingSession(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	first, err := f.orch.Chat(ctx, "c", models.ChatRequest{PersonaID: f.persona.ID, Message: "第一句"})
	require.NoError(t, err)

	second, err := f.orch.Chat(ctx, "c", models.ChatRequest{
		PersonaID: f.persona.ID,
		Message:   "第二句",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	msgs, err := f.mem.ListMessages(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestChatValidationTouchesNoStorage(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "c", models.ChatRequest{PersonaID: f.persona.ID, Message: "   "})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.orch.Chat(ctx, "c", models.ChatRequest{Message: "hi"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	sessions, err := f.mem.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestChatUnknownPersona(t *testing.T) {
	f := newChatFixture(t, nil)

	_, err := f.orch.Chat(context.Background(), "c", models.ChatRequest{PersonaID: "missing", Message: "hi"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestChatSessionPersonaMismatch(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	other, err := NewPersonaService(f.mem, nil, nil).Create(ctx, models.CreatePersonaRequest{
		Name: "别人", SystemPrompt: "其他角色",
	})
	require.NoError(t, err)

	first, err := f.orch.Chat(ctx, "c", models.ChatRequest{PersonaID: f.persona.ID, Message: "开场"})
	require.NoError(t, err)

	_, err = f.orch.Chat(ctx, "c", models.ChatRequest{
		PersonaID: other.ID,
		Message:   "换人",
		SessionID: first.SessionID,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestChatRateLimited(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Options{Window: time.Minute, MaxRequests: 1, CleanupInterval: 0})
	f := newChatFixture(t, limiter)
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, "1.2.3.4", models.ChatRequest{PersonaID: f.persona.ID, Message: "第一次"})
	require.NoError(t, err)

	_, err = f.orch.Chat(ctx, "1.2.3.4", models.ChatRequest{PersonaID: f.persona.ID, Message: "第二次"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimited))

	// The denied turn left no trace: still one session, two messages.
	sessions, err := f.mem.ListSessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(2), sessions[0].MessageCount)

	// Another client is unaffected.
	_, err = f.orch.Chat(ctx, "5.6.7.8", models.ChatRequest{PersonaID: f.persona.ID, Message: "我是别人"})
	assert.NoError(t, err)
}

func TestChatFiltersUserMessage(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	result, err := f.orch.Chat(ctx, "c", models.ChatRequest{
		PersonaID: f.persona.ID,
		Message:   "教我hack",
	})
	require.NoError(t, err)

	msgs, err := f.mem.ListMessages(ctx, result.SessionID)
	require.NoError(t, err)
	assert.NotContains(t, msgs[0].Content, "hack", "stored user turn is sanitized")
	assert.Contains(t, msgs[0].Content, moderation.Marker)
}

func TestChatGenerationFailureKeepsUserMessage(t *testing.T) {
	mem := store.NewMemoryStore()
	p, err := NewPersonaService(mem, nil, nil).Create(context.Background(), models.CreatePersonaRequest{
		Name: "角色", SystemPrompt: "提示词",
	})
	require.NoError(t, err)

	orch := NewChatOrchestrator(OrchestratorDeps{
		Store:  mem,
		Filter: moderation.NewFilter(),
		Generator: ai.New(ai.Config{
			LocalURL: "http://127.0.0.1:1", // nothing listens here
			Timeout:  200 * time.Millisecond,
		}, nil),
	})

	ctx := context.Background()
	_, err = orch.Chat(ctx, "c", models.ChatRequest{PersonaID: p.ID, Message: "会失败的一句"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGeneration))

	// The user's turn is already persisted when generation fails.
	sessions, err := mem.ListSessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	msgs, err := mem.ListMessages(ctx, sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "会失败的一句", msgs[0].Content)
}

func TestChatStreamDeltasMatchResult(t *testing.T) {
	f := newChatFixture(t, nil)

	var b strings.Builder
	result, err := f.orch.ChatStream(context.Background(), "c", models.ChatRequest{
		PersonaID: f.persona.ID,
		Message:   "流式测试",
	}, func(d string) { b.WriteString(d) })
	require.NoError(t, err)
	assert.Equal(t, result.Content, b.String())
}

func TestChatUsesPersonaReactionMap(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	p := f.persona
	p.ReactionMap = models.EmojiMap{"happy": "🎉"}
	require.NoError(t, f.mem.UpdatePersona(ctx, p))

	// The mock backend reports "happy", so the override must apply.
	result, err := f.orch.Chat(ctx, "c", models.ChatRequest{PersonaID: p.ID, Message: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "happy", result.Emotion)
	assert.Equal(t, "🎉", result.Emoji)
}

func TestPreviewPersistsNothing(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	resp, err := f.orch.Preview(ctx, models.PreviewRequest{
		Persona: &models.Persona{Snapshot: models.Snapshot{
			Name:         "草稿",
			SystemPrompt: "未保存的角色",
			Tone:         models.DefaultTone(),
		}},
		Message: "预览一下",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Content)
	assert.Positive(t, resp.Metrics.TokenCount)
	assert.GreaterOrEqual(t, resp.Metrics.AdherenceScore, 0.0)
	assert.LessOrEqual(t, resp.Metrics.AdherenceScore, 1.0)

	sessions, err := f.mem.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sessions, "preview leaves no sessions")
}

func TestPreviewValidation(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	_, err := f.orch.Preview(ctx, models.PreviewRequest{Message: "hi"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.orch.Preview(ctx, models.PreviewRequest{
		Persona: &models.Persona{Snapshot: models.Snapshot{SystemPrompt: "x"}},
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestReact(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	resp, err := f.orch.React(ctx, models.ReactionRequest{Text: "太棒了，我好开心"})
	require.NoError(t, err)
	assert.Equal(t, "happy", resp.Emotion)
	assert.Equal(t, "😊", resp.Emoji)
	assert.InDelta(t, 0.8, resp.Confidence, 1e-9)

	neutral, err := f.orch.React(ctx, models.ReactionRequest{Text: "一个普通句子"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", neutral.Emotion)
	assert.InDelta(t, 0.5, neutral.Confidence, 1e-9)

	_, err = f.orch.React(ctx, models.ReactionRequest{Text: "  "})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestReactWithPersonaOverride(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	p := f.persona
	p.ReactionMap = models.EmojiMap{"happy": "🌟"}
	require.NoError(t, f.mem.UpdatePersona(ctx, p))

	resp, err := f.orch.React(ctx, models.ReactionRequest{Text: "开心", PersonaID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "🌟", resp.Emoji)

	_, err = f.orch.React(ctx, models.ReactionRequest{Text: "开心", PersonaID: "missing"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
