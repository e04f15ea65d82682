package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-persona-chat/backend/internal/models"
)

func testPersona() *models.Persona {
	return &models.Persona{
		ID: "test-persona",
		Snapshot: models.Snapshot{
			Name:         "测试",
			SystemPrompt: "你是一个友善的助手。",
			Tone:         models.DefaultTone(),
		},
	}
}

func fastConfig() Config {
	return Config{MockDelay: time.Millisecond, Timeout: 2 * time.Second}
}

// sseBody renders chat chunks in the OpenAI streaming wire format.
func sseBody(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		b.WriteString(`data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"` + d + `"}}]}` + "\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func TestMockTierAlwaysSucceeds(t *testing.T) {
	g := New(fastConfig(), nil)

	result, err := g.Generate(context.Background(), Request{
		Persona:     testPersona(),
		UserMessage: "你好",
	})
	require.NoError(t, err)
	assert.Equal(t, SourceMock, result.Source)
	assert.Equal(t, "happy", result.Emotion)
	assert.Contains(t, result.Content, "你好")
}

func TestMockVoicesPerPersona(t *testing.T) {
	g := New(fastConfig(), nil)

	for _, id := range []string{voiceGentle, voiceSassy, voiceAcademic, voiceHealing} {
		p := testPersona()
		p.ID = id
		result, err := g.Generate(context.Background(), Request{Persona: p, UserMessage: "测试"})
		require.NoError(t, err)
		assert.Contains(t, result.Content, "测试", "voice %s echoes the message", id)
	}

	// Distinct voices produce distinct replies.
	a, _ := g.Generate(context.Background(), Request{Persona: &models.Persona{ID: voiceGentle}, UserMessage: "嗨"})
	b, _ := g.Generate(context.Background(), Request{Persona: &models.Persona{ID: voiceSassy}, UserMessage: "嗨"})
	assert.NotEqual(t, a.Content, b.Content)
}

func TestMockVoiceByTag(t *testing.T) {
	g := New(fastConfig(), nil)

	p := testPersona()
	p.Tags = models.StringList{"Academic"}
	result, err := g.Generate(context.Background(), Request{Persona: p, UserMessage: "量子力学"})
	require.NoError(t, err)
	assert.Contains(t, result.Content, "维度")
}

func TestMockRespectsContextCancellation(t *testing.T) {
	g := New(Config{MockDelay: time.Minute}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, Request{Persona: testPersona(), UserMessage: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAITierStreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody("你好", "，很高兴", "见到你")))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.OpenAIKey = "test-key"
	cfg.OpenAIBaseURL = server.URL
	g := New(cfg, nil)

	var deltas []string
	result, err := g.GenerateStream(context.Background(), Request{
		Persona:     testPersona(),
		UserMessage: "hi",
	}, func(d string) { deltas = append(deltas, d) })

	require.NoError(t, err)
	assert.Equal(t, SourceOpenAI, result.Source)
	assert.Equal(t, "你好，很高兴见到你", result.Content)
	assert.Equal(t, []string{"你好", "，很高兴", "见到你"}, deltas)
	assert.Empty(t, result.Emotion, "real backends leave classification to the caller")
}

func TestOpenAIFailureIsFatalForTheCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.OpenAIKey = "test-key"
	cfg.OpenAIBaseURL = server.URL
	g := New(cfg, nil)

	// Tier selection is config-only; a backend failure surfaces, it does
	// not silently switch to another tier.
	_, err := g.Generate(context.Background(), Request{Persona: testPersona(), UserMessage: "hello"})
	assert.Error(t, err)
}

func TestLocalTier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody("local ", "reply")))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.LocalURL = server.URL
	g := New(cfg, nil)

	result, err := g.Generate(context.Background(), Request{Persona: testPersona(), UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, result.Source)
	assert.Equal(t, "local reply", result.Content)
}

func TestLocalFailureIsFatalForTheCall(t *testing.T) {
	cfg := fastConfig()
	cfg.LocalURL = "http://127.0.0.1:1" // nothing listens here
	g := New(cfg, nil)

	_, err := g.Generate(context.Background(), Request{Persona: testPersona(), UserMessage: "hi"})
	assert.Error(t, err)
}

func TestStreamDeltasReassembleToContent(t *testing.T) {
	g := New(fastConfig(), nil)

	var b strings.Builder
	result, err := g.GenerateStream(context.Background(), Request{
		Persona:     testPersona(),
		UserMessage: "拼接测试",
	}, func(d string) { b.WriteString(d) })

	require.NoError(t, err)
	assert.Equal(t, result.Content, b.String())
}

func TestBuildMessagesOrder(t *testing.T) {
	p := testPersona()
	p.FewShots = models.FewShotList{{User: "早上好", Assistant: "早上好呀！"}}

	msgs := buildMessages(Request{
		Persona: p,
		History: []models.Message{
			{Role: models.RoleUser, Content: "第一句"},
			{Role: models.RoleAssistant, Content: "第一答"},
		},
		UserMessage: "新问题",
	})

	require.Len(t, msgs, 6)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, p.SystemPrompt)
	assert.Equal(t, "早上好", msgs[1].Content)
	assert.Equal(t, "早上好呀！", msgs[2].Content)
	assert.Equal(t, "user", msgs[3].Role)
	assert.Equal(t, "assistant", msgs[4].Role)
	assert.Equal(t, "新问题", msgs[5].Content)
}

func TestRenderSystemPromptIncludesStyleContract(t *testing.T) {
	p := testPersona()
	p.StyleGuide = "简洁明了"
	p.Dos = models.StringList{"多用比喻"}
	p.Donts = models.StringList{"说教"}

	prompt := renderSystemPrompt(p)
	assert.Contains(t, prompt, "简洁明了")
	assert.Contains(t, prompt, "多用比喻")
	assert.Contains(t, prompt, "说教")
}
