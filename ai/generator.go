package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ai-persona-chat/backend/pkg/logger"
)

const (
	defaultMaxTokens = 500
	defaultTimeout   = 30 * time.Second
	defaultMockDelay = time.Second
)

// Generator produces persona replies via a tiered backend chain.
type Generator struct {
	config Config
	openai *openai.Client
	client *http.Client
	log    *logger.Logger
}

// New creates a generator. Tier availability follows the config: an empty
// OpenAI key disables the hosted tier, an empty local URL disables the local
// tier, and the mock tier is always available.
func New(config Config, log *logger.Logger) *Generator {
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MockDelay <= 0 {
		config.MockDelay = defaultMockDelay
	}
	if config.OpenAIModel == "" {
		config.OpenAIModel = openai.GPT3Dot5Turbo
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	g := &Generator{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log,
	}

	if config.OpenAIKey != "" {
		clientConfig := openai.DefaultConfig(config.OpenAIKey)
		if config.OpenAIBaseURL != "" {
			clientConfig.BaseURL = config.OpenAIBaseURL
		}
		g.openai = openai.NewClientWithConfig(clientConfig)
	}

	g.log.Info("generator configured", "tier", g.tier())
	return g
}

func (g *Generator) tier() Source {
	switch {
	case g.openai != nil:
		return SourceOpenAI
	case g.config.LocalURL != "":
		return SourceLocal
	default:
		return SourceMock
	}
}

// Generate produces a full reply using the configured tier. Tier selection
// is a configuration check, not a runtime retry: a failing backend call is a
// fatal error for that request.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	return g.GenerateStream(ctx, req, nil)
}

// GenerateStream is Generate with incremental delivery: onDelta (may be nil)
// receives content fragments as the backend produces them.
func (g *Generator) GenerateStream(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error) {
	switch g.tier() {
	case SourceOpenAI:
		return g.streamOpenAI(ctx, req, onDelta)
	case SourceLocal:
		return g.streamLocal(ctx, req, onDelta)
	default:
		return g.mock(ctx, req, onDelta)
	}
}

func (g *Generator) streamOpenAI(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error) {
	stream, err := g.openai.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     g.config.OpenAIModel,
		Messages:  buildMessages(req),
		MaxTokens: g.config.MaxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}
	defer stream.Close()

	var content strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recv stream chunk: %w", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	if content.Len() == 0 {
		return nil, errors.New("empty completion")
	}
	return &Result{Content: content.String(), Source: SourceOpenAI}, nil
}

// streamLocal talks to an OpenAI-compatible local server (ollama, llama.cpp,
// vllm) using the same SSE chunk format.
func (g *Generator) streamLocal(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error) {
	payload, err := json.Marshal(map[string]any{
		"model":      g.config.LocalModel,
		"messages":   buildMessages(req),
		"max_tokens": g.config.MaxTokens,
		"stream":     true,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.LocalURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("local backend returned status %d", resp.StatusCode)
	}

	var content strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		content.WriteString(chunk.Choices[0].Delta.Content)
		if onDelta != nil {
			onDelta(chunk.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if content.Len() == 0 {
		return nil, errors.New("empty completion")
	}
	return &Result{Content: content.String(), Source: SourceLocal}, nil
}

// mock produces a canned persona-flavored reply after a simulated delay.
// It only fails on context cancellation.
func (g *Generator) mock(ctx context.Context, req Request, onDelta DeltaFunc) (*Result, error) {
	timer := time.NewTimer(g.config.MockDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	content := mockReply(req.Persona, req.UserMessage)
	if onDelta != nil {
		// Emit in small chunks so streaming consumers exercise the same
		// path as the real backends.
		for _, chunk := range splitChunks(content, 8) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			onDelta(chunk)
		}
	}

	return &Result{Content: content, Emotion: "happy", Source: SourceMock}, nil
}

func splitChunks(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
