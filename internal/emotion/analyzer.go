package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-persona-chat/backend/pkg/logger"
)

// sentimentToEmotion maps external sentiment-model categories onto the seven
// canonical labels.
var sentimentToEmotion = map[string]Type{
	"positive": Happy,
	"negative": Empathetic,
	"neutral":  Neutral,
	"joy":      Happy,
	"anger":    Warning,
	"sadness":  Empathetic,
	"fear":     Warning,
	"surprise": Surprised,
}

// AnalyzerConfig configures the optional external sentiment model.
type AnalyzerConfig struct {
	// URL of the sentiment API; empty disables the external path entirely.
	URL string
	// APIKey sent as a bearer token.
	APIKey string
	// Timeout bounds the external call.
	Timeout time.Duration
}

// Analyzer wraps the rule-based classifier with an optional external
// sentiment model. Construct once and inject; it holds no per-request state.
type Analyzer struct {
	config AnalyzerConfig
	client *http.Client
	log    *logger.Logger
}

// NewAnalyzer creates an analyzer. A zero config yields a pure rule-based
// analyzer.
func NewAnalyzer(config AnalyzerConfig, log *logger.Logger) *Analyzer {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Analyzer{
		config: config,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Enabled reports whether the external sentiment model is configured.
func (a *Analyzer) Enabled() bool {
	return a.config.URL != "" && a.config.APIKey != ""
}

// Analyze classifies text. When useModel is set and the external model is
// configured it is consulted first; any failure silently degrades to the
// rule-based classifier. This never returns an error to the caller.
func (a *Analyzer) Analyze(ctx context.Context, text string, useModel bool) Type {
	if useModel && a.Enabled() {
		if label, err := a.analyzeWithModel(ctx, text); err == nil {
			return label
		} else {
			a.log.Warn("sentiment model failed, falling back to rules", "error", err.Error())
		}
	}
	return Classify(text)
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, text string) (Type, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Neutral, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return Neutral, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return Neutral, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Neutral, fmt.Errorf("sentiment API returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Neutral, err
	}

	var result struct {
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return Neutral, err
	}

	if label, ok := sentimentToEmotion[result.Sentiment]; ok {
		return label, nil
	}
	return Neutral, nil
}
