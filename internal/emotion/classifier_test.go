package emotion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Type
	}{
		{"happy chinese", "我今天非常开心！", Happy},
		{"happy english", "that was awesome", Happy},
		{"thinking", "让我思考一下这个问题", Thinking},
		{"surprised", "天啊！竟然是这样", Surprised},
		{"empathetic", "我理解你的感受", Empathetic},
		{"warning", "小心！那里很危险", Warning},
		{"comforting", "没关系，一切都会好起来的", Comforting},
		{"plain sentence", "这是一个普通的句子", Neutral},
		{"empty", "", Neutral},
		{"case insensitive", "WOW, WONDERFUL", Happy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Contains both a happy keyword and a warning keyword; happy is tested
	// first so it must win.
	assert.Equal(t, Happy, Classify("开心但是危险"))

	// Thinking beats comforting for the same reason.
	assert.Equal(t, Thinking, Classify("想想吧，没关系"))
}

func TestToEmoji(t *testing.T) {
	t.Run("default map", func(t *testing.T) {
		assert.Equal(t, "😊", ToEmoji(Happy, nil))
	})

	t.Run("empty override behaves as no override", func(t *testing.T) {
		for _, label := range Labels() {
			assert.Equal(t, ToEmoji(label, nil), ToEmoji(label, map[string]string{}))
		}
	})

	t.Run("override wins", func(t *testing.T) {
		assert.Equal(t, "🎉", ToEmoji(Happy, map[string]string{"happy": "🎉"}))
	})

	t.Run("unknown label falls back to neutral glyph", func(t *testing.T) {
		assert.Equal(t, "🙂", ToEmoji(Type("bogus"), nil))
	})
}

func TestDefaultEmojiMapCoversAllLabels(t *testing.T) {
	m := DefaultEmojiMap()
	for _, label := range Labels() {
		assert.Contains(t, m, string(label))
	}
}

func TestAnalyzerFallsBackOnModelFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewAnalyzer(AnalyzerConfig{URL: server.URL, APIKey: "test-key"}, nil)

	// Model errors must degrade silently to the rule-based path.
	got := a.Analyze(context.Background(), "我今天非常开心！", true)
	assert.Equal(t, Happy, got)
}

func TestAnalyzerUsesModelWhenAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentiment":"sadness"}`))
	}))
	defer server.Close()

	a := NewAnalyzer(AnalyzerConfig{URL: server.URL, APIKey: "test-key"}, nil)

	got := a.Analyze(context.Background(), "neutral words only here", true)
	assert.Equal(t, Empathetic, got)
}

func TestAnalyzerWithoutModelUsesRules(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil)
	assert.Equal(t, Comforting, a.Analyze(context.Background(), "加油，我支持你", true))
}
