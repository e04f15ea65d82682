package adherence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-persona-chat/backend/internal/models"
)

func TestTokenEstimate(t *testing.T) {
	assert.Equal(t, 0, TokenEstimate(""))
	assert.Equal(t, 1, TokenEstimate("abcd"))
	assert.Equal(t, 2, TokenEstimate("abcde"))
	// Character count drives the estimate, not byte length.
	assert.Equal(t, 1, TokenEstimate("你好"))
	assert.Equal(t, 2, TokenEstimate("你好吗你好"))
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 0.001, EstimateCost(100), 1e-12)
	assert.Zero(t, EstimateCost(0))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("one two three"))
	assert.Equal(t, 2, WordCount("你好"))
	assert.Equal(t, 3, WordCount("hello 世界"))
}

func TestEmojiCount(t *testing.T) {
	assert.Equal(t, 0, EmojiCount("no emoji here"))
	assert.Equal(t, 2, EmojiCount("nice 😊 day 🤗"))
}

func TestParagraphCount(t *testing.T) {
	assert.Equal(t, 0, ParagraphCount(""))
	assert.Equal(t, 0, ParagraphCount("   \n\n  "))
	assert.Equal(t, 1, ParagraphCount("single block\nwith a soft break"))
	assert.Equal(t, 2, ParagraphCount("first\n\nsecond"))
}

func TestMeasure(t *testing.T) {
	snap := models.Snapshot{Tone: models.ToneConfig{Formal: 0.5}}
	m := Measure("hello world", snap)

	assert.Equal(t, 3, m.TokenCount)
	assert.Equal(t, 2, m.WordCount)
	assert.Equal(t, 0, m.EmojiCount)
	assert.Equal(t, 1, m.ParagraphCount)
	assert.InDelta(t, EstimateCost(3), m.Cost, 1e-12)
	assert.GreaterOrEqual(t, m.AdherenceScore, 0.0)
	assert.LessOrEqual(t, m.AdherenceScore, 1.0)
	assert.Zero(t, m.ResponseTimeMs, "timing is the caller's concern")
}
