package adherence

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"ai-persona-chat/backend/internal/models"
)

// costPerToken is the flat estimate used for preview cost display.
const costPerToken = 0.00001

var emojiPattern = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`)

// TokenEstimate approximates the token count of text as ceil(chars/4).
// Crude, but stable and cheap, which is all the preview needs.
func TokenEstimate(text string) int {
	return int(math.Ceil(float64(len([]rune(text))) / 4))
}

// EstimateCost converts a token estimate into a display cost.
func EstimateCost(tokens int) float64 {
	return float64(tokens) * costPerToken
}

// WordCount counts whitespace-separated segments, treating each CJK rune as
// its own word.
func WordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			count++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

// EmojiCount counts emoji glyphs in text.
func EmojiCount(text string) int {
	return len(emojiPattern.FindAllString(text, -1))
}

// ParagraphCount counts non-empty blocks separated by blank lines. Empty text
// has zero paragraphs.
func ParagraphCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

// Measure assembles the full preview metric set for one generated reply.
// ResponseTimeMs is the caller's to fill in; measurement here is text-only.
func Measure(text string, snapshot models.Snapshot) models.PreviewMetrics {
	tokens := TokenEstimate(text)
	return models.PreviewMetrics{
		TokenCount:     tokens,
		Cost:           EstimateCost(tokens),
		WordCount:      WordCount(text),
		EmojiCount:     EmojiCount(text),
		ParagraphCount: ParagraphCount(text),
		AdherenceScore: Score(text, snapshot),
	}
}
