// Package adherence scores how closely generated text follows a persona's
// style contract: tone sliders, do/don't lists, and style guide hints.
package adherence

import (
	"math"
	"strings"

	"ai-persona-chat/backend/internal/models"
)

// Proxy word lists for the formality dimension. Heuristic on purpose; the
// score is a cheap editor-facing signal, not a model judgement.
var (
	formalWords   = []string{"您", "请", "谢谢", "抱歉"}
	informalWords = []string{"哈哈", "嘻嘻", "呀", "啊"}
)

// Score rates text against a persona snapshot, returning a value in [0, 1].
// Higher is better adherence. Deterministic for identical inputs.
func Score(text string, snapshot models.Snapshot) float64 {
	score := 1.0
	lower := strings.ToLower(text)

	// Formality: compare the text's estimated register against the tone
	// slider. The estimate is a binary proxy: more formal than informal
	// marker occurrences puts the text at 0.8, anything else at 0.2.
	actual := estimateFormality(lower)
	score *= 1 - math.Abs(actual-snapshot.Tone.Formal)*0.5

	// Each violated "don't" compounds a fixed penalty.
	for _, dont := range snapshot.Donts {
		if dont != "" && strings.Contains(lower, strings.ToLower(dont)) {
			score *= 0.7
		}
	}

	// "Do" coverage grants a partial bonus proportional to how many of the
	// listed behaviors appear in the text.
	if len(snapshot.Dos) > 0 {
		matched := 0
		for _, do := range snapshot.Dos {
			if do != "" && strings.Contains(lower, strings.ToLower(do)) {
				matched++
			}
		}
		score *= 0.8 + float64(matched)/float64(len(snapshot.Dos))*0.2
	}

	return clamp01(score)
}

func estimateFormality(text string) float64 {
	formal, informal := 0, 0
	for _, w := range formalWords {
		formal += strings.Count(text, w)
	}
	for _, w := range informalWords {
		informal += strings.Count(text, w)
	}
	if formal > informal {
		return 0.8
	}
	return 0.2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
