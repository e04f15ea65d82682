package adherence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-persona-chat/backend/internal/models"
)

func snapWithTone(formal float64) models.Snapshot {
	return models.Snapshot{Tone: models.ToneConfig{Formal: formal}}
}

func TestScoreFormalityAlignment(t *testing.T) {
	formalText := "您好，请问有什么可以帮您？"
	informalText := "哈哈，这个超好玩呀"

	// Formal text against a formal persona beats it against a casual one.
	assert.Greater(t,
		Score(formalText, snapWithTone(0.8)),
		Score(formalText, snapWithTone(0.2)))

	// And symmetrically for informal text.
	assert.Greater(t,
		Score(informalText, snapWithTone(0.2)),
		Score(informalText, snapWithTone(0.8)))
}

func TestScorePerfectFormalityMatch(t *testing.T) {
	// Formal marker puts the text at 0.8; a 0.8 slider means no penalty.
	assert.InDelta(t, 1.0, Score("您好", snapWithTone(0.8)), 1e-9)
}

func TestScoreMarkerFreeTextReadsInformal(t *testing.T) {
	// The register estimate is binary: without a formal majority the text
	// sits at 0.2, so a casual persona takes no penalty.
	assert.InDelta(t, 1.0, Score("今天天气不错", snapWithTone(0.2)), 1e-9)
}

func TestScoreFormalityCountsOccurrences(t *testing.T) {
	// One formal marker against three informal occurrences: informal wins,
	// so the text matches a casual persona perfectly.
	text := "您哈哈哈哈呀啊"
	assert.InDelta(t, 1.0, Score(text, snapWithTone(0.2)), 1e-9)
	assert.InDelta(t, 0.7, Score(text, snapWithTone(0.8)), 1e-9)
}

func TestScoreDontPenalty(t *testing.T) {
	snap := snapWithTone(0.5)
	snap.Donts = models.StringList{"笨"}

	clean := Score("今天天气不错", snap)
	violated := Score("你真笨，今天天气不错", snap)

	assert.Less(t, violated, clean)
	assert.LessOrEqual(t, violated, 0.7*clean+1e-9)
}

func TestScoreDontPenaltyCompounds(t *testing.T) {
	snap := snapWithTone(0.5)
	snap.Donts = models.StringList{"笨", "蠢"}

	one := Score("你真笨", snap)
	two := Score("你真笨真蠢", snap)
	assert.Less(t, two, one)
}

func TestScoreDontMatchIgnoresCase(t *testing.T) {
	snap := snapWithTone(0.2)
	snap.Donts = models.StringList{"DUMB"}

	assert.InDelta(t, 0.7, Score("that was dumb", snap), 1e-9)
}

func TestScoreDoBonus(t *testing.T) {
	snap := snapWithTone(0.2)
	snap.Dos = models.StringList{"鼓励", "倾听"}

	// Zero matched dos applies the 0.8 floor factor.
	assert.InDelta(t, 0.8, Score("今天天气不错", snap), 1e-9)

	// Full coverage restores the full multiplier.
	assert.InDelta(t, 1.0, Score("我会鼓励你并倾听你", snap), 1e-9)

	// Half coverage lands in between.
	half := Score("我会鼓励你", snap)
	assert.InDelta(t, 0.9, half, 1e-9)
}

func TestScoreBounds(t *testing.T) {
	snap := snapWithTone(0.0)
	snap.Donts = models.StringList{"哈", "呀", "啊", "笨", "蠢"}
	snap.Dos = models.StringList{"绝不出现的词"}

	got := Score("哈哈呀啊你真笨真蠢", snap)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestScoreDeterministic(t *testing.T) {
	snap := snapWithTone(0.7)
	snap.Dos = models.StringList{"谢谢"}
	text := "谢谢您的问题"
	assert.Equal(t, Score(text, snap), Score(text, snap))
}
