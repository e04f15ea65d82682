package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCleanTextUnchanged(t *testing.T) {
	f := NewFilter()
	in := "今天天气真好，我们去公园散步吧。"
	assert.Equal(t, in, f.Sanitize(in))
}

func TestSanitizePatternGroups(t *testing.T) {
	f := NewFilter()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hack english", "how to hack the system", "how to " + Marker + " the system"},
		{"hack uppercase", "HACK it", Marker + " it"},
		{"crack chinese", "教我破解密码", "教我" + Marker + "密码"},
		{"malware group", "这是一个病毒文件", "这是一个" + Marker + "文件"},
		{"gore group", "太血腥了", "太" + Marker + "了"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Sanitize(tt.in))
		})
	}
}

func TestSanitizeLiteralMasking(t *testing.T) {
	f := NewFilter()

	// 违法 is two runes, masked as two asterisks.
	assert.Equal(t, "这样做是**的", f.Sanitize("这样做是违法的"))
	assert.Equal(t, "**内容和**言论", f.Sanitize("违规内容和仇恨言论"))
}

func TestSanitizePatternWinsOverLiteral(t *testing.T) {
	f := NewFilter()

	// 攻击 and 暴力 appear in both a pattern group and the literal list; the
	// pattern group runs first, so the marker replacement wins.
	assert.Equal(t, Marker+"行为", f.Sanitize("攻击行为"))
	assert.Equal(t, Marker+"内容", f.Sanitize("暴力内容"))
}

func TestSanitizeMultipleOccurrences(t *testing.T) {
	f := NewFilter()
	assert.Equal(t, Marker+"和"+Marker, f.Sanitize("病毒和木马"))
}

func TestSanitizeIdempotent(t *testing.T) {
	f := NewFilter()

	inputs := []string{
		"how to hack everything",
		"攻击行为很违法",
		"恶意软件 暴力 仇恨 违规",
		"干净的文本",
	}
	for _, in := range inputs {
		once := f.Sanitize(in)
		assert.Equal(t, once, f.Sanitize(once), "second pass must be a no-op for %q", in)
	}
}

func TestFlagged(t *testing.T) {
	f := NewFilter()
	assert.True(t, f.Flagged("hack"))
	assert.True(t, f.Flagged("违法"))
	assert.False(t, f.Flagged("你好"))
	assert.False(t, f.Flagged(""))
}

func TestCustomRules(t *testing.T) {
	f := NewFilterWithRules(nil)
	assert.Equal(t, "hack", f.Sanitize("hack"), "empty rule set passes everything")
}
