package emotion

import "strings"

// Type is a coarse emotion label attached to assistant text.
type Type string

const (
	Happy      Type = "happy"
	Thinking   Type = "thinking"
	Surprised  Type = "surprised"
	Empathetic Type = "empathetic"
	Warning    Type = "warning"
	Comforting Type = "comforting"
	Neutral    Type = "neutral"
)

// Labels lists all canonical emotion labels.
func Labels() []Type {
	return []Type{Happy, Thinking, Surprised, Empathetic, Warning, Comforting, Neutral}
}

// neutralEmoji is the final fallback glyph when no map resolves a label.
const neutralEmoji = "🙂"

// keywordSet pairs a label with its trigger keywords. Order in this slice is
// the classification priority: the first set with a match wins.
type keywordSet struct {
	label    Type
	keywords []string
}

var keywordSets = []keywordSet{
	{Happy, []string{"开心", "高兴", "快乐", "幸福", "哈哈", "呵呵", "真好", "太棒了", "awesome", "great", "wonderful"}},
	{Thinking, []string{"思考", "想想", "考虑", "疑惑", "问题", "为什么", "如何", "怎样", "think", "consider", "wonder"}},
	{Surprised, []string{"惊讶", "惊奇", "居然", "竟然", "没想到", "天啊", "哇", "surprise", "amazing", "wow"}},
	{Empathetic, []string{"理解", "明白", "感受", "体会", "同情", "抱歉", "对不起", "understand", "feel", "sorry"}},
	{Warning, []string{"危险", "警告", "注意", "小心", "不要", "别", "warning", "careful", "danger"}},
	{Comforting, []string{"安慰", "鼓励", "支持", "加油", "没关系", "会好的", "comfort", "encourage", "support"}},
}

// Classify maps free text to an emotion label using case-insensitive substring
// matching against fixed bilingual keyword sets, tested in priority order.
// Deterministic and total; unmatched text is neutral.
func Classify(text string) Type {
	lower := strings.ToLower(text)

	for _, set := range keywordSets {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.label
			}
		}
	}

	return Neutral
}

var defaultEmojiMap = map[Type]string{
	Happy:      "😊",
	Thinking:   "🤔",
	Surprised:  "😲",
	Empathetic: "🥺",
	Warning:    "⚠️",
	Comforting: "🤗",
	Neutral:    neutralEmoji,
}

// DefaultEmojiMap returns a copy of the built-in label-to-emoji mapping, used
// to seed new personas' reaction maps.
func DefaultEmojiMap() map[string]string {
	out := make(map[string]string, len(defaultEmojiMap))
	for label, emoji := range defaultEmojiMap {
		out[string(label)] = emoji
	}
	return out
}

// ToEmoji resolves a label to an emoji glyph. Lookup order: persona override
// map, built-in defaults, literal neutral glyph. Never fails, even for labels
// outside the canonical set.
func ToEmoji(label Type, override map[string]string) string {
	if emoji, ok := override[string(label)]; ok && emoji != "" {
		return emoji
	}
	if emoji, ok := defaultEmojiMap[label]; ok {
		return emoji
	}
	return neutralEmoji
}
