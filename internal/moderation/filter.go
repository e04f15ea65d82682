package moderation

import (
	"regexp"
	"strings"
)

// Marker replaces text matched by pattern rules.
const Marker = "[已过滤]"

// Strategy selects how a matched span is rewritten.
type Strategy int

const (
	// ReplaceWithMarker substitutes the whole match with Marker.
	ReplaceWithMarker Strategy = iota
	// MaskWithAsterisks substitutes each rune of the match with '*'.
	MaskWithAsterisks
)

// Rule is one sanitization step: a compiled pattern plus a rewrite strategy.
type Rule struct {
	Pattern  *regexp.Regexp
	Strategy Strategy
}

// Filter sanitizes user and assistant text by applying an ordered rule list.
// The default rule set is idempotent: marker and asterisk output never
// re-matches any rule.
type Filter struct {
	rules []Rule
}

// defaultRules applies pattern groups first, then literal word masking. The
// literal 攻击/暴力 entries are subsumed by the pattern groups and exist so the
// word lists stay independently editable.
func defaultRules() []Rule {
	patterns := []string{
		`(?i)(hack|破解|攻击)`,
		`(恶意|病毒|木马)`,
		`(暴力|血腥|色情)`,
	}
	literals := []string{"违法", "违规", "攻击", "暴力", "仇恨"}

	rules := make([]Rule, 0, len(patterns)+len(literals))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: regexp.MustCompile(p), Strategy: ReplaceWithMarker})
	}
	for _, w := range literals {
		rules = append(rules, Rule{Pattern: regexp.MustCompile(regexp.QuoteMeta(w)), Strategy: MaskWithAsterisks})
	}
	return rules
}

// NewFilter creates a filter with the built-in rule set.
func NewFilter() *Filter {
	return &Filter{rules: defaultRules()}
}

// NewFilterWithRules creates a filter with a custom rule list, applied in
// order. Callers are responsible for keeping custom rule sets idempotent.
func NewFilterWithRules(rules []Rule) *Filter {
	return &Filter{rules: rules}
}

// Sanitize rewrites disallowed spans in text. Clean text is returned
// unchanged; the function is deterministic and never fails.
func (f *Filter) Sanitize(text string) string {
	for _, rule := range f.rules {
		switch rule.Strategy {
		case ReplaceWithMarker:
			text = rule.Pattern.ReplaceAllString(text, Marker)
		case MaskWithAsterisks:
			text = rule.Pattern.ReplaceAllStringFunc(text, func(match string) string {
				return strings.Repeat("*", len([]rune(match)))
			})
		}
	}
	return text
}

// Flagged reports whether sanitizing text would change it.
func (f *Filter) Flagged(text string) bool {
	return f.Sanitize(text) != text
}
