package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// The persona's structured sub-objects are stored as JSON columns. The
// encode/decode step lives here in the storage boundary; everything above it
// works with typed values only.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest any, src any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

// StringList is a JSON-encoded ordered list of strings (tags, dos, donts).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src any) error { return jsonScan(l, src) }

// EmojiMap maps emotion labels to emoji glyphs.
type EmojiMap map[string]string

func (m EmojiMap) Value() (driver.Value, error) {
	if m == nil {
		return jsonValue(map[string]string{})
	}
	return jsonValue(map[string]string(m))
}

func (m *EmojiMap) Scan(src any) error { return jsonScan(m, src) }

// FewShotList is an ordered list of few-shot examples; order matters for
// prompt construction.
type FewShotList []FewShotExample

func (l FewShotList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]FewShotExample{})
	}
	return jsonValue([]FewShotExample(l))
}

func (l *FewShotList) Scan(src any) error { return jsonScan(l, src) }
