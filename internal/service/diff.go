package service

import (
	"reflect"

	"ai-persona-chat/backend/internal/models"
)

// Diff computes the field-level differences between two persona snapshots.
// Fields are compared and reported in a fixed order so diff output is stable
// for UI rendering. Identical snapshots yield an empty diff.
func Diff(old, new models.Snapshot) []models.FieldDiff {
	var diffs []models.FieldDiff

	add := func(field string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			diffs = append(diffs, models.FieldDiff{Field: field, OldValue: a, NewValue: b})
		}
	}

	add("name", old.Name, new.Name)
	add("description", old.Description, new.Description)
	add("systemPrompt", old.SystemPrompt, new.SystemPrompt)
	add("tags", old.Tags, new.Tags)
	add("tone", old.Tone, new.Tone)
	add("styleGuide", old.StyleGuide, new.StyleGuide)
	add("dos", old.Dos, new.Dos)
	add("donts", old.Donts, new.Donts)
	add("fewShots", old.FewShots, new.FewShots)

	return diffs
}
