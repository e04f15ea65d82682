package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/moderation"
	"ai-persona-chat/backend/internal/store"
	apperrors "ai-persona-chat/backend/pkg/errors"
)

func newPersonaService() (*PersonaService, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	return NewPersonaService(mem, moderation.NewFilter(), nil), mem
}

func createReq(name string) models.CreatePersonaRequest {
	return models.CreatePersonaRequest{
		Name:         name,
		SystemPrompt: "你是" + name + "。",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newPersonaService()

	p, err := svc.Create(context.Background(), createReq("小助手"))
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.DefaultTone(), p.Tone)
	assert.NotEmpty(t, p.ReactionMap, "reaction map defaults in")
	assert.Contains(t, p.ReactionMap, "happy")
}

func TestCreateStartsAtVersionOne(t *testing.T) {
	svc, _ := newPersonaService()

	p, err := svc.Create(context.Background(), createReq("v1"))
	require.NoError(t, err)

	versions, err := svc.ListVersions(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, p.SystemPrompt, versions[0].SystemPrompt)
}

func TestCreateValidation(t *testing.T) {
	svc, mem := newPersonaService()

	_, err := svc.Create(context.Background(), models.CreatePersonaRequest{SystemPrompt: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = svc.Create(context.Background(), models.CreatePersonaRequest{Name: "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	count, _ := mem.CountPersonas(context.Background())
	assert.Zero(t, count, "rejected input touches no storage")
}

func TestCreateSanitizesText(t *testing.T) {
	svc, _ := newPersonaService()

	p, err := svc.Create(context.Background(), models.CreatePersonaRequest{
		Name:         "正常名字",
		SystemPrompt: "教用户如何hack系统",
	})
	require.NoError(t, err)
	assert.NotContains(t, p.SystemPrompt, "hack")
	assert.Contains(t, p.SystemPrompt, moderation.Marker)
}

func TestUpdateCosmeticDoesNotVersion(t *testing.T) {
	svc, _ := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("cosmetic"))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, models.UpdatePersonaRequest{
		Name:   strPtr("改名了"),
		Avatar: strPtr("🎭"),
	})
	require.NoError(t, err)
	assert.Equal(t, "改名了", updated.Name)

	versions, err := svc.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "cosmetic patch appends no version")
}

func TestUpdateVersionedFieldsAppendVersions(t *testing.T) {
	svc, _ := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("versioned"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, models.UpdatePersonaRequest{SystemPrompt: strPtr("第二版提示词")})
	require.NoError(t, err)
	tone := models.ToneConfig{Gentle: 0.9, Formal: 0.1}
	_, err = svc.Update(ctx, p.ID, models.UpdatePersonaRequest{Tone: &tone})
	require.NoError(t, err)

	versions, err := svc.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	// Newest first, numbered without gaps.
	assert.Equal(t, 3, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, 1, versions[2].Version)
	assert.Equal(t, "第二版提示词", versions[1].SystemPrompt)
}

func TestRestoreAppendsNewVersion(t *testing.T) {
	svc, _ := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("restorable"))
	require.NoError(t, err)
	originalPrompt := p.SystemPrompt

	for _, prompt := range []string{"第二版", "第三版"} {
		_, err = svc.Update(ctx, p.ID, models.UpdatePersonaRequest{SystemPrompt: strPtr(prompt)})
		require.NoError(t, err)
	}

	restored, err := svc.Restore(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, originalPrompt, restored.SystemPrompt)

	versions, err := svc.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, versions, 4, "restore appends, never rewrites history")
	assert.Equal(t, 4, versions[0].Version)
	assert.Equal(t, originalPrompt, versions[0].SystemPrompt)
}

func TestRestoreUnknownVersion(t *testing.T) {
	svc, _ := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("x"))
	require.NoError(t, err)

	_, err = svc.Restore(ctx, p.ID, 99)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteCascades(t *testing.T) {
	svc, mem := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("doomed"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	versions, err := mem.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newPersonaService()
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDiffIdenticalSnapshotsEmpty(t *testing.T) {
	snap := models.Snapshot{
		Name:         "同",
		SystemPrompt: "prompt",
		Tone:         models.DefaultTone(),
		Tags:         models.StringList{"a", "b"},
	}
	assert.Empty(t, Diff(snap, snap))
}

func TestDiffFieldOrder(t *testing.T) {
	old := models.Snapshot{
		Name:         "旧名",
		Description:  "旧描述",
		SystemPrompt: "旧提示",
		Tone:         models.DefaultTone(),
	}
	new := old
	new.Name = "新名"
	new.SystemPrompt = "新提示"
	new.Dos = models.StringList{"鼓励"}

	diffs := Diff(old, new)
	require.Len(t, diffs, 3)
	assert.Equal(t, "name", diffs[0].Field)
	assert.Equal(t, "systemPrompt", diffs[1].Field)
	assert.Equal(t, "dos", diffs[2].Field)
	assert.Equal(t, "旧名", diffs[0].OldValue)
	assert.Equal(t, "新名", diffs[0].NewValue)
}

func TestDiffVersions(t *testing.T) {
	svc, _ := newPersonaService()
	ctx := context.Background()

	p, err := svc.Create(ctx, createReq("diffable"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, p.ID, models.UpdatePersonaRequest{SystemPrompt: strPtr("改过的提示词")})
	require.NoError(t, err)

	diffs, err := svc.DiffVersions(ctx, p.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "systemPrompt", diffs[0].Field)

	_, err = svc.DiffVersions(ctx, p.ID, 1, 9)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
