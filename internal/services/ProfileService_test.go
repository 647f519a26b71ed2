package services

import (
	"context"
	"testing"
	"time"
	"wayfarer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetProfile_CreatesDefault(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())

	profile, err := p.GetProfile(context.Background(), "u1")
	require.NoError(t, err)

	createdAt, ok := profile["created_at"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339Nano, createdAt)
	assert.NoError(t, err)
	assert.NotNil(t, profile["preferences"])
}

func TestProfileService_GetProfile_PersistsDefault(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())
	ctx := context.Background()

	first, err := p.GetProfile(ctx, "u1")
	require.NoError(t, err)
	second, err := p.GetProfile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first["created_at"], second["created_at"])
}

func TestProfileService_GetProfile_RequiresUser(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())
	_, err := p.GetProfile(context.Background(), "")
	assert.Error(t, err)
}

func TestProfileService_UpdateProfile_AllowlistsFields(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())

	profile, err := p.UpdateProfile(context.Background(), "u1", map[string]interface{}{
		"display_name": "Ana",
		"home_base":    "Lisbon",
		"preferences":  map[string]interface{}{"pace": "slow"},
		"role":         "admin",
		"balance":      9999,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", profile["display_name"])
	assert.Equal(t, "Lisbon", profile["home_base"])
	assert.NotContains(t, profile, "role")
	assert.NotContains(t, profile, "balance")
	assert.Contains(t, profile, "updated_at")
}

func TestProfileService_UpdateProfile_EmptyPatchReturnsProfile(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())

	profile, err := p.UpdateProfile(context.Background(), "u1", map[string]interface{}{
		"role": "admin",
	})
	require.NoError(t, err)

	assert.Contains(t, profile, "created_at")
	assert.NotContains(t, profile, "updated_at")
	assert.NotContains(t, profile, "role")
}

func TestProfileService_UpdateProfile_MergeKeepsOtherFields(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())
	ctx := context.Background()

	_, err := p.UpdateProfile(ctx, "u1", map[string]interface{}{"display_name": "Ana"})
	require.NoError(t, err)
	profile, err := p.UpdateProfile(ctx, "u1", map[string]interface{}{"home_base": "Porto"})
	require.NoError(t, err)

	assert.Equal(t, "Ana", profile["display_name"])
	assert.Equal(t, "Porto", profile["home_base"])
}

func TestProfileService_DeleteProfile(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProfileService(store)
	ctx := context.Background()

	_, err := p.GetProfile(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, p.DeleteProfile(ctx, "u1"))

	doc, err := store.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.False(t, doc.Exists)
}

func TestProfileService_RecordVisit_Validation(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())
	ctx := context.Background()

	assert.Error(t, p.RecordVisit(ctx, "", "Porto"))
	assert.Error(t, p.RecordVisit(ctx, "u1", ""))
}

func TestProfileService_VisitedPlaces_DedupedOldestFirst(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, p.RecordVisit(ctx, "u1", "Porto"))
	require.NoError(t, p.RecordVisit(ctx, "u1", "Lisbon"))
	require.NoError(t, p.RecordVisit(ctx, "u1", "Porto"))

	places, err := p.VisitedPlaces(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Porto", "Lisbon"}, places)
}

func TestProfileService_VisitedPlaces_Empty(t *testing.T) {
	p := NewProfileService(storage.NewMemoryStore())

	places, err := p.VisitedPlaces(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestProfileService_VisitedPlaces_ToleratesLegacyStrings(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProfileService(store)
	ctx := context.Background()

	// Older documents kept bare place names in the array.
	require.NoError(t, store.SetDocument(ctx, "users", "u1", map[string]interface{}{
		"visited_places": []interface{}{
			"Porto",
			map[string]interface{}{"name": "Lisbon", "visited_at": "2026-08-20T10:00:00Z"},
		},
	}, false))

	places, err := p.VisitedPlaces(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Porto", "Lisbon"}, places)
}

func TestProfileService_RecordVisit_StoresNameAndTimestamp(t *testing.T) {
	store := storage.NewMemoryStore()
	p := NewProfileService(store)
	ctx := context.Background()

	require.NoError(t, p.RecordVisit(ctx, "u1", "Sintra"))

	doc, err := store.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	visits := doc.Data["visited_places"].([]interface{})
	require.Len(t, visits, 1)
	visit := visits[0].(map[string]interface{})
	assert.Equal(t, "Sintra", visit["name"])

	_, err = time.Parse(time.RFC3339Nano, visit["visited_at"].(string))
	assert.NoError(t, err)
}
