package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnioa/studymate-sync/internal/entities"
)

func setupTestStore(t *testing.T) *SnapshotStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store, err := New(db)
	require.NoError(t, err)
	return store
}

type homePayload struct {
	Personalized []entities.Content `json:"personalizedContent"`
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	in := homePayload{Personalized: []entities.Content{{ID: 1, Title: "X"}}}
	require.NoError(t, store.Put(entities.SnapshotKeyLearningHome, in))

	var out homePayload
	require.NoError(t, store.Get(entities.SnapshotKeyLearningHome, &out))
	assert.Equal(t, in, out)

	at, err := store.UpdatedAt(entities.SnapshotKeyLearningHome)
	require.NoError(t, err)
	assert.NotNil(t, at)
}

func TestSnapshotOverwrite(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Put("k", homePayload{Personalized: []entities.Content{{ID: 1}}}))
	require.NoError(t, store.Put("k", homePayload{Personalized: []entities.Content{{ID: 2}}}))

	var out homePayload
	require.NoError(t, store.Get("k", &out))
	require.Len(t, out.Personalized, 1)
	assert.Equal(t, int64(2), out.Personalized[0].ID)
}

func TestSnapshotMissingKey(t *testing.T) {
	store := setupTestStore(t)

	var out homePayload
	assert.ErrorIs(t, store.Get("never_written", &out), ErrNoSnapshot)

	_, err := store.UpdatedAt("never_written")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotDelete(t *testing.T) {
	store := setupTestStore(t)

	require.NoError(t, store.Put("k", homePayload{}))
	require.NoError(t, store.Delete("k"))

	var out homePayload
	assert.ErrorIs(t, store.Get("k", &out), ErrNoSnapshot)

	// Absent keys are a no-op.
	require.NoError(t, store.Delete("k"))
}
