package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]RecordStore {
	t.Helper()

	fileStore, err := NewFileRecordStore(t.TempDir())
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteRecordStore(filepath.Join(t.TempDir(), "funnel.db"))
	require.NoError(t, err)

	stores := map[string]RecordStore{"file": fileStore, "sqlite": sqliteStore}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func sampleRecord(id string) *models.PhaseRecord {
	rec := models.NewPhaseRecord(id)
	rec.AuthorName = "Dana"
	rec.FunnelBlueprint = "# YOUR FUNNEL BLUEPRINT\n\n## HERO SECTION\n"
	rec.ContentGenerated = true
	rec.CraftAnswers = []string{"burnout", "one habit", "guide"}
	rec.BusinessContext = "Executive coaching for founders."
	rec.Flags.FunnelCraftComplete = true
	rec.Flags.ProfileComplete = true
	rec.KnowledgeDocs = []models.KnowledgeDoc{
		{ID: "doc-1", Filename: "about.md", Text: "We coach founders.", UploadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	rec.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)
	return rec
}

func TestRecordStore_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleRecord("acct_1")
			require.NoError(t, store.Put(ctx, want))

			got, err := store.Get(ctx, "acct_1")
			require.NoError(t, err)
			assert.Equal(t, want.FunnelBlueprint, got.FunnelBlueprint)
			assert.Equal(t, want.CraftAnswers, got.CraftAnswers)
			assert.Equal(t, want.Flags, got.Flags)
			assert.True(t, got.ContentGenerated)
			assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
			require.Len(t, got.KnowledgeDocs, 1)
			assert.Equal(t, "about.md", got.KnowledgeDocs[0].Filename)
			assert.True(t, want.KnowledgeDocs[0].UploadedAt.Equal(got.KnowledgeDocs[0].UploadedAt))
		})
	}
}

func TestRecordStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord("acct-2")
			require.NoError(t, store.Put(ctx, rec))

			rec.FunnelBlueprint = "regenerated"
			rec.KnowledgeDocs = nil
			rec.Flags.LandingPageBuilt = true
			require.NoError(t, store.Put(ctx, rec))

			got, err := store.Get(ctx, "acct-2")
			require.NoError(t, err)
			assert.Equal(t, "regenerated", got.FunnelBlueprint)
			assert.Empty(t, got.KnowledgeDocs)
			assert.True(t, got.Flags.LandingPageBuilt)
		})
	}
}

func TestRecordStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRecordStore_RejectsBadAccountID(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "../etc/passwd")
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrNotFound)

			assert.Error(t, store.Put(ctx, models.NewPhaseRecord("")))
		})
	}
}

func TestOpenDB_InMemoryMigratesTwice(t *testing.T) {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM phase_records`).Scan(&n))
	assert.Zero(t, n)
}

func TestFileStorage_CacheInvalidatedOnSave(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	defer fs.Close()

	require.NoError(t, fs.SaveFile("x", "a.txt", []byte("one")))
	data, err := fs.LoadFile("x", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, fs.SaveFile("x", "a.txt", []byte("two")))
	data, err = fs.LoadFile("x", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.True(t, fs.FileExists("x", "a.txt"))
	assert.False(t, fs.FileExists("x", "a.txt.tmp"))
}

func TestFileStorage_EvictsOldest(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	defer fs.Close()
	fs.maxCacheSize = 2

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, fs.SaveFile("", name, []byte(name)))
		_, err := fs.LoadFile("", name)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	fs.cacheMutex.RLock()
	defer fs.cacheMutex.RUnlock()
	assert.Len(t, fs.cache, 2)
	_, hasOldest := fs.cache[filepath.Join(fs.BaseDir, "a")]
	assert.False(t, hasOldest)
}
