package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/migrations"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newEntry(identifier, title, folderPath string) *models.Entry {
	return &models.Entry{
		Identifier:  identifier,
		Title:       title,
		Publisher:   "Circle Nimbus",
		Category:    "Game",
		Tags:        "Fantasy,RPG",
		FolderPath:  folderPath,
		Executables: models.StringList{"start.exe"},
	}
}

func TestCreateAndRetrieveEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	entry := newEntry("RJ123456", "Magical Quest", "/games/RJ123456 Magical Quest")
	require.NoError(t, svc.CreateEntry(ctx, entry))
	require.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	got, err := svc.RetrieveEntry(ctx, RetrieveEntryOptions{ID: &entry.ID})
	require.NoError(t, err)
	assert.Equal(t, "RJ123456", got.Identifier)
	assert.Equal(t, "Magical Quest", got.Title)
	assert.Equal(t, models.StringList{"start.exe"}, got.Executables)
}

func TestRetrieveEntryNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.RetrieveEntry(context.Background(), RetrieveEntryOptions{ID: pointerutil.Int(999)})
	require.ErrorIs(t, err, errcodes.NotFound("Entry"))
}

func TestRetrieveEntryByFolderPath(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	entry := newEntry("RJ123456", "Magical Quest", "/games/RJ123456")
	require.NoError(t, svc.CreateEntry(ctx, entry))

	// Unnormalized input should still match the stored clean path.
	messy := "/games//RJ123456/"
	got, err := svc.RetrieveEntry(ctx, RetrieveEntryOptions{FolderPath: &messy})
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
}

func TestListEntriesFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first := newEntry("RJ111111", "Magical Quest", "/games/RJ111111 Magical Quest")
	second := newEntry("RJ222222", "Dungeon Saga", "/games/RJ222222")
	second.Publisher = "Studio Comet"
	second.Category = "Voiced Comic"
	second.Tags = "Horror"
	third := newEntry("VJ333333", "Sky Garden", "/games/VJ333333 deluxe quest edition")

	for _, e := range []*models.Entry{first, second, third} {
		require.NoError(t, svc.CreateEntry(ctx, e))
	}

	t.Run("by identifier substring", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, ListEntriesOptions{Identifier: pointerutil.String("rj1")})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "RJ111111", entries[0].Identifier)
	})

	t.Run("title also matches folder path", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, ListEntriesOptions{Title: pointerutil.String("quest")})
		require.NoError(t, err)
		require.Len(t, entries, 2)
	})

	t.Run("by publisher", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, ListEntriesOptions{Publisher: pointerutil.String("comet")})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "RJ222222", entries[0].Identifier)
	})

	t.Run("category also matches tags", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, ListEntriesOptions{Category: pointerutil.String("horror")})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "RJ222222", entries[0].Identifier)
	})

	t.Run("no matches", func(t *testing.T) {
		entries, err := svc.ListEntries(ctx, ListEntriesOptions{Title: pointerutil.String("nonexistent")})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestListEntriesSortAndPaging(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for _, id := range []string{"RJ111111", "RJ222222", "RJ333333"} {
		require.NoError(t, svc.CreateEntry(ctx, newEntry(id, "Title "+id, "/games/"+id)))
	}

	entries, total, err := svc.ListEntriesWithTotal(ctx, ListEntriesOptions{
		Limit: pointerutil.Int(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 2)
	// Default sort is newest first.
	assert.Equal(t, "RJ333333", entries[0].Identifier)

	entries, err = svc.ListEntries(ctx, ListEntriesOptions{
		Sort:   pointerutil.String(SortOldest),
		Limit:  pointerutil.Int(1),
		Offset: pointerutil.Int(1),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "RJ222222", entries[0].Identifier)
}

func TestUpdateEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	entry := newEntry("RJ123456", "Magical Quest", "/games/RJ123456")
	require.NoError(t, svc.CreateEntry(ctx, entry))

	entry.Title = "Magical Quest DX"
	entry.Rating = 4.5
	require.NoError(t, svc.UpdateEntry(ctx, entry, UpdateEntryOptions{Columns: []string{"title", "rating"}}))

	got, err := svc.RetrieveEntry(ctx, RetrieveEntryOptions{ID: &entry.ID})
	require.NoError(t, err)
	assert.Equal(t, "Magical Quest DX", got.Title)
	assert.InDelta(t, 4.5, got.Rating, 0.001)
	// Publisher wasn't in the column list, so it keeps its old value.
	assert.Equal(t, "Circle Nimbus", got.Publisher)
}

func TestDeleteEntry(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	entry := newEntry("RJ123456", "Magical Quest", "/games/RJ123456")
	require.NoError(t, svc.CreateEntry(ctx, entry))

	require.NoError(t, svc.DeleteEntry(ctx, entry.ID))

	_, err := svc.RetrieveEntry(ctx, RetrieveEntryOptions{ID: &entry.ID})
	require.ErrorIs(t, err, errcodes.NotFound("Entry"))
}

func TestListFolderPaths(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ111111", "One", "/games/RJ111111/")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ222222", "Two", "/games/RJ222222")))

	paths, err := svc.ListFolderPaths(ctx)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, filepath.Clean("/games/RJ111111"))
	assert.Contains(t, paths, filepath.Clean("/games/RJ222222"))
}

func TestFindDuplicateIdentifiers(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ111111", "One", "/games/a")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ111111", "One again", "/games/b")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ222222", "Two", "/games/c")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("VJ333333", "Three", "/games/d")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("VJ333333", "Three again", "/games/e")))
	require.NoError(t, svc.CreateEntry(ctx, newEntry("VJ333333", "Three once more", "/games/f")))

	groups, err := svc.FindDuplicateIdentifiers(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	require.Len(t, groups[0], 2)
	assert.Equal(t, "RJ111111", groups[0][0].Identifier)

	require.Len(t, groups[1], 3)
	assert.Equal(t, "VJ333333", groups[1][0].Identifier)

	// Every entry lands in exactly one group.
	seen := map[int]bool{}
	for _, group := range groups {
		for _, entry := range group {
			assert.False(t, seen[entry.ID])
			seen[entry.ID] = true
		}
	}
}

func TestFindDuplicateIdentifiersNone(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateEntry(ctx, newEntry("RJ111111", "One", "/games/a")))

	groups, err := svc.FindDuplicateIdentifiers(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
