package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/models"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testTrack() *models.CachedTrack {
	return &models.CachedTrack{
		CatalogID:  "1440806041",
		Name:       "Bohemian Rhapsody",
		Artist:     "Queen",
		Album:      "A Night at the Opera",
		ISRC:       "GBUM71029604",
		DurationMS: 354000,
	}
}

func TestTrackCacheRepository(t *testing.T) {
	t.Run("Upsert Inserts New Row", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		stored, err := repo.Upsert(testTrack())
		if err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}
		if stored.RowID == 0 {
			t.Error("row id should be set after insert")
		}
	})

	t.Run("Upsert Merges Identifiers", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		first, err := repo.Upsert(testTrack())
		if err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		// Same catalog id observed again, this time with the Music.app view.
		merged, err := repo.Upsert(&models.CachedTrack{
			CatalogID:    "1440806041",
			PersistentID: "FEDCBA9876543210",
			Name:         "Bohemian Rhapsody",
		})
		if err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		if merged.RowID != first.RowID {
			t.Errorf("expected merge into row %d, got %d", first.RowID, merged.RowID)
		}
		if merged.PersistentID != "FEDCBA9876543210" {
			t.Error("expected persistent id to be added")
		}
		if merged.ISRC != "GBUM71029604" {
			t.Error("expected existing metadata to survive the merge")
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row after merge, got %d", count)
		}
	})

	t.Run("Upsert Rejects Invalid Rows", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		if _, err := repo.Upsert(&models.CachedTrack{Name: "No Identifiers"}); err == nil {
			t.Error("expected validation error for row without identifiers")
		}
		if _, err := repo.Upsert(&models.CachedTrack{CatalogID: "123456789"}); err == nil {
			t.Error("expected validation error for row without a name")
		}
	})

	t.Run("Lookups By Each Identifier", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		track := testTrack()
		track.LibraryID = "i.abc123"
		track.PersistentID = "FEDCBA9876543210"
		if _, err := repo.Upsert(track); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		tc := []struct {
			name   string
			lookup func() (*models.CachedTrack, error)
		}{
			{"Catalog", func() (*models.CachedTrack, error) { return repo.GetByCatalogID("1440806041") }},
			{"Library", func() (*models.CachedTrack, error) { return repo.GetByLibraryID("i.abc123") }},
			{"Persistent", func() (*models.CachedTrack, error) { return repo.GetByPersistentID("FEDCBA9876543210") }},
			{"ISRC", func() (*models.CachedTrack, error) { return repo.GetByISRC("GBUM71029604") }},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				got, err := c.lookup()
				if err != nil {
					t.Fatalf("lookup failed: %v", err)
				}
				if got.Name != "Bohemian Rhapsody" {
					t.Errorf("unexpected track %+v", got)
				}
			})
		}
	})

	t.Run("Miss Returns ErrCacheMiss", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		_, err := repo.GetByCatalogID("999999999")
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Empty Identifier Rejected", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		if _, err := repo.GetByCatalogID(""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("List Filters By Artist", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		if _, err := repo.Upsert(testTrack()); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}
		if _, err := repo.Upsert(&models.CachedTrack{CatalogID: "222222222", Name: "Yesterday", Artist: "The Beatles"}); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		tracks, err := repo.List("Queen")
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Artist != "Queen" {
			t.Errorf("unexpected tracks %+v", tracks)
		}

		all, err := repo.List("")
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(all))
		}
	})

	t.Run("Purge Removes Stale Rows", func(t *testing.T) {
		repo := NewTrackCacheRepository(setupTestDB(t))

		if _, err := repo.Upsert(testTrack()); err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}

		removed, err := repo.Purge(time.Now().Add(-time.Hour))
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if removed != 0 {
			t.Errorf("expected fresh row to survive, removed %d", removed)
		}

		removed, err = repo.Purge(time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 stale row removed, got %d", removed)
		}
	})
}

func TestAlbumCacheRepository(t *testing.T) {
	t.Run("Upsert And Lookup", func(t *testing.T) {
		repo := NewAlbumCacheRepository(setupTestDB(t))

		stored, err := repo.Upsert(&models.CachedAlbum{
			CatalogID:  "1440806723",
			Name:       "A Night at the Opera",
			Artist:     "Queen",
			TrackCount: 12,
		})
		if err != nil {
			t.Fatalf("failed to upsert album: %v", err)
		}
		if stored.RowID == 0 {
			t.Error("row id should be set after insert")
		}

		got, err := repo.GetByCatalogID("1440806723")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.Name != "A Night at the Opera" || got.TrackCount != 12 {
			t.Errorf("unexpected album %+v", got)
		}
	})

	t.Run("Upsert Merges Library Id", func(t *testing.T) {
		repo := NewAlbumCacheRepository(setupTestDB(t))

		first, err := repo.Upsert(&models.CachedAlbum{CatalogID: "1440806723", Name: "A Night at the Opera"})
		if err != nil {
			t.Fatalf("failed to upsert album: %v", err)
		}

		merged, err := repo.Upsert(&models.CachedAlbum{CatalogID: "1440806723", LibraryID: "l.xyz987", Name: "A Night at the Opera"})
		if err != nil {
			t.Fatalf("failed to upsert album: %v", err)
		}
		if merged.RowID != first.RowID {
			t.Errorf("expected merge into row %d, got %d", first.RowID, merged.RowID)
		}
		if merged.LibraryID != "l.xyz987" {
			t.Error("expected library id to be added")
		}

		got, err := repo.GetByLibraryID("l.xyz987")
		if err != nil {
			t.Fatalf("lookup by merged id failed: %v", err)
		}
		if got.RowID != first.RowID {
			t.Errorf("unexpected album %+v", got)
		}
	})

	t.Run("Miss Returns ErrCacheMiss", func(t *testing.T) {
		repo := NewAlbumCacheRepository(setupTestDB(t))

		_, err := repo.GetByLibraryID("l.unknown")
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})
}

func TestNameIndexRepository(t *testing.T) {
	t.Run("Put And Lookup Use Normalized Keys", func(t *testing.T) {
		db := setupTestDB(t)
		tracks := NewTrackCacheRepository(db)
		index := NewNameIndexRepository(db)

		stored, err := tracks.Upsert(testTrack())
		if err != nil {
			t.Fatalf("failed to upsert track: %v", err)
		}
		if err := index.Put("Bohemian Rhapsody", models.EntityTrack, stored.RowID); err != nil {
			t.Fatalf("failed to index name: %v", err)
		}

		// A loose rendering of the same name hits the same key.
		got, err := index.LookupTrack(tracks, "bohemian   rhapsody!")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got.RowID != stored.RowID {
			t.Errorf("expected row %d, got %d", stored.RowID, got.RowID)
		}
	})

	t.Run("Entities Are Separate Namespaces", func(t *testing.T) {
		db := setupTestDB(t)
		index := NewNameIndexRepository(db)

		if err := index.Put("Greatest Hits", models.EntityTrack, 1); err != nil {
			t.Fatalf("failed to index name: %v", err)
		}
		if err := index.Put("Greatest Hits", models.EntityAlbum, 2); err != nil {
			t.Fatalf("failed to index name: %v", err)
		}

		trackRef, err := index.Lookup("Greatest Hits", models.EntityTrack)
		if err != nil {
			t.Fatalf("track lookup failed: %v", err)
		}
		albumRef, err := index.Lookup("Greatest Hits", models.EntityAlbum)
		if err != nil {
			t.Fatalf("album lookup failed: %v", err)
		}
		if trackRef != 1 || albumRef != 2 {
			t.Errorf("expected separate refs, got track=%d album=%d", trackRef, albumRef)
		}
	})

	t.Run("Put Replaces Existing Ref", func(t *testing.T) {
		db := setupTestDB(t)
		index := NewNameIndexRepository(db)

		if err := index.Put("Chill", models.EntityTrack, 1); err != nil {
			t.Fatalf("failed to index name: %v", err)
		}
		if err := index.Put("Chill", models.EntityTrack, 9); err != nil {
			t.Fatalf("failed to replace index entry: %v", err)
		}

		ref, err := index.Lookup("Chill", models.EntityTrack)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if ref != 9 {
			t.Errorf("expected replaced ref 9, got %d", ref)
		}
	})

	t.Run("Miss Returns ErrCacheMiss", func(t *testing.T) {
		index := NewNameIndexRepository(setupTestDB(t))

		if _, err := index.Lookup("Unknown", models.EntityTrack); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Symbol Only Names Are Not Indexed", func(t *testing.T) {
		index := NewNameIndexRepository(setupTestDB(t))

		if err := index.Put("!!!", models.EntityTrack, 1); err != nil {
			t.Fatalf("expected silent skip, got %v", err)
		}
		if _, err := index.Lookup("!!!", models.EntityTrack); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})
}
