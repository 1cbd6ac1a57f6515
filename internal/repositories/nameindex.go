package repositories

import (
	"database/sql"
	"fmt"

	"github.com/epheterson/mcp-applemusic/internal/models"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
)

// NameIndexRepository maps normalized display names to cached rows so a
// repeated lookup for the same loose text skips the store round trip.
//
// Keys are produced by the same normalization pipeline the matcher uses, so
// any query that would fuzzy-match a cached name hits the index.
type NameIndexRepository struct {
	db *sql.DB
}

// NewNameIndexRepository creates a new NameIndexRepository with the given database connection
func NewNameIndexRepository(db *sql.DB) *NameIndexRepository {
	return &NameIndexRepository{db: db}
}

// Put records that the given display name resolves to the cached row.
func (r *NameIndexRepository) Put(name string, entity models.Entity, refID int64) error {
	key := resolve.Normalize(name).Normalized
	if key == "" {
		return nil
	}

	query := `
		INSERT INTO name_index (name_key, entity, ref_id)
		VALUES (?, ?, ?)
		ON CONFLICT(name_key, entity) DO UPDATE SET ref_id = excluded.ref_id
	`
	if _, err := r.db.Exec(query, key, string(entity), refID); err != nil {
		return fmt.Errorf("failed to index name: %w", err)
	}
	return nil
}

// Lookup returns the cached row id a display name resolves to.
func (r *NameIndexRepository) Lookup(name string, entity models.Entity) (int64, error) {
	key := resolve.Normalize(name).Normalized
	if key == "" {
		return 0, ErrCacheMiss
	}

	var refID int64
	err := r.db.QueryRow(
		"SELECT ref_id FROM name_index WHERE name_key = ? AND entity = ?",
		key, string(entity),
	).Scan(&refID)
	if err == sql.ErrNoRows {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query name index: %w", err)
	}
	return refID, nil
}

// LookupTrack resolves a display name straight to a cached track.
func (r *NameIndexRepository) LookupTrack(tracks *TrackCacheRepository, name string) (*models.CachedTrack, error) {
	refID, err := r.Lookup(name, models.EntityTrack)
	if err != nil {
		return nil, err
	}
	return tracks.GetByRowID(refID)
}
