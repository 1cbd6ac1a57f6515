package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/models"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// TrackCacheRepository persists track metadata in the cached_tracks table.
//
// A track observed through the API and later through Music.app is the same
// row: Upsert merges identifiers into an existing record when any of them
// already match.
type TrackCacheRepository struct {
	db *sql.DB
}

// NewTrackCacheRepository creates a new TrackCacheRepository with the given database connection
func NewTrackCacheRepository(db *sql.DB) *TrackCacheRepository {
	return &TrackCacheRepository{db: db}
}

// Upsert stores a track, merging with an existing row when any identifier
// matches. Returns the stored row.
func (r *TrackCacheRepository) Upsert(track *models.CachedTrack) (*models.CachedTrack, error) {
	if err := track.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.findByAnyID(track.CatalogID, track.LibraryID, track.PersistentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()

	if existing != nil {
		merged := mergeTrack(existing, track)
		merged.UpdatedAt = now

		query := `
			UPDATE cached_tracks
			SET catalog_id = ?, library_id = ?, persistent_id = ?, name = ?, artist = ?, album = ?, isrc = ?, explicit = ?, duration_ms = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := r.db.Exec(query,
			nullable(merged.CatalogID),
			nullable(merged.LibraryID),
			nullable(merged.PersistentID),
			merged.Name,
			merged.Artist,
			merged.Album,
			merged.ISRC,
			merged.Explicit,
			merged.DurationMS,
			now,
			existing.RowID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update cached track: %w", err)
		}
		return merged, nil
	}

	query := `
		INSERT INTO cached_tracks (catalog_id, library_id, persistent_id, name, artist, album, isrc, explicit, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		nullable(track.CatalogID),
		nullable(track.LibraryID),
		nullable(track.PersistentID),
		track.Name,
		track.Artist,
		track.Album,
		track.ISRC,
		track.Explicit,
		track.DurationMS,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cached track: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted row id: %w", err)
	}

	stored := *track
	stored.RowID = rowID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// GetByRowID retrieves a cached track by its primary key.
func (r *TrackCacheRepository) GetByRowID(rowID int64) (*models.CachedTrack, error) {
	return r.scanOne(r.db.QueryRow(selectTracks+" WHERE id = ?", rowID))
}

// GetByCatalogID retrieves a cached track by its catalog id.
func (r *TrackCacheRepository) GetByCatalogID(catalogID string) (*models.CachedTrack, error) {
	return r.getBy("catalog_id", catalogID)
}

// GetByLibraryID retrieves a cached track by its library id.
func (r *TrackCacheRepository) GetByLibraryID(libraryID string) (*models.CachedTrack, error) {
	return r.getBy("library_id", libraryID)
}

// GetByPersistentID retrieves a cached track by its Music.app persistent id.
func (r *TrackCacheRepository) GetByPersistentID(persistentID string) (*models.CachedTrack, error) {
	return r.getBy("persistent_id", persistentID)
}

// GetByISRC retrieves a cached track by ISRC code.
func (r *TrackCacheRepository) GetByISRC(isrc string) (*models.CachedTrack, error) {
	if isrc == "" {
		return nil, fmt.Errorf("%w: empty isrc", shared.ErrInvalidInput)
	}

	query := selectTracks + ` WHERE isrc = ? LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, isrc))
}

// List retrieves cached tracks, optionally filtered by artist.
func (r *TrackCacheRepository) List(artist string) ([]*models.CachedTrack, error) {
	query := selectTracks
	args := []any{}

	if artist != "" {
		query += " WHERE artist = ?"
		args = append(args, artist)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// Count returns the number of cached tracks.
func (r *TrackCacheRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cached_tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached tracks: %w", err)
	}
	return count, nil
}

// Purge removes rows not updated since the cutoff and returns how many were
// deleted.
func (r *TrackCacheRepository) Purge(olderThan time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM cached_tracks WHERE updated_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached tracks: %w", err)
	}
	return result.RowsAffected()
}

const selectTracks = `
	SELECT id, catalog_id, library_id, persistent_id, name, artist, album, isrc, explicit, duration_ms, created_at, updated_at
	FROM cached_tracks`

func (r *TrackCacheRepository) getBy(column, value string) (*models.CachedTrack, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty %s", shared.ErrInvalidInput, column)
	}
	return r.scanOne(r.db.QueryRow(selectTracks+fmt.Sprintf(" WHERE %s = ?", column), value))
}

func (r *TrackCacheRepository) findByAnyID(catalogID, libraryID, persistentID string) (*models.CachedTrack, error) {
	query := selectTracks + `
	WHERE (catalog_id = ? AND catalog_id IS NOT NULL)
	   OR (library_id = ? AND library_id IS NOT NULL)
	   OR (persistent_id = ? AND persistent_id IS NOT NULL)
	LIMIT 1`

	track, err := r.scanOne(r.db.QueryRow(query, nullable(catalogID), nullable(libraryID), nullable(persistentID)))
	if err != nil {
		if err == ErrCacheMiss {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return track, nil
}

func (r *TrackCacheRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	var (
		track        models.CachedTrack
		catalogID    sql.NullString
		libraryID    sql.NullString
		persistentID sql.NullString
	)

	err := row.Scan(
		&track.RowID,
		&catalogID,
		&libraryID,
		&persistentID,
		&track.Name,
		&track.Artist,
		&track.Album,
		&track.ISRC,
		&track.Explicit,
		&track.DurationMS,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached track: %w", err)
	}

	track.CatalogID = catalogID.String
	track.LibraryID = libraryID.String
	track.PersistentID = persistentID.String
	return &track, nil
}

func scanTrack(rows *sql.Rows) (*models.CachedTrack, error) {
	var (
		track        models.CachedTrack
		catalogID    sql.NullString
		libraryID    sql.NullString
		persistentID sql.NullString
	)

	err := rows.Scan(
		&track.RowID,
		&catalogID,
		&libraryID,
		&persistentID,
		&track.Name,
		&track.Artist,
		&track.Album,
		&track.ISRC,
		&track.Explicit,
		&track.DurationMS,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached track: %w", err)
	}

	track.CatalogID = catalogID.String
	track.LibraryID = libraryID.String
	track.PersistentID = persistentID.String
	return &track, nil
}

// mergeTrack overlays fresh metadata on an existing row, never erasing an
// identifier that was already known.
func mergeTrack(existing, fresh *models.CachedTrack) *models.CachedTrack {
	merged := *existing

	if fresh.CatalogID != "" {
		merged.CatalogID = fresh.CatalogID
	}
	if fresh.LibraryID != "" {
		merged.LibraryID = fresh.LibraryID
	}
	if fresh.PersistentID != "" {
		merged.PersistentID = fresh.PersistentID
	}
	if fresh.Name != "" {
		merged.Name = fresh.Name
	}
	if fresh.Artist != "" {
		merged.Artist = fresh.Artist
	}
	if fresh.Album != "" {
		merged.Album = fresh.Album
	}
	if fresh.ISRC != "" {
		merged.ISRC = fresh.ISRC
	}
	if fresh.DurationMS != 0 {
		merged.DurationMS = fresh.DurationMS
	}
	merged.Explicit = merged.Explicit || fresh.Explicit

	return &merged
}

// nullable maps empty strings to NULL so partial unique indexes ignore
// unknown identifiers.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
