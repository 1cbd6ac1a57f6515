package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/models"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// AlbumCacheRepository persists album metadata in the cached_albums table.
type AlbumCacheRepository struct {
	db *sql.DB
}

// NewAlbumCacheRepository creates a new AlbumCacheRepository with the given database connection
func NewAlbumCacheRepository(db *sql.DB) *AlbumCacheRepository {
	return &AlbumCacheRepository{db: db}
}

// Upsert stores an album, merging with an existing row when either
// identifier matches. Returns the stored row.
func (r *AlbumCacheRepository) Upsert(album *models.CachedAlbum) (*models.CachedAlbum, error) {
	if err := album.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.findByAnyID(album.CatalogID, album.LibraryID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()

	if existing != nil {
		merged := *existing
		if album.CatalogID != "" {
			merged.CatalogID = album.CatalogID
		}
		if album.LibraryID != "" {
			merged.LibraryID = album.LibraryID
		}
		if album.Name != "" {
			merged.Name = album.Name
		}
		if album.Artist != "" {
			merged.Artist = album.Artist
		}
		if album.TrackCount != 0 {
			merged.TrackCount = album.TrackCount
		}
		merged.UpdatedAt = now

		query := `
			UPDATE cached_albums
			SET catalog_id = ?, library_id = ?, name = ?, artist = ?, track_count = ?, updated_at = ?
			WHERE id = ?
		`
		_, err := r.db.Exec(query,
			nullable(merged.CatalogID),
			nullable(merged.LibraryID),
			merged.Name,
			merged.Artist,
			merged.TrackCount,
			now,
			existing.RowID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update cached album: %w", err)
		}
		return &merged, nil
	}

	query := `
		INSERT INTO cached_albums (catalog_id, library_id, name, artist, track_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		nullable(album.CatalogID),
		nullable(album.LibraryID),
		album.Name,
		album.Artist,
		album.TrackCount,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cached album: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted row id: %w", err)
	}

	stored := *album
	stored.RowID = rowID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// GetByCatalogID retrieves a cached album by its catalog id.
func (r *AlbumCacheRepository) GetByCatalogID(catalogID string) (*models.CachedAlbum, error) {
	return r.getBy("catalog_id", catalogID)
}

// GetByLibraryID retrieves a cached album by its library id.
func (r *AlbumCacheRepository) GetByLibraryID(libraryID string) (*models.CachedAlbum, error) {
	return r.getBy("library_id", libraryID)
}

// List retrieves all cached albums.
func (r *AlbumCacheRepository) List() ([]*models.CachedAlbum, error) {
	rows, err := r.db.Query(selectAlbums + " ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query cached albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.CachedAlbum
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}

// Count returns the number of cached albums.
func (r *AlbumCacheRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cached_albums").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached albums: %w", err)
	}
	return count, nil
}

const selectAlbums = `
	SELECT id, catalog_id, library_id, name, artist, track_count, created_at, updated_at
	FROM cached_albums`

func (r *AlbumCacheRepository) getBy(column, value string) (*models.CachedAlbum, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty %s", shared.ErrInvalidInput, column)
	}

	var (
		album     models.CachedAlbum
		catalogID sql.NullString
		libraryID sql.NullString
	)

	row := r.db.QueryRow(selectAlbums+fmt.Sprintf(" WHERE %s = ?", column), value)
	err := row.Scan(&album.RowID, &catalogID, &libraryID, &album.Name, &album.Artist, &album.TrackCount, &album.CreatedAt, &album.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached album: %w", err)
	}

	album.CatalogID = catalogID.String
	album.LibraryID = libraryID.String
	return &album, nil
}

func (r *AlbumCacheRepository) findByAnyID(catalogID, libraryID string) (*models.CachedAlbum, error) {
	if catalogID != "" {
		if album, err := r.GetByCatalogID(catalogID); err == nil {
			return album, nil
		} else if err != ErrCacheMiss {
			return nil, err
		}
	}
	if libraryID != "" {
		if album, err := r.GetByLibraryID(libraryID); err == nil {
			return album, nil
		} else if err != ErrCacheMiss {
			return nil, err
		}
	}
	return nil, sql.ErrNoRows
}

func scanAlbum(rows *sql.Rows) (*models.CachedAlbum, error) {
	var (
		album     models.CachedAlbum
		catalogID sql.NullString
		libraryID sql.NullString
	)

	err := rows.Scan(&album.RowID, &catalogID, &libraryID, &album.Name, &album.Artist, &album.TrackCount, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached album: %w", err)
	}

	album.CatalogID = catalogID.String
	album.LibraryID = libraryID.String
	return &album, nil
}
