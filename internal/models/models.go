// package models defines the entities persisted in the local metadata cache
package models

import (
	"fmt"
	"time"
)

// Entity names the kind of record a name_index row points at.
type Entity string

const (
	EntityTrack Entity = "track"
	EntityAlbum Entity = "album"
)

// CachedTrack is a track row in the metadata cache. A track may be known
// under any combination of its three identifier namespaces; empty strings
// mean the identifier has not been observed yet.
type CachedTrack struct {
	RowID        int64
	CatalogID    string
	LibraryID    string
	PersistentID string
	Name         string
	Artist       string
	Album        string
	ISRC         string
	Explicit     bool
	DurationMS   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks that the track can be stored.
func (t *CachedTrack) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("cached track requires a name")
	}
	if t.CatalogID == "" && t.LibraryID == "" && t.PersistentID == "" {
		return fmt.Errorf("cached track requires at least one identifier")
	}
	return nil
}

// CachedAlbum is an album row in the metadata cache.
type CachedAlbum struct {
	RowID      int64
	CatalogID  string
	LibraryID  string
	Name       string
	Artist     string
	TrackCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks that the album can be stored.
func (a *CachedAlbum) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("cached album requires a name")
	}
	if a.CatalogID == "" && a.LibraryID == "" {
		return fmt.Errorf("cached album requires at least one identifier")
	}
	return nil
}
