package services

import (
	"context"

	"github.com/epheterson/mcp-applemusic/internal/resolve"
)

// TokenProvider supplies the credentials the Apple Music API requires.
// Implemented by the auth package; kept as an interface so tests can inject
// static tokens.
type TokenProvider interface {
	// DeveloperToken returns the JWT used as the bearer token.
	DeveloperToken() (string, error)
	// UserToken returns the Music-User-Token for library-scoped requests.
	UserToken() (string, error)
}

// Library is the read surface shared by both stores, used by search and
// browse paths.
type Library interface {
	// ListCandidates supplies display-name/identity pairs for the resolver.
	ListCandidates(ctx context.Context, kind resolve.EntityKind) ([]resolve.Candidate, error)

	// Name returns the store name for diagnostics (e.g. "Apple Music API", "Music.app").
	Name() string
}

// Playlist represents a playlist from either store.
type Playlist struct {
	ID           string // API id (p.XXX) when known
	PersistentID string // Music.app hex id when known
	Name         string
	Description  string
	TrackCount   int
}

// Track represents a track from either store.
type Track struct {
	ID           string // API id: catalog digits or library i.XXX
	PersistentID string // Music.app hex id when known
	Name         string
	Artist       string
	Album        string
	DurationMS   int
	ISRC         string
	Explicit     bool
}

// Album represents an album from either store.
type Album struct {
	ID         string // API id: catalog digits or library l.XXX
	Name       string
	Artist     string
	TrackCount int
}

// Artist represents an artist from either store.
type Artist struct {
	ID   string
	Name string
}

// PlaylistExport pairs a playlist with its complete track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// SearchResults carries one search invocation's hits, already deduplicated
// by identity key.
type SearchResults struct {
	Playlists []Playlist
	Tracks    []Track
	Albums    []Album
	Artists   []Artist
}
