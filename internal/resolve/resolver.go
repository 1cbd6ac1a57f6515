package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// EntityKind enumerates the resolvable music entity kinds.
type EntityKind int

const (
	KindPlaylist EntityKind = iota
	KindTrack
	KindAlbum
	KindArtist
)

func (k EntityKind) String() string {
	switch k {
	case KindPlaylist:
		return "playlist"
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	default:
		return "unknown"
	}
}

// kindSpec describes the per-kind differences: which structured identifier
// formats a kind accepts directly. Everything else about resolution is
// shared.
type kindSpec struct {
	structured map[Format]bool
}

var kindSpecs = map[EntityKind]kindSpec{
	KindPlaylist: {structured: map[Format]bool{FormatPlaylistID: true}},
	KindTrack:    {structured: map[Format]bool{FormatLibraryID: true, FormatCatalogID: true}},
	KindAlbum:    {structured: map[Format]bool{FormatAlbumID: true, FormatCatalogID: true}},
	KindArtist:   {structured: map[Format]bool{FormatCatalogID: true}},
}

// Candidate is one display-name/identity pair supplied by a backing store
// for the duration of a resolution call.
type Candidate struct {
	Name string // display name; empty candidates are skipped defensively
	ID   string // opaque reference into the owning store
}

// Lister supplies candidate listings for an entity kind. The Apple Music
// library client and the Music.app automation surface each implement it.
// Ordering is preserved into the matcher's tie-breaks.
type Lister interface {
	ListCandidates(ctx context.Context, kind EntityKind) ([]Candidate, error)
}

// Options carries the preferences that influence resolution, threaded
// explicitly into calls instead of read from package state.
type Options struct {
	Storefront string
	AutoSearch bool
}

// Resolution carries every identifier an entity is known to have after one
// resolution call, plus the match diagnostics when matching was involved.
//
// Invariants: Err set means all identifier fields are empty; Err unset means
// at least one identifier is populated; RawInput is always the untouched
// original; Match is set only when resolution went through the matcher.
type Resolution struct {
	Kind           EntityKind
	StructuredID   string // Apple Music API id (p.XXX, i.XXX, l.XXX, or catalog digits)
	AutomationName string // exact display name for Music.app scripting
	PersistentID   string // long-lived hex id from the automation surface
	RawInput       string
	Err            error
	Match          *Match
}

// Found reports whether resolution produced at least one identifier.
func (r Resolution) Found() bool {
	return r.Err == nil && (r.StructuredID != "" || r.AutomationName != "" || r.PersistentID != "")
}

// Resolver resolves raw user input against the structured store (Apple Music
// API) and the automation surface (Music.app). Either lister may be nil when
// that store is not reachable; the other is still consulted.
type Resolver struct {
	catalog    Lister
	automation Lister
	opts       Options
	logger     *log.Logger
}

// NewResolver creates a Resolver over the given store listers.
func NewResolver(catalog, automation Lister, opts Options, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{catalog: catalog, automation: automation, opts: opts, logger: logger}
}

// Options returns the preferences this resolver was configured with.
func (r *Resolver) Options() Options {
	return r.opts
}

// ResolvePlaylist resolves raw to playlist identifiers.
func (r *Resolver) ResolvePlaylist(ctx context.Context, raw string) Resolution {
	return r.resolve(ctx, KindPlaylist, raw)
}

// ResolveTrack resolves raw to track identifiers.
func (r *Resolver) ResolveTrack(ctx context.Context, raw string) Resolution {
	return r.resolve(ctx, KindTrack, raw)
}

// ResolveAlbum resolves raw to album identifiers.
func (r *Resolver) ResolveAlbum(ctx context.Context, raw string) Resolution {
	return r.resolve(ctx, KindAlbum, raw)
}

// ResolveArtist resolves raw to artist identifiers.
func (r *Resolver) ResolveArtist(ctx context.Context, raw string) Resolution {
	return r.resolve(ctx, KindArtist, raw)
}

func (r *Resolver) resolve(ctx context.Context, kind EntityKind, raw string) Resolution {
	res := Resolution{Kind: kind, RawInput: raw}

	input := strings.TrimSpace(raw)
	if input == "" {
		res.Err = fmt.Errorf("%w: empty %s reference", shared.ErrInvalidInput, kind)
		return res
	}

	// Inputs that already look like identifiers bypass matching entirely.
	switch format := ClassifyIdentifier(input); {
	case kindSpecs[kind].structured[format]:
		res.StructuredID = input
		return res
	case format == FormatPersistentID:
		res.PersistentID = input
		return res
	}

	// Free text: consult each store independently. A hit in one neither
	// requires nor implies a hit in the other, since the two stores may
	// enumerate different universes.
	var (
		catalogMatch    Match
		automationMatch Match
		storeErr        error
	)

	if r.catalog != nil {
		winner, m, err := r.matchStore(ctx, r.catalog, kind, input)
		switch {
		case err != nil:
			storeErr = fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
			r.logger.Warn("catalog listing failed", "kind", kind.String(), "err", err)
		case m.Found():
			catalogMatch = m
			res.StructuredID = winner.ID
		}
	}

	// The automation surface is always attempted when reachable: some
	// operations (track removal, playback) are only expressible through it
	// even when a structured id is already in hand.
	if r.automation != nil {
		winner, m, err := r.matchStore(ctx, r.automation, kind, input)
		switch {
		case err != nil:
			if storeErr == nil {
				storeErr = fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
			}
			r.logger.Warn("automation listing failed", "kind", kind.String(), "err", err)
		case m.Found():
			automationMatch = m
			res.AutomationName = m.Name
			res.PersistentID = winner.ID
		}
	}

	// The structured store's diagnostics take precedence when both matched;
	// downstream operations most often act on the structured id.
	switch {
	case catalogMatch.Found():
		res.Match = &catalogMatch
	case automationMatch.Found():
		res.Match = &automationMatch
	}

	if !res.Found() {
		res.StructuredID, res.AutomationName, res.PersistentID = "", "", ""
		res.Match = nil
		if storeErr != nil {
			res.Err = storeErr
		} else {
			res.Err = fmt.Errorf("%w: no %s matched %q; try searching first to see available names", shared.ErrNotFound, kind, raw)
		}
	}

	return res
}

// matchStore lists candidates from one store and runs the matcher over them.
// Candidates with empty display names are skipped rather than failing the
// resolution.
func (r *Resolver) matchStore(ctx context.Context, store Lister, kind EntityKind, query string) (Candidate, Match, error) {
	candidates, err := store.ListCandidates(ctx, kind)
	if err != nil {
		return Candidate{}, Match{}, err
	}
	winner, m := Best(query, candidates, func(c Candidate) string { return c.Name })
	return winner, m, nil
}
