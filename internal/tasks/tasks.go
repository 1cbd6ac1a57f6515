package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/models"
	"github.com/epheterson/mcp-applemusic/internal/repositories"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// Catalog is the slice of the Apple Music API client the engine acts through.
type Catalog interface {
	PlaylistTracks(ctx context.Context, playlistID string) ([]services.Track, error)
	SearchCatalog(ctx context.Context, term string, types []string, limit int) (*services.SearchResults, error)
	CreatePlaylist(ctx context.Context, name, description string) (*services.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID string, songIDs []string) error
}

// Automation is the slice of the Music.app scripting surface the engine acts
// through. Track removal is only expressible here.
type Automation interface {
	PlaylistTracks(ctx context.Context, playlistName string) ([]services.Track, error)
	CreatePlaylist(ctx context.Context, name, description string) error
	AddTrack(ctx context.Context, playlistName, trackName, artist string) error
	RemoveTrack(ctx context.Context, playlistName, trackName string) error
}

// TrackAddResult records the outcome of adding one requested track.
type TrackAddResult struct {
	Ref        string             // Raw input the caller supplied
	Resolution resolve.Resolution // How the input resolved
	ViaSearch  bool               // Track came from a catalog search, not the library
	Added      bool
	Err        error
}

// AddResult contains all data from an add-tracks operation.
type AddResult struct {
	Playlist resolve.Resolution
	Tracks   []TrackAddResult
	Added    int
	Failed   int
}

// CopyResult contains all data from a playlist copy.
type CopyResult struct {
	Source      resolve.Resolution
	DestName    string
	DestID      string // Apple Music playlist id when the copy went through the API
	TotalTracks int
	Copied      int
	Failed      int
}

// TrackRemoveResult records the outcome of removing one requested track.
type TrackRemoveResult struct {
	Ref        string
	Resolution resolve.Resolution
	Removed    bool
	Err        error
}

// RemoveResult contains all data from a remove-tracks operation.
type RemoveResult struct {
	Playlist resolve.Resolution
	Tracks   []TrackRemoveResult
	Removed  int
	Failed   int
}

// Engine ties the resolver and the two stores together for mutating playlist
// operations. Either store may be nil; operations that need the missing one
// fail with a sentinel error instead of panicking.
type Engine struct {
	resolver   *resolve.Resolver
	catalog    Catalog
	automation Automation
	cache      *repositories.TrackCacheRepository
	audit      *AuditLog
	logger     *log.Logger
}

// EngineOpts configures a new Engine. Resolver is required; everything else
// is optional.
type EngineOpts struct {
	Resolver   *resolve.Resolver
	Catalog    Catalog
	Automation Automation
	TrackCache *repositories.TrackCacheRepository
	Audit      *AuditLog
	Logger     *log.Logger
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(opts EngineOpts) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		resolver:   opts.Resolver,
		catalog:    opts.Catalog,
		automation: opts.Automation,
		cache:      opts.TrackCache,
		audit:      opts.Audit,
		logger:     logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// AddTracksToPlaylist resolves the playlist and every track reference, then
// adds the tracks through whichever store resolved them. Structured ids are
// batched into a single API call; automation-only tracks are added one at a
// time by exact name. When a track misses the library and the resolver was
// configured with AutoSearch, the catalog is searched and the top hit is
// added by its catalog id.
//
// Partial failure is normal: per-track errors land in the result, and the
// returned error is non-nil only when the playlist itself cannot be resolved
// or no track could be added at all.
func (e *Engine) AddTracksToPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistRef string, trackRefs []string) (*AddResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrStoreUnavailable)
	}
	if len(trackRefs) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add", shared.ErrInvalidInput)
	}

	e.sendProgress(progress, resolvingUpdate(1, 1, resolve.KindPlaylist, playlistRef))
	playlist := e.resolver.ResolvePlaylist(ctx, playlistRef)
	if !playlist.Found() {
		return nil, fmt.Errorf("playlist %q: %w", playlistRef, playlist.Err)
	}

	result := &AddResult{Playlist: playlist}
	total := len(trackRefs)

	var apiIDs []string
	var apiRows []int // indexes into result.Tracks awaiting the batched API add

	for i, ref := range trackRefs {
		e.sendProgress(progress, resolvingUpdate(i+1, total, resolve.KindTrack, ref))

		tr := TrackAddResult{Ref: ref, Resolution: e.resolver.ResolveTrack(ctx, ref)}

		switch {
		case tr.Resolution.StructuredID != "":
			apiIDs = append(apiIDs, tr.Resolution.StructuredID)
			apiRows = append(apiRows, i)
			e.cacheResolvedTrack(tr.Resolution)

		case tr.Resolution.AutomationName != "" && e.automation != nil && playlist.AutomationName != "":
			if err := e.automation.AddTrack(ctx, playlist.AutomationName, tr.Resolution.AutomationName, ""); err != nil {
				tr.Err = err
			} else {
				tr.Added = true
			}
			e.cacheResolvedTrack(tr.Resolution)

		case e.resolver.Options().AutoSearch && e.catalog != nil:
			e.sendProgress(progress, searchingUpdate(i+1, total, ref))
			hit, err := e.searchTopSong(ctx, ref)
			if err != nil {
				tr.Err = fmt.Errorf("%w: %q not in library and catalog search failed: %v", shared.ErrNotFound, ref, err)
				break
			}
			tr.ViaSearch = true
			apiIDs = append(apiIDs, hit.ID)
			apiRows = append(apiRows, i)
			e.cacheTrack(hit)

		default:
			tr.Err = tr.Resolution.Err
		}

		result.Tracks = append(result.Tracks, tr)
	}

	if len(apiIDs) > 0 {
		if e.catalog == nil || playlist.StructuredID == "" {
			for _, row := range apiRows {
				result.Tracks[row].Err = fmt.Errorf("%w: no API playlist id for %q", shared.ErrStoreUnavailable, playlistRef)
			}
		} else {
			e.sendProgress(progress, addingTracksUpdate(total, total, playlistName(playlist), len(apiIDs)))
			err := e.catalog.AddToPlaylist(ctx, playlist.StructuredID, apiIDs)
			for _, row := range apiRows {
				if err != nil {
					result.Tracks[row].Err = err
				} else {
					result.Tracks[row].Added = true
				}
			}
		}
	}

	for _, tr := range result.Tracks {
		if tr.Added {
			result.Added++
		} else {
			result.Failed++
		}
	}

	if result.Added == 0 {
		return result, fmt.Errorf("%w: none of the %d tracks could be added", shared.ErrNotFound, total)
	}

	e.recordAudit(AuditEntry{
		Operation: "playlist.add",
		Playlist:  playlistName(playlist),
		Details: map[string]string{
			"requested": fmt.Sprintf("%d", total),
			"added":     fmt.Sprintf("%d", result.Added),
			"tracks":    joinRefs(result.Tracks),
		},
		Undo: fmt.Sprintf("remove the added tracks from playlist %q", playlistName(playlist)),
	})

	return result, nil
}

// CopyPlaylist copies every track of the source playlist into a newly
// created playlist. The API path is preferred when the source resolved to a
// structured id; otherwise the copy runs track by track through Music.app.
func (e *Engine) CopyPlaylist(ctx context.Context, progress chan<- ProgressUpdate, sourceRef, destName string) (*CopyResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrStoreUnavailable)
	}
	if strings.TrimSpace(destName) == "" {
		return nil, fmt.Errorf("%w: destination playlist name is empty", shared.ErrInvalidInput)
	}

	e.sendProgress(progress, resolvingUpdate(1, 1, resolve.KindPlaylist, sourceRef))
	source := e.resolver.ResolvePlaylist(ctx, sourceRef)
	if !source.Found() {
		return nil, fmt.Errorf("playlist %q: %w", sourceRef, source.Err)
	}

	result := &CopyResult{Source: source, DestName: destName}

	switch {
	case e.catalog != nil && source.StructuredID != "":
		e.sendProgress(progress, fetchingTracksUpdate(1, 2, playlistName(source)))
		tracks, err := e.catalog.PlaylistTracks(ctx, source.StructuredID)
		if err != nil {
			return nil, fmt.Errorf("fetching source tracks: %w", err)
		}
		result.TotalTracks = len(tracks)

		e.sendProgress(progress, createDestinationUpdate(2, 2, destName))
		dest, err := e.catalog.CreatePlaylist(ctx, destName, fmt.Sprintf("Copied from %s", playlistName(source)))
		if err != nil {
			return nil, fmt.Errorf("creating destination playlist: %w", err)
		}
		result.DestID = dest.ID

		var ids []string
		for _, t := range tracks {
			if t.ID != "" {
				ids = append(ids, t.ID)
			}
		}
		if len(ids) > 0 {
			e.sendProgress(progress, addingTracksUpdate(1, 1, destName, len(ids)))
			if err := e.catalog.AddToPlaylist(ctx, dest.ID, ids); err != nil {
				return result, fmt.Errorf("filling destination playlist: %w", err)
			}
		}
		result.Copied = len(ids)
		result.Failed = result.TotalTracks - len(ids)

	case e.automation != nil && source.AutomationName != "":
		e.sendProgress(progress, fetchingTracksUpdate(1, 2, source.AutomationName))
		tracks, err := e.automation.PlaylistTracks(ctx, source.AutomationName)
		if err != nil {
			return nil, fmt.Errorf("fetching source tracks: %w", err)
		}
		result.TotalTracks = len(tracks)

		e.sendProgress(progress, createDestinationUpdate(2, 2, destName))
		if err := e.automation.CreatePlaylist(ctx, destName, ""); err != nil {
			return nil, fmt.Errorf("creating destination playlist: %w", err)
		}

		for i, t := range tracks {
			e.sendProgress(progress, addingTracksUpdate(i+1, len(tracks), destName, 1))
			if err := e.automation.AddTrack(ctx, destName, t.Name, t.Artist); err != nil {
				result.Failed++
				e.logger.Warn("track copy failed", "track", t.Name, "err", err)
				continue
			}
			result.Copied++
		}

	default:
		return nil, fmt.Errorf("%w: no store can read playlist %q", shared.ErrStoreUnavailable, sourceRef)
	}

	e.recordAudit(AuditEntry{
		Operation: "playlist.copy",
		Playlist:  destName,
		Details: map[string]string{
			"source": playlistName(source),
			"copied": fmt.Sprintf("%d", result.Copied),
		},
		Undo: fmt.Sprintf("delete playlist %q", destName),
	})

	return result, nil
}

// RemoveTracks removes the given tracks from a playlist. Removal is only
// expressible through Music.app, so both the playlist and every track must
// resolve to exact display names.
func (e *Engine) RemoveTracks(ctx context.Context, progress chan<- ProgressUpdate, playlistRef string, trackRefs []string) (*RemoveResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrStoreUnavailable)
	}
	if e.automation == nil {
		return nil, fmt.Errorf("%w: track removal needs Music.app", shared.ErrNoAutomation)
	}
	if len(trackRefs) == 0 {
		return nil, fmt.Errorf("%w: no tracks to remove", shared.ErrInvalidInput)
	}

	e.sendProgress(progress, resolvingUpdate(1, 1, resolve.KindPlaylist, playlistRef))
	playlist := e.resolver.ResolvePlaylist(ctx, playlistRef)
	if !playlist.Found() {
		return nil, fmt.Errorf("playlist %q: %w", playlistRef, playlist.Err)
	}
	if playlist.AutomationName == "" {
		return nil, fmt.Errorf("%w: playlist %q has no Music.app display name", shared.ErrNoAutomation, playlistRef)
	}

	result := &RemoveResult{Playlist: playlist}
	total := len(trackRefs)

	for i, ref := range trackRefs {
		tr := TrackRemoveResult{Ref: ref, Resolution: e.resolver.ResolveTrack(ctx, ref)}

		name := tr.Resolution.AutomationName
		if name == "" {
			tr.Err = fmt.Errorf("%w: %q has no Music.app display name", shared.ErrNotFound, ref)
			result.Tracks = append(result.Tracks, tr)
			result.Failed++
			continue
		}

		e.sendProgress(progress, removingTrackUpdate(i+1, total, name))
		if err := e.automation.RemoveTrack(ctx, playlist.AutomationName, name); err != nil {
			tr.Err = err
			result.Failed++
		} else {
			tr.Removed = true
			result.Removed++
			e.recordAudit(AuditEntry{
				Operation: "playlist.remove",
				Playlist:  playlist.AutomationName,
				Track:     name,
				Undo:      fmt.Sprintf("add %q back to playlist %q", name, playlist.AutomationName),
			})
		}
		result.Tracks = append(result.Tracks, tr)
	}

	if result.Removed == 0 {
		return result, fmt.Errorf("%w: none of the %d tracks could be removed", shared.ErrNotFound, total)
	}
	return result, nil
}

// searchTopSong returns the first catalog song matching term.
func (e *Engine) searchTopSong(ctx context.Context, term string) (services.Track, error) {
	results, err := e.catalog.SearchCatalog(ctx, term, []string{"songs"}, 1)
	if err != nil {
		return services.Track{}, err
	}
	if len(results.Tracks) == 0 {
		return services.Track{}, fmt.Errorf("%w: no catalog song matched %q", shared.ErrNotFound, term)
	}
	return results.Tracks[0], nil
}

// cacheResolvedTrack stores the identifiers a resolution produced. Cache
// writes are best-effort; a failure is logged and the operation continues.
func (e *Engine) cacheResolvedTrack(res resolve.Resolution) {
	if e.cache == nil {
		return
	}
	cached := &models.CachedTrack{
		PersistentID: res.PersistentID,
		Name:         res.AutomationName,
	}
	if cached.Name == "" && res.Match != nil {
		cached.Name = res.Match.Name
	}
	switch resolve.ClassifyIdentifier(res.StructuredID) {
	case resolve.FormatLibraryID:
		cached.LibraryID = res.StructuredID
	case resolve.FormatCatalogID:
		cached.CatalogID = res.StructuredID
	}
	if _, err := e.cache.Upsert(cached); err != nil {
		e.logger.Warn("track cache write failed", "track", cached.Name, "err", err)
	}
}

// cacheTrack stores a track fetched from the catalog.
func (e *Engine) cacheTrack(t services.Track) {
	if e.cache == nil {
		return
	}
	cached := &models.CachedTrack{
		PersistentID: t.PersistentID,
		Name:         t.Name,
		Artist:       t.Artist,
		Album:        t.Album,
		ISRC:         t.ISRC,
		Explicit:     t.Explicit,
		DurationMS:   t.DurationMS,
	}
	switch resolve.ClassifyIdentifier(t.ID) {
	case resolve.FormatLibraryID:
		cached.LibraryID = t.ID
	case resolve.FormatCatalogID:
		cached.CatalogID = t.ID
	}
	if _, err := e.cache.Upsert(cached); err != nil {
		e.logger.Warn("track cache write failed", "track", t.Name, "err", err)
	}
}

func (e *Engine) recordAudit(entry AuditEntry) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Record(entry); err != nil {
		e.logger.Warn("audit write failed", "operation", entry.Operation, "err", err)
	}
}

// playlistName picks the best display name a resolution carries, falling
// back to the raw input.
func playlistName(res resolve.Resolution) string {
	switch {
	case res.AutomationName != "":
		return res.AutomationName
	case res.Match != nil:
		return res.Match.Name
	default:
		return res.RawInput
	}
}

func joinRefs(tracks []TrackAddResult) string {
	refs := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		if tr.Added {
			refs = append(refs, tr.Ref)
		}
	}
	return strings.Join(refs, ", ")
}
