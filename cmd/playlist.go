package main

import (
	"context"
	"fmt"

	"github.com/epheterson/mcp-applemusic/internal/formatter"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/epheterson/mcp-applemusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistList lists library playlists from the API or from Music.app.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	source := cmd.String("source")

	var playlists []services.Playlist
	var err error

	switch source {
	case "api":
		if err := r.requireCatalog(); err != nil {
			return err
		}
		playlists, err = r.catalog.LibraryPlaylists(ctx)
	case "automation":
		if err := r.requireAutomation(); err != nil {
			return err
		}
		playlists, err = r.automation.Playlists(ctx)
	default:
		return fmt.Errorf("%w: source must be 'api' or 'automation', got %q", shared.ErrInvalidFlag, source)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists found\n")
		return nil
	}

	for i, p := range playlists {
		r.writePlain("%d. %s", i+1, p.Name)
		if p.TrackCount > 0 {
			r.writePlain(" (%d tracks)", p.TrackCount)
		}
		if p.ID != "" {
			r.writePlain(" [%s]", p.ID)
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistTracks resolves a playlist reference and prints its track listing.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	if err := r.requireResolver(); err != nil {
		return err
	}

	res := r.resolver.ResolvePlaylist(ctx, ref)
	if !res.Found() {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("%w: playlist %q", shared.ErrNotFound, ref)
	}

	var tracks []services.Track
	var err error
	name := ref
	switch {
	case r.catalog != nil && res.StructuredID != "":
		tracks, err = r.catalog.PlaylistTracks(ctx, res.StructuredID)
		if res.AutomationName != "" {
			name = res.AutomationName
		}
	case r.automation != nil && res.AutomationName != "":
		tracks, err = r.automation.PlaylistTracks(ctx, res.AutomationName)
		name = res.AutomationName
	default:
		return fmt.Errorf("%w: no store can list tracks for %q", shared.ErrStoreUnavailable, ref)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(services.PlaylistExport{
			Playlist: services.Playlist{
				ID:           res.StructuredID,
				PersistentID: res.PersistentID,
				Name:         name,
				TrackCount:   len(tracks),
			},
			Tracks: tracks,
		}, true)
	}

	rendered := formatter.RenderTrackList(tracks, cmd.Int("max-bytes"))

	r.writePlain("Playlist: %s (%d tracks)\n\n", name, len(tracks))
	r.writePlain("%s", rendered.Text)
	if rendered.Count < len(tracks) {
		r.writePlain("\n… showing %d of %d tracks\n", rendered.Count, len(tracks))
	}

	return nil
}

// PlaylistCreate creates a playlist through the API, falling back to Music.app.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	description := cmd.String("description")

	if r.catalog != nil {
		playlist, err := r.catalog.CreatePlaylist(ctx, name, description)
		if err == nil {
			r.writePlain("✓ Created playlist %q (%s)\n", playlist.Name, playlist.ID)
			return nil
		}
		r.logger.Warn("API create failed, trying Music.app", "error", err)
	}

	if err := r.requireAutomation(); err != nil {
		return err
	}
	if err := r.automation.CreatePlaylist(ctx, name, description); err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	r.writePlain("✓ Created playlist %q in Music.app\n", name)
	return nil
}

// PlaylistAdd adds tracks to a playlist through the engine.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	playlistRef := cmd.String("playlist")
	trackRefs := cmd.StringSlice("track")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.ResolveInput:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.SearchStore:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.AddTracksPhase:
				r.writePlain("➕ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.AddTracksToPlaylist(ctx, progressCh, playlistRef, trackRefs)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Add Complete")
	r.writePlain("Playlist: %s\n", playlistDisplayName(result.Playlist.AutomationName, result.Playlist.StructuredID, playlistRef))
	r.writePlain("Added: %d/%d tracks\n", result.Added, len(result.Tracks))

	if result.Failed > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, t := range result.Tracks {
			if t.Err != nil {
				r.writePlain("  - %s: %v\n", t.Ref, t.Err)
			}
		}
	}

	return nil
}

// PlaylistCopy copies a playlist's tracks into a new playlist.
func (r *Runner) PlaylistCopy(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	sourceRef := cmd.String("source")
	destName := cmd.String("dest")

	r.writePlain("Copying %s → %s\n\n", sourceRef, destName)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTracks:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreateDestination:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.AddTracksPhase:
				r.writePlain("➕ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.CopyPlaylist(ctx, progressCh, sourceRef, destName)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Copy Complete")
	r.writePlain("Source: %s (%d tracks)\n", sourceRef, result.TotalTracks)
	r.writePlain("Destination: %s", result.DestName)
	if result.DestID != "" {
		r.writePlain(" (%s)", result.DestID)
	}
	r.writePlain("\nCopied: %d/%d tracks\n", result.Copied, result.TotalTracks)
	if result.Failed > 0 {
		r.writePlain("Failed: %d tracks\n", result.Failed)
	}

	return nil
}

// PlaylistRemove removes tracks from a playlist via Music.app scripting.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	playlistRef := cmd.String("playlist")
	trackRefs := cmd.StringSlice("track")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.ResolveInput:
				r.writePlain("🔎 %s\n", update.Message)
			case tasks.RemoveTracksPhase:
				r.writePlain("➖ %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.RemoveTracks(ctx, progressCh, playlistRef, trackRefs)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Remove Complete")
	r.writePlain("Playlist: %s\n", playlistDisplayName(result.Playlist.AutomationName, result.Playlist.StructuredID, playlistRef))
	r.writePlain("Removed: %d/%d tracks\n", result.Removed, len(result.Tracks))

	if result.Failed > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, t := range result.Tracks {
			if t.Err != nil {
				r.writePlain("  - %s: %v\n", t.Ref, t.Err)
			}
		}
	}

	return nil
}

// PlaylistExport exports one or all playlists to files.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	var refs []string
	if cmd.Bool("all") {
		var err error
		if refs, err = r.allPlaylistRefs(ctx); err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("%w: library has no playlists", shared.ErrNotFound)
		}
	} else {
		ref := cmd.StringArg("playlist")
		if ref == "" {
			return fmt.Errorf("%w: playlist (or pass --all)", shared.ErrMissingArgument)
		}
		refs = []string{ref}
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Phase == tasks.ExportPlaylists {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, refs, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Exported: %d/%d playlists\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed playlists:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.Ref, res.Error)
			}
		}
	}

	return nil
}

// allPlaylistRefs collects exportable references for every library playlist,
// preferring API ids over display names.
func (r *Runner) allPlaylistRefs(ctx context.Context) ([]string, error) {
	var playlists []services.Playlist
	var err error

	switch {
	case r.catalog != nil:
		playlists, err = r.catalog.LibraryPlaylists(ctx)
	case r.automation != nil:
		playlists, err = r.automation.Playlists(ctx)
	default:
		return nil, fmt.Errorf("%w: no store can list playlists", shared.ErrStoreUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	refs := make([]string, 0, len(playlists))
	for _, p := range playlists {
		if p.ID != "" {
			refs = append(refs, p.ID)
		} else if p.Name != "" {
			refs = append(refs, p.Name)
		}
	}
	return refs, nil
}

func playlistDisplayName(name, id, fallback string) string {
	if name != "" {
		return name
	}
	if id != "" {
		return id
	}
	return fallback
}
