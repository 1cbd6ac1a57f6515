package main

import (
	"context"
	"fmt"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// requireCache guards commands that read or mutate the metadata cache.
func (r *Runner) requireCache() error {
	if r.tracks == nil {
		return fmt.Errorf("%w: metadata cache not initialized, run `setup database` first", shared.ErrStoreUnavailable)
	}
	return nil
}

// CacheStats shows row counts for the metadata cache.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	trackCount, err := r.tracks.Count()
	if err != nil {
		return fmt.Errorf("failed to count tracks: %w", err)
	}

	albumCount := 0
	if r.albums != nil {
		if albumCount, err = r.albums.Count(); err != nil {
			return fmt.Errorf("failed to count albums: %w", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"tracks": trackCount,
			"albums": albumCount,
			"path":   r.config.Database.Path,
		}, true)
	}

	r.writePlainHeader("Cache Stats")
	r.writePlain("Tracks: %d\n", trackCount)
	r.writePlain("Albums: %d\n", albumCount)
	r.writePlain("Path:   %s\n", r.config.Database.Path)

	return nil
}

// CacheList lists cached tracks, optionally filtered by artist.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	tracks, err := r.tracks.List(cmd.String("artist"))
	if err != nil {
		return fmt.Errorf("failed to list cached tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		r.writePlain("Cache is empty\n")
		return nil
	}

	for i, t := range tracks {
		r.writePlain("%d. %s - %s", i+1, t.Artist, t.Name)
		switch {
		case t.LibraryID != "":
			r.writePlain(" [%s]", t.LibraryID)
		case t.CatalogID != "":
			r.writePlain(" [%s]", t.CatalogID)
		}
		r.writePlain("\n")
	}

	return nil
}

// CacheClear purges cached tracks, optionally keeping recently updated rows.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	cutoff := time.Now()
	if days := cmd.Int("older-than"); days > 0 {
		cutoff = cutoff.AddDate(0, 0, -days)
	}

	purged, err := r.tracks.Purge(cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	r.writePlain("✓ Purged %d cached tracks\n", purged)
	return nil
}

// AuditList shows recent playlist mutations and their undo hints.
func (r *Runner) AuditList(ctx context.Context, cmd *cli.Command) error {
	if r.audit == nil {
		return fmt.Errorf("%w: audit log not configured", shared.ErrStoreUnavailable)
	}

	entries, err := r.audit.ReadRecent(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("Audit log is empty\n")
		return nil
	}

	for _, e := range entries {
		r.writePlain("%s  %s  %s", e.Timestamp.Format(time.RFC3339), e.Operation, e.Playlist)
		if e.Track != "" {
			r.writePlain("  %s", e.Track)
		}
		r.writePlain("\n")
		if e.Undo != "" {
			r.writePlain("    undo: %s\n", e.Undo)
		}
	}

	return nil
}
