package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolutionOutput is the JSON shape of a resolution result.
type resolutionOutput struct {
	Kind           string `json:"kind"`
	Query          string `json:"query"`
	StructuredID   string `json:"structured_id,omitempty"`
	AutomationName string `json:"automation_name,omitempty"`
	PersistentID   string `json:"persistent_id,omitempty"`
	Match          string `json:"match,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ResolvePlaylist resolves a playlist reference.
func (r *Runner) ResolvePlaylist(ctx context.Context, cmd *cli.Command) error {
	return r.runResolve(ctx, cmd, resolve.KindPlaylist)
}

// ResolveTrack resolves a track reference.
func (r *Runner) ResolveTrack(ctx context.Context, cmd *cli.Command) error {
	return r.runResolve(ctx, cmd, resolve.KindTrack)
}

// ResolveAlbum resolves an album reference.
func (r *Runner) ResolveAlbum(ctx context.Context, cmd *cli.Command) error {
	return r.runResolve(ctx, cmd, resolve.KindAlbum)
}

// ResolveArtist resolves an artist reference.
func (r *Runner) ResolveArtist(ctx context.Context, cmd *cli.Command) error {
	return r.runResolve(ctx, cmd, resolve.KindArtist)
}

func (r *Runner) runResolve(ctx context.Context, cmd *cli.Command, kind resolve.EntityKind) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.requireResolver(); err != nil {
		return err
	}

	var res resolve.Resolution
	switch kind {
	case resolve.KindPlaylist:
		res = r.resolver.ResolvePlaylist(ctx, query)
	case resolve.KindTrack:
		res = r.resolver.ResolveTrack(ctx, query)
	case resolve.KindAlbum:
		res = r.resolver.ResolveAlbum(ctx, query)
	case resolve.KindArtist:
		res = r.resolver.ResolveArtist(ctx, query)
	}

	if cmd.Bool("json") {
		out := resolutionOutput{
			Kind:           kind.String(),
			Query:          query,
			StructuredID:   res.StructuredID,
			AutomationName: res.AutomationName,
			PersistentID:   res.PersistentID,
		}
		if res.Match != nil {
			out.Match = res.Match.Kind.String()
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return r.writeJSON(out, true)
	}

	if res.Err != nil {
		return res.Err
	}

	r.writePlain("Resolved %s %q\n", kind, query)
	if res.StructuredID != "" {
		r.writePlain("  id:             %s\n", res.StructuredID)
	}
	if res.AutomationName != "" {
		r.writePlain("  name:           %s\n", res.AutomationName)
	}
	if res.PersistentID != "" {
		r.writePlain("  persistent id:  %s\n", res.PersistentID)
	}
	if res.Match != nil {
		if diag := resolve.FormatMatch(*res.Match); diag != "" {
			r.writePlain("  %s\n", diag)
		}
	}

	return nil
}

// SearchCatalog searches the storefront catalog.
func (r *Runner) SearchCatalog(ctx context.Context, cmd *cli.Command) error {
	return r.runSearch(ctx, cmd, true)
}

// SearchLibrary searches the user's library.
func (r *Runner) SearchLibrary(ctx context.Context, cmd *cli.Command) error {
	return r.runSearch(ctx, cmd, false)
}

func (r *Runner) runSearch(ctx context.Context, cmd *cli.Command, catalog bool) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	types := splitTypes(cmd.String("types"))
	limit := cmd.Int("limit")

	var results *services.SearchResults
	var err error
	if catalog {
		results, err = r.catalog.SearchCatalog(ctx, query, types, limit)
	} else {
		results, err = r.catalog.SearchLibrary(ctx, query, types, limit)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	return r.renderSearchResults(query, results)
}

func (r *Runner) renderSearchResults(query string, results *services.SearchResults) error {
	total := len(results.Tracks) + len(results.Albums) + len(results.Artists) + len(results.Playlists)
	if total == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	if len(results.Tracks) > 0 {
		r.writePlainln("Songs:")
		for i, t := range results.Tracks {
			r.writePlain("%d. %s - %s [%s] (id: %s)\n", i+1, t.Artist, t.Name, shared.FormatDuration(t.DurationMS), t.ID)
		}
	}
	if len(results.Albums) > 0 {
		r.writePlainln("Albums:")
		for i, a := range results.Albums {
			r.writePlain("%d. %s - %s (id: %s)\n", i+1, a.Artist, a.Name, a.ID)
		}
	}
	if len(results.Artists) > 0 {
		r.writePlainln("Artists:")
		for i, a := range results.Artists {
			r.writePlain("%d. %s (id: %s)\n", i+1, a.Name, a.ID)
		}
	}
	if len(results.Playlists) > 0 {
		r.writePlainln("Playlists:")
		for i, p := range results.Playlists {
			r.writePlain("%d. %s (%d tracks, id: %s)\n", i+1, p.Name, p.TrackCount, p.ID)
		}
	}

	return nil
}

func splitTypes(raw string) []string {
	parts := strings.Split(raw, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	return types
}
