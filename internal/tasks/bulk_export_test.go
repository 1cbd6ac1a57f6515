package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/services"
	th "github.com/epheterson/mcp-applemusic/internal/testing"
)

func exportTestCatalog() *mockCatalog {
	return &mockCatalog{
		playlists: []resolve.Candidate{
			{Name: "Road Trip", ID: "p.road"},
			{Name: "Focus", ID: "p.focus"},
		},
		playlistTracks: map[string][]services.Track{
			"p.road": {
				{ID: "i.one", Name: "Song One", Artist: "Artist One", DurationMS: 180000},
				{ID: "i.two", Name: "Song Two", Artist: "Artist Two", DurationMS: 240000},
			},
			"p.focus": {
				{ID: "i.three", Name: "Song Three", Artist: "Artist Three", DurationMS: 200000},
			},
		},
	}
}

func TestEngine_BulkExport(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON Export With Manifest", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})
		outputDir := t.TempDir()

		result, err := engine.BulkExport(ctx, nil, []string{"Road Trip", "Focus"}, BulkExportOpts{
			Format:    "json",
			OutputDir: outputDir,
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}

		if result.SuccessfulExports != 2 || result.FailedExports != 0 {
			t.Errorf("expected 2 successes, got success=%d failed=%d", result.SuccessfulExports, result.FailedExports)
		}

		th.AssertFileExists(t, filepath.Join(outputDir, "p.road.json"))
		th.AssertFileExists(t, filepath.Join(outputDir, "p.focus.json"))
		th.AssertFileExists(t, result.ManifestPath)

		data, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var manifest exportManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("manifest is not valid JSON: %v", err)
		}
		if manifest.Total != 2 || manifest.Successful != 2 {
			t.Errorf("unexpected manifest counts: %+v", manifest)
		}
		if manifest.Format != "json" {
			t.Errorf("expected format json, got %s", manifest.Format)
		}
	})

	t.Run("Exported JSON Carries Tracks", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})
		outputDir := t.TempDir()

		if _, err := engine.BulkExport(ctx, nil, []string{"Road Trip"}, BulkExportOpts{OutputDir: outputDir}); err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}

		content := th.MustReadFile(t, filepath.Join(outputDir, "p.road.json"))
		if !strings.Contains(content, "Song One") || !strings.Contains(content, "Song Two") {
			t.Errorf("exported JSON missing tracks: %s", content)
		}
	})

	t.Run("CSV Export", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})
		outputDir := t.TempDir()

		result, err := engine.BulkExport(ctx, nil, []string{"p.road"}, BulkExportOpts{
			Format:    "csv",
			OutputDir: outputDir,
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if result.SuccessfulExports != 1 {
			t.Fatalf("expected 1 success, got %d", result.SuccessfulExports)
		}

		th.AssertFileExists(t, filepath.Join(outputDir, "p.road_tracks.csv"))
		th.AssertFileExists(t, filepath.Join(outputDir, "p.road_metadata.json"))
	})

	t.Run("Partial Failure Recorded In Manifest", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})
		outputDir := t.TempDir()

		result, err := engine.BulkExport(ctx, nil, []string{"Road Trip", "No Such Playlist"}, BulkExportOpts{
			OutputDir: outputDir,
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}

		if result.SuccessfulExports != 1 || result.FailedExports != 1 {
			t.Errorf("expected 1 success 1 failure, got success=%d failed=%d", result.SuccessfulExports, result.FailedExports)
		}

		data := th.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(data, "No Such Playlist") {
			t.Errorf("manifest missing failed playlist: %s", data)
		}
	})

	t.Run("Progress Updates Delivered", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})
		progress := make(chan ProgressUpdate, 32)

		if _, err := engine.BulkExport(ctx, progress, []string{"Road Trip"}, BulkExportOpts{OutputDir: t.TempDir()}); err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		close(progress)

		var sawExport bool
		for update := range progress {
			if update.Phase == ExportPlaylists {
				sawExport = true
			}
		}
		if !sawExport {
			t.Error("expected export phase updates")
		}
	})

	t.Run("Empty Playlist List", func(t *testing.T) {
		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})

		if _, err := engine.BulkExport(ctx, nil, nil, BulkExportOpts{OutputDir: t.TempDir()}); err == nil {
			t.Error("expected error for empty playlist list")
		}
	})

	t.Run("Cancelled Context Stops Producer", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		engine := newTestEngine(t, exportTestCatalog(), nil, resolve.Options{}, EngineOpts{})

		result, err := engine.BulkExport(cancelled, nil, []string{"Road Trip", "Focus"}, BulkExportOpts{
			OutputDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if result.SuccessfulExports != 0 {
			t.Errorf("expected no exports after cancellation, got %d", result.SuccessfulExports)
		}
	})
}
