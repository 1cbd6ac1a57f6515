package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/epheterson/mcp-applemusic/internal/formatter"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: applemusic_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Playlist fetches per second (default: 5)
}

// PlaylistExportJob carries one fetched playlist to an export worker.
type PlaylistExportJob struct {
	Ref    string
	Export *services.PlaylistExport
}

// PlaylistExportResult records the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Ref          string
	PlaylistName string
	Success      bool
	Files        []string
	Error        error
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []PlaylistExportResult
}

type exportManifest struct {
	Format      string          `json:"format"`
	GeneratedAt time.Time       `json:"generated_at"`
	Total       int             `json:"total_playlists"`
	Successful  int             `json:"successful_exports"`
	Failed      int             `json:"failed_exports"`
	Playlists   []manifestEntry `json:"playlists"`
}

type manifestEntry struct {
	Ref   string   `json:"ref"`
	Name  string   `json:"name"`
	Files []string `json:"files,omitempty"`
	Error string   `json:"error,omitempty"`
}

// BulkExport resolves and exports multiple playlists concurrently with rate
// limiting and progress tracking.
//
// This method implements a worker pool pattern to efficiently export multiple
// playlists. It respects API rate limits, handles partial failures
// gracefully, and generates a manifest file summarizing the export results.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, refs []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrStoreUnavailable)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no playlists to export", shared.ErrInvalidInput)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("applemusic_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(refs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(refs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(refs))
	results := make(chan PlaylistExportResult, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		for i, ref := range refs {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			export, err := e.fetchExport(ctx, ref)
			if err != nil {
				results <- PlaylistExportResult{
					Ref:          ref,
					PlaylistName: fmt.Sprintf("Unknown (%s)", ref),
					Success:      false,
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			jobs <- PlaylistExportJob{Ref: ref, Export: export}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(refs), export.Playlist.Name))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(refs), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(refs), res.PlaylistName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// fetchExport resolves a playlist reference and assembles its full track
// listing from whichever store resolved it.
func (e *Engine) fetchExport(ctx context.Context, ref string) (*services.PlaylistExport, error) {
	res := e.resolver.ResolvePlaylist(ctx, ref)
	if !res.Found() {
		return nil, res.Err
	}

	switch {
	case e.catalog != nil && res.StructuredID != "":
		tracks, err := e.catalog.PlaylistTracks(ctx, res.StructuredID)
		if err != nil {
			return nil, err
		}
		return &services.PlaylistExport{
			Playlist: services.Playlist{
				ID:         res.StructuredID,
				Name:       playlistName(res),
				TrackCount: len(tracks),
			},
			Tracks: tracks,
		}, nil

	case e.automation != nil && res.AutomationName != "":
		tracks, err := e.automation.PlaylistTracks(ctx, res.AutomationName)
		if err != nil {
			return nil, err
		}
		return &services.PlaylistExport{
			Playlist: services.Playlist{
				PersistentID: res.PersistentID,
				Name:         res.AutomationName,
				TrackCount:   len(tracks),
			},
			Tracks: tracks,
		}, nil
	}

	return nil, fmt.Errorf("%w: no store can read playlist %q", shared.ErrStoreUnavailable, ref)
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist exports a single playlist to the appropriate format.
func (e *Engine) exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		Ref:          j.Ref,
		PlaylistName: j.Export.Playlist.Name,
		Success:      false,
		Files:        []string{},
	}

	base := exportBasename(j.Export.Playlist)

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(j.Export, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}
		result.Success = true

	case "markdown":
		mdRes, err := formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_tracks.txt", base))
		written, err := formatter.WriteTextExport(j.Export, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", base))
		data, err := json.MarshalIndent(j.Export, "", "  ")
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}

// exportBasename prefers the stable playlist id as the on-disk name, falling
// back to the persistent id and finally the display name.
func exportBasename(p services.Playlist) string {
	switch {
	case p.ID != "":
		return p.ID
	case p.PersistentID != "":
		return p.PersistentID
	default:
		return p.Name
	}
}

func writeManifest(result *BulkExportResult, format, path string) error {
	manifest := exportManifest{
		Format:      format,
		GeneratedAt: time.Now().UTC(),
		Total:       result.TotalPlaylists,
		Successful:  result.SuccessfulExports,
		Failed:      result.FailedExports,
		Playlists:   make([]manifestEntry, 0, len(result.Results)),
	}
	if manifest.Format == "" {
		manifest.Format = "json"
	}

	for _, res := range result.Results {
		entry := manifestEntry{
			Ref:   res.Ref,
			Name:  res.PlaylistName,
			Files: res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Playlists = append(manifest.Playlists, entry)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
