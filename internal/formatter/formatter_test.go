package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/epheterson/mcp-applemusic/internal/services"
	th "github.com/epheterson/mcp-applemusic/internal/testing"
)

func testExport() *services.PlaylistExport {
	return &services.PlaylistExport{
		Playlist: services.Playlist{
			ID:          "p.test123",
			Name:        "Test Playlist",
			Description: "A test playlist",
			TrackCount:  2,
		},
		Tracks: []services.Track{
			{
				ID:         "track1",
				Name:       "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				DurationMS: 180000,
				ISRC:       "USRC12345678",
			},
			{
				ID:         "track2",
				Name:       "Song Two",
				Artist:     "Artist Two",
				Album:      "Album Two",
				DurationMS: 240000,
				ISRC:       "USRC87654321",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Name,Artist,Album,Duration,ISRC") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1") {
			t.Errorf("CSV missing track1 ID")
		}
		if !strings.Contains(output, "Song One") {
			t.Errorf("CSV missing track1 name")
		}
		if !strings.Contains(output, "180000") {
			t.Errorf("CSV missing track1 duration")
		}
		if !strings.Contains(output, "USRC12345678") {
			t.Errorf("CSV missing track1 ISRC")
		}
	})

	t.Run("ExportToCSV Escapes Commas", func(t *testing.T) {
		export := testExport()
		export.Tracks[0].Name = "Song, With Comma"

		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), `"Song, With Comma"`) {
			t.Errorf("expected quoted field, got: %s", string(data))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title header")
		}
		if !strings.Contains(output, "**Description**: A test playlist") {
			t.Errorf("Markdown missing description")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing formatted track line, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown Omits Empty Album", func(t *testing.T) {
		export := testExport()
		export.Tracks[0].Album = ""

		data, err := ExportToMarkdown(export)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "1. Artist One - Song One [3:00]") {
			t.Errorf("expected line without album, got: %s", string(data))
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("text missing playlist name")
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("text missing track line, got: %s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"p.test123"`) {
			t.Errorf("JSON missing playlist id, got: %s", string(data))
		}
	})
}

func TestRenderTrackList(t *testing.T) {
	tracks := testExport().Tracks

	t.Run("Unlimited Budget Uses Full Detail", func(t *testing.T) {
		rendered := RenderTrackList(tracks, 0)

		if rendered.Detail != DetailFull {
			t.Errorf("expected full detail, got %s", rendered.Detail)
		}
		if rendered.Count != 2 {
			t.Errorf("expected 2 tracks, got %d", rendered.Count)
		}
		if !strings.Contains(rendered.Text, "id=track1") {
			t.Errorf("full detail should carry ids, got: %s", rendered.Text)
		}
		if !strings.Contains(rendered.Text, "[3:00]") {
			t.Errorf("full detail should carry durations, got: %s", rendered.Text)
		}
	})

	t.Run("Tight Budget Degrades Detail", func(t *testing.T) {
		full := RenderTrackList(tracks, 0)
		rendered := RenderTrackList(tracks, len(full.Text)-1)

		if rendered.Detail == DetailFull {
			t.Error("expected a level below full detail")
		}
		if rendered.Count != 2 {
			t.Errorf("degradation should keep all tracks, got %d", rendered.Count)
		}
		if len(rendered.Text) > len(full.Text)-1 {
			t.Errorf("render exceeds budget: %d bytes", len(rendered.Text))
		}
	})

	t.Run("Minimal Keeps Names Only", func(t *testing.T) {
		minimal := renderAt(tracks, DetailMinimal)

		if !strings.Contains(minimal, "1. Song One") {
			t.Errorf("minimal should keep names, got: %s", minimal)
		}
		if strings.Contains(minimal, "Artist One") {
			t.Errorf("minimal should drop artists, got: %s", minimal)
		}
	})

	t.Run("Overflow Drops Rows Last", func(t *testing.T) {
		var many []services.Track
		for i := 0; i < 100; i++ {
			many = append(many, services.Track{Name: fmt.Sprintf("Track Number %03d", i)})
		}

		rendered := RenderTrackList(many, 200)
		if rendered.Detail != DetailMinimal {
			t.Errorf("expected minimal detail, got %s", rendered.Detail)
		}
		if rendered.Count == 0 || rendered.Count >= 100 {
			t.Errorf("expected a partial listing, got %d rows", rendered.Count)
		}
		if len(rendered.Text) > 200 {
			t.Errorf("render exceeds budget: %d bytes", len(rendered.Text))
		}
	})

	t.Run("Long Names Truncated At Minimal", func(t *testing.T) {
		long := []services.Track{{Name: strings.Repeat("x", 80)}}

		minimal := renderAt(long, DetailMinimal)
		if !strings.Contains(minimal, strings.Repeat("x", 40)+"...") {
			t.Errorf("expected truncated name, got: %s", minimal)
		}
	})

	t.Run("Empty Tracks", func(t *testing.T) {
		rendered := RenderTrackList(nil, 100)
		if rendered.Text != "" || rendered.Count != 0 {
			t.Errorf("expected empty render, got %+v", rendered)
		}
	})
}

func TestFileExports(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "export")

		result, err := WriteCSVExport(testExport(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertFileExists(t, result.TracksFile)
		th.AssertFileExists(t, result.MetadataFile)

		content := th.MustReadFile(t, result.TracksFile)
		if !strings.Contains(content, "Song One") {
			t.Errorf("CSV file missing track data")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "playlist-export")

		result, err := WriteMarkdownExport(testExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		th.AssertDirExists(t, result.Directory)
		if len(result.Files) != 1 {
			t.Fatalf("expected 1 file, got %d", len(result.Files))
		}
		content := th.MustReadFile(t, result.Files[0])
		if !strings.Contains(content, "# Test Playlist") {
			t.Errorf("Markdown file missing title")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "tracks.txt")

		written, err := WriteTextExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected path %s, got %s", path, written)
		}
		th.AssertFileExists(t, written)
	})

	t.Run("WriteTextExport Defaults Filename", func(t *testing.T) {
		orig := th.MustGetwd(t)
		dir := t.TempDir()
		th.MustChdir(t, dir)
		defer th.MustChdir(t, orig)

		written, err := WriteTextExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if written != "p.test123_tracks.txt" {
			t.Errorf("unexpected default filename %s", written)
		}
		if _, err := os.Stat(filepath.Join(dir, written)); err != nil {
			t.Errorf("expected file in working directory: %v", err)
		}
	})
}
