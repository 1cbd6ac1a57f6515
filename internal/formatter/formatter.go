// package formatter renders track listings and exports playlists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Name, Artist, Album, Duration, ISRC
func ExportToCSV(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "Album", "Duration", "ISRC"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			strconv.Itoa(track.DurationMS),
			track.ISRC,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))

	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		duration := shared.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *services.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist services.Playlist) ([]byte, error) {
	return json.MarshalIndent(playlist, "", "  ")
}

// DetailLevel names how much metadata a rendered track line carries.
type DetailLevel int

const (
	DetailFull    DetailLevel = iota // name, artist, album, duration, ids
	DetailClipped                    // name, artist, album, duration
	DetailCompact                    // name, artist
	DetailMinimal                    // name only
)

func (d DetailLevel) String() string {
	switch d {
	case DetailFull:
		return "full"
	case DetailClipped:
		return "clipped"
	case DetailCompact:
		return "compact"
	case DetailMinimal:
		return "minimal"
	default:
		return ""
	}
}

// RenderedTracks is a track listing rendered within a byte budget.
type RenderedTracks struct {
	Text   string
	Detail DetailLevel
	Count  int
}

// RenderTrackList renders tracks as numbered lines, degrading the per-track
// detail level until the output fits maxBytes. A budget of 0 means
// unlimited. Degradation drops metadata before it drops tracks; the minimal
// level truncates names rather than omitting rows.
func RenderTrackList(tracks []services.Track, maxBytes int) RenderedTracks {
	for _, level := range []DetailLevel{DetailFull, DetailClipped, DetailCompact, DetailMinimal} {
		text := renderAt(tracks, level)
		if maxBytes <= 0 || len(text) <= maxBytes {
			return RenderedTracks{Text: text, Detail: level, Count: len(tracks)}
		}
	}

	// Even minimal is too big; keep as many rows as fit.
	var buf bytes.Buffer
	count := 0
	for i, track := range tracks {
		line := fmt.Sprintf("%d. %s\n", i+1, shared.Truncate(track.Name, 40))
		if buf.Len()+len(line) > maxBytes {
			break
		}
		buf.WriteString(line)
		count++
	}
	return RenderedTracks{Text: buf.String(), Detail: DetailMinimal, Count: count}
}

func renderAt(tracks []services.Track, level DetailLevel) string {
	var buf bytes.Buffer

	for i, track := range tracks {
		switch level {
		case DetailFull:
			id := track.ID
			if id == "" {
				id = track.PersistentID
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s (%s) [%s] id=%s\n",
				i+1, track.Artist, track.Name, track.Album, shared.FormatDuration(track.DurationMS), id))
		case DetailClipped:
			buf.WriteString(fmt.Sprintf("%d. %s - %s (%s) [%s]\n",
				i+1, track.Artist, track.Name, track.Album, shared.FormatDuration(track.DurationMS)))
		case DetailCompact:
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
		case DetailMinimal:
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, shared.Truncate(track.Name, 40)))
		}
	}

	return buf.String()
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *services.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID. Creates {dir}/README.md.
func WriteMarkdownExport(export *services.PlaylistExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{mdFile},
	}, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(export *services.PlaylistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", export.Playlist.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
