package ui

import (
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/tasks"
)

type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

type tracksFetchedMsg struct {
	playlist *services.PlaylistExport
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type exportCompleteMsg struct {
	result *tasks.BulkExportResult
	err    error
}
