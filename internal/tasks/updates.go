package tasks

import (
	"fmt"

	"github.com/epheterson/mcp-applemusic/internal/resolve"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveInput Phase = iota
	SearchStore
	FetchTracks
	AddTracksPhase
	CreateDestination
	RemoveTracksPhase
	ExportPlaylists
)

func (p Phase) String() string {
	switch p {
	case ResolveInput:
		return "resolve_input"
	case SearchStore:
		return "search_store"
	case FetchTracks:
		return "fetch_tracks"
	case AddTracksPhase:
		return "add_tracks"
	case CreateDestination:
		return "create_destination"
	case RemoveTracksPhase:
		return "remove_tracks"
	case ExportPlaylists:
		return "export_playlists"
	default:
		return ""
	}
}

func resolvingUpdate(step, total int, kind resolve.EntityKind, ref string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveInput,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s: %s", step, total, kind, ref),
	}
}

func searchingUpdate(step, total int, term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchStore,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching catalog for: %s", step, total, term),
	}
}

func fetchingTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks from %s...", name),
	}
}

func addingTracksUpdate(step, total int, playlist string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracksPhase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d track(s) to %s...", count, playlist),
	}
}

func createDestinationUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateDestination,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist: %s", name),
	}
}

func removingTrackUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveTracksPhase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing: %s", step, total, name),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
