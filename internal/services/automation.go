package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// AppleScript list output is joined with these separators so that display
// names containing commas or quotes survive the round trip.
const (
	recordSep = ""
	fieldSep  = ""
)

// scriptRunner executes an AppleScript and returns its stdout. Swapped out
// in tests.
type scriptRunner func(ctx context.Context, script string) (string, error)

func runOsascript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", shared.ErrNoAutomation, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%w: %v", shared.ErrNoAutomation, err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// AutomationService drives the local Music.app through osascript. It only
// works on macOS with the app installed; every operation degrades to
// ErrNoAutomation elsewhere.
type AutomationService struct {
	run     scriptRunner
	timeout time.Duration
	logger  *log.Logger
}

// AutomationOpts configures an AutomationService.
type AutomationOpts struct {
	TimeoutSeconds int
	Logger         *log.Logger
}

// NewAutomationService creates a Music.app scripting client.
func NewAutomationService(opts AutomationOpts) *AutomationService {
	if opts.TimeoutSeconds <= 0 {
		opts.TimeoutSeconds = 30
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &AutomationService{
		run:     runOsascript,
		timeout: time.Duration(opts.TimeoutSeconds) * time.Second,
		logger:  opts.Logger,
	}
}

// Name returns the store name.
func (s *AutomationService) Name() string {
	return "Music.app"
}

// Available reports whether the automation surface can be used at all.
func (s *AutomationService) Available(ctx context.Context) bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	_, err := s.exec(ctx, `tell application "Music" to get version`)
	return err == nil
}

func (s *AutomationService) exec(ctx context.Context, script string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.run(ctx, script)
}

// quote escapes a string for interpolation into an AppleScript literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Playlists lists the user playlists visible to Music.app with their
// persistent ids.
func (s *AutomationService) Playlists(ctx context.Context) ([]Playlist, error) {
	script := fmt.Sprintf(`tell application "Music"
	set output to {}
	repeat with p in user playlists
		set end of output to (name of p) & %[1]s & (persistent ID of p) & %[1]s & (count of tracks of p)
	end repeat
	set AppleScript's text item delimiters to %[2]s
	return output as text
end tell`, quote(fieldSep), quote(recordSep))

	out, err := s.exec(ctx, script)
	if err != nil {
		return nil, err
	}

	var playlists []Playlist
	for _, record := range splitRecords(out) {
		fields := strings.Split(record, fieldSep)
		if len(fields) < 3 {
			continue
		}
		count, _ := strconv.Atoi(fields[2])
		playlists = append(playlists, Playlist{
			Name:         fields[0],
			PersistentID: fields[1],
			TrackCount:   count,
		})
	}
	return playlists, nil
}

// PlaylistTracks lists the tracks of a playlist by its exact display name.
func (s *AutomationService) PlaylistTracks(ctx context.Context, playlistName string) ([]Track, error) {
	script := fmt.Sprintf(`tell application "Music"
	set output to {}
	repeat with t in tracks of playlist %s
		set end of output to (name of t) & %[2]s & (artist of t) & %[2]s & (album of t) & %[2]s & (persistent ID of t) & %[2]s & (duration of t)
	end repeat
	set AppleScript's text item delimiters to %[3]s
	return output as text
end tell`, quote(playlistName), quote(fieldSep), quote(recordSep))

	out, err := s.exec(ctx, script)
	if err != nil {
		return nil, err
	}

	var tracks []Track
	for _, record := range splitRecords(out) {
		fields := strings.Split(record, fieldSep)
		if len(fields) < 5 {
			continue
		}
		seconds, _ := strconv.ParseFloat(fields[4], 64)
		tracks = append(tracks, Track{
			Name:         fields[0],
			Artist:       fields[1],
			Album:        fields[2],
			PersistentID: fields[3],
			DurationMS:   int(seconds * 1000),
		})
	}
	return tracks, nil
}

// CreatePlaylist makes a new playlist in Music.app.
func (s *AutomationService) CreatePlaylist(ctx context.Context, name, description string) error {
	script := fmt.Sprintf(`tell application "Music" to make new user playlist with properties {name:%s, description:%s}`,
		quote(name), quote(description))
	_, err := s.exec(ctx, script)
	return err
}

// AddTrack copies the first library track matching name (and artist, when
// given) into the named playlist.
func (s *AutomationService) AddTrack(ctx context.Context, playlistName, trackName, artist string) error {
	condition := fmt.Sprintf("name is %s", quote(trackName))
	if artist != "" {
		condition += fmt.Sprintf(" and artist is %s", quote(artist))
	}

	script := fmt.Sprintf(`tell application "Music"
	set matches to (every track of library playlist 1 whose %s)
	if (count of matches) is 0 then error "track not found"
	duplicate (item 1 of matches) to playlist %s
end tell`, condition, quote(playlistName))

	if _, err := s.exec(ctx, script); err != nil {
		if strings.Contains(err.Error(), "track not found") {
			return fmt.Errorf("%w: track %q", shared.ErrNotFound, trackName)
		}
		return err
	}
	return nil
}

// RemoveTrack deletes every occurrence of the named track from the playlist.
func (s *AutomationService) RemoveTrack(ctx context.Context, playlistName, trackName string) error {
	script := fmt.Sprintf(`tell application "Music"
	delete (every track of playlist %s whose name is %s)
end tell`, quote(playlistName), quote(trackName))
	_, err := s.exec(ctx, script)
	return err
}

// TrackExists reports whether the library contains a track with the exact
// display name.
func (s *AutomationService) TrackExists(ctx context.Context, trackName, artist string) (bool, error) {
	condition := fmt.Sprintf("name is %s", quote(trackName))
	if artist != "" {
		condition += fmt.Sprintf(" and artist is %s", quote(artist))
	}

	script := fmt.Sprintf(`tell application "Music" to return (count of (every track of library playlist 1 whose %s)) > 0`, condition)
	out, err := s.exec(ctx, script)
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

// PlayPlaylist starts playback of the named playlist.
func (s *AutomationService) PlayPlaylist(ctx context.Context, playlistName string, shuffle bool) error {
	script := fmt.Sprintf(`tell application "Music"
	set shuffle enabled to %t
	play playlist %s
end tell`, shuffle, quote(playlistName))
	_, err := s.exec(ctx, script)
	return err
}

// PlayTrack starts playback of the first library track with the display name.
func (s *AutomationService) PlayTrack(ctx context.Context, trackName string) error {
	script := fmt.Sprintf(`tell application "Music" to play (first track of library playlist 1 whose name is %s)`, quote(trackName))
	_, err := s.exec(ctx, script)
	return err
}

// Pause pauses playback.
func (s *AutomationService) Pause(ctx context.Context) error {
	_, err := s.exec(ctx, `tell application "Music" to pause`)
	return err
}

// Resume resumes playback.
func (s *AutomationService) Resume(ctx context.Context) error {
	_, err := s.exec(ctx, `tell application "Music" to play`)
	return err
}

// Next skips to the next track.
func (s *AutomationService) Next(ctx context.Context) error {
	_, err := s.exec(ctx, `tell application "Music" to next track`)
	return err
}

// Previous returns to the previous track.
func (s *AutomationService) Previous(ctx context.Context) error {
	_, err := s.exec(ctx, `tell application "Music" to previous track`)
	return err
}

// SetShuffle toggles shuffle without starting playback.
func (s *AutomationService) SetShuffle(ctx context.Context, enabled bool) error {
	_, err := s.exec(ctx, fmt.Sprintf(`tell application "Music" to set shuffle enabled to %t`, enabled))
	return err
}

// NowPlaying returns the current track, or nil when playback is stopped.
func (s *AutomationService) NowPlaying(ctx context.Context) (*Track, error) {
	script := fmt.Sprintf(`tell application "Music"
	if player state is stopped then return ""
	set t to current track
	return (name of t) & %[1]s & (artist of t) & %[1]s & (album of t) & %[1]s & (persistent ID of t)
end tell`, quote(fieldSep))

	out, err := s.exec(ctx, script)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	fields := strings.Split(out, fieldSep)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: unexpected automation output", shared.ErrNoAutomation)
	}
	return &Track{
		Name:         fields[0],
		Artist:       fields[1],
		Album:        fields[2],
		PersistentID: fields[3],
	}, nil
}

// SetRating rates the named library track 0-100 (stars times 20).
func (s *AutomationService) SetRating(ctx context.Context, trackName string, rating int) error {
	if rating < 0 || rating > 100 {
		return fmt.Errorf("%w: rating must be 0-100", shared.ErrInvalidInput)
	}
	script := fmt.Sprintf(`tell application "Music" to set rating of (first track of library playlist 1 whose name is %s) to %d`,
		quote(trackName), rating)
	_, err := s.exec(ctx, script)
	return err
}

// ListCandidates implements the resolver's store boundary. The identity of an
// automation candidate is its persistent id; the name is the exact display
// name scripting requires.
func (s *AutomationService) ListCandidates(ctx context.Context, kind resolve.EntityKind) ([]resolve.Candidate, error) {
	switch kind {
	case resolve.KindPlaylist:
		playlists, err := s.Playlists(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]resolve.Candidate, 0, len(playlists))
		for _, p := range playlists {
			candidates = append(candidates, resolve.Candidate{Name: p.Name, ID: p.PersistentID})
		}
		return candidates, nil
	case resolve.KindTrack:
		return s.listLibraryTracks(ctx)
	case resolve.KindAlbum, resolve.KindArtist:
		return s.listDistinctNames(ctx, kind)
	default:
		return nil, fmt.Errorf("%w: unknown entity kind", shared.ErrInvalidInput)
	}
}

func (s *AutomationService) listLibraryTracks(ctx context.Context) ([]resolve.Candidate, error) {
	out, err := s.exec(ctx, fmt.Sprintf(`tell application "Music"
	set output to {}
	repeat with t in tracks of library playlist 1
		set end of output to (name of t) & %s & (persistent ID of t)
	end repeat
	set AppleScript's text item delimiters to %s
	return output as text
end tell`, quote(fieldSep), quote(recordSep)))
	if err != nil {
		return nil, err
	}

	var candidates []resolve.Candidate
	for _, record := range splitRecords(out) {
		fields := strings.Split(record, fieldSep)
		if len(fields) < 2 {
			continue
		}
		candidates = append(candidates, resolve.Candidate{Name: fields[0], ID: fields[1]})
	}
	return candidates, nil
}

// listDistinctNames collects album or artist names from the library tracks.
// Music.app has no first-class album/artist objects with persistent ids, so
// candidates carry names only.
func (s *AutomationService) listDistinctNames(ctx context.Context, kind resolve.EntityKind) ([]resolve.Candidate, error) {
	property := "album"
	if kind == resolve.KindArtist {
		property = "artist"
	}

	out, err := s.exec(ctx, fmt.Sprintf(`tell application "Music"
	set output to %s of every track of library playlist 1
	set AppleScript's text item delimiters to %s
	return output as text
end tell`, property, quote(recordSep)))
	if err != nil {
		return nil, err
	}

	var candidates []resolve.Candidate
	for _, name := range splitRecords(out) {
		candidates = append(candidates, resolve.Candidate{Name: name})
	}
	return resolve.Dedupe(candidates, func(c resolve.Candidate) string {
		return strings.ToLower(c.Name)
	}), nil
}

func splitRecords(out string) []string {
	if out == "" {
		return nil
	}
	return strings.Split(out, recordSep)
}
