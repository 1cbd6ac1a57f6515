package main

import (
	"context"
	"fmt"

	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayStart starts playback of a playlist or a single track in Music.app.
func (r *Runner) PlayStart(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}

	trackRef := cmd.String("track")
	playlistRef := cmd.StringArg("playlist")

	if trackRef == "" && playlistRef == "" {
		return fmt.Errorf("%w: a playlist argument or --track is required", shared.ErrMissingArgument)
	}

	if err := r.requireResolver(); err != nil {
		return err
	}

	if trackRef != "" {
		res := r.resolver.ResolveTrack(ctx, trackRef)
		if res.AutomationName == "" {
			if res.Err != nil {
				return res.Err
			}
			return fmt.Errorf("%w: track %q has no Music.app name to play", shared.ErrNotFound, trackRef)
		}
		if err := r.automation.PlayTrack(ctx, res.AutomationName); err != nil {
			return fmt.Errorf("failed to play track: %w", err)
		}
		r.writePlain("▶ Playing %s\n", res.AutomationName)
		return nil
	}

	res := r.resolver.ResolvePlaylist(ctx, playlistRef)
	if res.AutomationName == "" {
		if res.Err != nil {
			return res.Err
		}
		return fmt.Errorf("%w: playlist %q has no Music.app name to play", shared.ErrNotFound, playlistRef)
	}

	if err := r.automation.PlayPlaylist(ctx, res.AutomationName, cmd.Bool("shuffle")); err != nil {
		return fmt.Errorf("failed to play playlist: %w", err)
	}

	r.writePlain("▶ Playing %s", res.AutomationName)
	if cmd.Bool("shuffle") {
		r.writePlain(" (shuffled)")
	}
	r.writePlain("\n")
	return nil
}

// PlayPause pauses playback.
func (r *Runner) PlayPause(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}
	if err := r.automation.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	r.writePlain("⏸ Paused\n")
	return nil
}

// PlayResume resumes playback.
func (r *Runner) PlayResume(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}
	if err := r.automation.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	r.writePlain("▶ Resumed\n")
	return nil
}

// PlayNext skips to the next track.
func (r *Runner) PlayNext(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}
	if err := r.automation.Next(ctx); err != nil {
		return fmt.Errorf("failed to skip: %w", err)
	}
	return r.PlayNow(ctx, cmd)
}

// PlayPrevious returns to the previous track.
func (r *Runner) PlayPrevious(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}
	if err := r.automation.Previous(ctx); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return r.PlayNow(ctx, cmd)
}

// PlayNow shows the current track.
func (r *Runner) PlayNow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}

	track, err := r.automation.NowPlaying(ctx)
	if err != nil {
		return fmt.Errorf("failed to read player state: %w", err)
	}
	if track == nil {
		r.writePlain("Nothing playing\n")
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	r.writePlain("♪ %s - %s", track.Artist, track.Name)
	if track.Album != "" {
		r.writePlain(" (%s)", track.Album)
	}
	r.writePlain(" [%s]\n", shared.FormatDuration(track.DurationMS))
	return nil
}

// PlayRate sets a track's rating in Music.app.
func (r *Runner) PlayRate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAutomation(); err != nil {
		return err
	}

	trackRef := cmd.StringArg("track")
	if trackRef == "" {
		return fmt.Errorf("%w: track", shared.ErrMissingArgument)
	}

	rating := cmd.Int("rating")
	if rating < 0 || rating > 100 {
		return fmt.Errorf("%w: rating must be between 0 and 100, got %d", shared.ErrInvalidFlag, rating)
	}

	name := trackRef
	if r.resolver != nil {
		if res := r.resolver.ResolveTrack(ctx, trackRef); res.AutomationName != "" {
			name = res.AutomationName
		}
	}

	if err := r.automation.SetRating(ctx, name, rating); err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}

	r.writePlain("✓ Rated %q %d/100\n", name, rating)
	return nil
}
