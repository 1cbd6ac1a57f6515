// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the metadata cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the metadata cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles token minting and user authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Apple Music tokens",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Mint and cache a developer token from the configured credentials",
				Action: r.AuthInit,
			},
			{
				Name:  "authorize",
				Usage: "Open the MusicKit authorization page and capture a user token",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Local port for the authorization server (default from config)",
					},
					&cli.IntFlag{
						Name:  "timeout",
						Usage: "Seconds to wait for the browser flow",
						Value: 300,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL instead of opening a browser",
					},
				},
				Action: r.AuthAuthorize,
			},
			{
				Name:  "token",
				Usage: "Save a user token captured elsewhere",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Music user token value",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthToken,
			},
			{
				Name:  "status",
				Usage: "Show which tokens are cached and when they expire",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "clear",
				Usage:  "Delete cached developer and user tokens",
				Action: r.AuthClear,
			},
		},
	}
}

// resolveCommand turns loose references into identifiers.
func resolveCommand(r *Runner) *cli.Command {
	kinds := []struct {
		name   string
		usage  string
		action cli.ActionFunc
	}{
		{"playlist", "Resolve a playlist reference", r.ResolvePlaylist},
		{"track", "Resolve a track reference", r.ResolveTrack},
		{"album", "Resolve an album reference", r.ResolveAlbum},
		{"artist", "Resolve an artist reference", r.ResolveArtist},
	}

	subcommands := make([]*cli.Command, 0, len(kinds))
	for _, k := range kinds {
		subcommands = append(subcommands, &cli.Command{
			Name:  k.name,
			Usage: k.usage,
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "query"},
			},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output raw JSON",
				},
			},
			Action: k.action,
		})
	}

	return &cli.Command{
		Name:     "resolve",
		Usage:    "Resolve names, fragments, or ids to Apple Music identifiers",
		Commands: subcommands,
	}
}

// searchCommand handles catalog and library search.
func searchCommand(r *Runner) *cli.Command {
	searchFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "types",
			Usage: "Comma-separated entity types (songs,albums,artists,playlists)",
			Value: "songs",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum results per type",
			Value: 10,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}

	return &cli.Command{
		Name:  "search",
		Usage: "Search the Apple Music catalog or the user library",
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Search the storefront catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  searchFlags,
				Action: r.SearchCatalog,
			},
			{
				Name:  "library",
				Usage: "Search the user's library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  searchFlags,
				Action: r.SearchLibrary,
			},
		},
	}
}

// playlistCommand handles playlist listing and mutation.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List library playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Store to list from (api or automation)",
						Value: "api",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "tracks",
				Usage: "Show the tracks of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-bytes",
						Usage: "Budget for the rendered listing, 0 for unlimited",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistTracks,
			},
			{
				Name:  "create",
				Usage: "Create a playlist in the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "add",
				Usage: "Add tracks to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist name or id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "track",
						Aliases:  []string{"t"},
						Usage:    "Track name or id (repeatable)",
						Required: true,
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "copy",
				Usage: "Copy a playlist's tracks into a new playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source playlist name or id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dest",
						Usage:    "Name for the new playlist",
						Required: true,
					},
				},
				Action: r.PlaylistCopy,
			},
			{
				Name:  "remove",
				Usage: "Remove tracks from a playlist via Music.app",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "playlist",
						Aliases:  []string{"p"},
						Usage:    "Playlist name or id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "track",
						Aliases:  []string{"t"},
						Usage:    "Track name or id (repeatable)",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every library playlist",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (json, csv, markdown, txt)",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// playCommand handles playback through Music.app.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start and control playback in Music.app",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Enable shuffle before playing",
			},
			&cli.StringFlag{
				Name:  "track",
				Usage: "Play a single track instead of a playlist",
			},
		},
		Action: r.PlayStart,
		Commands: []*cli.Command{
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlayPause,
			},
			{
				Name:   "resume",
				Usage:  "Resume playback",
				Action: r.PlayResume,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlayNext,
			},
			{
				Name:   "previous",
				Usage:  "Return to the previous track",
				Action: r.PlayPrevious,
			},
			{
				Name:  "now",
				Usage: "Show the current track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayNow,
			},
			{
				Name:  "rate",
				Usage: "Rate a track (0-100)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "rating",
						Usage:    "Rating from 0 to 100",
						Required: true,
					},
				},
				Action: r.PlayRate,
			},
		},
	}
}

// cacheCommand handles the metadata cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the metadata cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache row counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:  "list",
				Usage: "List cached tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by artist name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:  "clear",
				Usage: "Purge cached tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "older-than",
						Usage: "Only purge rows not updated in this many days (0 purges everything)",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// auditCommand shows the record of mutating operations.
func auditCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Show recent playlist mutations and how to undo them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of entries to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.AuditList,
	}
}

// apiCommand handles raw Apple Music API calls for debugging.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw Apple Music API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET against the Apple Music API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse and export library playlists interactively",
		Action:  r.TUI,
	}
}
