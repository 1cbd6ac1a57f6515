// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the Apple Music library:
//  1. [PlaylistListView] : Browse and select library playlists
//  2. [TrackListView] : Preview a playlist's tracks
//  3. [ConfirmView] : Confirm an export operation
//  4. [ExportView] : Monitor real-time progress updates
//  5. [ResultView] : Display export results and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the tasks Engine, providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
