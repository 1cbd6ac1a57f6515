// Package tasks orchestrates resolve-and-act playlist operations with
// real-time progress reporting.
//
// # Core Operations
//
// The [Engine] resolves loose user input through the resolve package, then
// acts through whichever store produced an identifier:
//
//  1. [Engine.AddTracksToPlaylist] : Add tracks by any reference
//     - Resolves the playlist and every track reference
//     - Batches structured ids into one API call; automation-only tracks
//       are added by exact display name
//     - Falls back to a catalog search when the resolver allows it
//
//  2. [Engine.CopyPlaylist] : Duplicate a playlist into a new one
//     - Prefers the API path; runs track by track through Music.app
//       when only a display name resolved
//
//  3. [Engine.RemoveTracks] : Remove tracks from a playlist
//     - Automation-only; both playlist and tracks must resolve to
//       exact Music.app display names
//
//  4. [Engine.BulkExport] : Export many playlists concurrently
//     - Worker pool with rate-limited fetching and a JSON manifest
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate] values.
// Updates use select with default so reporting never blocks execution.
//
// # Track Caching and Auditing
//
// When the Engine is built with a track cache, identifiers observed during
// operations are upserted silently; cache failures are logged and ignored.
// Mutating operations append [AuditEntry] records (with undo hints) to the
// JSONL [AuditLog].
package tasks
