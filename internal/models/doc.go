// Package models defines the rows stored in the local SQLite metadata cache.
//
//   - [CachedTrack] : track metadata keyed by catalog id, library id, and
//     Music.app persistent id; any subset of the three may be known
//   - [CachedAlbum] : album metadata keyed by catalog id and library id
//   - [Entity] : discriminator for name_index rows, which map normalized
//     display names back to cached records
//
// The cache exists to avoid re-fetching metadata the API or Music.app has
// already served; it is never consulted as an authority on what exists.
package models
