// Package repositories implements SQLite persistence for the metadata cache.
//
// Key Implementations:
//   - [TrackCacheRepository] : track metadata keyed by catalog, library, and
//     persistent ids, with upsert merging across identifier namespaces
//   - [AlbumCacheRepository] : album metadata keyed by catalog and library ids
//   - [NameIndexRepository] : normalized display names mapped to cached rows
//     for warm-start resolution
//
// Lookups return [ErrCacheMiss] when nothing is stored; the cache never
// substitutes for a live store listing, it only saves repeat metadata
// fetches.
package repositories
