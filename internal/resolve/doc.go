// package resolve turns loose, human-typed references to music entities
// (playlists, tracks, albums, artists) into the concrete identifiers the
// backing stores need.
//
// The Apple Music API addresses entities by structured identifiers while
// Music.app scripting only accepts exact display names, so a single user
// input has to resolve against both. Resolution is layered: inputs that
// already look like identifiers bypass matching entirely, everything else
// runs through a three-pass matcher (exact, partial, fuzzy) over candidate
// listings from each store. Fuzzy matches carry the transformations that
// bridged the input to the matched name so callers can explain why a
// non-exact match was chosen.
//
// Everything in this package is call-scoped: no state survives a resolution,
// and independent resolutions may run concurrently without coordination.
package resolve
