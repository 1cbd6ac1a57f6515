// Package services implements the two backing stores consulted during
// resolution and the operations built on top of them.
//
// # Structured Store
//
// [CatalogService] is an Apple Music API client. It authenticates every
// request with a developer token (JWT) and adds the Music-User-Token on
// library-scoped endpoints. Library listings page through results 100 at a
// time, and all traffic passes through a client-side rate limiter.
//
// # Automation Surface
//
// [AutomationService] drives the local Music.app through osascript. Scripting
// addresses entities by exact display name, so its listings pair each name
// with the Music.app persistent id. Operations fail with
// [shared.ErrNoAutomation] off macOS or when the app is unreachable.
//
// # Store Boundary
//
// Both services implement the resolver's candidate-listing boundary: the
// structured store yields API ids, the automation surface yields persistent
// ids. The resolver treats the two independently and never retries one
// through the other.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : missing or unloadable tokens
//   - [shared.ErrAPIRequest] : the API answered with a non-2xx status
//   - [shared.ErrStoreUnavailable] : transport-level failure
//   - [shared.ErrNoAutomation] : osascript unavailable or Music.app error
package services
