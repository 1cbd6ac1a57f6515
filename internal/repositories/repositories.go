// package repositories provides the persistence layer for the metadata cache.
package repositories

import (
	"errors"
)

// ErrCacheMiss is returned when a lookup finds no cached row. Callers fall
// back to the API or Music.app and upsert what they learn.
var ErrCacheMiss = errors.New("cache miss")
