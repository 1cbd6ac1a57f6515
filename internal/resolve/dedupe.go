package resolve

// Dedupe collapses records sharing an identity key, keeping the first
// occurrence of each distinct key and preserving relative order. A single
// logical entity can appear more than once in a raw store listing (matched
// on multiple fields), so search results run through here before they are
// counted or rendered.
func Dedupe[T any, K comparable](records []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DedupeKeepingUnkeyed behaves like [Dedupe] for records with a non-empty
// key, but passes every unkeyed record through untouched. Library search
// results sometimes carry entries without ids that still deserve display.
func DedupeKeepingUnkeyed[T any](records []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		k := key(r)
		if k == "" {
			out = append(out, r)
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
