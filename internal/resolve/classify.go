package resolve

import "strings"

// Format classifies the shape of a raw input string.
type Format int

const (
	FormatFreeText Format = iota
	FormatPlaylistID
	FormatLibraryID
	FormatAlbumID
	FormatCatalogID
	FormatPersistentID
)

func (f Format) String() string {
	switch f {
	case FormatPlaylistID:
		return "playlist id"
	case FormatLibraryID:
		return "library id"
	case FormatAlbumID:
		return "album id"
	case FormatCatalogID:
		return "catalog id"
	case FormatPersistentID:
		return "persistent id"
	default:
		return "free text"
	}
}

// Catalog song identifiers are all digits; Apple issues 10-digit ids, so
// anything shorter than this is treated as a name.
const minCatalogIDLength = 9

// ClassifyIdentifier detects whether raw already looks like a structured
// identifier, using stateless format rules only:
//
//   - "p." + alphanumeric tail → playlist id ("p.s. I love you" stays a name)
//   - "i." prefix → library song id
//   - "l." prefix → library album id
//   - all digits, length ≥ 9 → catalog id
//   - ≥ 12 hex chars with at least one letter and no spaces → persistent id
//     (the long-lived hex id Music.app assigns)
//   - anything else → free text
func ClassifyIdentifier(raw string) Format {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "i.") && len(s) > 2 {
		return FormatLibraryID
	}
	if strings.HasPrefix(s, "p.") && len(s) > 2 && isAlphanumeric(s[2:]) {
		return FormatPlaylistID
	}
	if strings.HasPrefix(s, "l.") && len(s) > 2 {
		return FormatAlbumID
	}
	if len(s) >= minCatalogIDLength && isDigits(s) {
		return FormatCatalogID
	}
	if len(s) >= 12 && isHex(s) && hasHexLetter(s) {
		return FormatPersistentID
	}
	return FormatFreeText
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// hasHexLetter distinguishes persistent ids from long digit runs, which are
// catalog ids.
func hasHexLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			return true
		}
	}
	return false
}
