package resolve

import "testing"

func TestClassifyIdentifier(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  Format
	}{
		{name: "playlist id", input: "p.ABC123xyz", want: FormatPlaylistID},
		{name: "playlist prefix with punctuation is a name", input: "p.s. I love you", want: FormatFreeText},
		{name: "bare playlist prefix is a name", input: "p.", want: FormatFreeText},
		{name: "library id", input: "i.ABC123XYZ", want: FormatLibraryID},
		{name: "album id", input: "l.XYZ789", want: FormatAlbumID},
		{name: "catalog id", input: "1440783617", want: FormatCatalogID},
		{name: "short digit run is a name", input: "12345678", want: FormatFreeText},
		{name: "persistent id", input: "583528883966122E", want: FormatPersistentID},
		{name: "lowercase persistent id", input: "abc123def4567890", want: FormatPersistentID},
		{name: "all digit hex length is a catalog id", input: "123456789012", want: FormatCatalogID},
		{name: "short hex is a name", input: "ABC123", want: FormatFreeText},
		{name: "hex with space is a name", input: "ABC 123DEF456789", want: FormatFreeText},
		{name: "plain name", input: "Abbey Road", want: FormatFreeText},
		{name: "surrounding whitespace ignored", input: "  p.ABC123  ", want: FormatPlaylistID},
		{name: "empty string", input: "", want: FormatFreeText},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyIdentifier(tt.input)
			if got != tt.want {
				t.Errorf("ClassifyIdentifier(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
