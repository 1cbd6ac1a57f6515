package resolve

import (
	"strings"
	"testing"
)

func TestFormatMatch(t *testing.T) {
	t.Run("exact needs no diagnostic", func(t *testing.T) {
		m := Match{Kind: MatchExact, Query: "Abbey Road", Name: "Abbey Road"}
		if got := FormatMatch(m); got != "" {
			t.Errorf("expected empty string for exact match, got %q", got)
		}
	})

	t.Run("not found needs no diagnostic", func(t *testing.T) {
		m := Match{Kind: MatchNone, Query: "zzz"}
		if got := FormatMatch(m); got != "" {
			t.Errorf("expected empty string for no match, got %q", got)
		}
	})

	t.Run("partial names query and match", func(t *testing.T) {
		m := Match{Kind: MatchPartial, Query: "Beatles", Name: "The Beatles"}
		got := FormatMatch(m)
		if !strings.Contains(got, `"Beatles"`) || !strings.Contains(got, `"The Beatles"`) {
			t.Errorf("partial diagnostic missing query or matched name: %q", got)
		}
	})

	t.Run("fuzzy lists transformations in order", func(t *testing.T) {
		m := Match{
			Kind:            MatchFuzzy,
			Query:           "jack and norah",
			Name:            "🤟👶🎸 Jack & Norah",
			Transformations: []Transformation{TransformConjunction, TransformSymbols},
		}
		got := FormatMatch(m)
		if !strings.Contains(got, string(TransformConjunction)) {
			t.Errorf("fuzzy diagnostic missing transformation tags: %q", got)
		}
		conjIdx := strings.Index(got, string(TransformConjunction))
		symIdx := strings.Index(got, string(TransformSymbols))
		if conjIdx > symIdx {
			t.Errorf("transformation order not preserved: %q", got)
		}
	})
}
