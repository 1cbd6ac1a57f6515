package resolve

import (
	"fmt"
	"strings"
)

// FormatMatch renders the diagnostic trail of a match for display.
//
// Exact matches need no explanation and return "". Partial and fuzzy matches
// explain what was matched and, for fuzzy, which transformations bridged the
// query to the matched name.
func FormatMatch(m Match) string {
	switch m.Kind {
	case MatchPartial:
		return fmt.Sprintf("matched %q to %q (partial substring match)", m.Query, m.Name)
	case MatchFuzzy:
		var b strings.Builder
		fmt.Fprintf(&b, "matched %q to %q (fuzzy match)", m.Query, m.Name)
		if len(m.Transformations) > 0 {
			tags := make([]string, len(m.Transformations))
			for i, tr := range m.Transformations {
				tags[i] = string(tr)
			}
			fmt.Fprintf(&b, "\n  transformations: %s", strings.Join(tags, ", "))
		}
		return b.String()
	default:
		return ""
	}
}
