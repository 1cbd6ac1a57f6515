package resolve

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Transformation tags a single normalization stage that changed the input.
type Transformation string

const (
	TransformCaseFold     Transformation = "case folded"
	TransformDiacritics   Transformation = "removed diacritics"
	TransformArticle      Transformation = "removed leading article"
	TransformConjunction  Transformation = "normalized 'and'/'&'"
	TransformAbbreviation Transformation = "normalized abbreviation"
	TransformQuotes       Transformation = "removed quotes/apostrophes"
	TransformHyphens      Transformation = "hyphens to spaces"
	TransformSymbols      Transformation = "removed symbols/emoji"
	TransformWhitespace   Transformation = "collapsed whitespace"
)

// NormalizedText is the result of running a string through the normalization
// pipeline: the normalized form plus the ordered list of stages that actually
// changed it.
type NormalizedText struct {
	Normalized      string
	Transformations []Transformation
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	articleRe       = regexp.MustCompile(`^(the|an|a)\s+`)
	ampersandRe     = regexp.MustCompile(`\s*&\s*`)
	featRe          = regexp.MustCompile(`\bfeat\b\.?`)
	featuringRe     = regexp.MustCompile(`\bfeaturing\b`)
	ftDotRe         = regexp.MustCompile(`\bft\b\.`)
	withSlashRe     = regexp.MustCompile(`\bw/`)
	quoteReplacer   = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "", `"`, "", "“", "", "”", "")
	nonLinguisticRe = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRunRe      = regexp.MustCompile(`\s{2,}`)
)

// Normalize runs input through the fixed normalization pipeline.
//
// Every stage applies unconditionally; a stage is tagged only when it changed
// the string. The order is significant: diacritics must strip before articles
// so an accented leading article still strips, and conjunctions must collapse
// before symbol removal so "&" survives long enough to become "and".
// Normalize is pure and idempotent: running it on its own output yields the
// same string with an empty transformation list.
func Normalize(input string) NormalizedText {
	var applied []Transformation
	s := input

	record := func(next string, tag Transformation) string {
		if next != s {
			applied = append(applied, tag)
		}
		return next
	}

	// 1. Case-fold and trim.
	s = record(strings.TrimSpace(strings.ToLower(s)), TransformCaseFold)

	// 2. Strip diacritics (café → cafe).
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = record(stripped, TransformDiacritics)
	}

	// 3. Strip one leading article.
	s = record(articleRe.ReplaceAllString(s, ""), TransformArticle)

	// 4. Collapse "&" to the canonical conjunction "and". This has to happen
	// before symbol removal or the ampersand would simply vanish.
	s = record(ampersandRe.ReplaceAllString(s, " and "), TransformConjunction)

	// 5. Music-domain abbreviations.
	abbreviated := featuringRe.ReplaceAllString(s, "ft")
	abbreviated = featRe.ReplaceAllString(abbreviated, "ft")
	abbreviated = ftDotRe.ReplaceAllString(abbreviated, "ft")
	abbreviated = withSlashRe.ReplaceAllString(abbreviated, "with ")
	s = record(abbreviated, TransformAbbreviation)

	// 6. Quotes and apostrophes.
	s = record(quoteReplacer.Replace(s), TransformQuotes)

	// 7. Hyphens to spaces.
	s = record(strings.ReplaceAll(s, "-", " "), TransformHyphens)

	// 8. Emoji and other non-linguistic symbols.
	s = record(nonLinguisticRe.ReplaceAllString(s, ""), TransformSymbols)

	// 9. Collapse whitespace runs.
	collapsed := strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
	s = record(collapsed, TransformWhitespace)

	return NormalizedText{Normalized: s, Transformations: applied}
}
