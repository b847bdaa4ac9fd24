// Package normalize folds free text coming back from language models so it can
// be matched against fixed vocabularies (section headings, category names)
// Fold order
// 1 drop invalid UTF-8 and control characters
// 2 Unicode NFKD decomposition (splits accents and ligatures)
// 3 case folding
// 4 strip combining and format marks (accents, zero-width joiners, BOM)
// 5 width fold fullwidth forms to ASCII, then recompose NFC
// 6 collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformer chains are stateful, so each call borrows its own
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			norm.NFC,
		)
	},
}

// Fold returns the matching form of s
func Fold(s string) string {
	s = Sanitize(s)
	if s == "" {
		return ""
	}
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Key folds s and trims the markdown and list punctuation that wraps headings,
// so "## **Executive Summary:**" and "executive summary" share a key
func Key(s string) string {
	return strings.TrimFunc(Fold(s), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
