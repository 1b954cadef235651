// Package textnorm normalizes titles, names, and queries so they can be compared by edit distance.
package textnorm

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder bundles the stateful transformers used by Fold.
// Neither transform.Transformer chains nor cases.Caser are safe for concurrent use.
type folder struct {
	strip transform.Transformer
	fold  cases.Caser
}

var folderPool = sync.Pool{
	New: func() any {
		return &folder{
			// Decompose (compatibility forms too), drop combining marks, recompose.
			strip: transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
			fold:  cases.Fold(),
		}
	},
}

// Fold case-folds s, strips diacritics, and collapses runs of whitespace into one space.
// "  Kōhai   ÉCOLE " -> "kohai ecole".
func Fold(s string) string {
	if s == "" {
		return ""
	}

	f, _ := folderPool.Get().(*folder)
	defer folderPool.Put(f)

	stripped, _, err := transform.String(f.strip, s)
	if err != nil {
		// Invalid UTF-8 falls back to the raw input rather than dropping the label.
		stripped = s
	}

	folded := f.fold.String(stripped)

	return strings.Join(strings.Fields(folded), " ")
}

// Words splits an already folded string into its space-separated words.
func Words(folded string) []string {
	return strings.Fields(folded)
}

// Truncate cuts s to at most n runes. n <= 0 leaves s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Labels returns the distinct folded variants of names: each full name, then each of its words.
// Empty results are skipped. Order is stable for a given input.
func Labels(names ...string) []string {
	seen := make(map[string]struct{}, len(names)*2)
	out := make([]string, 0, len(names)*2)

	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	folded := make([]string, 0, len(names))
	for _, name := range names {
		f := Fold(name)
		folded = append(folded, f)
		add(f)
	}
	for _, f := range folded {
		words := Words(f)
		if len(words) < 2 {
			continue
		}
		for _, w := range words {
			add(w)
		}
	}

	return out
}
