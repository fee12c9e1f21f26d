package langfilter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases with Unicode case folding so "Fließend" and "FLIESSEND"
// compare equal. A new Caser per call: Casers are stateful and not safe for
// concurrent use.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, fold(s))
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func countHits(text string, needles []string) int {
	n := 0
	for _, k := range needles {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}
