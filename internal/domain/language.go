package domain

import "strings"

// Language is the target language selector accepted by a run.
type Language string

const (
	English Language = "English"
	German  Language = "German"
	French  Language = "French"
	Spanish Language = "Spanish"
	Italian Language = "Italian"
	Dutch   Language = "Dutch"
	AnyLang Language = "All"
)

var languages = []Language{English, German, French, Spanish, Italian, Dutch, AnyLang}

// ParseLanguage maps user input onto a selector. "Both" and "" mean any language.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "all", "both", "any":
		return AnyLang, true
	}
	for _, l := range languages {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}
