package langfilter

import "jobagent-engine/internal/domain"

// Mode selects how a Policy is evaluated.
type Mode int

const (
	// ModeAny accepts every language.
	ModeAny Mode = iota
	// ModeExact accepts only text detected as Code.
	ModeExact
	// ModeExclusive accepts Code text that does not demand fluency in Excluded.
	ModeExclusive
	// ModeNative accepts Code text, or default-language text that refers to Code.
	ModeNative
)

// Policy is one row of the classifier's rule table.
type Policy struct {
	Mode Mode
	Code string

	// ModeExclusive: the competing language and the phrases that demand it.
	Excluded           string
	RequirementPhrases []string
	ExcludedMarkers    []string

	// Fallback vocabulary used when detection is unreliable. For ModeExclusive
	// this is target-language technical vocabulary; for ModeNative the
	// language's own self-references and requirement-section headings.
	Keywords       []string
	MinKeywordHits int

	// ModeNative: detections of this language still allow the keyword fallback.
	DefaultCode string
}

// DefaultPolicies is the rule table for the supported selectors.
func DefaultPolicies() map[domain.Language]Policy {
	return map[domain.Language]Policy{
		domain.AnyLang: {Mode: ModeAny},
		domain.English: {
			Mode:     ModeExclusive,
			Code:     "en",
			Excluded: "de",
			RequirementPhrases: []string{
				"deutsch als muttersprache",
				"deutschkenntnisse",
				"fluent german",
				"fluent in german",
				"fluency in german",
				"german language skills",
				"german (c1", "german (b2", "german c1", "german b2",
				"deutsch (c1", "deutsch (b2", "deutsch c1", "deutsch b2",
				"level b2", "level c1",
				"voraussetzung: deutsch",
				"fließend deutsch",
				"deutsch: verhandlungssicher",
				"verhandlungssicheres deutsch",
				"sehr gute deutsch",
			},
			ExcludedMarkers: []string{"deutsch", "german"},
			Keywords: []string{
				"react", "frontend", "flutter", "angular", "javascript", "typescript",
				"node", "experience", "requirements", "engineer", "developer",
				"responsibilities", "team", "skills",
			},
			MinKeywordHits: 2,
		},
		domain.German: {
			Mode:           ModeNative,
			Code:           "de",
			DefaultCode:    "en",
			Keywords:       []string{"deutschkenntnisse", "deutsch", "voraussetzungen", "aufgaben", "kenntnisse"},
			MinKeywordHits: 1,
		},
		domain.French:  {Mode: ModeExact, Code: "fr"},
		domain.Spanish: {Mode: ModeExact, Code: "es"},
		domain.Italian: {Mode: ModeExact, Code: "it"},
		domain.Dutch:   {Mode: ModeExact, Code: "nl"},
	}
}

// compiled holds a Policy with its word lists case-folded once.
type compiled struct {
	Policy
	phrases  []string
	markers  []string
	keywords []string
}

func compile(p Policy) compiled {
	if p.MinKeywordHits <= 0 {
		p.MinKeywordHits = 1
	}
	return compiled{
		Policy:   p,
		phrases:  foldAll(p.RequirementPhrases),
		markers:  foldAll(p.ExcludedMarkers),
		keywords: foldAll(p.Keywords),
	}
}
