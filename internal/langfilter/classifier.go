// Package langfilter decides whether job text matches a requested language.
//
// QuickAccept runs on listing snippets to skip detail-page fetches and is
// lenient: for any text, QuickAccept accepts whenever StrictAccept would.
// StrictAccept is the authoritative gate on full descriptions.
package langfilter

import (
	"strings"
	"unicode/utf8"

	"jobagent-engine/internal/domain"
)

type Options struct {
	// Texts shorter than MinChars (after trimming) are not run through the
	// detector and count as unknown.
	MinChars int
	// Detections below MinConfidence are treated as ambiguous.
	MinConfidence float64
}

func DefaultOptions() Options {
	return Options{MinChars: 10, MinConfidence: 0.5}
}

type Classifier struct {
	detector Detector
	opts     Options
	policies map[domain.Language]compiled
}

// New builds a classifier over the given policy table. A nil detector means
// the trigram detector; nil policies mean DefaultPolicies.
func New(d Detector, opts Options, policies map[domain.Language]Policy) *Classifier {
	if d == nil {
		d = NewTrigramDetector()
	}
	if policies == nil {
		policies = DefaultPolicies()
	}
	c := &Classifier{detector: d, opts: opts, policies: make(map[domain.Language]compiled, len(policies))}
	for lang, p := range policies {
		c.policies[lang] = compile(p)
	}
	return c
}

func (c *Classifier) detect(text string) Detection {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < c.opts.MinChars {
		return Detection{}
	}
	return c.detector.Detect(text)
}

func (c *Classifier) confident(d Detection) bool {
	return !d.Unknown() && d.Confidence >= c.opts.MinConfidence
}

// QuickAccept is the cheap snippet pre-filter. It only rejects when the
// detector is confident the snippet is in a language the strict tier would
// reject as well.
func (c *Classifier) QuickAccept(snippet string, lang domain.Language) bool {
	p, ok := c.policies[lang]
	if !ok || p.Mode == ModeAny {
		return true
	}
	det := c.detect(snippet)
	if !c.confident(det) {
		return true
	}
	text := fold(snippet)

	switch p.Mode {
	case ModeExclusive:
		return !(det.Code == p.Excluded && containsAny(text, p.markers))
	case ModeNative:
		return det.Code == p.Code || countHits(text, p.keywords) >= p.MinKeywordHits
	case ModeExact:
		return det.Code == p.Code
	}
	return true
}

// StrictAccept is the authoritative check on a full description.
func (c *Classifier) StrictAccept(description string, lang domain.Language) bool {
	if strings.TrimSpace(description) == "" {
		return false
	}
	p, ok := c.policies[lang]
	if !ok {
		return false
	}
	if p.Mode == ModeAny {
		return true
	}

	det := c.detect(description)
	text := fold(description)

	switch p.Mode {
	case ModeExact:
		return det.Code == p.Code

	case ModeExclusive:
		if containsAny(text, p.phrases) {
			return false
		}
		if det.Code == p.Code {
			return true
		}
		if c.confident(det) && det.Code == p.Excluded && containsAny(text, p.markers) {
			return false
		}
		return countHits(text, p.keywords) >= p.MinKeywordHits

	case ModeNative:
		if det.Code == p.Code {
			return true
		}
		if c.confident(det) && det.Code != p.DefaultCode {
			return false
		}
		return countHits(text, p.keywords) >= p.MinKeywordHits
	}
	return false
}
