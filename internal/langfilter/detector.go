package langfilter

import (
	"github.com/abadojack/whatlanggo"
)

// Detection is the outcome of language identification. Code is an ISO 639-1
// code or "" when the detector could not decide.
type Detection struct {
	Code       string
	Confidence float64
}

func (d Detection) Unknown() bool { return d.Code == "" }

// Detector identifies the language of a text. Implementations must be
// deterministic: the same input always yields the same Detection.
type Detector interface {
	Detect(text string) Detection
}

var supported = map[whatlanggo.Lang]string{
	whatlanggo.Eng: "en",
	whatlanggo.Deu: "de",
	whatlanggo.Fra: "fr",
	whatlanggo.Spa: "es",
	whatlanggo.Ita: "it",
	whatlanggo.Nld: "nl",
}

// TrigramDetector wraps whatlanggo restricted to the languages the filter
// knows about. whatlanggo has no random state, so results are reproducible.
type TrigramDetector struct {
	opts whatlanggo.Options
}

func NewTrigramDetector() *TrigramDetector {
	wl := make(map[whatlanggo.Lang]bool, len(supported))
	for l := range supported {
		wl[l] = true
	}
	return &TrigramDetector{opts: whatlanggo.Options{Whitelist: wl}}
}

func (d *TrigramDetector) Detect(text string) Detection {
	info := whatlanggo.DetectWithOptions(text, d.opts)
	code, ok := supported[info.Lang]
	if !ok || info.Confidence <= 0 {
		return Detection{}
	}
	return Detection{Code: code, Confidence: info.Confidence}
}
