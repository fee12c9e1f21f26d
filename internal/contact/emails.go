// Package contact pulls contact addresses out of posting text.
package contact

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}`)

// hrMarkers flag recruiting mailboxes. Matched case-insensitively anywhere in
// the address, so "hr" also matches e.g. "chris@". That is accepted noise.
var hrMarkers = []string{
	"hr", "jobs", "careers", "career", "recruitment", "recruiting",
	"bewerbung", "personal", "hiring", "talent",
}

// ExtractEmails returns the distinct email addresses in text, recruiting
// addresses first, each group in first-seen order.
func ExtractEmails(text string) []string {
	if text == "" {
		return []string{}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var hr, other []string
	for _, e := range reEmail.FindAllString(text, -1) {
		if !seen.Add(e) {
			continue
		}
		if IsHRAddress(e) {
			hr = append(hr, e)
		} else {
			other = append(other, e)
		}
	}
	return append(append(make([]string, 0, len(hr)+len(other)), hr...), other...)
}

func IsHRAddress(addr string) bool {
	l := strings.ToLower(addr)
	for _, m := range hrMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}
