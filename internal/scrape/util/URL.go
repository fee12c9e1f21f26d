package util

import (
	"net/url"
	"sort"
	"strings"
)

// hostKeep lists, per portal host, the only query params that identify a
// posting. Everything else on those hosts is session or tracking noise.
var hostKeep = map[string][]string{
	"linkedin.com":    {"currentJobId"},
	"indeed.com":      {"jk", "vjk"},
	"stepstone.de":    nil,
	"startupjobs.com": nil,
}

// CanonicalizeURL normalizes a posting link so the same posting reached
// through different search pages compares equal.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "trackingid" || lk == "refid" {
			q.Del(k)
		}
	}

	for host, keepKeys := range hostKeep {
		if !strings.HasSuffix(u.Host, host) {
			continue
		}
		keep := url.Values{}
		for _, k := range keepKeys {
			if v := q.Get(k); v != "" {
				keep.Set(k, v)
			}
		}
		q = keep
		break
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ResolveURL resolves href against base and canonicalizes the result.
// Empty or unparsable hrefs resolve to "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref = b.ResolveReference(ref)
	}
	return CanonicalizeURL(ref.String())
}

// IsJunkURL reports links that never point at a posting (alert settings,
// unsubscribe pages, tracking pixels).
func IsJunkURL(u string) bool {
	lu := strings.ToLower(u)

	junks := []string{
		"unsubscribe",
		"preferences",
		"privacy",
		"view-in-browser",
		"viewaswebpage",
		"pixel",
		"beacon",
		"/alerts",
		"/settings",
		"/help",
		"/legal",
		"linkedin.com/comm/jobs/alerts",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}
