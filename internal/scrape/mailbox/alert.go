package mailbox

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobagent-engine/internal/scrape/util"
)

// AlertJob is one posting card inside a LinkedIn job-alert mail.
type AlertJob struct {
	Title    string
	Company  string
	Location string
	Link     string
}

var reJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

// IsJobAlert reports whether a mail looks like a LinkedIn job alert.
func IsJobAlert(from, subject, body string) bool {
	if strings.Contains(strings.ToLower(from), "jobalerts-noreply") {
		return true
	}
	s := strings.ToLower(subject)
	if strings.Contains(s, "job alert") || strings.Contains(s, "linkedin") {
		b := strings.ToLower(body)
		return strings.Contains(b, "linkedin.com/comm/jobs/view") ||
			strings.Contains(b, "linkedin.com/jobs/view")
	}
	return false
}

// ParseAlertHTML collects job cards from an alert body. Several anchors
// usually point at the same job (logo, title, "view job"); they are merged
// by job id.
func ParseAlertHTML(body string) ([]AlertJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	byID := map[string]*AlertJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		lh := strings.ToLower(href)
		if !strings.Contains(lh, "linkedin.com") || !strings.Contains(lh, "/jobs/view/") {
			return
		}

		link, id := jobLink(href)
		if link == "" {
			return
		}
		j, ok := byID[id]
		if !ok {
			j = &AlertJob{Link: link}
			byID[id] = j
			order = append(order, id)
		}

		if t := stripBadTitleSuffixes(util.CleanText(a.Text())); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Parent()
		}
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if t == "" {
				return
			}
			if strings.Contains(t, " · ") {
				if j.Company == "" {
					company, loc, _ := strings.Cut(t, " · ")
					j.Company = strings.TrimSpace(company)
					j.Location = strings.TrimSpace(loc)
				}
				return
			}
			if t2 := stripBadTitleSuffixes(t); betterTitle(t2, j.Title) {
				j.Title = t2
			}
		})
	})

	out := make([]AlertJob, 0, len(order))
	for _, id := range order {
		j := byID[id]
		if j.Title == "" {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

// jobLink unwraps redirect wrappers and rewrites the comm/ tracking path
// to the public posting URL.
func jobLink(href string) (link, id string) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", ""
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			u = uu
		}
	}
	m := reJobID.FindStringSubmatch(u.Path)
	if len(m) != 2 {
		return "", ""
	}
	return "https://www.linkedin.com/jobs/view/" + m[1] + "/", m[1]
}

func stripBadTitleSuffixes(s string) string {
	for _, b := range []string{"Actively recruiting", "Easy Apply", "Promoted"} {
		s = strings.ReplaceAll(s, b, "")
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "alumni") ||
		strings.Contains(low, "connections") ||
		strings.Contains(low, "applicants") {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

func betterTitle(candidate, current string) bool {
	if candidate == "" {
		return false
	}
	if current == "" {
		return titleScore(candidate) >= 0
	}
	return titleScore(candidate) >= titleScore(current)+3
}

func titleScore(s string) int {
	l := strings.ToLower(s)
	if strings.Contains(l, "unsubscribe") || strings.Contains(l, "http") || strings.Contains(l, "www.") {
		return -50
	}

	score := 0
	for _, bad := range []string{"apply", "view job", "see job", "see all", "sign in", "manage"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}
	for _, w := range []string{
		"engineer", "developer", "entwickler", "software", "frontend", "backend",
		"full stack", "data", "designer", "manager", "analyst", "architect", "lead",
	} {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}
	switch n := len([]rune(s)); {
	case n >= 6 && n <= 80:
		score += 2
	case n < 4 || n > 140:
		score -= 6
	}
	if strings.HasSuffix(s, ".") {
		score -= 4
	}
	return score
}
