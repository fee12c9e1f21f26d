// Package portal scrapes job portals whose search results are plain HTML
// cards. Each portal is a Site; a Scraper turns a Site into a source.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/scrape/util"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

type Scraper struct {
	site Site
	hc   *http.Client
	lim  *util.HostLimiter
	ua   string
}

type Option func(*Scraper)

func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) { s.hc = hc }
}

func WithLimiter(l *util.HostLimiter) Option {
	return func(s *Scraper) { s.lim = l }
}

func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.ua = ua
		}
	}
}

func New(site Site, opts ...Option) *Scraper {
	s := &Scraper{
		site: site,
		hc:   &http.Client{Timeout: 30 * time.Second},
		ua:   defaultUserAgent,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scraper) Name() string { return s.site.Name }

// FetchCandidates reads up to limit cards from the portal's search page.
// Descriptions are fetched lazily by the returned postings.
func (s *Scraper) FetchCandidates(ctx context.Context, role, location string, limit int) ([]domain.RawPosting, error) {
	searchURL := BuildSearchURL(s.site.SearchURL, role, location)
	doc, err := s.getDoc(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.site.Name, err)
	}

	base := s.site.BaseURL
	if base == "" {
		base = searchURL
	}

	var out []domain.RawPosting
	doc.Find(s.site.Card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}

		href, _ := card.Find(s.site.Link).First().Attr("href")
		link := util.ResolveURL(base, href)
		if link == "" || util.IsJunkURL(link) {
			return true
		}

		raw := domain.RawPosting{
			Title:      util.CleanText(card.Find(s.site.Title).First().Text()),
			Company:    util.CleanText(card.Find(s.site.Company).First().Text()),
			Link:       link,
			SourceName: s.site.Name,
		}
		if s.site.Snippet != "" {
			raw.Snippet = util.CleanText(card.Find(s.site.Snippet).First().Text())
		}
		raw.FetchDescription = func(ctx context.Context) (string, error) {
			return s.Description(ctx, link)
		}
		out = append(out, raw)
		return true
	})
	return out, nil
}

// Description loads a posting page and returns its description text.
func (s *Scraper) Description(ctx context.Context, link string) (string, error) {
	doc, err := s.getDoc(ctx, link)
	if err != nil {
		return "", fmt.Errorf("%s detail: %w", s.site.Name, err)
	}
	for _, sel := range s.site.Detail {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t, nil
		}
	}
	return strings.TrimSpace(doc.Find("body").Text()), nil
}

func (s *Scraper) getDoc(ctx context.Context, u string) (*goquery.Document, error) {
	if err := s.lim.WaitURL(ctx, u); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.ua)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d for %s", res.StatusCode, u)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// BuildSearchURL fills the {keyword} and {location} placeholders, escaping
// them for the URL part they land in.
func BuildSearchURL(tmpl, keyword, location string) string {
	path, query, hasQuery := strings.Cut(tmpl, "?")

	path = strings.NewReplacer(
		"{keyword}", url.PathEscape(keyword),
		"{location}", url.PathEscape(location),
	).Replace(path)
	if !hasQuery {
		return path
	}
	query = strings.NewReplacer(
		"{keyword}", url.QueryEscape(keyword),
		"{location}", url.QueryEscape(location),
	).Replace(query)
	return path + "?" + query
}
