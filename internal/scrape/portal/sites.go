package portal

// Site describes one job portal: where its search page lives and how to
// read posting cards out of it.
type Site struct {
	Name string `yaml:"name"`
	// SearchURL may contain {keyword} and {location} placeholders.
	SearchURL string `yaml:"search_url"`
	// BaseURL resolves relative card links.
	BaseURL string `yaml:"base_url"`

	Card    string `yaml:"card"`
	Title   string `yaml:"title"`
	Company string `yaml:"company"`
	Link    string `yaml:"link"`
	Snippet string `yaml:"snippet"`

	// Detail selectors are tried in order on the posting page; the page
	// body is used when none matches.
	Detail []string `yaml:"detail"`
}

func LinkedIn() Site {
	return Site{
		Name:      "LinkedIn",
		SearchURL: "https://www.linkedin.com/jobs/search/?f_TPR=r86400&keywords={keyword}&location={location}",
		BaseURL:   "https://www.linkedin.com",
		Card:      ".base-card",
		Title:     ".base-search-card__title",
		Company:   ".base-search-card__subtitle",
		Link:      "a.base-card__full-link",
		Detail:    []string{".description__text", ".show-more-less-html__markup"},
	}
}

func Stepstone() Site {
	return Site{
		Name:      "Stepstone",
		SearchURL: "https://www.stepstone.de/jobs/{keyword}/in-{location}?radius=0&age=1",
		BaseURL:   "https://www.stepstone.de",
		Card:      ".res-1v8vsm5",
		Title:     "h2",
		Company:   ".res-v7zn8r",
		Link:      "a",
		Detail:    []string{".js-app-ld-ContentBlock", ".listing-content"},
	}
}

func Indeed() Site {
	return Site{
		Name:      "Indeed",
		SearchURL: "https://de.indeed.com/jobs?q={keyword}&l={location}&fromage=1",
		BaseURL:   "https://de.indeed.com",
		Card:      ".job_seen_beacon",
		Title:     "h2.jobTitle",
		Company:   "[data-testid='company-name']",
		Link:      "h2.jobTitle a",
		Snippet:   ".job-snippet",
		Detail:    []string{"#jobDescriptionText"},
	}
}

func StartupJobs() Site {
	return Site{
		Name:      "StartupJobs",
		SearchURL: "https://www.startupjobs.com/jobs?q={keyword}&l={location}",
		BaseURL:   "https://www.startupjobs.com",
		Card:      ".job-list-item",
		Title:     ".job-list-item-title",
		Company:   ".job-list-item-company",
		Link:      "a",
		Detail:    []string{".job-description"},
	}
}

// Builtin returns the bundled portals keyed by lower-case name.
func Builtin() map[string]Site {
	return map[string]Site{
		"linkedin":    LinkedIn(),
		"stepstone":   Stepstone(),
		"indeed":      Indeed(),
		"startupjobs": StartupJobs(),
	}
}
