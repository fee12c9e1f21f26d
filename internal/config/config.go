package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Portal enables one built-in portal. SearchURL and BaseURL override the
// built-in addresses when set.
type Portal struct {
	Name      string `yaml:"name" json:"name"`
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	SearchURL string `yaml:"search_url,omitempty" json:"search_url,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

type Mailbox struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	IMAPHost    string `yaml:"imap_host" json:"imap_host"`
	IMAPPort    int    `yaml:"imap_port" json:"imap_port"`
	Username    string `yaml:"username" json:"username"`
	Mailbox     string `yaml:"mailbox" json:"mailbox"`
	SinceDays   int    `yaml:"since_days" json:"since_days"`
	MaxMessages int    `yaml:"max_messages" json:"max_messages"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Search struct {
		Roles                []string `yaml:"roles" json:"roles"`
		Location             string   `yaml:"location" json:"location"`
		Language             string   `yaml:"language" json:"language"`
		MaxPerSource         int      `yaml:"max_per_source" json:"max_per_source"`
		SourceTimeoutSeconds int      `yaml:"source_timeout_seconds" json:"source_timeout_seconds"`
		ScheduleMinutes      int      `yaml:"schedule_minutes" json:"schedule_minutes"`
	} `yaml:"search" json:"search"`

	Language struct {
		QuickMinChars int     `yaml:"quick_min_chars" json:"quick_min_chars"`
		MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
	} `yaml:"language" json:"language"`

	Sources struct {
		UserAgent         string   `yaml:"user_agent" json:"user_agent"`
		RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second"`
		Portals           []Portal `yaml:"portals" json:"portals"`
		Mailbox           Mailbox  `yaml:"mailbox" json:"mailbox"`
	} `yaml:"sources" json:"sources"`

	Report struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"report" json:"report"`

	NATS struct {
		URL           string `yaml:"url" json:"url"`
		SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix"`
	} `yaml:"nats" json:"nats"`

	// IMAPPassword only ever comes from the environment or the keyring.
	IMAPPassword string `yaml:"-" json:"-"`
}

// Default is the configuration used when no file provides a value.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "."
	c.Search.Roles = []string{"Frontend Developer", "Backend Developer"}
	c.Search.Location = "Germany"
	c.Search.Language = "English"
	c.Search.MaxPerSource = 8
	c.Search.SourceTimeoutSeconds = 180
	c.Language.QuickMinChars = 10
	c.Language.MinConfidence = 0.5
	c.Sources.RequestsPerSecond = 1
	c.Sources.Portals = []Portal{
		{Name: "linkedin", Enabled: true},
		{Name: "stepstone", Enabled: true},
		{Name: "indeed", Enabled: true},
		{Name: "startupjobs", Enabled: true},
	}
	c.Sources.Mailbox.IMAPPort = 993
	c.Sources.Mailbox.Mailbox = "INBOX"
	c.Sources.Mailbox.SinceDays = 3
	c.Sources.Mailbox.MaxMessages = 50
	c.Report.Path = "Job_Leads.xlsx"
	c.NATS.SubjectPrefix = "jobagent"
	return c
}

// Load reads path over Default, so a partial file keeps the defaults for
// everything it omits.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
