package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

// Defaults mirror the knobs of the export pipeline.
const (
	DefaultPerPage         = 20
	DefaultTaxonomyPerPage = 100
	DefaultDelaySeconds    = 3.0
	DefaultTimeoutSeconds  = 30
)

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Export  ExportConfig  `yaml:"export"`
	Sites   []SiteSource  `yaml:"sites"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ExportConfig defines the shared fetch/export knobs applied to every site.
type ExportConfig struct {
	// PerPage is the number of items requested per content API call.
	PerPage int `yaml:"per_page"`

	// TaxonomyPerPage is the batch size for category/tag lookups.
	TaxonomyPerPage int `yaml:"taxonomy_per_page"`

	// DelaySeconds is the courtesy pause between API requests.
	DelaySeconds float64 `yaml:"delay_seconds"`

	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// SiteSource is a single site configuration item.
type SiteSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`

	// Types lists the content-type slugs to export. Empty or ["auto"]
	// discovers the publicly browsable types from the site.
	Types []string `yaml:"types"`

	// Split writes one file per item instead of one consolidated file.
	Split bool `yaml:"split"`

	// Output overrides the destination path; empty derives it from the
	// site's host name.
	Output string `yaml:"output"`
}

var config *AppConfig

func InitApp() {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c := AppConfig{
		Logging: LoggingConfig{Level: "info"},
	}

	// load configuration file; missing file means default knobs only
	data, err := os.ReadFile(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			panic(err)
		}
	}

	applyDefaults(&c)
	config = &c
}

func applyDefaults(c *AppConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Export.PerPage <= 0 {
		c.Export.PerPage = DefaultPerPage
	}
	if c.Export.TaxonomyPerPage <= 0 {
		c.Export.TaxonomyPerPage = DefaultTaxonomyPerPage
	}
	if c.Export.DelaySeconds < 0 {
		c.Export.DelaySeconds = 0
	} else if c.Export.DelaySeconds == 0 {
		c.Export.DelaySeconds = DefaultDelaySeconds
	}
	if c.Export.TimeoutSeconds <= 0 {
		c.Export.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
