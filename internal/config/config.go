// Package config defines the run configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"sort"
	"time"
)

// DefaultUserAgent mimics a desktop browser; the ranking pages reject bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/127.0.0.0 Safari/537.36"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Sources lists the ranking page URLs fetched on every run.
	Sources []string `koanf:"sources"`

	// TargetTeams restricts the snapshot to these teams. Empty keeps every team.
	TargetTeams []string `koanf:"target_teams"`

	// OutputPath is the workbook holding the ledger.
	OutputPath string `koanf:"output_path"`

	// FetchTimeout bounds a single HTTP attempt.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// FetchRetries is the number of attempts per source, including the first.
	FetchRetries int `koanf:"fetch_retries"`

	// FetchRetryDelay is the pause between attempts.
	FetchRetryDelay time.Duration `koanf:"fetch_retry_delay"`

	// RequestInterval paces consecutive requests.
	RequestInterval time.Duration `koanf:"request_interval"`

	UserAgent      string `koanf:"user_agent"`
	AcceptLanguage string `koanf:"accept_language"`

	// ChartPath, when set, receives the progression chart as PNG.
	ChartPath string `koanf:"chart_path"`

	// EmbedChart adds the chart as its own sheet in the workbook.
	EmbedChart bool `koanf:"embed_chart"`

	// MetricsTextfile, when set, receives the run metrics in Prometheus text format.
	MetricsTextfile string `koanf:"metrics_textfile"`

	MetricsEnabled   bool      `koanf:"metrics_enabled"`
	MetricsNamespace string    `koanf:"metrics_namespace"`
	MetricsBuckets   []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels on every metric, e.g. league: fantavvale25.
	// From the environment: FANTALEDGER_METRICS_LABELS=league=fantavvale25,host=nas
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with the defaults of the tracked league.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Sources: []string{
			"https://leghe.fantacalcio.it/fantavvale25/classifica?id=596061",
			"https://leghe.fantacalcio.it/fantavvale25/classifica?id=596323",
			"https://leghe.fantacalcio.it/fantavvale25/classifica?id=596716",
			"https://leghe.fantacalcio.it/fantavvale25/classifica?id=596924",
		},
		TargetTeams:     []string{"Pisa pi curt", "Real Forward"},
		OutputPath:      "classifica_storico.xlsx",
		FetchTimeout:    20 * time.Second,
		FetchRetries:    3,
		FetchRetryDelay: time.Second,
		RequestInterval: 800 * time.Millisecond,
		UserAgent:       DefaultUserAgent,
		AcceptLanguage:  "it-IT,it;q=0.9,en-US;q=0.8,en;q=0.7",

		MetricsEnabled:   true,
		MetricsNamespace: "fantaledger",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.OutputPath == "":
		return fmt.Errorf("%w: output_path must not be empty", ErrInvalidConfig)
	case len(c.Sources) == 0:
		return fmt.Errorf("%w: at least one source is required", ErrInvalidConfig)
	case c.FetchRetries < 1:
		return fmt.Errorf("%w: fetch_retries must be >= 1, got %d", ErrInvalidConfig, c.FetchRetries)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	case c.FetchRetryDelay < 0 || c.RequestInterval < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case !sort.Float64sAreSorted(c.MetricsBuckets):
		return fmt.Errorf("%w: metrics_buckets must be in increasing order", ErrInvalidConfig)
	}
	return nil
}
