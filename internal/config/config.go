// Package config is the configuration shared by reviews-cli and
// reviews-server.
package config

import (
	"os"

	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/scrapers/livesession"
	"reviews-backend/internal/store"
	"reviews-backend/lib/configutil"

	"dario.cat/mergo"
)

// DefaultFile is read from the working directory (or the first parent that
// has one), a "config.local.json5" next to it overrides individual fields.
const DefaultFile = "config.json5"

type SourceConfig struct {
	Url               string  `json:"url" yaml:"url"`
	Container         string  `json:"container" yaml:"container"`
	Fragment          string  `json:"fragment" yaml:"fragment"`
	UserAgent         string  `json:"user_agent" yaml:"user_agent"`
	TimeoutSeconds    int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	CloudflareBypass  *bool   `json:"cloudflare_bypass" yaml:"cloudflare_bypass"`
}

type RatingConfig struct {
	// Policy is "strict" (no markers rate 0) or "lenient" (no markers rate
	// NeutralDefault).
	Policy         string  `json:"policy" yaml:"policy"`
	Marker         string  `json:"marker" yaml:"marker"`
	OutlineSuffix  string  `json:"outline_suffix" yaml:"outline_suffix"`
	NeutralDefault float64 `json:"neutral_default" yaml:"neutral_default"`
}

type TemporalConfig struct {
	// Policy is "auto", "absolute" or "synthesize".
	Policy string `json:"policy" yaml:"policy"`
	// Reference is the YYYY-MM-DD absolute dates are measured against.
	Reference string `json:"reference" yaml:"reference"`
	SynthMin  int    `json:"synth_min" yaml:"synth_min"`
	SynthMax  int    `json:"synth_max" yaml:"synth_max"`
	// Timezone is the IANA zone of "now" for review dates, empty is local.
	Timezone string `json:"timezone" yaml:"timezone"`
	// Seed makes synthesized values reproducible, 0 seeds randomly.
	Seed uint64 `json:"seed" yaml:"seed"`
}

type LiveConfig struct {
	Url            string                `json:"url" yaml:"url"`
	CallbackBase   string                `json:"callback_base" yaml:"callback_base"`
	TimeoutSeconds int                   `json:"timeout_seconds" yaml:"timeout_seconds"`
	MinRating      *float64              `json:"min_rating" yaml:"min_rating"`
	MaxScrolls     int                   `json:"max_scrolls" yaml:"max_scrolls"`
	ScrollDelayMs  int                   `json:"scroll_delay_ms" yaml:"scroll_delay_ms"`
	Headless       bool                  `json:"headless" yaml:"headless"`
	ExecutablePath string                `json:"executable_path" yaml:"executable_path"`
	Install        bool                  `json:"install" yaml:"install"`
	Selectors      livesession.Selectors `json:"selectors" yaml:"selectors"`
}

type OutputConfig struct {
	Path       string `json:"path" yaml:"path"`
	MergedPath string `json:"merged_path" yaml:"merged_path"`
	TitlesPath string `json:"titles_path" yaml:"titles_path"`
}

type ServerConfig struct {
	Host               string `json:"host" yaml:"host"`
	Port               int    `json:"port" yaml:"port"`
	PageTimeoutSeconds int    `json:"page_timeout_seconds" yaml:"page_timeout_seconds"`
	// PerfStatsSeconds is the perf stats sampling interval, 0 disables it.
	PerfStatsSeconds int `json:"perf_stats_seconds" yaml:"perf_stats_seconds"`
}

type Config struct {
	Source    SourceConfig     `json:"source" yaml:"source"`
	Rating    RatingConfig     `json:"rating" yaml:"rating"`
	Temporal  TemporalConfig   `json:"temporal" yaml:"temporal"`
	Live      LiveConfig       `json:"live" yaml:"live"`
	Output    OutputConfig     `json:"output" yaml:"output"`
	Store     store.Config     `json:"store" yaml:"store"`
	Server    ServerConfig     `json:"server" yaml:"server"`
	Telemetry telemetry.Config `json:"telemetry" yaml:"telemetry"`
}

func boolPtr(b bool) *bool {
	return &b
}

func float64Ptr(f float64) *float64 {
	return &f
}

func Defaults() Config {
	return Config{
		Source: SourceConfig{
			Url:               "https://www.plasticsandderm.com/patient-reviews.htm",
			Container:         "div.Patient-Review",
			Fragment:          "li",
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
			CloudflareBypass:  boolPtr(true),
		},
		Rating: RatingConfig{
			Policy:         "strict",
			Marker:         "fa-star",
			OutlineSuffix:  "-o",
			NeutralDefault: 5,
		},
		Temporal: TemporalConfig{
			Policy:    "auto",
			Reference: "2025-01-30",
			SynthMin:  1,
			SynthMax:  48,
		},
		Live: LiveConfig{
			CallbackBase:   "http://localhost:5000",
			TimeoutSeconds: 600,
			MinRating:      float64Ptr(5),
			ScrollDelayMs:  2000,
			Selectors:      livesession.DefaultSelectors(),
		},
		Output: OutputConfig{
			Path:       "reviews.json",
			MergedPath: "merged_reviews.json",
			TitlesPath: "titles.json",
		},
		Server: ServerConfig{
			Host:               "127.0.0.1",
			Port:               5000,
			PageTimeoutSeconds: 60,
		},
	}
}

// WithDefaults fills every unset field of c from Defaults. Pointer fields
// are replaced whole so an explicit false or 0 survives.
func (c Config) WithDefaults() Config {
	out := Defaults()
	err := mergo.Merge(&out, c, mergo.WithOverride, mergo.WithoutDereference)
	if err != nil {
		// unreachable, both sides are a Config
		panic(err)
	}
	return out
}

// Load reads path (see configutil.ReadConfig) over the defaults, a missing
// file just yields the defaults.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return cfg.WithDefaults(), nil
}

// LoadRecursively is Load but searches the parent directories of the
// working directory as well.
func LoadRecursively(name string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	return LoadRecursivelyFrom(cwd, name)
}

func LoadRecursivelyFrom(dir, name string) (Config, error) {
	cfg, err := configutil.ReadRecursivelyFrom[Config](dir, name)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return cfg.WithDefaults(), nil
}

// Find loads path when it was given explicitly, otherwise DefaultFile is
// searched for from the working directory upwards.
func Find(path string, explicit bool) (Config, error) {
	if explicit {
		return Load(path)
	}
	return LoadRecursively(DefaultFile)
}
