// internal/platform/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"finscout/internal/core/ports"
)

type Config struct {
	// App
	Company      string // single-company mode; empty means batch mode
	Category     string
	DatasetPath  string // ';'-separated CSV with a NAME column
	Workers      int
	TimeoutS     int // seconds per discovery (0 = no timeout)
	PrintVersion bool

	// IO
	ReportsDir   string
	ArtifactsDir string // where synthesized routines are persisted
	LogFile      string

	// Model provider
	APIKey            string
	Models            []string // pool; one name picked per call
	ModelMaxRetries   int
	QuotaDefaultDelay time.Duration // used when the provider gives no hint

	// Validation
	ValidationRounds int // discover-validate-optimize cycles per company

	// Probing
	ProbeTimeout time.Duration
	RequestDelay time.Duration

	// Strategies: key = strategy name ("ailookup", "codesynth")
	Strategies map[string]ports.StrategyConfig

	// Outputs
	NoProgress bool // disable terminal progress rendering
}

// fileConfig mirrors the optional YAML config file layout.
type fileConfig struct {
	Company      string   `yaml:"company"`
	Category     string   `yaml:"category"`
	Dataset      string   `yaml:"dataset"`
	Workers      int      `yaml:"workers"`
	TimeoutS     int      `yaml:"timeout"`
	ReportsDir   string   `yaml:"reports_dir"`
	ArtifactsDir string   `yaml:"artifacts_dir"`
	LogFile      string   `yaml:"log_file"`
	Models       []string `yaml:"models"`
	Validation   int      `yaml:"validation_rounds"`
	Strategies   map[string]struct {
		Enabled    *bool `yaml:"enabled"`
		Priority   *int  `yaml:"priority"`
		MaxRetries *int  `yaml:"max_retries"`
	} `yaml:"strategies"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Category:    "Annual Report",
		DatasetPath: "companies.csv",
		Workers:     4,
		TimeoutS:    300,

		ReportsDir:   "reports",
		ArtifactsDir: "generated_code",
		LogFile:      "finscout.log",

		Models: []string{
			"gemini-2.0-flash",
			"gemini-2.5-flash",
		},
		ModelMaxRetries:   3,
		QuotaDefaultDelay: 60 * time.Second,

		ValidationRounds: 2,

		ProbeTimeout: 10 * time.Second,
		RequestDelay: 1 * time.Second,

		Strategies: map[string]ports.StrategyConfig{
			"ailookup": {
				Enabled:    true,
				Priority:   10,
				MaxRetries: 3,
				Timeout:    60 * time.Second,
				Custom:     make(map[string]interface{}),
			},
			"codesynth": {
				Enabled:    true,
				Priority:   5,
				MaxRetries: 3,
				Timeout:    120 * time.Second,
				Custom:     make(map[string]interface{}),
			},
		},
	}
}

// Load builds the configuration: defaults -> optional YAML file ->
// ENV -> flags (flags win).
func Load() (Config, error) {
	cfg := DefaultConfig()

	if err := loadFromFile(&cfg, configFilePath()); err != nil {
		return cfg, err
	}
	loadFromEnv(&cfg)
	loadFromFlags(&cfg)
	normalize(&cfg)

	return cfg, nil
}

// Validate fails fast on configuration the pipeline cannot start
// without. Everything else degrades at runtime instead.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("no API key: set GOOGLE_API_KEY or FINSCOUT_API_KEY")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("model pool is empty")
	}
	return nil
}

func configFilePath() string {
	if v := getenv("FINSCOUT_CONFIG", ""); v != "" {
		return v
	}
	return "config.yaml"
}

// loadFromFile overlays values from the YAML config file, if present.
// A missing file is fine; an unreadable one is an error.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Company != "" {
		cfg.Company = fc.Company
	}
	if fc.Category != "" {
		cfg.Category = fc.Category
	}
	if fc.Dataset != "" {
		cfg.DatasetPath = fc.Dataset
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.TimeoutS > 0 {
		cfg.TimeoutS = fc.TimeoutS
	}
	if fc.ReportsDir != "" {
		cfg.ReportsDir = fc.ReportsDir
	}
	if fc.ArtifactsDir != "" {
		cfg.ArtifactsDir = fc.ArtifactsDir
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if len(fc.Models) > 0 {
		cfg.Models = fc.Models
	}
	if fc.Validation > 0 {
		cfg.ValidationRounds = fc.Validation
	}

	for name, sc := range fc.Strategies {
		stratCfg, ok := cfg.Strategies[name]
		if !ok {
			continue
		}
		if sc.Enabled != nil {
			stratCfg.Enabled = *sc.Enabled
		}
		if sc.Priority != nil {
			stratCfg.Priority = *sc.Priority
		}
		if sc.MaxRetries != nil {
			stratCfg.MaxRetries = *sc.MaxRetries
		}
		cfg.Strategies[name] = stratCfg
	}

	return nil
}

// loadFromEnv overlays values from FINSCOUT_* environment variables.
func loadFromEnv(cfg *Config) {
	// The Google SDK's own variable is accepted as-is; FINSCOUT_API_KEY
	// takes precedence when both are set.
	if v := getenv("GOOGLE_API_KEY", ""); v != "" {
		cfg.APIKey = v
	}
	if v := getenv("FINSCOUT_API_KEY", ""); v != "" {
		cfg.APIKey = v
	}

	if v := getenv("FINSCOUT_COMPANY", ""); v != "" {
		cfg.Company = v
	}
	if v := getenv("FINSCOUT_CATEGORY", ""); v != "" {
		cfg.Category = v
	}
	if v := getenv("FINSCOUT_DATASET", ""); v != "" {
		cfg.DatasetPath = v
	}
	if v := getenv("FINSCOUT_WORKERS", ""); v != "" {
		cfg.Workers = parseInt(v, cfg.Workers)
	}
	if v := getenv("FINSCOUT_TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv("FINSCOUT_REPORTS_DIR", ""); v != "" {
		cfg.ReportsDir = v
	}
	if v := getenv("FINSCOUT_ARTIFACTS_DIR", ""); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := getenv("FINSCOUT_LOG_FILE", ""); v != "" {
		cfg.LogFile = v
	}
	if v := getenv("FINSCOUT_MODELS", ""); v != "" {
		cfg.Models = splitList(v)
	}
	if v := getenv("FINSCOUT_MODEL_RETRIES", ""); v != "" {
		cfg.ModelMaxRetries = parseInt(v, cfg.ModelMaxRetries)
	}
	if v := getenv("FINSCOUT_VALIDATION_ROUNDS", ""); v != "" {
		cfg.ValidationRounds = parseInt(v, cfg.ValidationRounds)
	}
	if v := getenv("FINSCOUT_REQUEST_DELAY", ""); v != "" {
		cfg.RequestDelay = time.Duration(parseInt(v, int(cfg.RequestDelay.Seconds()))) * time.Second
	}
	if v := getenv("FINSCOUT_NO_PROGRESS", ""); v != "" {
		cfg.NoProgress = parseBool(v)
	}

	// Strategy config from ENV.
	// Format: FINSCOUT_STRATEGY_AILOOKUP_ENABLED=true
	//         FINSCOUT_STRATEGY_AILOOKUP_RETRIES=5
	for name := range cfg.Strategies {
		prefix := fmt.Sprintf("FINSCOUT_STRATEGY_%s_", strings.ToUpper(name))

		stratCfg := cfg.Strategies[name]

		if v := getenv(prefix+"ENABLED", ""); v != "" {
			stratCfg.Enabled = parseBool(v)
		}
		if v := getenv(prefix+"PRIORITY", ""); v != "" {
			stratCfg.Priority = parseInt(v, stratCfg.Priority)
		}
		if v := getenv(prefix+"RETRIES", ""); v != "" {
			stratCfg.MaxRetries = parseInt(v, stratCfg.MaxRetries)
		}
		if v := getenv(prefix+"TIMEOUT", ""); v != "" {
			stratCfg.Timeout = time.Duration(parseInt(v, int(stratCfg.Timeout.Seconds()))) * time.Second
		}

		cfg.Strategies[name] = stratCfg
	}
}

// loadFromFlags parses CLI flags.
func loadFromFlags(cfg *Config) {
	pflag.StringVar(&cfg.Company, "company", cfg.Company, "Single company to look up (empty = batch mode)")
	pflag.StringVar(&cfg.Category, "category", cfg.Category, "Document category to locate")
	pflag.StringVar(&cfg.DatasetPath, "dataset", cfg.DatasetPath, "Company dataset CSV (';' separated, NAME column)")
	pflag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent discovery workers")
	pflag.IntVar(&cfg.TimeoutS, "timeout", cfg.TimeoutS, "Per-discovery timeout in seconds (0 = none)")

	pflag.StringVar(&cfg.ReportsDir, "reports", cfg.ReportsDir, "Reports output directory")
	pflag.StringVar(&cfg.ArtifactsDir, "artifacts", cfg.ArtifactsDir, "Directory for synthesized code artifacts")
	pflag.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "Disable terminal progress rendering")
	pflag.BoolVar(&cfg.PrintVersion, "version", false, "Print version and exit")

	pflag.StringSliceVar(&cfg.Models, "models", cfg.Models, "Model pool (one picked at random per call)")
	pflag.IntVar(&cfg.ModelMaxRetries, "model-retries", cfg.ModelMaxRetries, "Max quota retries per model call")
	pflag.IntVar(&cfg.ValidationRounds, "validation-rounds", cfg.ValidationRounds, "Discover-validate-optimize cycles per company")

	for name := range cfg.Strategies {
		stratCfg := cfg.Strategies[name]
		pflag.BoolVar(&stratCfg.Enabled, fmt.Sprintf("strategy.%s", name), stratCfg.Enabled,
			fmt.Sprintf("Enable the %s strategy", name))
		pflag.IntVar(&stratCfg.MaxRetries, fmt.Sprintf("strategy.%s.retries", name), stratCfg.MaxRetries,
			fmt.Sprintf("Max attempts for the %s strategy", name))
		cfg.Strategies[name] = stratCfg
	}

	pflag.Parse()
}

func normalize(c *Config) {
	c.Company = strings.TrimSpace(c.Company)
	c.Category = strings.TrimSpace(c.Category)
	if c.Category == "" {
		c.Category = "Annual Report"
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TimeoutS < 0 {
		c.TimeoutS = 0
	}
	if c.ReportsDir == "" {
		c.ReportsDir = "reports"
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = "generated_code"
	}
	if c.ModelMaxRetries < 1 {
		c.ModelMaxRetries = 1
	}
	if c.ValidationRounds < 1 {
		c.ValidationRounds = 1
	}
	if c.QuotaDefaultDelay <= 0 {
		c.QuotaDefaultDelay = 60 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
}

// Timeout returns the per-discovery timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutS) * time.Second
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
