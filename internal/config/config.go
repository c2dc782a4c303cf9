package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Survey     SurveyConfig     `yaml:"survey" mapstructure:"survey"`
	Map        MapConfig        `yaml:"map" mapstructure:"map"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SurveyConfig locates the authoritative survey list.
type SurveyConfig struct {
	Location  string `yaml:"location" mapstructure:"location"`
	Format    string `yaml:"format" mapstructure:"format"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Sheet     string `yaml:"sheet" mapstructure:"sheet"`
}

// MapConfig locates the crowd-sourced map extract.
type MapConfig struct {
	Location    string `yaml:"location" mapstructure:"location"`
	Format      string `yaml:"format" mapstructure:"format"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// ProjectionConfig fixes the planar projection zone for a deployment region.
type ProjectionConfig struct {
	Zone  int  `yaml:"zone" mapstructure:"zone"`
	South bool `yaml:"south" mapstructure:"south"`
}

// MatchConfig holds the match resolver policy constants.
type MatchConfig struct {
	// Radius is the search radius in planar units (metres).
	Radius float64 `yaml:"radius" mapstructure:"radius"`
	// NameCompare selects the name comparison policy: "exact" or "folded".
	NameCompare string `yaml:"name_compare" mapstructure:"name_compare"`
	// MinDistance skips unique matches closer than this. Zero disables the gate.
	MinDistance float64 `yaml:"min_distance" mapstructure:"min_distance"`
}

// OutputConfig configures the emitted documents.
type OutputConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	ReportPath  string `yaml:"report_path" mapstructure:"report_path"`
	SummaryPath string `yaml:"summary_path" mapstructure:"summary_path"`
	Generator   string `yaml:"generator" mapstructure:"generator"`
}

// FetchConfig configures remote source downloads.
type FetchConfig struct {
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Name comparison policies accepted by match.name_compare.
const (
	NameCompareExact  = "exact"
	NameCompareFolded = "folded"
)

// MapFormatPostGIS selects the database-backed map loader.
const MapFormatPostGIS = "postgis"

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("peaksync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PEAKSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("survey.location", "")
	v.SetDefault("survey.format", "")
	v.SetDefault("survey.delimiter", "|")
	v.SetDefault("survey.sheet", "")
	v.SetDefault("map.location", "")
	v.SetDefault("map.format", "")
	v.SetDefault("map.database_url", "")
	v.SetDefault("map.table", "planet_osm_point")
	v.SetDefault("projection.zone", 11)
	v.SetDefault("projection.south", false)
	v.SetDefault("match.radius", 300.0)
	v.SetDefault("match.name_compare", NameCompareExact)
	v.SetDefault("match.min_distance", 0.0)
	v.SetDefault("output.path", "peaks.osm")
	v.SetDefault("output.report_path", "")
	v.SetDefault("output.summary_path", "")
	v.SetDefault("output.generator", "peaksync")
	v.SetDefault("fetch.temp_dir", filepath.Join(os.TempDir(), "peaksync"))
	v.SetDefault("fetch.user_agent", "peaksync/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration required by the given command mode
// ("reconcile", "inspect" or "fetch") and reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "reconcile", "inspect":
		problems = append(problems, c.sourceProblems()...)
		problems = append(problems, c.policyProblems()...)
		if mode == "reconcile" && c.Output.Path == "" {
			problems = append(problems, "output.path is required")
		}
	case "fetch":
		if c.Survey.Location == "" && c.Map.Location == "" {
			problems = append(problems, "survey.location or map.location is required")
		}
		if c.Fetch.TempDir == "" {
			problems = append(problems, "fetch.temp_dir is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Fetch.MaxRetries < 1 {
		problems = append(problems, "fetch.max_retries must be >= 1")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) sourceProblems() []string {
	var problems []string
	if c.Survey.Location == "" {
		problems = append(problems, "survey.location is required")
	}
	if len([]rune(c.Survey.Delimiter)) != 1 {
		problems = append(problems, fmt.Sprintf("survey.delimiter must be a single character, got %q", c.Survey.Delimiter))
	}
	if c.Map.Format == MapFormatPostGIS {
		if c.Map.DatabaseURL == "" {
			problems = append(problems, "map.database_url is required for the postgis map format")
		}
	} else if c.Map.Location == "" {
		problems = append(problems, "map.location is required")
	}
	return problems
}

func (c *Config) policyProblems() []string {
	var problems []string
	if c.Projection.Zone < 1 || c.Projection.Zone > 60 {
		problems = append(problems, fmt.Sprintf("projection.zone must be between 1 and 60, got %d", c.Projection.Zone))
	}
	if c.Match.Radius <= 0 {
		problems = append(problems, "match.radius must be > 0")
	}
	if c.Match.MinDistance < 0 {
		problems = append(problems, "match.min_distance must be >= 0")
	}
	switch c.Match.NameCompare {
	case NameCompareExact, NameCompareFolded:
	default:
		problems = append(problems, fmt.Sprintf("match.name_compare must be %q or %q, got %q",
			NameCompareExact, NameCompareFolded, c.Match.NameCompare))
	}
	return problems
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
