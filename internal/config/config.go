// Package config loads flight log settings. Precedence, lowest first:
// defaults, YAML file, legacy environment names, FLIGHTLOG_ environment,
// command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix       = "FLIGHTLOG_"
	DefaultFile     = "flightlog.yaml"
	DefaultStore    = "flight_log.db"
	DefaultServeAdd = ":8080"
)

type AeroAPIConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Timeout     time.Duration `koanf:"timeout"`
	MinInterval time.Duration `koanf:"min_interval"`
}

type HistorianConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type LookupConfig struct {
	Concurrency int `koanf:"concurrency"`
}

type RoutesConfig struct {
	StepKm            float64 `koanf:"step_km"`
	PolarThresholdDeg float64 `koanf:"polar_threshold_deg"`
	PolarDensity      int     `koanf:"polar_density"`
}

type CacheConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
}

type ServeConfig struct {
	Addr string `koanf:"addr"`
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// Config is the full set of settings for one run.
type Config struct {
	StorePath       string `koanf:"store_path"`
	ImportPath      string `koanf:"import_path"`
	ArchiveImported bool   `koanf:"archive_imported"`
	EnrichBarcodes  bool   `koanf:"enrich_barcodes"`
	// CreateMissing lets provider records create unknown airlines and airports.
	CreateMissing bool          `koanf:"create_missing"`
	Lookahead     time.Duration `koanf:"lookahead"`
	AppEnv        string        `koanf:"app_env"`

	AeroAPI   AeroAPIConfig   `koanf:"aeroapi"`
	Historian HistorianConfig `koanf:"historian"`
	Lookup    LookupConfig    `koanf:"lookup"`
	Routes    RoutesConfig    `koanf:"routes"`
	Cache     CacheConfig     `koanf:"cache"`
	Serve     ServeConfig     `koanf:"serve"`

	// File is the YAML file that was loaded, empty when none was.
	File string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"store_path":                 DefaultStore,
		"archive_imported":           true,
		"enrich_barcodes":            true,
		"create_missing":             false,
		"lookahead":                  "0s",
		"app_env":                    "development",
		"aeroapi.base_url":           "https://aeroapi.flightaware.com/aeroapi",
		"aeroapi.timeout":            "30s",
		"aeroapi.min_interval":       "8s",
		"historian.base_url":         "https://www.flighthistorian.com",
		"historian.timeout":          "30s",
		"lookup.concurrency":         2,
		"routes.step_km":             100.0,
		"routes.polar_threshold_deg": 10.0,
		"routes.polar_density":       4,
		"cache.ttl":                  "1h",
		"serve.addr":                 DefaultServeAdd,
		"serve.rate_limit":           5.0,
		"serve.rate_burst":           20,
	}
}

// legacyEnv maps environment names used by older installs to config keys.
var legacyEnv = map[string]string{
	"FLIGHT_LOG_GEOPACKAGE_PATH": "store_path",
	"FLIGHT_LOG_IMPORT_PATH":     "import_path",
	"AEROAPI_API_KEY":            "aeroapi.api_key",
	"FLIGHT_HISTORIAN_API_KEY":   "historian.api_key",
	"APP_ENV":                    "app_env",
}

var sections = []string{"aeroapi", "historian", "lookup", "routes", "cache", "serve"}

// envKey turns FLIGHTLOG_AEROAPI_API_KEY into aeroapi.api_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// flagKeys maps command line flag names to config keys. Other flags are
// command arguments and never reach the config.
var flagKeys = map[string]string{
	"config":         "",
	"store":          "store_path",
	"import-path":    "import_path",
	"archive":        "archive_imported",
	"enrich":         "enrich_barcodes",
	"create-missing": "create_missing",
	"env":            "app_env",
	"aeroapi-key":    "aeroapi.api_key",
	"concurrency":    "lookup.concurrency",
	"redis-addr":     "cache.redis_addr",
	"addr":           "serve.addr",
}

// Load reads the configuration. path names a YAML file; when empty,
// flightlog.yaml in the working directory is used if present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	loaded := ""
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		loaded = path
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	legacy := make(map[string]interface{})
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			legacy[key] = v
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy env vars: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := flagKeys[f.Name]
			if !f.Changed || key == "" {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = loaded
	return &cfg, nil
}

// Validate reports settings that cannot work. Provider keys are optional;
// commands that need one fail when they run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StorePath) == "" {
		errs = append(errs, errors.New("store_path is required"))
	}
	if c.Lookup.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("lookup.concurrency must be at least 1, got %d", c.Lookup.Concurrency))
	}
	if c.Lookahead < 0 {
		errs = append(errs, errors.New("lookahead cannot be negative"))
	}
	if c.AeroAPI.Timeout <= 0 || c.Historian.Timeout <= 0 {
		errs = append(errs, errors.New("provider timeouts must be positive"))
	}
	if c.Routes.StepKm <= 0 {
		errs = append(errs, errors.New("routes.step_km must be positive"))
	}
	if c.Routes.PolarThresholdDeg <= 0 || c.Routes.PolarThresholdDeg >= 90 {
		errs = append(errs, errors.New("routes.polar_threshold_deg must be between 0 and 90"))
	}
	if c.Serve.RateLimit < 0 || (c.Serve.RateLimit > 0 && c.Serve.RateBurst < 1) {
		errs = append(errs, errors.New("serve.rate_limit cannot be negative and needs serve.rate_burst of at least 1"))
	}
	if c.Routes.PolarDensity < 1 {
		errs = append(errs, errors.New("routes.polar_density must be at least 1"))
	}
	return errors.Join(errs...)
}

// ImportDir is the wallet pass folder, falling back to the working directory.
func (c *Config) ImportDir() string {
	if c.ImportPath != "" {
		return c.ImportPath
	}
	return "."
}
