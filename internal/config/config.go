package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds application configuration.
type Config struct {
	Flow     FlowConfig
	Addons   AddonsConfig
	Database DatabaseConfig
	Log      LogConfig
	Metrics  MetricsConfig
	UI       UIConfig
}

// FlowConfig describes the flow engine and the step being rendered.
type FlowConfig struct {
	EngineURL      string        `mapstructure:"engine_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ID             string        `mapstructure:"id"`
	MultiItemFlows []string      `mapstructure:"multi_item_flows"`
	JSONPath       string        `mapstructure:"json_path"`
}

// AddonsConfig holds add-on selector settings.
type AddonsConfig struct {
	DefaultMaxCount int    `mapstructure:"default_max_count" validate:"min=1"`
	ReferenceFile   string `mapstructure:"reference_file"`
}

// DatabaseConfig holds sqlite settings for the submission journal.
type DatabaseConfig struct {
	Path      string
	Retention time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// MetricsConfig holds the prometheus listener address. Empty disables it.
type MetricsConfig struct {
	Addr string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ToastDuration  time.Duration `mapstructure:"toast_duration"`
	CurrencySymbol string        `mapstructure:"currency_symbol"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "flowforms")
}

// Load reads configuration from file and env. Env var overrides use prefix FLOWFORMS_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("flow.engine_url", "http://localhost:8080/flow/events")
	v.SetDefault("flow.timeout", 15*time.Second)
	v.SetDefault("flow.id", "")
	v.SetDefault("flow.multi_item_flows", []string{})
	v.SetDefault("flow.json_path", "{}")
	v.SetDefault("addons.default_max_count", 10)
	v.SetDefault("addons.reference_file", "")
	v.SetDefault("database.path", filepath.Join(dataDir(), "flowforms.db"))
	v.SetDefault("database.retention", 30*24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", filepath.Join(dataDir(), "flowforms.log"))
	v.SetDefault("metrics.addr", "")
	v.SetDefault("ui.toast_duration", 4*time.Second)
	v.SetDefault("ui.currency_symbol", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("FLOWFORMS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "flowforms"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FLOWFORMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// env overrides arrive as a single comma separated string
	c.Flow.MultiItemFlows = splitList(c.Flow.MultiItemFlows)
	if err := validate.Struct(c); err != nil {
		return Config{}, configError(err)
	}
	if _, err := c.Flow.ParsedJSONPath(); err != nil {
		return Config{}, err
	}
	return c, nil
}

var validate = newValidator()

// newValidator names fields by their config key so errors read like the file.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if tag := f.Tag.Get("mapstructure"); tag != "" {
			return tag
		}
		return strings.ToLower(f.Name)
	})
	return v
}

func configError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	var errs error
	for _, fe := range fieldErrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "min":
			errs = multierr.Append(errs, fmt.Errorf("%s must be at least %s, got %v", key, fe.Param(), fe.Value()))
		case "required":
			errs = multierr.Append(errs, fmt.Errorf("%s is required", key))
		default:
			errs = multierr.Append(errs, fmt.Errorf("%s is not a valid %s", key, fe.Tag()))
		}
	}
	return errs
}

// ParsedJSONPath decodes flow.json_path. An empty value yields an empty object.
func (f FlowConfig) ParsedJSONPath() (map[string]any, error) {
	raw := strings.TrimSpace(f.JSONPath)
	if raw == "" {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("flow.json_path: %w", err)
	}
	return out, nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
