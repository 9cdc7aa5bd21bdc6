// Package config loads layered settings for the horde-modelref command.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables (HORDE_MODELREF_*), command line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// AppName names the config directory and file.
	AppName = "horde-modelref"

	// EnvPrefix prefixes environment overrides, e.g. HORDE_MODELREF_URL_CHECK_INTERVAL.
	EnvPrefix = "horde_modelref"
)

// Settings is the resolved configuration.
type Settings struct {
	// Output is the result format: text, json or yaml.
	Output string `mapstructure:"output" yaml:"output" validate:"oneof=text json yaml"`

	// KeyPolicy is the duplicate model name policy: exact or fold.
	KeyPolicy string `mapstructure:"key_policy" yaml:"key_policy" validate:"oneof=exact fold"`

	Validate Validate `mapstructure:"validate" yaml:"validate"`
	URLCheck URLCheck `mapstructure:"url_check" yaml:"url_check"`
	Fetch    Fetch    `mapstructure:"fetch" yaml:"fetch"`
}

// Validate configures structural validation.
type Validate struct {
	// Strict reports undeclared fields.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// URLCheck configures the download URL check.
type URLCheck struct {
	Interval   time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	Markers    []string      `mapstructure:"markers" yaml:"markers"`
	GatedHosts []GatedHost   `mapstructure:"gated_hosts" yaml:"gated_hosts" validate:"dive"`
}

// GatedHost is a host whose listed statuses count as a soft pass.
type GatedHost struct {
	Host     string `mapstructure:"host" yaml:"host" validate:"required"`
	Statuses []int  `mapstructure:"statuses" yaml:"statuses" validate:"min=1,dive,gte=100,lte=599"`
}

// Fetch configures artifact downloads made by the editor.
type Fetch struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

// Defaults returns the built-in values keyed by config key.
func Defaults() map[string]any {
	return map[string]any{
		"output":             "text",
		"key_policy":         "exact",
		"validate.strict":    false,
		"url_check.interval": 100 * time.Millisecond,
		"url_check.timeout":  30 * time.Second,
		"url_check.markers":  []string{"cascade"},
		"url_check.gated_hosts": []map[string]any{
			{"host": "civitai", "statuses": []int{403, 524}},
		},
		"fetch.timeout": time.Duration(0),
	}
}

// FlagKeys maps command line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"output":     "output",
	"key-policy": "key_policy",
	"strict":     "validate.strict",
	"interval":   "url_check.interval",
	"timeout":    "url_check.timeout",
	"marker":     "url_check.markers",
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := defaultConfigDir(AppName)
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, AppName+".yaml"), nil
}

// Load resolves Settings for cmd. configFile, when non-empty, must exist;
// otherwise the default location and the working directory are searched and
// a missing file is not an error.
func Load(cmd *cobra.Command, configFile string) (Settings, error) {
	s, err := LoadConfig[Settings](cmd, Defaults(), configFile, FlagKeys)
	if err != nil {
		return Settings{}, err
	}

	s.Output = strings.ToLower(s.Output)
	s.KeyPolicy = strings.ToLower(s.KeyPolicy)

	if err := settingsValidate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

var settingsValidate = validator.New()

// LoadConfig reads configuration into a T. bindings maps flag names of cmd
// to the config keys they override; only changed flags take effect.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile string, bindings map[string]string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if path, err := Path(); err == nil {
		v.AddConfigPath(filepath.Dir(path))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range bindings {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}

	return c, nil
}
