// Package config loads bridgectl configuration from TOML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jbridge/errors"
)

// Config is the full configuration file.
type Config struct {
	Bridge  Bridge  `toml:"bridge"`
	Runtime Runtime `toml:"runtime"`
	Storage Storage `toml:"storage"`
}

// Bridge configures the reference manager, resolver and logging.
type Bridge struct {
	LogLevel       string `toml:"log-level"`
	GlobalCapacity int    `toml:"global-capacity"`
	FieldCache     bool   `toml:"field-cache"`
	Development    bool   `toml:"development"`
}

// Runtime configures the in-memory runtime.
type Runtime struct {
	PackageName    string `toml:"package-name"`
	LocalCapacity  int    `toml:"local-capacity"`
	GlobalCapacity int    `toml:"global-capacity"`
	SDK            int32  `toml:"sdk"`
}

// Storage selects the persistence backends. An empty path keeps the data
// in memory.
type Storage struct {
	Preferences string `toml:"preferences"`
	KeyStore    string `toml:"keystore"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() Config {
	return Config{
		Bridge: Bridge{
			LogLevel:       "warn",
			GlobalCapacity: 4096,
			FieldCache:     true,
		},
		Runtime: Runtime{
			PackageName:    "dev.wippy.jbridge",
			LocalCapacity:  512,
			GlobalCapacity: 8192,
			SDK:            34,
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "reading "+path)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decoding configuration")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, invalid("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Bridge.LogLevel); err != nil {
		return invalid("bridge.log-level: %v", err)
	}
	if c.Bridge.GlobalCapacity <= 0 {
		return invalid("bridge.global-capacity must be positive, got %d", c.Bridge.GlobalCapacity)
	}
	if c.Runtime.LocalCapacity <= 0 {
		return invalid("runtime.local-capacity must be positive, got %d", c.Runtime.LocalCapacity)
	}
	if c.Runtime.GlobalCapacity < c.Bridge.GlobalCapacity {
		return invalid("runtime.global-capacity (%d) is below bridge.global-capacity (%d)",
			c.Runtime.GlobalCapacity, c.Bridge.GlobalCapacity)
	}
	if c.Runtime.PackageName == "" {
		return invalid("runtime.package-name must not be empty")
	}
	if c.Runtime.SDK <= 0 {
		return invalid("runtime.sdk must be positive, got %d", c.Runtime.SDK)
	}
	return nil
}

// Logger builds the zap logger the configuration describes.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Bridge.LogLevel)
	if err != nil {
		return nil, invalid("bridge.log-level: %v", err)
	}
	zc := zap.NewProductionConfig()
	if c.Bridge.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Detail("%s", fmt.Sprintf(format, args...)).
		Build()
}
