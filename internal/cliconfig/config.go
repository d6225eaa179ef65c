package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/birdcall/internal/chunk"
	"github.com/bft-labs/birdcall/internal/domain"
)

// Transcoder selections.
const (
	TranscoderAuto   = "auto"
	TranscoderFFmpeg = "ffmpeg"
	TranscoderNative = "native"
)

// Config holds CLI configuration for birdcall.
type Config struct {
	// Listen is the address of the event listener (serve only).
	Listen  string
	AuthKey string

	// HTTPTimeout bounds each device request. Zero leaves requests unbounded,
	// which long paced uploads need.
	HTTPTimeout     time.Duration
	ShutdownTimeout time.Duration

	ChunkSize     int
	ChunkInterval time.Duration

	Transcoder string
	FFmpegPath string

	LogLevel   string
	LogBackend string

	OTLPEndpoint    string
	OTLPInsecure    bool
	MetricsInterval time.Duration

	WatchConfig bool
	Devices     map[string]domain.Endpoint
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Listen:          ":8099",
		ShutdownTimeout: 2 * time.Minute,
		ChunkSize:       chunk.DefaultSize,
		ChunkInterval:   chunk.DefaultInterval,
		Transcoder:      TranscoderAuto,
		LogLevel:        "info",
		LogBackend:      "zerolog",
		MetricsInterval: 30 * time.Second,
		WatchConfig:     true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Transcoder {
	case TranscoderAuto, TranscoderFFmpeg, TranscoderNative:
	default:
		return fmt.Errorf("transcoder must be one of auto, ffmpeg, native; got %q", c.Transcoder)
	}
	switch c.LogBackend {
	case "zerolog", "logrus":
	default:
		return fmt.Errorf("log backend must be zerolog or logrus; got %q", c.LogBackend)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.ChunkInterval <= 0 {
		return fmt.Errorf("chunk interval must be positive")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative")
	}
	for name, ep := range c.Devices {
		if err := ep.Validate(); err != nil {
			return fmt.Errorf("device %s: %w", name, err)
		}
	}
	return nil
}

// Redacted returns a copy with secrets masked, for logging.
func (c Config) Redacted() Config {
	if c.AuthKey != "" {
		c.AuthKey = "*****"
	}
	if len(c.Devices) > 0 {
		devs := make(map[string]domain.Endpoint, len(c.Devices))
		for k, v := range c.Devices {
			devs[k] = v.Redacted()
		}
		c.Devices = devs
	}
	return c
}

// configSetter applies values while respecting flag precedence: a value is
// only applied if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value to int.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
