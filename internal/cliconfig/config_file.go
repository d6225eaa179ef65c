package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/birdcall/internal/domain"
)

// FileConfig mirrors Config but uses strings for durations so TOML and YAML
// files stay readable.
type FileConfig struct {
	Listen          string `toml:"listen" yaml:"listen"`
	AuthKey         string `toml:"auth_key" yaml:"auth_key"`
	HTTPTimeout     string `toml:"http_timeout" yaml:"http_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	ChunkSize       int    `toml:"chunk_size" yaml:"chunk_size"`
	ChunkInterval   string `toml:"chunk_interval" yaml:"chunk_interval"`
	Transcoder      string `toml:"transcoder" yaml:"transcoder"`
	FFmpegPath      string `toml:"ffmpeg_path" yaml:"ffmpeg_path"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
	LogBackend      string `toml:"log_backend" yaml:"log_backend"`
	OTLPEndpoint    string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure    *bool  `toml:"otlp_insecure" yaml:"otlp_insecure"`
	MetricsInterval string `toml:"metrics_interval" yaml:"metrics_interval"`
	WatchConfig     *bool  `toml:"watch_config" yaml:"watch_config"`

	Devices map[string]FileDevice `toml:"devices" yaml:"devices"`
}

// FileDevice is one [devices.<name>] table.
type FileDevice struct {
	Address  string `toml:"address" yaml:"address"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
}

// LoadFileConfig reads a config file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

// LoadDevices reads only the device table of a config file. It is the
// loader used when the file changes while serving.
func LoadDevices(path string) (map[string]domain.Endpoint, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return nil, err
	}
	devices := fc.endpoints()
	for name, ep := range devices {
		if err := ep.Validate(); err != nil {
			return nil, fmt.Errorf("device %s: %w", name, err)
		}
	}
	return devices, nil
}

func (fc FileConfig) endpoints() map[string]domain.Endpoint {
	out := make(map[string]domain.Endpoint, len(fc.Devices))
	for name, d := range fc.Devices {
		out[name] = domain.Endpoint{Address: d.Address, Username: d.Username, Password: d.Password}
	}
	return out
}

// DefaultConfigPath returns ~/.birdcall/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".birdcall", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("transcoder", fc.Transcoder, &cfg.Transcoder)
	s.setString("ffmpeg", fc.FFmpegPath, &cfg.FFmpegPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-backend", fc.LogBackend, &cfg.LogBackend)
	s.setString("otlp-endpoint", fc.OTLPEndpoint, &cfg.OTLPEndpoint)

	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk-interval", fc.ChunkInterval, &cfg.ChunkInterval); err != nil {
		return err
	}
	if err := s.setDuration("metrics-interval", fc.MetricsInterval, &cfg.MetricsInterval); err != nil {
		return err
	}

	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)

	s.setBool("otlp-insecure", fc.OTLPInsecure, &cfg.OTLPInsecure)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	if len(fc.Devices) > 0 {
		cfg.Devices = fc.endpoints()
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
