package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"BIRDCALL_LISTEN":           ":9000",
				"BIRDCALL_AUTH_KEY":         "secret",
				"BIRDCALL_HTTP_TIMEOUT":     "30s",
				"BIRDCALL_SHUTDOWN_TIMEOUT": "1m",
				"BIRDCALL_CHUNK_SIZE":       "1024",
				"BIRDCALL_CHUNK_INTERVAL":   "250ms",
				"BIRDCALL_TRANSCODER":       "native",
				"BIRDCALL_FFMPEG_PATH":      "/usr/local/bin/ffmpeg",
				"BIRDCALL_LOG_LEVEL":        "warn",
				"BIRDCALL_LOG_BACKEND":      "logrus",
				"BIRDCALL_OTLP_ENDPOINT":    "collector:4318",
				"BIRDCALL_OTLP_INSECURE":    "true",
				"BIRDCALL_METRICS_INTERVAL": "5s",
				"BIRDCALL_WATCH_CONFIG":     "false",
			},
			changed: map[string]bool{},
			initial: Config{WatchConfig: true},
			expected: Config{
				Listen:          ":9000",
				AuthKey:         "secret",
				HTTPTimeout:     30 * time.Second,
				ShutdownTimeout: time.Minute,
				ChunkSize:       1024,
				ChunkInterval:   250 * time.Millisecond,
				Transcoder:      "native",
				FFmpegPath:      "/usr/local/bin/ffmpeg",
				LogLevel:        "warn",
				LogBackend:      "logrus",
				OTLPEndpoint:    "collector:4318",
				OTLPInsecure:    true,
				MetricsInterval: 5 * time.Second,
				WatchConfig:     false,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"BIRDCALL_LISTEN":     ":9000",
				"BIRDCALL_TRANSCODER": "ffmpeg",
			},
			changed: map[string]bool{"listen": true},
			initial: Config{Listen: ":7000"},
			expected: Config{
				Listen:     ":7000",
				Transcoder: "ffmpeg",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"BIRDCALL_CHUNK_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"BIRDCALL_CHUNK_SIZE": "not-a-number",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "ignores non-positive chunk size",
			envVars: map[string]string{
				"BIRDCALL_CHUNK_SIZE": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{ChunkSize: 8192},
			expected: Config{ChunkSize: 8192},
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"BIRDCALL_OTLP_INSECURE": "1",
			},
			changed:  map[string]bool{},
			expected: Config{OTLPInsecure: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if tt.wantErr {
				return
			}

			if cfg.Listen != tt.expected.Listen {
				t.Errorf("Listen = %v, want %v", cfg.Listen, tt.expected.Listen)
			}
			if cfg.AuthKey != tt.expected.AuthKey {
				t.Errorf("AuthKey = %v, want %v", cfg.AuthKey, tt.expected.AuthKey)
			}
			if cfg.Transcoder != tt.expected.Transcoder {
				t.Errorf("Transcoder = %v, want %v", cfg.Transcoder, tt.expected.Transcoder)
			}
			if cfg.FFmpegPath != tt.expected.FFmpegPath {
				t.Errorf("FFmpegPath = %v, want %v", cfg.FFmpegPath, tt.expected.FFmpegPath)
			}
			if cfg.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expected.LogLevel)
			}
			if cfg.LogBackend != tt.expected.LogBackend {
				t.Errorf("LogBackend = %v, want %v", cfg.LogBackend, tt.expected.LogBackend)
			}
			if cfg.OTLPEndpoint != tt.expected.OTLPEndpoint {
				t.Errorf("OTLPEndpoint = %v, want %v", cfg.OTLPEndpoint, tt.expected.OTLPEndpoint)
			}
			if cfg.HTTPTimeout != tt.expected.HTTPTimeout {
				t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, tt.expected.HTTPTimeout)
			}
			if cfg.ShutdownTimeout != tt.expected.ShutdownTimeout {
				t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, tt.expected.ShutdownTimeout)
			}
			if cfg.ChunkInterval != tt.expected.ChunkInterval {
				t.Errorf("ChunkInterval = %v, want %v", cfg.ChunkInterval, tt.expected.ChunkInterval)
			}
			if cfg.MetricsInterval != tt.expected.MetricsInterval {
				t.Errorf("MetricsInterval = %v, want %v", cfg.MetricsInterval, tt.expected.MetricsInterval)
			}
			if cfg.ChunkSize != tt.expected.ChunkSize {
				t.Errorf("ChunkSize = %v, want %v", cfg.ChunkSize, tt.expected.ChunkSize)
			}
			if cfg.OTLPInsecure != tt.expected.OTLPInsecure {
				t.Errorf("OTLPInsecure = %v, want %v", cfg.OTLPInsecure, tt.expected.OTLPInsecure)
			}
			if cfg.WatchConfig != tt.expected.WatchConfig {
				t.Errorf("WatchConfig = %v, want %v", cfg.WatchConfig, tt.expected.WatchConfig)
			}
		})
	}
}
