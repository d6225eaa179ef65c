package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BIRDCALL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", os.Getenv("BIRDCALL_LISTEN"), &cfg.Listen)
	s.setString("auth-key", os.Getenv("BIRDCALL_AUTH_KEY"), &cfg.AuthKey)
	s.setString("transcoder", os.Getenv("BIRDCALL_TRANSCODER"), &cfg.Transcoder)
	s.setString("ffmpeg", os.Getenv("BIRDCALL_FFMPEG_PATH"), &cfg.FFmpegPath)
	s.setString("log-level", os.Getenv("BIRDCALL_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-backend", os.Getenv("BIRDCALL_LOG_BACKEND"), &cfg.LogBackend)
	s.setString("otlp-endpoint", os.Getenv("BIRDCALL_OTLP_ENDPOINT"), &cfg.OTLPEndpoint)

	if err := s.setDuration("timeout", os.Getenv("BIRDCALL_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("BIRDCALL_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("chunk-interval", os.Getenv("BIRDCALL_CHUNK_INTERVAL"), &cfg.ChunkInterval); err != nil {
		return err
	}
	if err := s.setDuration("metrics-interval", os.Getenv("BIRDCALL_METRICS_INTERVAL"), &cfg.MetricsInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("chunk-size", os.Getenv("BIRDCALL_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}

	s.setBoolFromString("otlp-insecure", os.Getenv("BIRDCALL_OTLP_INSECURE"), &cfg.OTLPInsecure)
	s.setBoolFromString("watch-config", os.Getenv("BIRDCALL_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
