package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/birdcall/internal/cliconfig"
	"github.com/bft-labs/birdcall/pkg/log"
)

const helpDescription = `
Play audio files through the speaker of a Doorbird intercom.

Highlights:
  - Accepts local files and URLs; transcodes to 8 kHz mono u-law with ffmpeg
    or a built-in decoder for WAV and MP3.
  - Streams at 8 KiB per second so the device buffer never overflows.
  - Runs as an event listener (serve) or as a one-shot command (play).
  - Configure via file, env (BIRDCALL_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  birdcall play doorbell.mp3 --device-ip 192.168.1.20 --username ghxxxx0001 --password secret
  birdcall play https://example.com/chime.wav --device front
  birdcall serve --config $HOME/.birdcall/config.toml --auth-key <token>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration shared by all subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  log.Logger
}

func main() {
	c := &cli{
		cfg:    cliconfig.DefaultConfig(),
		logger: log.NewZerologAdapter(log.LevelInfo),
	}

	root := &cobra.Command{
		Use:           "birdcall",
		Short:         "Play audio files through a Doorbird intercom",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file, .toml or .yaml (default: $HOME/.birdcall/config.toml)")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&c.cfg.LogBackend, "log-backend", c.cfg.LogBackend, "log backend: zerolog or logrus")
	pf.StringVar(&c.cfg.Transcoder, "transcoder", c.cfg.Transcoder, "transcoder: auto, ffmpeg or native")
	pf.StringVar(&c.cfg.FFmpegPath, "ffmpeg", c.cfg.FFmpegPath, "path to the ffmpeg binary (default: ffmpeg on PATH)")
	pf.IntVar(&c.cfg.ChunkSize, "chunk-size", c.cfg.ChunkSize, "maximum bytes sent per chunk")
	pf.DurationVar(&c.cfg.ChunkInterval, "chunk-interval", c.cfg.ChunkInterval, "pause after each chunk")
	pf.DurationVar(&c.cfg.HTTPTimeout, "timeout", c.cfg.HTTPTimeout, "HTTP timeout per device request (0 = none)")
	pf.StringVar(&c.cfg.OTLPEndpoint, "otlp-endpoint", c.cfg.OTLPEndpoint, "OTLP/HTTP collector host:port (empty disables telemetry)")
	pf.BoolVar(&c.cfg.OTLPInsecure, "otlp-insecure", c.cfg.OTLPInsecure, "use plain HTTP for the OTLP collector")
	pf.DurationVar(&c.cfg.MetricsInterval, "metrics-interval", c.cfg.MetricsInterval, "metric export interval")

	root.AddCommand(newServeCommand(c), newPlayCommand(c))

	if err := root.Execute(); err != nil {
		c.logger.Error("birdcall", log.Err(err))
		os.Exit(1)
	}
}

// load layers file, env and flags onto the defaults, then replaces the
// bootstrap logger with the configured one.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
		c.cfgPath = cfgFile
	} else if c.cfgPath != "" {
		return fmt.Errorf("config file %s not found", c.cfgPath)
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.logger = log.New(c.cfg.LogBackend, log.ParseLevel(c.cfg.LogLevel))
	c.logger.Debug("configuration", log.Any("config", c.cfg.Redacted()))
	return nil
}
