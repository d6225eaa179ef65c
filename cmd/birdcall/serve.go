package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/bft-labs/birdcall/internal/cliconfig"
	"github.com/bft-labs/birdcall/internal/devices"
	"github.com/bft-labs/birdcall/internal/listener"
	"github.com/bft-labs/birdcall/internal/telemetry"
	"github.com/bft-labs/birdcall/pkg/birdcall"
	"github.com/bft-labs/birdcall/pkg/log"
)

const reloadDebounce = 500 * time.Millisecond

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for doorbird_audio events and play them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			return c.serve()
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.cfg.Listen, "listen", c.cfg.Listen, "address of the event listener")
	f.StringVar(&c.cfg.AuthKey, "auth-key", c.cfg.AuthKey, "bearer token required on events (empty disables auth)")
	f.DurationVar(&c.cfg.ShutdownTimeout, "shutdown-timeout", c.cfg.ShutdownTimeout, "how long to wait for running uploads on shutdown")
	f.BoolVar(&c.cfg.WatchConfig, "watch-config", c.cfg.WatchConfig, "reload devices when the config file changes")
	return cmd
}

func (c *cli) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint:   c.cfg.OTLPEndpoint,
		Insecure:       c.cfg.OTLPInsecure,
		ServiceVersion: getVersion(),
		MetricInterval: c.cfg.MetricsInterval,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("telemetry shutdown", log.Err(err))
		}
	}()

	instruments, err := telemetry.NewInstruments()
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	client, err := birdcall.New(birdcall.Config{
		ChunkSize:     c.cfg.ChunkSize,
		ChunkInterval: c.cfg.ChunkInterval,
		HTTPTimeout:   c.cfg.HTTPTimeout,
		Transcoder:    c.cfg.Transcoder,
		FFmpegPath:    c.cfg.FFmpegPath,
	},
		birdcall.WithLogger(c.logger),
		birdcall.WithInstruments(instruments),
	)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	registry := devices.NewRegistry(c.cfg.Devices)
	if c.cfg.WatchConfig && c.cfgPath != "" {
		w := devices.NewWatcher(c.cfgPath, registry, cliconfig.LoadDevices, c.logger, reloadDebounce)
		if err := w.Start(ctx); err != nil {
			c.logger.Warn("config watch disabled", log.String("path", c.cfgPath), log.Err(err))
		} else {
			defer w.Stop()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := listener.New(listener.Config{
		Addr:            c.cfg.Listen,
		AuthKey:         c.cfg.AuthKey,
		ShutdownTimeout: c.cfg.ShutdownTimeout,
	}, client, registry, c.logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start listener: %w", err)
	}
	c.logger.Info("serving",
		log.String("addr", srv.Addr()),
		log.Int("devices", len(registry.Names())),
		log.Bool("telemetry", provider.Enabled()),
	)

	sig := <-sigCh
	c.logger.Info("received signal, stopping...", log.String("signal", sig.String()))

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stop listener: %w", err)
	}
	return nil
}
