package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/birdcall/internal/devices"
	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/pkg/birdcall"
	"github.com/bft-labs/birdcall/pkg/log"
)

func newPlayCommand(c *cli) *cobra.Command {
	var ev domain.AudioEvent

	cmd := &cobra.Command{
		Use:   "play <audio>",
		Short: "Play one audio file or URL and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			ev.AudioURL = args[0]
			return c.play(ev)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ev.DeviceIP, "device-ip", "", "device host or host:port")
	f.StringVar(&ev.Username, "username", "", "device user")
	f.StringVar(&ev.Password, "password", os.Getenv("BIRDCALL_PASSWORD"), "device password (env BIRDCALL_PASSWORD)")
	f.StringVar(&ev.Device, "device", "", "name of a device from the config file")
	return cmd
}

func (c *cli) play(ev domain.AudioEvent) error {
	ep, err := devices.NewRegistry(c.cfg.Devices).Resolve(ev)
	if err != nil {
		return err
	}

	client, err := birdcall.New(birdcall.Config{
		ChunkSize:     c.cfg.ChunkSize,
		ChunkInterval: c.cfg.ChunkInterval,
		HTTPTimeout:   c.cfg.HTTPTimeout,
		Transcoder:    c.cfg.Transcoder,
		FFmpegPath:    c.cfg.FFmpegPath,
	}, birdcall.WithLogger(c.logger))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	c.logger.Info("playing", log.String("source", ev.AudioURL), log.String("device", ep.Address))
	if err := client.UploadAudio(ctx, ep, ev.AudioURL); err != nil {
		return err
	}
	c.logger.Info("played", log.Duration("elapsed", time.Since(start)))
	return nil
}
