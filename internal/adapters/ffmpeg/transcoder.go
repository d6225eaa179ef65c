// Package ffmpeg implements ports.Transcoder by piping an ffmpeg subprocess.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bft-labs/birdcall/internal/ports"
	"github.com/bft-labs/birdcall/pkg/log"
)

// DefaultBinary is looked up on PATH when no explicit binary is configured.
const DefaultBinary = "ffmpeg"

// Transcoder runs ffmpeg once per call and collects its stdout in memory.
type Transcoder struct {
	binary string
	logger log.Logger
}

// New creates a transcoder using binary, or DefaultBinary when empty.
func New(binary string, logger log.Logger) *Transcoder {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Transcoder{binary: binary, logger: logger}
}

// Available reports whether the configured binary can be executed.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// Args returns the ffmpeg arguments for source: one channel, 8000 Hz,
// pcm_mulaw in a WAV container, written to stdout.
func Args(source string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
		"-i", source,
		"-codec:a", "pcm_mulaw",
		"-ac", "1",
		"-ar", "8000",
		"-f", "wav",
		"pipe:1",
	}
}

// Transcode converts source and returns the complete WAV output.
func (t *Transcoder) Transcode(ctx context.Context, source string) ([]byte, error) {
	if isLocal(source) {
		if _, err := os.Stat(source); err != nil {
			return nil, fmt.Errorf("source %s: %w", source, err)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, Args(source)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.logger.Debug("running ffmpeg", log.String("binary", t.binary), log.String("source", source))
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && detail != "" {
			return nil, fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", source)
	}
	return stdout.Bytes(), nil
}

// isLocal reports whether source is a filesystem path rather than a URL
// ffmpeg should fetch itself.
func isLocal(source string) bool {
	i := strings.Index(source, "://")
	return i <= 0
}

var _ ports.Transcoder = (*Transcoder)(nil)
