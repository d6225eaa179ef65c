// Package native implements ports.Transcoder in pure Go for hosts without
// ffmpeg. It understands WAV (PCM, float and u-law) and MP3 input.
package native

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bft-labs/birdcall/internal/ports"
	"github.com/bft-labs/birdcall/pkg/log"
)

// maxSourceBytes caps remote downloads. Larger sources are rejected.
var maxSourceBytes int64 = 64 << 20

// Transcoder decodes, downmixes, resamples and u-law encodes in process.
type Transcoder struct {
	client ports.HTTPClient
	logger log.Logger
}

// New creates a native transcoder. client is used for http(s) sources.
func New(client ports.HTTPClient, logger log.Logger) *Transcoder {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Transcoder{client: client, logger: logger}
}

// Transcode loads source and returns an 8 kHz mono u-law WAV.
func (t *Transcoder) Transcode(ctx context.Context, source string) ([]byte, error) {
	data, err := t.load(ctx, source)
	if err != nil {
		return nil, err
	}

	var (
		samples []int16
		rate    int
	)
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		samples, rate, err = decodeWAV(data)
	case isMP3(data):
		samples, rate, err = decodeMP3(data)
	default:
		return nil, fmt.Errorf("unsupported audio format for %s", source)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("decode %s: invalid sample rate %d", source, rate)
	}

	out := resample(samples, rate, TargetSampleRate)
	t.logger.Debug("transcoded in process",
		log.String("source", source),
		log.Int("source_rate", rate),
		log.Int("samples", len(out)))
	return encodeMulawWAV(out)
}

func (t *Transcoder) load(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	if int64(len(data)) > maxSourceBytes {
		return nil, fmt.Errorf("fetch %s: larger than %d bytes", source, maxSourceBytes)
	}
	return data, nil
}

var _ ports.Transcoder = (*Transcoder)(nil)
