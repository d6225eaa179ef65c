package birdcall

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bft-labs/birdcall/internal/adapters/doorbird"
	"github.com/bft-labs/birdcall/internal/adapters/ffmpeg"
	"github.com/bft-labs/birdcall/internal/adapters/native"
	"github.com/bft-labs/birdcall/internal/app"
	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/pkg/log"
)

// Endpoint identifies a Doorbird device and its credentials.
type Endpoint = domain.Endpoint

// Error is the single error type returned by UploadAudio.
type Error = domain.Error

// Kind classifies an Error.
type Kind = domain.Kind

// Error kinds.
const (
	KindInvalid    = domain.KindInvalid
	KindConnection = domain.KindConnection
	KindSession    = domain.KindSession
	KindTranscode  = domain.KindTranscode
	KindTransmit   = domain.KindTransmit
)

// Sentinels matched by errors.Is.
var (
	ErrInvalid    = domain.ErrInvalid
	ErrConnection = domain.ErrConnection
	ErrSession    = domain.ErrSession
	ErrTranscode  = domain.ErrTranscode
	ErrTransmit   = domain.ErrTransmit
)

// Transcoder names accepted by Config.Transcoder.
const (
	TranscoderAuto   = "auto"
	TranscoderFFmpeg = "ffmpeg"
	TranscoderNative = "native"
)

// Config configures a Client. The zero value is usable.
type Config struct {
	// ChunkSize is the largest slice of audio sent per interval. Default 8192.
	ChunkSize int
	// ChunkInterval is the pause after each chunk. Default 1s.
	ChunkInterval time.Duration
	// HTTPTimeout bounds each request. Zero means no timeout; a finite
	// value must exceed the paced duration of the longest clip.
	HTTPTimeout time.Duration
	// Transcoder is auto, ffmpeg or native. Empty means auto.
	Transcoder string
	// FFmpegPath overrides the ffmpeg binary looked up on PATH.
	FFmpegPath string
}

// Client uploads audio to Doorbird devices. It is safe for concurrent use.
type Client struct {
	uploader *app.Uploader
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("http timeout must not be negative")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.transcoder == nil {
		t, err := NewTranscoder(cfg.Transcoder, cfg.FFmpegPath, o.httpClient, o.logger)
		if err != nil {
			return nil, err
		}
		o.transcoder = t
	}

	uploader := app.NewUploader(
		app.UploaderConfig{
			ChunkSize:     cfg.ChunkSize,
			ChunkInterval: cfg.ChunkInterval,
			Sleeper:       o.sleeper,
		},
		doorbird.NewClient(o.httpClient, o.logger),
		o.transcoder,
		o.logger,
		o.instruments,
	)
	return &Client{uploader: uploader}, nil
}

// UploadAudio plays source (a local path or URL) through the speaker of ep.
// It returns after the device answers the streamed request. Failures are
// reported as *Error.
func (c *Client) UploadAudio(ctx context.Context, ep Endpoint, source string) error {
	return c.uploader.UploadAudio(ctx, ep, source)
}

// NewTranscoder builds the transcoder named by kind. "auto" picks ffmpeg
// when the binary is executable and the native transcoder otherwise.
func NewTranscoder(kind, ffmpegPath string, client HTTPClient, logger log.Logger) (Transcoder, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	switch kind {
	case "", TranscoderAuto:
		ff := ffmpeg.New(ffmpegPath, logger)
		if ff.Available() {
			logger.Debug("using ffmpeg transcoder")
			return ff, nil
		}
		logger.Info("ffmpeg not found, using native transcoder")
		return native.New(client, logger), nil
	case TranscoderFFmpeg:
		return ffmpeg.New(ffmpegPath, logger), nil
	case TranscoderNative:
		return native.New(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown transcoder %q", kind)
	}
}
