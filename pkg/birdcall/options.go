package birdcall

import (
	"github.com/bft-labs/birdcall/internal/chunk"
	"github.com/bft-labs/birdcall/internal/ports"
	"github.com/bft-labs/birdcall/internal/telemetry"
	"github.com/bft-labs/birdcall/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Transcoder converts an audio source to 8 kHz mono u-law WAV.
type Transcoder = ports.Transcoder

// Sleeper pauses between chunks. It must return early with ctx.Err() when
// ctx is cancelled.
type Sleeper = chunk.Sleeper

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient  HTTPClient
	logger      log.Logger
	transcoder  Transcoder
	sleeper     Sleeper
	instruments *telemetry.Instruments
}

// WithHTTPClient sets the client used for device requests and remote
// sources. If not provided, one with Config.HTTPTimeout is created.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTranscoder replaces the transcoder chosen by Config.Transcoder.
func WithTranscoder(t Transcoder) Option {
	return func(o *options) {
		o.transcoder = t
	}
}

// WithSleeper replaces the pause between chunks.
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

// WithInstruments records upload metrics on the given instruments.
func WithInstruments(i *telemetry.Instruments) Option {
	return func(o *options) {
		o.instruments = i
	}
}
