package app

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bft-labs/birdcall/internal/chunk"
	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/internal/ports"
	"github.com/bft-labs/birdcall/internal/telemetry"
	"github.com/bft-labs/birdcall/pkg/log"
)

// UploaderConfig contains the pacing of the audio stream.
type UploaderConfig struct {
	ChunkSize     int
	ChunkInterval time.Duration

	// Sleeper overrides the pause between chunks, for tests.
	Sleeper chunk.Sleeper
}

// Uploader runs session -> transcode -> transmit for one device at a time.
// It keeps no state between calls, so concurrent uploads are independent.
type Uploader struct {
	config      UploaderConfig
	device      ports.DeviceClient
	transcoder  ports.Transcoder
	logger      log.Logger
	instruments *telemetry.Instruments
	tracer      trace.Tracer
}

// NewUploader creates an uploader with the given dependencies.
// instruments may be nil.
func NewUploader(
	config UploaderConfig,
	device ports.DeviceClient,
	transcoder ports.Transcoder,
	logger log.Logger,
	instruments *telemetry.Instruments,
) *Uploader {
	if config.ChunkSize <= 0 {
		config.ChunkSize = chunk.DefaultSize
	}
	if config.ChunkInterval <= 0 {
		config.ChunkInterval = chunk.DefaultInterval
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Uploader{
		config:      config,
		device:      device,
		transcoder:  transcoder,
		logger:      logger,
		instruments: instruments,
		tracer:      telemetry.Tracer(),
	}
}

// UploadAudio plays source through the speaker of ep. Any failure is
// returned as a *domain.Error whose Kind names the failed stage.
func (u *Uploader) UploadAudio(ctx context.Context, ep domain.Endpoint, source string) (err error) {
	start := time.Now()
	var sent int64

	ctx, span := u.tracer.Start(ctx, "doorbird.upload", trace.WithAttributes(
		attribute.String("device", ep.Address),
		attribute.String("source", source),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = kindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		u.instruments.RecordUpload(ctx, ep.Address, outcome, sent, time.Since(start))
	}()

	if err := ep.Validate(); err != nil {
		return err
	}
	if source == "" {
		return &domain.Error{Kind: domain.KindInvalid, Err: errors.New("missing audio source")}
	}

	sess, err := u.openSession(ctx, ep)
	if err != nil {
		return err
	}

	audio, err := u.transcode(ctx, source)
	if err != nil {
		return err
	}

	sent, err = u.transmit(ctx, ep, sess, audio)
	if err != nil {
		return err
	}

	u.logger.Info("audio transmitted",
		log.String("device", ep.Address),
		log.String("source", source),
		log.Int64("bytes", sent),
		log.Duration("elapsed", time.Since(start)))
	return nil
}

func (u *Uploader) openSession(ctx context.Context, ep domain.Endpoint) (domain.Session, error) {
	ctx, span := u.tracer.Start(ctx, "doorbird.session")
	defer span.End()

	sess, err := u.device.OpenSession(ctx, ep)
	if err != nil {
		return domain.Session{}, domain.Wrap(domain.KindConnection, err)
	}
	u.logger.Debug("session opened", log.String("device", ep.Address))
	return sess, nil
}

func (u *Uploader) transcode(ctx context.Context, source string) ([]byte, error) {
	ctx, span := u.tracer.Start(ctx, "doorbird.transcode")
	defer span.End()

	audio, err := u.transcoder.Transcode(ctx, source)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindTranscode, Err: err}
	}
	span.SetAttributes(attribute.Int("bytes", len(audio)))
	u.logger.Debug("audio transcoded", log.String("source", source), log.Int("bytes", len(audio)))
	return audio, nil
}

func (u *Uploader) transmit(ctx context.Context, ep domain.Endpoint, sess domain.Session, audio []byte) (int64, error) {
	ctx, span := u.tracer.Start(ctx, "doorbird.transmit")
	defer span.End()

	opts := []chunk.Option{
		chunk.WithSize(u.config.ChunkSize),
		chunk.WithInterval(u.config.ChunkInterval),
	}
	if u.config.Sleeper != nil {
		opts = append(opts, chunk.WithSleeper(u.config.Sleeper))
	}
	producer := chunk.NewProducer(ctx, bytes.NewReader(audio), opts...)

	err := u.device.Transmit(ctx, ep, sess, producer)
	st := producer.Stats()
	span.SetAttributes(attribute.Int("chunks", st.Chunks), attribute.Int64("bytes", st.Bytes))
	if err != nil {
		return st.Bytes, domain.Wrap(domain.KindTransmit, err)
	}
	u.logger.Debug("stream finished",
		log.Int("chunks", st.Chunks),
		log.Duration("paused", st.Waited))
	return st.Bytes, nil
}

func kindOf(err error) domain.Kind {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
