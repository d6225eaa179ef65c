package ports

import "context"

// Transcoder converts an audio resource into 8 kHz mono u-law WAV bytes.
//
// The whole result is returned in memory; callers chunk the upload from it.
type Transcoder interface {
	Transcode(ctx context.Context, source string) ([]byte, error)
}
