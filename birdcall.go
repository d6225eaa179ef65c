// Package birdcall plays audio through a Doorbird intercom speaker.
//
// Example usage:
//
//	ep := birdcall.Endpoint{Address: "192.168.1.20", Username: "ghxxxx0001", Password: "secret"}
//	if err := birdcall.Play(context.Background(), ep, "/media/doorbell.mp3"); err != nil {
//	    log.Fatal(err)
//	}
//
// For custom pacing, transcoders or logging use pkg/birdcall directly.
package birdcall

import (
	"context"

	client "github.com/bft-labs/birdcall/pkg/birdcall"
)

// Endpoint identifies a Doorbird device and its credentials.
type Endpoint = client.Endpoint

// Error is the error type returned by Play.
type Error = client.Error

// Play uploads source to ep with default settings. It blocks until the
// whole clip has been streamed.
func Play(ctx context.Context, ep Endpoint, source string) error {
	c, err := client.New(client.Config{})
	if err != nil {
		return err
	}
	return c.UploadAudio(ctx, ep, source)
}
