// Package birdcall plays audio files through the speaker of a Doorbird
// intercom.
//
// # Basic Usage
//
//	c, err := birdcall.New(birdcall.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ep := birdcall.Endpoint{
//	    Address:  "192.168.1.20",
//	    Username: "ghxxxx0001",
//	    Password: "secret",
//	}
//	if err := c.UploadAudio(ctx, ep, "/media/doorbell.mp3"); err != nil {
//	    var e *birdcall.Error
//	    if errors.As(err, &e) && e.Kind == birdcall.KindConnection {
//	        // device unreachable
//	    }
//	}
//
// Every upload opens a fresh session, transcodes the source to 8 kHz mono
// u-law WAV and streams it in chunks of at most 8 KiB, one chunk per second.
// UploadAudio blocks for roughly one second per 8 KiB of transcoded audio.
//
// # Transcoding
//
// With Transcoder set to "auto" (the default) ffmpeg is used when found on
// PATH. Otherwise a pure Go transcoder handles WAV and MP3 input.
//
// # Dependency Injection
//
//	c, err := birdcall.New(cfg,
//	    birdcall.WithHTTPClient(client),
//	    birdcall.WithLogger(logger),
//	)
package birdcall
