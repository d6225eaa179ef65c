package birdcall_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/birdcall/internal/adapters/ffmpeg"
	"github.com/bft-labs/birdcall/internal/adapters/native"
	"github.com/bft-labs/birdcall/pkg/birdcall"
)

type cannedTranscoder []byte

func (c cannedTranscoder) Transcode(ctx context.Context, source string) ([]byte, error) {
	return []byte(c), nil
}

func TestNew_RejectsUnknownTranscoder(t *testing.T) {
	if _, err := birdcall.New(birdcall.Config{Transcoder: "sox"}); err == nil {
		t.Error("New() expected error for unknown transcoder")
	}
}

func TestNew_RejectsNegativeTimeout(t *testing.T) {
	if _, err := birdcall.New(birdcall.Config{HTTPTimeout: -time.Second}); err == nil {
		t.Error("New() expected error for negative timeout")
	}
}

func TestNewTranscoder(t *testing.T) {
	tr, err := birdcall.NewTranscoder(birdcall.TranscoderNative, "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*native.Transcoder); !ok {
		t.Errorf("native: got %T", tr)
	}

	tr, err = birdcall.NewTranscoder(birdcall.TranscoderFFmpeg, "/opt/ffmpeg", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*ffmpeg.Transcoder); !ok {
		t.Errorf("ffmpeg: got %T", tr)
	}

	// A binary that cannot exist forces the native fallback.
	tr, err = birdcall.NewTranscoder(birdcall.TranscoderAuto, "/nonexistent/ffmpeg", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*native.Transcoder); !ok {
		t.Errorf("auto without ffmpeg: got %T", tr)
	}
}

func TestClient_UploadAudio(t *testing.T) {
	var (
		mu       sync.Mutex
		bodyLen  int
		gotPath  string
		gotCType string
	)
	dev := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bha-api/getsession.cgi":
			io.WriteString(w, `{"BHA":{"SESSIONID":"abc"}}`)
		case strings.HasPrefix(r.URL.Path, "/bha-api/audio-transmit.cgi/"):
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodyLen = len(b)
			gotPath = r.URL.Path
			gotCType = r.Header.Get("Content-Type")
			mu.Unlock()
		default:
			http.NotFound(w, r)
		}
	}))
	defer dev.Close()

	var pauses int
	c, err := birdcall.New(birdcall.Config{},
		birdcall.WithTranscoder(cannedTranscoder(make([]byte, 20000))),
		birdcall.WithSleeper(func(ctx context.Context, d time.Duration) error {
			pauses++
			return nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	ep := birdcall.Endpoint{Address: strings.TrimPrefix(dev.URL, "http://"), Username: "u", Password: "p"}
	if err := c.UploadAudio(context.Background(), ep, "bell.wav"); err != nil {
		t.Fatalf("UploadAudio() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if bodyLen != 20000 {
		t.Errorf("body length = %d, want 20000", bodyLen)
	}
	if gotPath != "/bha-api/audio-transmit.cgi/sessionid=abc" {
		t.Errorf("path = %q", gotPath)
	}
	if gotCType != "audio/basic" {
		t.Errorf("Content-Type = %q", gotCType)
	}
	if pauses != 3 {
		t.Errorf("pauses = %d, want 3", pauses)
	}
}

func TestClient_UploadAudio_ConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, err := birdcall.New(birdcall.Config{}, birdcall.WithTranscoder(cannedTranscoder(nil)))
	if err != nil {
		t.Fatal(err)
	}
	err = c.UploadAudio(context.Background(), birdcall.Endpoint{Address: addr, Username: "u", Password: "p"}, "x.wav")

	var e *birdcall.Error
	if !errors.As(err, &e) || e.Kind != birdcall.KindConnection {
		t.Fatalf("error = %v, want KindConnection", err)
	}
	if !errors.Is(err, birdcall.ErrConnection) {
		t.Error("errors.Is(err, ErrConnection) = false")
	}
}
