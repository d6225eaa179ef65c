package ffmpeg

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArgs(t *testing.T) {
	got := strings.Join(Args("in.mp3"), " ")
	for _, want := range []string{"-i in.mp3", "-codec:a pcm_mulaw", "-ac 1", "-ar 8000", "-f wav", "pipe:1"} {
		if !strings.Contains(got, want) {
			t.Errorf("args %q missing %q", got, want)
		}
	}
}

func TestIsLocal(t *testing.T) {
	tests := map[string]bool{
		"/media/doorbell.mp3":           true,
		"relative/file.wav":             true,
		"http://ha.local/local/a.mp3":   false,
		"https://example.com/chime.ogg": false,
	}
	for in, want := range tests {
		if got := isLocal(in); got != want {
			t.Errorf("isLocal(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTranscode_MissingSource(t *testing.T) {
	tr := New("", nil)
	_, err := tr.Transcode(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestTranscode_MissingBinary(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in.wav")
	if err := os.WriteFile(src, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr := New(filepath.Join(t.TempDir(), "no-such-ffmpeg"), nil)
	if tr.Available() {
		t.Fatal("binary should not be available")
	}
	if _, err := tr.Transcode(context.Background(), src); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

// writeToneWAV writes a 16-bit PCM stereo WAV of the given length.
func writeToneWAV(t *testing.T, path string, rate, seconds int) {
	t.Helper()
	frames := rate * seconds
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		v := int16((i % 100) * 300)
		binary.LittleEndian.PutUint16(data[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(v))
	}
	hdr := make([]byte, 44)
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+len(data)))
	copy(hdr[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], 1)
	binary.LittleEndian.PutUint16(hdr[22:], 2)
	binary.LittleEndian.PutUint32(hdr[24:], uint32(rate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(rate*4))
	binary.LittleEndian.PutUint16(hdr[32:], 4)
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(len(data)))
	if err := os.WriteFile(path, append(hdr, data...), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTranscode_RealBinary(t *testing.T) {
	tr := New("", nil)
	if !tr.Available() {
		t.Skip("ffmpeg not installed")
	}
	src := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, src, 44100, 1)

	out, err := tr.Transcode(context.Background(), src)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if len(out) < 44 || string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatalf("output is not a WAV file")
	}
	// fmt chunk follows the RIFF header in ffmpeg's output.
	if string(out[12:16]) != "fmt " {
		t.Fatalf("first chunk = %q, want fmt", out[12:16])
	}
	format := binary.LittleEndian.Uint16(out[20:])
	channels := binary.LittleEndian.Uint16(out[22:])
	rate := binary.LittleEndian.Uint32(out[24:])
	bits := binary.LittleEndian.Uint16(out[34:])
	if format != 7 || channels != 1 || rate != 8000 || bits != 8 {
		t.Errorf("header = format %d, %d ch, %d Hz, %d bits; want u-law mono 8000 Hz 8 bits",
			format, channels, rate, bits)
	}
}
