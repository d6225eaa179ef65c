package native

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pcmWAV builds a 16-bit PCM WAV from interleaved samples.
func pcmWAV(samples []int16, rate, channels int) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	hdr := make([]byte, 44)
	copy(hdr[0:], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(36+len(data)))
	copy(hdr[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(hdr[16:], 16)
	binary.LittleEndian.PutUint16(hdr[20:], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:], uint16(channels))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(rate))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(rate*channels*2))
	binary.LittleEndian.PutUint16(hdr[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(hdr[34:], 16)
	copy(hdr[36:], "data")
	binary.LittleEndian.PutUint32(hdr[40:], uint32(len(data)))
	return append(hdr, data...)
}

func sine(n, rate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscode_WAVHeader(t *testing.T) {
	// Two seconds of 44.1 kHz stereo.
	const rate = 44100
	mono := sine(2*rate, rate, 440)
	stereo := make([]int16, 0, len(mono)*2)
	for _, s := range mono {
		stereo = append(stereo, s, s)
	}
	src := writeFile(t, "tone.wav", pcmWAV(stereo, rate, 2))

	out, err := New(nil, nil).Transcode(context.Background(), src)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}

	f, payload, err := ParseWAV(out)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if !f.IsTarget() {
		t.Errorf("format = %+v, want u-law mono 8000 Hz 8 bits", f)
	}
	if len(payload) != 2*TargetSampleRate {
		t.Errorf("payload = %d bytes, want %d", len(payload), 2*TargetSampleRate)
	}
	if binary.LittleEndian.Uint32(out[4:8]) != uint32(len(out)-8) {
		t.Errorf("RIFF size = %d, file is %d bytes", binary.LittleEndian.Uint32(out[4:8]), len(out))
	}
}

func TestTranscode_AlreadyTarget(t *testing.T) {
	samples := sine(8000, 8000, 300)
	first, err := encodeMulawWAV(samples)
	if err != nil {
		t.Fatal(err)
	}
	src := writeFile(t, "ulaw.wav", first)

	second, err := New(nil, nil).Transcode(context.Background(), src)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("re-encoding changed size: %d -> %d", len(first), len(second))
	}
}

func TestTranscode_MissingSource(t *testing.T) {
	_, err := New(nil, nil).Transcode(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestTranscode_Unsupported(t *testing.T) {
	src := writeFile(t, "notes.txt", []byte("definitely not audio"))
	if _, err := New(nil, nil).Transcode(context.Background(), src); err == nil {
		t.Fatal("expected error for unsupported input")
	}
}

func TestTranscode_HTTPSource(t *testing.T) {
	wav := pcmWAV(sine(16000, 16000, 440), 16000, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/local/chime.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(wav)
	}))
	defer ts.Close()

	tr := New(ts.Client(), nil)
	out, err := tr.Transcode(context.Background(), ts.URL+"/local/chime.wav")
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	f, payload, err := ParseWAV(out)
	if err != nil || !f.IsTarget() {
		t.Fatalf("ParseWAV = %+v, %v", f, err)
	}
	if len(payload) != 8000 {
		t.Errorf("payload = %d, want 8000", len(payload))
	}

	if _, err := tr.Transcode(context.Background(), ts.URL+"/missing.wav"); err == nil {
		t.Error("expected error for 404 source")
	}
}

func TestTranscode_HTTPSourceTooLarge(t *testing.T) {
	wav := pcmWAV(sine(16000, 16000, 440), 16000, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(wav)
	}))
	defer ts.Close()

	prev := maxSourceBytes
	maxSourceBytes = int64(len(wav) - 1)
	defer func() { maxSourceBytes = prev }()

	tr := New(ts.Client(), nil)
	_, err := tr.Transcode(context.Background(), ts.URL+"/chime.wav")
	if err == nil || !strings.Contains(err.Error(), "larger than") {
		t.Fatalf("Transcode error = %v, want size error", err)
	}

	maxSourceBytes = int64(len(wav))
	if _, err := tr.Transcode(context.Background(), ts.URL+"/chime.wav"); err != nil {
		t.Errorf("source exactly at the cap: %v", err)
	}
}

func TestParseWAV_Errors(t *testing.T) {
	tests := map[string][]byte{
		"short":   []byte("RIFF"),
		"not wav": []byte("RIFF\x00\x00\x00\x00AVI LIST"),
		"no data": pcmWAV(nil, 8000, 1)[:36],
	}
	for name, data := range tests {
		if _, _, err := ParseWAV(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseWAV_SkipsExtraChunks(t *testing.T) {
	base := pcmWAV([]int16{1, 2, 3}, 8000, 1)
	// Insert an odd-sized LIST chunk between fmt and data.
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	data := append(append(append([]byte{}, base[:36]...), list...), base[36:]...)

	f, payload, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if f.SampleRate != 8000 || len(payload) != 6 {
		t.Errorf("format %+v payload %d", f, len(payload))
	}
}

func TestParseWAV_StreamingSize(t *testing.T) {
	data := pcmWAV([]int16{1, 2, 3, 4}, 8000, 1)
	// Streaming writers leave 0xFFFFFFFF in the data size.
	binary.LittleEndian.PutUint32(data[40:], math.MaxUint32)
	_, payload, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV: %v", err)
	}
	if len(payload) != 8 {
		t.Errorf("payload = %d, want 8", len(payload))
	}
}

func TestResample(t *testing.T) {
	in := make([]int16, 44100)
	if got := len(resample(in, 44100, 8000)); got != 8000 {
		t.Errorf("len = %d, want 8000", got)
	}
	ramp := []int16{0, 100, 200, 300}
	up := resample(ramp, 4, 8)
	if len(up) != 8 || up[1] != 50 || up[7] != 300 {
		t.Errorf("upsampled = %v", up)
	}
	if got := resample(ramp, 8000, 8000); &got[0] != &ramp[0] {
		t.Error("same rate should return input unchanged")
	}
}

func TestIsMP3(t *testing.T) {
	if !isMP3([]byte("ID3\x04")) || !isMP3([]byte{0xFF, 0xFB, 0x90}) {
		t.Error("expected mp3 detection")
	}
	if isMP3([]byte("RIFF")) || isMP3(nil) {
		t.Error("false positive")
	}
}
