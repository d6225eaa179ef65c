package native

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/zaf/g711"
)

// WAVE format tags.
const (
	formatPCM        = 1
	formatFloat      = 3
	formatMulaw      = 7
	formatExtensible = 0xFFFE
)

// Target output of every transcode.
const (
	TargetSampleRate = 8000
	TargetChannels   = 1
	TargetBits       = 8
)

var errNotWAV = errors.New("not a RIFF/WAVE stream")

// Format describes the fmt chunk of a WAV stream.
type Format struct {
	Tag           uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// IsTarget reports whether f is the u-law mono 8 kHz layout a Doorbird plays.
func (f Format) IsTarget() bool {
	return f.Tag == formatMulaw && f.Channels == TargetChannels &&
		f.SampleRate == TargetSampleRate && f.BitsPerSample == TargetBits
}

// ParseWAV walks the RIFF chunks of data and returns the format and the
// payload of the data chunk. A data chunk whose declared size runs past the
// end (as written by streaming encoders) is clamped to what is present.
func ParseWAV(data []byte) (Format, []byte, error) {
	var f Format
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, nil, errNotWAV
	}

	var haveFmt bool
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := body + size
		if size < 0 || end > len(data) || end < body {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return f, nil, fmt.Errorf("fmt chunk too short: %d bytes", end-body)
			}
			c := data[body:end]
			f.Tag = binary.LittleEndian.Uint16(c[0:2])
			f.Channels = binary.LittleEndian.Uint16(c[2:4])
			f.SampleRate = binary.LittleEndian.Uint32(c[4:8])
			f.BitsPerSample = binary.LittleEndian.Uint16(c[14:16])
			if f.Tag == formatExtensible && len(c) >= 26 {
				// First two bytes of the sub-format GUID carry the real tag.
				f.Tag = binary.LittleEndian.Uint16(c[24:26])
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return f, nil, errors.New("data chunk before fmt chunk")
			}
			return f, data[body:end], nil
		}

		// Chunks are word aligned.
		off = end + (end-body)%2
	}
	if !haveFmt {
		return f, nil, errors.New("missing fmt chunk")
	}
	return f, nil, errors.New("missing data chunk")
}

// decodeWAV converts a WAV stream to mono 16-bit samples.
func decodeWAV(data []byte) ([]int16, int, error) {
	f, payload, err := ParseWAV(data)
	if err != nil {
		return nil, 0, err
	}
	if f.Channels == 0 || f.SampleRate == 0 {
		return nil, 0, fmt.Errorf("invalid format: %d channels at %d Hz", f.Channels, f.SampleRate)
	}

	sampleFn, width, err := sampleDecoder(f)
	if err != nil {
		return nil, 0, err
	}
	ch := int(f.Channels)
	frameSize := width * ch
	frames := len(payload) / frameSize
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < ch; c++ {
			pos := i*frameSize + c*width
			sum += int(sampleFn(payload[pos : pos+width]))
		}
		out[i] = int16(sum / ch)
	}
	return out, int(f.SampleRate), nil
}

// sampleDecoder returns a function converting one encoded sample to int16.
func sampleDecoder(f Format) (func([]byte) int16, int, error) {
	switch {
	case f.Tag == formatPCM && f.BitsPerSample == 8:
		return func(b []byte) int16 { return int16(int(b[0])-128) << 8 }, 1, nil
	case f.Tag == formatPCM && f.BitsPerSample == 16:
		return func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) }, 2, nil
	case f.Tag == formatPCM && f.BitsPerSample == 24:
		return func(b []byte) int16 { return int16(int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 16) }, 3, nil
	case f.Tag == formatPCM && f.BitsPerSample == 32:
		return func(b []byte) int16 { return int16(int32(binary.LittleEndian.Uint32(b)) >> 16) }, 4, nil
	case f.Tag == formatFloat && f.BitsPerSample == 32:
		return func(b []byte) int16 {
			return floatToInt16(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		}, 4, nil
	case f.Tag == formatMulaw && f.BitsPerSample == 8:
		return func(b []byte) int16 { return g711.DecodeUlawFrame(b[0]) }, 1, nil
	default:
		return nil, 0, fmt.Errorf("unsupported WAV encoding: tag %d, %d bits", f.Tag, f.BitsPerSample)
	}
}

func floatToInt16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}

// mulawHeader is the canonical header of the files we produce: RIFF, an
// 18-byte fmt chunk (cbSize = 0) and the data chunk header.
type mulawHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	ExtraSize     uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// encodeMulawWAV encodes 8 kHz mono samples as a u-law WAV file.
func encodeMulawWAV(samples []int16) ([]byte, error) {
	dataSize := len(samples)
	pad := dataSize % 2

	header := mulawHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(4 + (8 + 18) + (8 + dataSize + pad)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 18,
		AudioFormat:   formatMulaw,
		NumChannels:   TargetChannels,
		SampleRate:    TargetSampleRate,
		ByteRate:      TargetSampleRate * TargetChannels * TargetBits / 8,
		BlockAlign:    TargetChannels * TargetBits / 8,
		BitsPerSample: TargetBits,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}

	buf := bytes.NewBuffer(make([]byte, 0, 46+dataSize+pad))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write WAV header: %w", err)
	}
	for _, s := range samples {
		buf.WriteByte(g711.EncodeUlawFrame(s))
	}
	if pad == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}
