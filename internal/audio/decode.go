package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/tphakala/flac"
)

// Format is a container format recognised by Sniff
type Format string

const (
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = ""
)

// ErrUnsupportedFormat is returned for audio that cannot be decoded locally
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// PCM is decoded audio as interleaved signed 16-bit samples
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the length in seconds
func (p *PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// Sniff detects the container from magic bytes, falling back to the content type
func Sniff(data []byte, contentType string) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"):
		return FormatWAV
	case strings.Contains(ct, "flac"):
		return FormatFLAC
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return FormatMP3
	}
	return FormatUnknown
}

// Decode turns WAV, FLAC or MP3 bytes into PCM
func Decode(data []byte, contentType string) (*PCM, error) {
	switch f := Sniff(data, contentType); f {
	case FormatWAV:
		return decodeWAV(data)
	case FormatFLAC:
		return decodeFLAC(data)
	case FormatMP3:
		return decodeMP3(data)
	case FormatUnknown:
		return nil, ErrUnsupportedFormat
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func decodeWAV(data []byte) (*PCM, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file format")
	}
	if decoder.NumChans == 0 {
		return nil, errors.New("WAV file has no channels")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}
	samples, err := toInt16(buf, int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}
	return &PCM{
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}, nil
}

func toInt16(buf *goaudio.IntBuffer, bitDepth int) ([]int16, error) {
	out := make([]int16, len(buf.Data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		for i, v := range buf.Data {
			out[i] = int16((v - 128) << 8)
		}
	case 16:
		for i, v := range buf.Data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range buf.Data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range buf.Data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	return out, nil
}

func decodeFLAC(data []byte) (*PCM, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode FLAC: %w", err)
	}
	if decoder.NChannels == 0 {
		return nil, errors.New("FLAC stream has no channels")
	}
	width := decoder.BitsPerSample / 8
	if width < 1 || width > 4 {
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitsPerSample)
	}

	samples := make([]int16, 0, int(decoder.TotalSamples)*decoder.NChannels)
	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decode FLAC: %w", err)
		}
		for i := 0; i+width <= len(frame); i += width {
			samples = append(samples, sampleToInt16(frame[i:i+width]))
		}
	}

	return &PCM{
		Samples:    samples,
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
	}, nil
}

// mp3Channels is fixed: go-mp3 always emits stereo, duplicating mono streams
const mp3Channels = 2

func decodeMP3(data []byte) (*PCM, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode MP3: %w", err)
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decode MP3: %w", err)
	}

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = sampleToInt16(raw[2*i : 2*i+2])
	}
	return &PCM{
		Samples:    samples,
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
	}, nil
}

// sampleToInt16 reads one little-endian signed sample and keeps its top 16 bits
func sampleToInt16(b []byte) int16 {
	switch len(b) {
	case 1:
		return int16(int8(b[0])) << 8
	case 2:
		return int16(uint16(b[0]) | uint16(b[1])<<8)
	case 3:
		v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
		return int16(v >> 8)
	default:
		v := int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		return int16(v >> 16)
	}
}
