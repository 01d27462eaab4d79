package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/mixreview/internal/api"
)

// writeTestWAV encodes samples as a 16-bit WAV and returns the file bytes
func writeTestWAV(t *testing.T, rate, channels int, samples []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:           samples,
		Format:         &goaudio.Format{SampleRate: rate, NumChannels: channels},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		want        Format
	}{
		{"riff wave", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), "", FormatWAV},
		{"flac magic", []byte("fLaC\x00\x00"), "", FormatFLAC},
		{"id3", []byte("ID3\x04"), "", FormatMP3},
		{"mpeg frame sync", []byte{0xFF, 0xFB, 0x90}, "", FormatMP3},
		{"content type fallback", []byte("????"), "audio/x-wav", FormatWAV},
		{"unknown", []byte("hello"), "text/plain", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.data, tt.contentType))
		})
	}
}

func TestDecodeWAV(t *testing.T) {
	samples := []int{0, 0, 1000, -1000, 32767, -32768, 5, 6}
	data := writeTestWAV(t, 8000, 2, samples)

	pcm, err := Decode(data, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, 8000, pcm.SampleRate)
	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 4, pcm.Frames())
	assert.Equal(t, []int16{0, 0, 1000, -1000, 32767, -32768, 5, 6}, pcm.Samples)
	assert.InDelta(t, 4.0/8000, pcm.Duration(), 1e-9)
}

// silentMP3 builds MPEG-1 Layer III frames at 128 kbit/s, 44.1 kHz, stereo
// with zeroed side info, which decode to silence
func silentMP3(frames int) []byte {
	const frameSize = 144 * 128000 / 44100 // 417 bytes, no padding
	var out []byte
	for range frames {
		frame := make([]byte, frameSize)
		copy(frame, []byte{0xFF, 0xFB, 0x90, 0x04})
		out = append(out, frame...)
	}
	return out
}

func TestDecodeMP3(t *testing.T) {
	data := silentMP3(4)
	require.Equal(t, FormatMP3, Sniff(data, ""))

	pcm, err := Decode(data, "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, 44100, pcm.SampleRate)
	assert.Equal(t, 2, pcm.Channels)
	assert.Equal(t, 4*1152, pcm.Frames())
	assert.InDelta(t, 4*1152.0/44100, pcm.Duration(), 1e-9)
	for _, v := range pcm.Samples {
		require.Zero(t, v)
	}
}

func TestDecodeBrokenMP3(t *testing.T) {
	_, err := Decode([]byte("ID3\x04\x00"), "audio/mpeg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode([]byte("garbage"), "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode([]byte("OggS\x00\x02"), "audio/ogg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSampleToInt16(t *testing.T) {
	assert.Equal(t, int16(-2), sampleToInt16([]byte{0xFE, 0xFF}))
	assert.Equal(t, int16(0x1234), sampleToInt16([]byte{0x00, 0x34, 0x12}))
	assert.Equal(t, int16(-1), sampleToInt16([]byte{0x00, 0xFF, 0xFF}))
	assert.Equal(t, int16(0x7FFF), sampleToInt16([]byte{0x00, 0x00, 0xFF, 0x7F}))
	assert.Equal(t, int16(-256), sampleToInt16([]byte{0xFF}))
}

type nopOutput struct{ closed bool }

func (n *nopOutput) Close() error {
	n.closed = true
	return nil
}

func newTestTransport(t *testing.T, pcm *PCM) (*Transport, *nopOutput, func([]byte)) {
	t.Helper()
	out := &nopOutput{}
	var fill func([]byte)
	tr, err := NewTransport(pcm, func(_ *PCM, f func([]byte)) (Output, error) {
		fill = f
		return out, nil
	})
	require.NoError(t, err)
	return tr, out, fill
}

func TestTransportPlayback(t *testing.T) {
	pcm := &PCM{Samples: []int16{1, 2, 3, 4, 5, 6}, SampleRate: 2, Channels: 1}
	tr, out, fill := newTestTransport(t, pcm)

	assert.Equal(t, 3.0, tr.Duration())
	assert.False(t, tr.Playing())

	buf := make([]byte, 4)
	fill(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf, "paused output is silent")
	assert.Zero(t, tr.Position())

	require.NoError(t, tr.Play())
	fill(buf)
	assert.Equal(t, int16(1), int16(binary.LittleEndian.Uint16(buf[0:])))
	assert.Equal(t, int16(2), int16(binary.LittleEndian.Uint16(buf[2:])))
	assert.Equal(t, 1.0, tr.Position())

	require.NoError(t, tr.Seek(2.5))
	assert.Equal(t, 2.5, tr.Position())

	big := make([]byte, 8)
	for i := range big {
		big[i] = 0xAA
	}
	fill(big)
	assert.Equal(t, int16(6), int16(binary.LittleEndian.Uint16(big[0:])))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, big[2:], "tail after the end is silent")
	assert.False(t, tr.Playing(), "stops at the end")

	// play at the end rewinds
	require.NoError(t, tr.Play())
	assert.Zero(t, tr.Position())

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, out.closed)
	assert.False(t, tr.Playing())
}

func TestTransportSeekClamps(t *testing.T) {
	pcm := &PCM{Samples: make([]int16, 200), SampleRate: 100, Channels: 2}
	tr, _, _ := newTestTransport(t, pcm)

	require.NoError(t, tr.Seek(-3))
	assert.Zero(t, tr.Position())
	require.NoError(t, tr.Seek(99))
	assert.Equal(t, 1.0, tr.Position())
}

type fakeFetcher struct {
	data        []byte
	contentType string
	err         error
}

func (f fakeFetcher) FetchAudio(context.Context, int64) ([]byte, string, error) {
	return f.data, f.contentType, f.err
}

func nopOutputFunc(*PCM, func([]byte)) (Output, error) {
	return &nopOutput{}, nil
}

func TestOpener(t *testing.T) {
	wavData := writeTestWAV(t, 1000, 1, make([]int, 500))

	o := NewOpener(fakeFetcher{data: wavData, contentType: "audio/wav"}, BackendNull, nopOutputFunc, zerolog.Nop())
	tr, err := o.Open(context.Background(), 7)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tr.Duration(), 1e-9)
	require.NoError(t, tr.Close())
}

func TestOpenerErrors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher fakeFetcher
		target  error
	}{
		{"fetch failure", fakeFetcher{err: errors.New("404")}, nil},
		{"broken mp3", fakeFetcher{data: []byte("ID3\x03\x00"), contentType: "audio/mpeg"}, nil},
		{"unknown format", fakeFetcher{data: []byte("OggS\x00\x02"), contentType: "audio/ogg"}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOpener(tt.fetcher, BackendNull, nopOutputFunc, zerolog.Nop())
			_, err := o.Open(context.Background(), 3)

			var te *api.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, int64(3), te.VersionID)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
