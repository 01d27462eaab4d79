package audio

import (
	"encoding/binary"
	"sync"
)

// Output is a running playback device that pulls frames from a stream
type Output interface {
	Close() error
}

// OutputFunc opens a playback device for pcm. The device calls fill with
// an interleaved S16 little-endian buffer whenever it needs frames.
type OutputFunc func(pcm *PCM, fill func(out []byte)) (Output, error)

// stream is the playhead over decoded PCM. The device callback advances it.
type stream struct {
	pcm *PCM

	mu      sync.Mutex
	frame   int
	playing bool
}

// fill writes the next frames into out, or silence while paused
func (s *stream) fill(out []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.pcm.Channels
	bytesPerFrame := 2 * ch
	frames := len(out) / bytesPerFrame
	total := s.pcm.Frames()

	i := 0
	if s.playing {
		for ; i < frames && s.frame < total; i++ {
			base := s.frame * ch
			for c := 0; c < ch; c++ {
				binary.LittleEndian.PutUint16(out[(i*ch+c)*2:], uint16(s.pcm.Samples[base+c]))
			}
			s.frame++
		}
		if s.frame >= total {
			s.playing = false
		}
	}
	clear(out[i*bytesPerFrame:])
}

// Transport plays decoded PCM through an Output
type Transport struct {
	stream
	out Output

	closeOnce sync.Once
	closeErr  error
}

// NewTransport starts an output device over pcm, initially paused at 0
func NewTransport(pcm *PCM, open OutputFunc) (*Transport, error) {
	t := &Transport{stream: stream{pcm: pcm}}
	out, err := open(pcm, t.fill)
	if err != nil {
		return nil, err
	}
	t.out = out
	return t, nil
}

func (t *Transport) Duration() float64 {
	return t.pcm.Duration()
}

func (t *Transport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pcm.SampleRate == 0 {
		return 0
	}
	return float64(t.frame) / float64(t.pcm.SampleRate)
}

func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Play starts playback, rewinding first when the playhead is at the end
func (t *Transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frame >= t.pcm.Frames() {
		t.frame = 0
	}
	t.playing = true
	return nil
}

func (t *Transport) Pause() error {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
	return nil
}

func (t *Transport) Seek(seconds float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	frame := int(seconds * float64(t.pcm.SampleRate))
	t.frame = max(0, min(frame, t.pcm.Frames()))
	return nil
}

// Close stops the output device. Further calls return the first result.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		_ = t.Pause()
		if t.out != nil {
			t.closeErr = t.out.Close()
		}
	})
	return t.closeErr
}
