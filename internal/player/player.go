// Package player owns the single audio transport of the application.
//
// At most one Transport exists at a time. Loading a version tears down the
// previous transport (tick loop stopped, audio released) before the next one
// is opened. The controller's tick loop is the only clock in the system: the
// rest of the application reads positions from it or subscribes to its
// events.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
)

// DefaultTick is the interval between position events while playing
const DefaultTick = 200 * time.Millisecond

// Transport is one opened audio stream
type Transport interface {
	Duration() float64 // seconds
	Position() float64 // seconds
	Playing() bool
	Play() error
	Pause() error
	Seek(seconds float64) error
	Close() error
}

// Opener opens the audio of a version
type Opener interface {
	Open(ctx context.Context, versionID int64) (Transport, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, versionID int64) (Transport, error)

func (f OpenerFunc) Open(ctx context.Context, versionID int64) (Transport, error) {
	return f(ctx, versionID)
}

// Position is a seek target
type Position interface {
	seconds(duration float64) float64
}

// Fraction is a position relative to the duration, clamped into [0, 1]
type Fraction float64

func (f Fraction) seconds(d float64) float64 {
	return clamp(float64(f), 0, 1) * d
}

// Seconds is an absolute position, clamped into [0, duration]
type Seconds float64

func (s Seconds) seconds(d float64) float64 {
	return clamp(float64(s), 0, d)
}

// PositionEvent reports the playhead
type PositionEvent struct {
	VersionID int64
	Position  float64
	Duration  float64
	Playing   bool
}

// Controller wraps the active transport. Safe for concurrent use.
type Controller struct {
	opener Opener
	tick   time.Duration
	log    zerolog.Logger

	// loadMu serializes Load, Swap and Teardown
	loadMu sync.Mutex

	mu        sync.Mutex
	transport Transport
	versionID int64
	gen       uint64
	stop      chan struct{}
	done      chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(PositionEvent)
	nextSub int
}

// Option configures a Controller
type Option func(*Controller)

// WithTick sets the position event interval
func WithTick(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l.With().Str("component", "player").Logger() }
}

// New creates a controller that opens audio through opener
func New(opener Opener, opts ...Option) *Controller {
	c := &Controller{
		opener: opener,
		tick:   DefaultTick,
		log:    zerolog.Nop(),
		subs:   make(map[int]func(PositionEvent)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load opens the audio of versionID, replacing any loaded version. Once the
// audio is ready it seeks to resume, clamped into [0, duration], and starts
// playback when autoplay is set.
func (c *Controller) Load(ctx context.Context, versionID int64, resume *float64, autoplay bool) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.load(ctx, versionID, resume, autoplay)
}

// Swap loads another version keeping the current position and play state
func (c *Controller) Swap(ctx context.Context, versionID int64) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	c.mu.Lock()
	var resume *float64
	playing := false
	if c.transport != nil {
		pos := c.transport.Position()
		resume = &pos
		playing = c.transport.Playing()
	}
	c.mu.Unlock()

	return c.load(ctx, versionID, resume, playing)
}

func (c *Controller) load(ctx context.Context, versionID int64, resume *float64, autoplay bool) error {
	c.release()

	t, err := c.opener.Open(ctx, versionID)
	if err != nil {
		c.log.Warn().Int64("version", versionID).Err(err).Msg("open failed")
		var te *api.TransportError
		if errors.As(err, &te) {
			return err
		}
		return &api.TransportError{VersionID: versionID, Err: err}
	}

	if resume != nil {
		if err := t.Seek(Seconds(*resume).seconds(t.Duration())); err != nil {
			_ = t.Close()
			return &api.TransportError{VersionID: versionID, Err: err}
		}
	}
	if autoplay {
		if err := t.Play(); err != nil {
			_ = t.Close()
			return &api.TransportError{VersionID: versionID, Err: err}
		}
	}

	c.mu.Lock()
	c.gen++
	c.transport = t
	c.versionID = versionID
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.gen, c.stop, c.done)
	ev := c.eventLocked()
	c.mu.Unlock()

	c.log.Debug().
		Int64("version", versionID).
		Float64("duration", ev.Duration).
		Float64("position", ev.Position).
		Bool("autoplay", autoplay).
		Msg("loaded")
	c.emit(ev)
	return nil
}

// Teardown stops playback and releases the transport. Safe to call when
// nothing is loaded.
func (c *Controller) Teardown() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.release()
}

// release detaches the transport, waits for its tick loop to exit and closes it
func (c *Controller) release() {
	c.mu.Lock()
	t, versionID, stop, done := c.transport, c.versionID, c.stop, c.done
	c.transport = nil
	c.versionID = 0
	c.stop, c.done = nil, nil
	c.gen++
	c.mu.Unlock()

	if t == nil {
		return
	}
	close(stop)
	<-done
	_ = t.Pause()
	if err := t.Close(); err != nil {
		c.log.Warn().Int64("version", versionID).Err(err).Msg("close failed")
	}
	c.log.Debug().Int64("version", versionID).Msg("released")
}

// Toggle flips play/pause. No-op when nothing is loaded.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	t := c.transport
	if t == nil {
		c.mu.Unlock()
		return nil
	}
	var err error
	if t.Playing() {
		err = t.Pause()
	} else {
		err = t.Play()
	}
	ev := c.eventLocked()
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.emit(ev)
	return nil
}

// Seek moves the playhead. No-op when nothing is loaded.
func (c *Controller) Seek(p Position) error {
	c.mu.Lock()
	t := c.transport
	if t == nil {
		c.mu.Unlock()
		return nil
	}
	err := t.Seek(p.seconds(t.Duration()))
	ev := c.eventLocked()
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.emit(ev)
	return nil
}

// CurrentPosition returns the playhead in seconds, 0 when nothing is loaded
func (c *Controller) CurrentPosition() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return 0
	}
	return c.transport.Position()
}

// Duration returns the loaded duration in seconds, 0 when nothing is loaded
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return 0
	}
	return c.transport.Duration()
}

// Playing reports whether audio is playing
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport != nil && c.transport.Playing()
}

// VersionID returns the loaded version, 0 when nothing is loaded
func (c *Controller) VersionID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versionID
}

// Snapshot returns the current playhead as an event
func (c *Controller) Snapshot() PositionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eventLocked()
}

// Subscribe registers fn for position events. The returned function
// unsubscribes. fn runs on the tick goroutine and must not block.
func (c *Controller) Subscribe(fn func(PositionEvent)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) eventLocked() PositionEvent {
	if c.transport == nil {
		return PositionEvent{}
	}
	return PositionEvent{
		VersionID: c.versionID,
		Position:  c.transport.Position(),
		Duration:  c.transport.Duration(),
		Playing:   c.transport.Playing(),
	}
}

func (c *Controller) emit(ev PositionEvent) {
	c.subMu.Lock()
	fns := make([]func(PositionEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// run emits an event on every tick while playing, and one more when playback stops
func (c *Controller) run(gen uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	wasPlaying := false
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.gen != gen {
				c.mu.Unlock()
				return
			}
			ev := c.eventLocked()
			c.mu.Unlock()

			if ev.Playing || wasPlaying {
				c.emit(ev)
			}
			wasPlaying = ev.Playing
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
