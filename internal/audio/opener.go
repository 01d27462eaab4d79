// Package audio turns a version's audio stream into a playable transport.
package audio

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/tgienger/mixreview/internal/api"
	"github.com/tgienger/mixreview/internal/player"
)

// Fetcher downloads the audio bytes of a version
type Fetcher interface {
	FetchAudio(ctx context.Context, versionID int64) ([]byte, string, error)
}

// Opener fetches, decodes and opens versions for the player
type Opener struct {
	fetch  Fetcher
	output OutputFunc
	log    zerolog.Logger
}

// NewOpener creates an opener. A nil output plays through malgo.
func NewOpener(fetch Fetcher, backend Backend, output OutputFunc, log zerolog.Logger) *Opener {
	log = log.With().Str("component", "audio").Logger()
	if output == nil {
		output = MalgoOutput(backend, log)
	}
	return &Opener{fetch: fetch, output: output, log: log}
}

// Open implements player.Opener
func (o *Opener) Open(ctx context.Context, versionID int64) (player.Transport, error) {
	start := time.Now()
	data, contentType, err := o.fetch.FetchAudio(ctx, versionID)
	if err != nil {
		return nil, &api.TransportError{VersionID: versionID, Err: err}
	}

	pcm, err := Decode(data, contentType)
	if err != nil {
		return nil, &api.TransportError{VersionID: versionID, Err: err}
	}
	if pcm.Frames() == 0 {
		return nil, &api.TransportError{VersionID: versionID, Err: errors.New("empty audio")}
	}

	t, err := NewTransport(pcm, o.output)
	if err != nil {
		return nil, &api.TransportError{VersionID: versionID, Err: err}
	}

	o.log.Debug().
		Int64("version", versionID).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int("rate", pcm.SampleRate).
		Int("channels", pcm.Channels).
		Float64("duration", pcm.Duration()).
		Dur("took", time.Since(start)).
		Msg("opened")
	return t, nil
}
