package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// Backend selects the audio output
type Backend string

const (
	// BackendAuto uses the platform default and falls back to the null device
	BackendAuto Backend = "auto"
	// BackendNull runs the clock without producing sound
	BackendNull Backend = "null"
)

type malgoOutput struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func (m *malgoOutput) Close() error {
	_ = m.device.Stop()
	m.device.Uninit()
	err := m.ctx.Uninit()
	m.ctx.Free()
	return err
}

// MalgoOutput returns an OutputFunc playing through miniaudio. With
// BackendAuto a failure to open a real device falls back to the null backend
// so positions still advance.
func MalgoOutput(backend Backend, log zerolog.Logger) OutputFunc {
	return func(pcm *PCM, fill func([]byte)) (Output, error) {
		if backend != BackendNull {
			out, err := openMalgo(nil, pcm, fill)
			if err == nil {
				return out, nil
			}
			log.Warn().Err(err).Msg("no audio device, using null backend")
		}
		return openMalgo([]malgo.Backend{malgo.BackendNull}, pcm, fill)
	}
}

func openMalgo(backends []malgo.Backend, pcm *PCM, fill func([]byte)) (*malgoOutput, error) {
	ctx, err := malgo.InitContext(backends, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = uint32(pcm.Channels)
	cfg.SampleRate = uint32(pcm.SampleRate)
	cfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, _ uint32) {
			fill(output)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	return &malgoOutput{ctx: ctx, device: device}, nil
}
