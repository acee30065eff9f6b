// Package sonify renders a population history as audio: one tone per tick,
// pitched by the population, written as a WAV file.
package sonify

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

const (
	sampleRate = beep.SampleRate(22050)

	// baseFreq is the pitch of an empty grid; a full grid sounds two
	// octaves higher.
	baseFreq = 220.0
	octaves  = 2.0
)

// ErrEmpty is returned when there is nothing to render.
var ErrEmpty = errors.New("sonify: empty history")

// Tick is the part of a tick summary that is rendered.
type Tick struct {
	Population int
	Deaths     int
}

// Options control the rendering.
type Options struct {
	Note   time.Duration // tone length per tick
	Volume float64       // gain in [0, 1]
}

// DefaultOptions renders 80ms per tick at half volume.
func DefaultOptions() Options {
	return Options{Note: 80 * time.Millisecond, Volume: 0.5}
}

// Pitch returns the tone frequency for a population relative to the peak.
func Pitch(population, peak int) float64 {
	if peak <= 0 || population <= 0 {
		return baseFreq
	}
	return baseFreq * math.Pow(2, octaves*float64(population)/float64(peak))
}

// Encode writes the history to w as a mono 16-bit WAV. A tick with deaths
// ends its tone early with a gap.
func Encode(w io.WriteSeeker, ticks []Tick, opts Options) error {
	if len(ticks) == 0 {
		return ErrEmpty
	}
	peak := 0
	for _, t := range ticks {
		peak = max(peak, t.Population)
	}

	noteLen := sampleRate.N(opts.Note)
	streamers := make([]beep.Streamer, 0, len(ticks))
	for _, t := range ticks {
		tone, err := generators.SineTone(sampleRate, Pitch(t.Population, peak))
		if err != nil {
			return fmt.Errorf("tone for population %d: %w", t.Population, err)
		}
		if t.Deaths > 0 {
			gap := noteLen / 4
			streamers = append(streamers, beep.Take(noteLen-gap, tone), beep.Silence(gap))
			continue
		}
		streamers = append(streamers, beep.Take(noteLen, tone))
	}

	gain := &effects.Gain{Streamer: beep.Seq(streamers...), Gain: min(max(opts.Volume, 0), 1) - 1}
	format := beep.Format{SampleRate: sampleRate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(w, gain, format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}
