// Package audio gives the lab its soundtrack: collision clicks that climb
// the scale as the count grows, floor thuds for bouncing balls, and a
// rasp when the engine has to paper over a numeric anomaly. Everything is
// synthesized, there are no asset files.
package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const clickBase = 220.0

// Engine owns the speaker. All sounds are one-shot streamers handed to
// the speaker mixer, which drops them once drained.
type Engine struct {
	mu      sync.Mutex
	enabled bool
	ready   bool
	master  float64
}

// NewEngine returns an engine that stays silent until Init. A disabled
// engine never touches the audio device, so headless runs are safe.
func NewEngine(enabled bool) *Engine {
	return &Engine{enabled: enabled, master: 0.8}
}

// Init opens the speaker. It is a no-op when the engine is disabled.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled || e.ready {
		return nil
	}
	return e.open()
}

func (e *Engine) open() error {
	if err := speaker.Init(sampleRate, sampleRate.N(80*time.Millisecond)); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	e.ready = true
	return nil
}

// Close silences everything still playing. The speaker itself stays
// open; beep keeps the device for the life of the process.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		speaker.Clear()
	}
}

// Toggle flips sound on or off and reports the new state. Turning sound
// on late opens the speaker on demand.
func (e *Engine) Toggle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = !e.enabled
	if e.enabled && !e.ready {
		if err := e.open(); err != nil {
			e.enabled = false
		}
	}
	if !e.enabled && e.ready {
		speaker.Clear()
	}
	return e.enabled
}

func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Engine) play(s beep.Streamer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.enabled || !e.ready {
		return
	}
	speaker.Play(s)
}

// Click plays one collision tick. Pitch climbs a semitone ladder with
// the running count, so a heavy mass ratio turns into a rising chirp.
func (e *Engine) Click(count int) {
	freq := clickBase * math.Pow(2, float64(count%37)/12.0)
	e.play(newVolume(newTone(freq, 45*time.Millisecond, 0.5), e.master))
}

// Thud marks a ball hitting the floor, louder for harder impacts.
func (e *Engine) Thud(speed float64) {
	gain := 0.12 + 0.5*math.Min(speed/12.0, 1.0)
	e.play(newVolume(newSweep(150, 55, 90*time.Millisecond, gain), e.master))
}

// Chime marks a ball settling, high for inside the circle, low for out.
func (e *Engine) Chime(inside bool) {
	if inside {
		e.play(newVolume(newTone(988, 140*time.Millisecond, 0.3), e.master))
		return
	}
	e.play(newVolume(newTone(294, 100*time.Millisecond, 0.22), e.master))
}

// Buzz is the anomaly rasp, for events like a position correction.
func (e *Engine) Buzz() {
	e.play(newVolume(newBuzz(110, 150*time.Millisecond, 0.8), e.master))
}
