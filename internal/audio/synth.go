package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

const sampleRate = beep.SampleRate(48000)

// tone is a self-limiting decaying sine burst. It streams for its
// configured duration and then reports drained, so the speaker mixer
// drops it on its own.
type tone struct {
	freq    float64
	gain    float64
	pos     int
	samples int
}

func newTone(freq float64, dur time.Duration, gain float64) *tone {
	return &tone{freq: freq, gain: gain, samples: sampleRate.N(dur)}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.samples {
			return i, false
		}
		ts := float64(t.pos) / float64(sampleRate)
		env := math.Exp(-6 * float64(t.pos) / float64(t.samples))
		v := t.gain * env * math.Sin(2*math.Pi*t.freq*ts)
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// sweep is a sine whose frequency glides from one pitch to another over
// the burst. Phase is integrated so the glide stays click-free.
type sweep struct {
	from, to float64
	gain     float64
	phase    float64
	pos      int
	samples  int
}

func newSweep(from, to float64, dur time.Duration, gain float64) *sweep {
	return &sweep{from: from, to: to, gain: gain, samples: sampleRate.N(dur)}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.pos >= s.samples {
			return i, false
		}
		frac := float64(s.pos) / float64(s.samples)
		freq := s.from + (s.to-s.from)*frac
		env := math.Exp(-5 * frac)
		v := s.gain * env * math.Sin(2*math.Pi*s.phase)
		samples[i][0] = v
		samples[i][1] = v

		s.phase += freq / float64(sampleRate)
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// buzz layers three harmonics into a rough warning rasp.
type buzz struct {
	freq    float64
	gain    float64
	pos     int
	samples int
}

func newBuzz(freq float64, dur time.Duration, gain float64) *buzz {
	return &buzz{freq: freq, gain: gain, samples: sampleRate.N(dur)}
}

func (b *buzz) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if b.pos >= b.samples {
			return i, false
		}
		ts := float64(b.pos) / float64(sampleRate)
		v := 0.3 * math.Sin(2*math.Pi*b.freq*ts)
		v += 0.15 * math.Sin(2*math.Pi*b.freq*2*ts)
		v += 0.075 * math.Sin(2*math.Pi*b.freq*3*ts)

		attack := math.Min(ts/0.02, 1.0)
		release := math.Exp(-4 * float64(b.pos) / float64(b.samples))
		v *= b.gain * attack * release

		samples[i][0] = v
		samples[i][1] = v
		b.pos++
	}
	return len(samples), true
}

func (b *buzz) Err() error { return nil }

// newVolume wraps a streamer in a log-scaled volume control.
// math.Log2(0) is -Inf, so zero volume switches to Silent instead.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
