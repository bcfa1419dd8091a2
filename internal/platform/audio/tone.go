package audio

import (
	"math"
	"time"
)

// AlarmSampleRate is the sample rate of the built-in tone.
const AlarmSampleRate = 8000

const (
	alarmAmplitude = 0.9
	attack         = 5 * time.Millisecond
)

// step is one segment of the alarm pattern; a zero frequency is silence.
type step struct {
	freq     float64
	duration time.Duration
}

// alarmPattern is two 880 Hz beeps, two 1100 Hz beeps, then a pause.
//
//nolint:gochecknoglobals // Constant pattern table.
var alarmPattern = []step{
	{880, 150 * time.Millisecond},
	{0, 80 * time.Millisecond},
	{880, 150 * time.Millisecond},
	{0, 80 * time.Millisecond},
	{1100, 150 * time.Millisecond},
	{0, 80 * time.Millisecond},
	{1100, 150 * time.Millisecond},
	{0, 600 * time.Millisecond},
}

// Tone is mono signed 16-bit PCM.
type Tone struct {
	// SampleRate is the number of samples per second.
	SampleRate int
	// Samples is one period of the sound.
	Samples []int16
}

// Duration returns the length of one period.
func (t Tone) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}

	return time.Duration(len(t.Samples)) * time.Second / time.Duration(t.SampleRate)
}

// Resample converts the tone to rate with nearest-neighbour sampling.
func (t Tone) Resample(rate int) Tone {
	if rate <= 0 || rate == t.SampleRate || t.SampleRate <= 0 {
		return t
	}

	n := len(t.Samples) * rate / t.SampleRate
	out := make([]int16, n)

	for i := range out {
		out[i] = t.Samples[i*t.SampleRate/rate]
	}

	return Tone{SampleRate: rate, Samples: out}
}

// AlarmTone synthesizes one period of the alarm pattern at AlarmSampleRate.
// Each beep ramps in over a few milliseconds to avoid clicks.
func AlarmTone() Tone {
	var total int
	for _, s := range alarmPattern {
		total += samplesFor(s.duration)
	}

	var (
		samples     = make([]int16, 0, total)
		attackCount = float64(samplesFor(attack))
		index       int
	)

	for _, s := range alarmPattern {
		n := samplesFor(s.duration)
		for i := range n {
			var value float64

			if s.freq > 0 {
				t := float64(index+i) / AlarmSampleRate
				envelope := math.Min(float64(i)/attackCount, 1)
				value = math.Sin(2*math.Pi*s.freq*t) * alarmAmplitude * envelope
			}

			samples = append(samples, toInt16(value))
		}

		index += n
	}

	return Tone{SampleRate: AlarmSampleRate, Samples: samples}
}

func samplesFor(d time.Duration) int {
	return int(d * AlarmSampleRate / time.Second)
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return int16(math.Round(v * 0x8000))
	}

	return int16(math.Round(v * 0x7FFF))
}
