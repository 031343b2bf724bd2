package sound

import (
	"math"
	"time"
)

// DefaultChimeRate is the sample rate of the synthesized chime.
const DefaultChimeRate = 16000

// Chime synthesizes a two-note chime, used when no chime file is configured.
func Chime(sampleRate int) *Clip {
	notes := []float64{1318.5, 1046.5}
	const (
		noteLen   = 180 * time.Millisecond
		amplitude = 0.4
	)

	per := sampleRate * int(noteLen/time.Millisecond) / 1000
	samples := make([]int16, 0, per*len(notes))
	for _, freq := range notes {
		for i := 0; i < per; i++ {
			t := float64(i) / float64(sampleRate)
			env := math.Exp(-6 * float64(i) / float64(per))
			v := amplitude * env * math.Sin(2*math.Pi*freq*t)
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}
	return &Clip{PCM: SamplesToBytes(samples), SampleRate: sampleRate}
}
