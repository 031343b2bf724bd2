// Package sound loads short audio clips for playback on the robot.
//
// Clips are held as PCM16 little-endian mono, the format the NAOqi bridge
// accepts on its audio/play endpoint.
package sound

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidWAV indicates the input is not a RIFF/WAVE file.
	ErrInvalidWAV = errors.New("sound: invalid wav file")

	// ErrEmpty indicates the file decoded to no samples.
	ErrEmpty = errors.New("sound: no samples")

	// ErrUnsupportedDepth indicates a bit depth other than 8, 16, 24 or 32.
	ErrUnsupportedDepth = errors.New("sound: unsupported bit depth")
)

// Clip is a mono PCM16 clip.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Samples returns the number of samples in the clip.
func (c *Clip) Samples() int {
	return len(c.PCM) / 2
}

// Duration returns the playback length.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Samples()) * time.Second / time.Duration(c.SampleRate)
}

// Resampled returns the clip converted to rate. The receiver is returned
// unchanged when rate is zero or already matches.
func (c *Clip) Resampled(rate int) *Clip {
	if rate <= 0 || rate == c.SampleRate {
		return c
	}
	return &Clip{
		PCM:        ResampleBytes(c.PCM, c.SampleRate, rate),
		SampleRate: rate,
	}
}

// Load reads a WAV file.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sound: %w", err)
	}
	defer f.Close()

	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return clip, nil
}

// Decode reads a WAV stream and converts it to mono PCM16.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sound: decode: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmpty
	}

	depth := int(dec.BitDepth)
	channels := int(dec.NumChans)
	rate := int(dec.SampleRate)
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}

	samples, err := toInt16(buf.Data, depth)
	if err != nil {
		return nil, err
	}
	if channels > 1 {
		samples = Downmix(samples, channels)
	}

	return &Clip{PCM: SamplesToBytes(samples), SampleRate: rate}, nil
}

// Save writes the clip as a 16-bit mono WAV file.
func Save(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sound: %w", err)
	}

	samples := BytesToSamples(c.PCM)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, c.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("sound: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("sound: encode: %w", err)
	}
	return f.Close()
}

// toInt16 scales decoded integer samples to 16 bits. 8-bit WAV is unsigned.
func toInt16(data []int, depth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch depth {
	case 8:
		for i, v := range data {
			out[i] = int16((v - 128) << 8)
		}
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24:
		for i, v := range data {
			out[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range data {
			out[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth)
	}
	return out, nil
}
