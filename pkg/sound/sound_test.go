package sound

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, rate, depth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, depth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestLoad_Mono16(t *testing.T) {
	path := writeWAV(t, 16000, 16, 1, []int{0, 1000, -1000, 32767})

	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate = %d", clip.SampleRate)
	}
	got := BytesToSamples(clip.PCM)
	want := []int16{0, 1000, -1000, 32767}
	if len(got) != len(want) {
		t.Fatalf("samples = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoad_StereoDownmix(t *testing.T) {
	path := writeWAV(t, 22050, 16, 2, []int{100, 300, -200, -400})

	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := BytesToSamples(clip.PCM)
	if len(got) != 2 || got[0] != 200 || got[1] != -300 {
		t.Errorf("samples = %v, want [200 -300]", got)
	}
	if clip.SampleRate != 22050 {
		t.Errorf("SampleRate = %d", clip.SampleRate)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := Decode(bytes.NewReader([]byte("definitely not a wav file"))); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("garbage: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chime.wav")
	chime := Chime(16000)
	if err := Save(path, chime); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(loaded.PCM, chime.PCM) {
		t.Error("PCM changed across save/load")
	}
}

func TestChime(t *testing.T) {
	c := Chime(16000)
	if c.Duration() != 360*time.Millisecond {
		t.Errorf("Duration = %v", c.Duration())
	}

	var peak int16
	for _, s := range BytesToSamples(c.PCM) {
		if s > peak {
			peak = s
		}
	}
	if peak == 0 || peak > 16384 {
		t.Errorf("peak = %d", peak)
	}
}

func TestResampled(t *testing.T) {
	c := &Clip{PCM: make([]byte, 960*2), SampleRate: 48000}

	if c.Resampled(0) != c || c.Resampled(48000) != c {
		t.Error("expected the same clip when no conversion is needed")
	}

	r := c.Resampled(16000)
	if r.SampleRate != 16000 || r.Samples() != 320 {
		t.Errorf("resampled = %d samples @ %d", r.Samples(), r.SampleRate)
	}
}

func TestResample(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = int16(i * 100)
	}
	if got := len(Resample(samples, 16000, 24000)); got != 480 {
		t.Errorf("upsample len = %d, want 480", got)
	}
	if got := len(Resample(nil, 16000, 48000)); got != 0 {
		t.Errorf("empty len = %d", got)
	}
}

func TestToInt16(t *testing.T) {
	tests := []struct {
		depth int
		in    int
		want  int16
	}{
		{8, 128, 0},
		{8, 255, 127 << 8},
		{16, -5, -5},
		{24, 0x7fff00, 0x7fff},
		{32, -65536, -1},
	}
	for _, tt := range tests {
		got, err := toInt16([]int{tt.in}, tt.depth)
		if err != nil {
			t.Fatalf("depth %d: %v", tt.depth, err)
		}
		if got[0] != tt.want {
			t.Errorf("depth %d: %d -> %d, want %d", tt.depth, tt.in, got[0], tt.want)
		}
	}
	if _, err := toInt16([]int{1}, 12); !errors.Is(err, ErrUnsupportedDepth) {
		t.Errorf("depth 12: %v", err)
	}
}
