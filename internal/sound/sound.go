// Package sound plays reminder tones through an external audio player,
// falling back to the terminal bell.
package sound

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/julianstephens/daytrack/internal/models"
)

const (
	SampleRate = 22050
	gain       = 0.25

	beepHz  = 800
	chimeHz = 600
)

// players are tried in order when no player is configured
var players = []string{"paplay", "aplay", "afplay"}

var lookPath = exec.LookPath

// Frequency returns the tone pitch for a reminder sound
func Frequency(s models.ReminderSound) (float64, bool) {
	switch s {
	case models.SoundBeep:
		return beepHz, true
	case models.SoundChime:
		return chimeHz, true
	}
	return 0, false
}

// WAV renders a mono 16-bit PCM sine tone
func WAV(freq float64, d time.Duration) []byte {
	samples := int(d.Seconds() * SampleRate)
	dataLen := samples * 2

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))

	sample := make([]byte, 2)
	for i := 0; i < samples; i++ {
		v := gain * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(sample, uint16(int16(v*math.MaxInt16)))
		buf.Write(sample)
	}
	return buf.Bytes()
}

// Player plays tones. A zero Player rings the bell on stdout.
type Player struct {
	Enabled bool
	Command string    // audio player executable, detected when empty
	Bell    io.Writer // fallback output for the terminal bell
}

// Play renders the tone for s and plays it for d. Cancelling ctx stops
// playback.
func (p *Player) Play(ctx context.Context, s models.ReminderSound, d time.Duration) error {
	if !p.Enabled {
		return fmt.Errorf("sound disabled")
	}
	freq, ok := Frequency(s)
	if !ok {
		return nil
	}

	cmd := p.command()
	if cmd == "" {
		return p.bell()
	}

	f, err := os.CreateTemp("", "daytrack-tone-*.wav")
	if err != nil {
		return p.bell()
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(WAV(freq, d)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := exec.CommandContext(ctx, cmd, f.Name()).Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

func (p *Player) command() string {
	if p.Command != "" {
		return p.Command
	}
	for _, name := range players {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func (p *Player) bell() error {
	w := p.Bell
	if w == nil {
		w = os.Stdout
	}
	_, err := io.WriteString(w, "\a")
	return err
}
