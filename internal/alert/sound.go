package alert

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

var _ domain.SoundPlayer = Silent{}

// Two rising notes, each fading out.
var chimeNotes = []struct {
	freq     float64
	duration float64 // seconds
}{
	{880, 0.18},
	{1318.5, 0.32},
}

// ChimeWAV renders the notification chime as a 16-bit mono WAV clip.
func ChimeWAV() []byte {
	var samples []int16
	for _, note := range chimeNotes {
		n := int(note.duration * SampleRate)
		for i := 0; i < n; i++ {
			t := float64(i) / SampleRate
			envelope := math.Exp(-6 * t / note.duration)
			v := 0.4 * envelope * math.Sin(2*math.Pi*note.freq*t)
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}
	return encodeWAV(samples)
}

// encodeWAV wraps PCM samples in a canonical 44-byte RIFF header.
func encodeWAV(samples []int16) []byte {
	dataSize := len(samples) * 2
	blockAlign := ChannelCount * BitDepth / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(ChannelCount))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(BitDepth))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// Silent is the sound player used when sound is off or no device exists.
type Silent struct{}

func (Silent) Chime() {}

// NewSound returns a Player ringing the chime when enabled and the audio
// device opens, and Silent otherwise.
func NewSound(enabled bool, log *logger.Logger) domain.SoundPlayer {
	if !enabled {
		log.Debug("sound disabled by config")
		return Silent{}
	}
	p, err := NewPlayer(ChimeWAV(), log)
	if err != nil {
		log.Warn("audio unavailable, alerts will be silent: %v", err)
		return Silent{}
	}
	return p
}
