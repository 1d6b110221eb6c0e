package alert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// Audio parameters of the synthesised chime.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

const drainPoll = 10 * time.Millisecond

var _ domain.SoundPlayer = (*Player)(nil)

// Player owns the audio device and rings one clip on demand. Chime returns
// at once; a chime requested while the previous one still sounds is
// dropped, so a burst of alerts rings once.
type Player struct {
	ctx *oto.Context
	pcm []byte
	log *logger.Logger

	mu      sync.Mutex
	ringing *oto.Player // nil when quiet
	closed  bool
	wg      sync.WaitGroup
}

// NewPlayer decodes the WAV clip and opens the audio device. It fails when
// the clip is malformed or no device is available.
func NewPlayer(clip []byte, log *logger.Logger) (*Player, error) {
	pcm, err := extractPCM(clip)
	if err != nil {
		return nil, fmt.Errorf("chime clip: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	log.Debug("chime ready (%d bytes of PCM at %d Hz)", len(pcm), SampleRate)
	return &Player{ctx: ctx, pcm: pcm, log: log}, nil
}

// Chime starts the clip unless it is already ringing or the player is
// closed.
func (p *Player) Chime() {
	p.mu.Lock()
	if p.closed || p.ringing != nil {
		p.mu.Unlock()
		return
	}
	ring := p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	p.ringing = ring
	p.wg.Add(1)
	p.mu.Unlock()

	ring.Play()
	go p.drain(ring)
}

// drain waits for the clip to end, then frees its player.
func (p *Player) drain(ring *oto.Player) {
	defer p.wg.Done()
	for ring.IsPlaying() {
		time.Sleep(drainPoll)
	}

	p.mu.Lock()
	p.ringing = nil
	p.mu.Unlock()

	if err := ring.Close(); err != nil {
		p.log.Warn("chime playback failed: %v", err)
	}
}

// Close cuts a ringing chime short and waits for it to be released. Later
// chimes are ignored.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	ring := p.ringing
	p.mu.Unlock()

	if ring != nil {
		ring.Pause()
	}
	p.wg.Wait()
}

// extractPCM walks the RIFF chunks and returns the raw "data" payload.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	for pos := 12; pos < len(wav)-8; {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			return wav[start:min(start+size, len(wav))], nil
		}
		// Chunks are word-aligned.
		pos += 8 + size + size%2
	}
	return nil, errors.New("data chunk not found in WAV")
}
