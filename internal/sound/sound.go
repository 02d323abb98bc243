//go:build !ci

package sound

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

const sampleRate = beep.SampleRate(44100)

// tone 事件音效：频率与时长
type tone struct {
	freq     int
	duration time.Duration
}

// 事件音效表，无需音频素材，启动时合成
var tones = map[string]tone{
	"tick":      {freq: 880, duration: 40 * time.Millisecond},
	"correct":   {freq: 1320, duration: 120 * time.Millisecond},
	"incorrect": {freq: 220, duration: 150 * time.Millisecond},
	"damage":    {freq: 110, duration: 400 * time.Millisecond},
	"end":       {freq: 660, duration: 300 * time.Millisecond},
}

type SoundManager struct {
	buffers map[string]*beep.Buffer
	enabled bool
}

func NewSoundManager() *SoundManager {
	return &SoundManager{
		buffers: make(map[string]*beep.Buffer),
		enabled: false,
	}
}

func (sm *SoundManager) Init() error {
	// Init speaker with smaller buffer for lower latency
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	sm.enabled = true

	for name, t := range tones {
		if err := sm.synthesize(name, t); err != nil {
			return err
		}
	}

	return nil
}

// synthesize 预渲染一个正弦音到缓冲
func (sm *SoundManager) synthesize(name string, t tone) error {
	streamer, err := generators.SinTone(sampleRate, t.freq)
	if err != nil {
		return fmt.Errorf("failed to generate tone %s: %w", name, err)
	}

	format := beep.Format{
		SampleRate:  sampleRate,
		NumChannels: 2,
		Precision:   4,
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(beep.Take(sampleRate.N(t.duration), streamer))

	sm.buffers[name] = buffer
	return nil
}

func (sm *SoundManager) Play(name string) {
	if !sm.enabled {
		return
	}

	buffer, ok := sm.buffers[name]
	if !ok {
		// Silent failure if sound not found
		return
	}

	speaker.Play(buffer.Streamer(0, buffer.Len()))
}

func (sm *SoundManager) Close() {
	sm.enabled = false
}
