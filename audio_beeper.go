// audio_beeper.go - Signal beeper for TeenyTurtle

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
audio_beeper.go - Signal Beeper

One short square-wave blip per turtle signal. Each signal has its own pitch
and every turtle is offset by a small interval so several turtles remain
distinguishable by ear. Voices decay exponentially and are recycled
oldest-first when all are busy.

Trigger is called from the machine loop; Render from the audio callback.
*/

package main

import (
	"math"
	"sync"
)

const (
	BEEPER_SAMPLE_RATE = 44100
	BEEPER_VOICES      = 8
	BEEPER_DURATION_MS = 60
	BEEPER_LEVEL       = 0.15
	BEEPER_DECAY_FLOOR = 0.001 // voice is freed below this level
)

var beeperPitch = [TURTLE_INT_COUNT]float64{
	TURTLE_INT_MOVE_DONE:    660,
	TURTLE_INT_HIT_EDGE:     220,
	TURTLE_INT_COLOR_CHANGE: 880,
}

// SampleSource feeds mono float32 samples to an audio backend
type SampleSource interface {
	Render(samples []float32)
}

// AudioOutput is a started/stopped sink pulling from a SampleSource
type AudioOutput interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

type beeperVoice struct {
	phase float64
	step  float64 // phase increment per sample, cycles
	level float64
	decay float64
	age   uint64
}

type Beeper struct {
	mutex      sync.Mutex
	sampleRate int
	voices     [BEEPER_VOICES]beeperVoice
	triggers   uint64
	output     AudioOutput
}

func NewBeeper(sampleRate int) *Beeper {
	if sampleRate <= 0 {
		sampleRate = BEEPER_SAMPLE_RATE
	}
	return &Beeper{sampleRate: sampleRate}
}

// SignalFrequency returns the blip pitch for a turtle's signal. Each turtle
// id raises the pitch by a whole tone, wrapping every octave.
func SignalFrequency(id int, sig TurtleSignal) float64 {
	line := int(sig)
	if line < 0 || line >= TURTLE_INT_COUNT {
		return 0
	}
	semitones := float64((id % 6) * 2)
	return beeperPitch[line] * math.Pow(2, semitones/12)
}

// Trigger starts a blip for the signal
func (b *Beeper) Trigger(id int, sig TurtleSignal) {
	freq := SignalFrequency(id, sig)
	if freq <= 0 {
		return
	}
	samples := float64(b.sampleRate) * BEEPER_DURATION_MS / 1000

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.triggers++
	slot := 0
	for i := range b.voices {
		if b.voices[i].level == 0 {
			slot = i
			break
		}
		if b.voices[i].age < b.voices[slot].age {
			slot = i
		}
	}
	b.voices[slot] = beeperVoice{
		step:  freq / float64(b.sampleRate),
		level: BEEPER_LEVEL,
		decay: math.Pow(BEEPER_DECAY_FLOOR/BEEPER_LEVEL, 1/samples),
		age:   b.triggers,
	}
}

// ActiveVoices reports how many blips are still sounding
func (b *Beeper) ActiveVoices() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	n := 0
	for i := range b.voices {
		if b.voices[i].level > 0 {
			n++
		}
	}
	return n
}

func (b *Beeper) Render(samples []float32) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i := range samples {
		var mix float64
		for v := range b.voices {
			voice := &b.voices[v]
			if voice.level == 0 {
				continue
			}
			if voice.phase < 0.5 {
				mix += voice.level
			} else {
				mix -= voice.level
			}
			voice.phase += voice.step
			if voice.phase >= 1 {
				voice.phase -= 1
			}
			voice.level *= voice.decay
			if voice.level < BEEPER_DECAY_FLOOR {
				voice.level = 0
			}
		}
		samples[i] = float32(math.Max(math.Min(mix, 1), -1))
	}
}

// Start opens the audio backend and begins playback
func (b *Beeper) Start() error {
	out, err := NewAudioOutput(b.sampleRate, b)
	if err != nil {
		return err
	}
	b.output = out
	b.output.Start()
	return nil
}

func (b *Beeper) Stop() {
	if b.output != nil {
		b.output.Close()
		b.output = nil
	}
}
