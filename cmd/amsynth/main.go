package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sync/atomic"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/cmd"
	"github.com/amsynth/amsynth-sub001/config"
	"github.com/amsynth/amsynth-sub001/dsp"
	"github.com/amsynth/amsynth-sub001/engine"
	"github.com/amsynth/amsynth-sub001/oto"
	"github.com/amsynth/amsynth-sub001/version"
)

// levels holds the metered peaks as float32 bits, written by the audio loop
type levels struct {
	left, right atomic.Uint32
}

func (l *levels) store(left, right dsp.Decibel) {
	l.left.Store(math.Float32bits(float32(left)))
	l.right.Store(math.Float32bits(float32(right)))
}

func (l *levels) load() (left, right float32) {
	return math.Float32frombits(l.left.Load()), math.Float32frombits(l.right.Load())
}

func main() {
	defaultConfig, _ := config.DefaultPath()
	configPath := flag.String("config", defaultConfig, "Path of the configuration file.")
	presetPath := flag.String("preset", "", "Preset or saved state to load at start.")
	midiInput := flag.String("midi", "", "Open the first MIDI input whose name starts with this. Overrides the configuration.")
	rate := flag.Int("rate", 0, "Sample rate in Hz. Overrides the configuration.")
	polyphony := flag.Int("polyphony", -1, "Maximum number of voices, 0 for unlimited. Overrides the configuration.")
	listMIDI := flag.Bool("l", false, "List the MIDI inputs and exit.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Current)
		os.Exit(0)
	}
	if *listMIDI {
		for _, name := range cmd.MIDIInputDevices() {
			fmt.Println(name)
		}
		os.Exit(0)
	}
	c, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *rate > 0 {
		c.SampleRate = *rate
	}
	if *polyphony >= 0 {
		c.Polyphony = *polyphony
	}
	if *midiInput != "" {
		c.MIDIInput = *midiInput
	}
	synth, err := cmd.NewSynthesizer(c, *presetPath)
	if err != nil {
		log.Fatal(err)
	}
	audioContext, err := oto.NewContext(c.SampleRate, c.BufferSize)
	if err != nil {
		log.Fatalf("could not acquire oto AudioContext: %v", err)
	}
	defer audioContext.Close()
	input, err := cmd.NewMIDIInput(c.SampleRate, c.MIDIInput)
	if err != nil {
		log.Printf("no MIDI input: %v", err)
	} else {
		log.Printf("MIDI input: %s", input.Name())
	}
	defer input.Close()

	output := audioContext.Output()
	defer output.Close()
	var meter levels
	done := make(chan struct{})
	go func() {
		buf := make(amsynth.AudioBuffer, 2*c.BufferSize)
		peaks := dsp.NewPeakMeter(c.SampleRate, 1)
		var events []amsynth.MIDIEvent
		var ccOut []amsynth.ControlChange
		for {
			select {
			case <-done:
				return
			default:
			}
			events = input.AppendEvents(events[:0], c.BufferSize)
			ccOut = synth.Process(c.BufferSize, events, buf.Left(), buf.Right(), 2, ccOut[:0])
			meter.store(peaks.Update(buf))
			if err := output.WriteAudio(buf); err != nil {
				log.Printf("audio output failed: %v", err)
				return
			}
		}
	}()
	err = repl(&env{synth: synth, levels: &meter})
	close(done)
	if err != nil {
		log.Fatal(err)
	}
}

type env struct {
	synth  *engine.Synthesizer
	levels *levels
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "amsynth plays presets live from MIDI input and a command prompt.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
