package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/cmd"
	"github.com/amsynth/amsynth-sub001/config"
	"github.com/amsynth/amsynth-sub001/gomidi"
	"github.com/amsynth/amsynth-sub001/version"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
)

const blockFrames = 256

type report struct {
	file     string
	output   string
	bytes    int
	duration time.Duration
	elapsed  time.Duration
}

func main() {
	defaultConfig, _ := config.DefaultPath()
	configPath := flag.String("config", defaultConfig, "Path of the configuration file.")
	presetPath := flag.String("preset", "", "Preset or saved state to render with.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed next to the MIDI file it was rendered from.")
	rate := flag.Int("rate", 0, "Sample rate in Hz. Overrides the configuration.")
	tail := flag.Float64("tail", 2, "Seconds rendered after the last event, for releases and reverb.")
	jobs := flag.Int("j", runtime.NumCPU(), "Number of files rendered in parallel.")
	raw := flag.Bool("r", false, "Output raw 16-bit PCM instead of .wav.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Current)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}
	c, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *rate > 0 {
		c.SampleRate = *rate
	}
	var mu sync.Mutex
	retval := 0
	swg := sizedwaitgroup.New(max(*jobs, 1))
	for _, file := range flag.Args() {
		swg.Add()
		go func(file string) {
			defer swg.Done()
			r, err := render(c, *presetPath, file, *directory, *tail, *raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
				retval = 1
				return
			}
			fmt.Printf("%s -> %s: %s, %s of audio in %s\n", r.file, r.output,
				humanize.Bytes(uint64(r.bytes)),
				durafmt.Parse(r.duration).LimitFirstN(2),
				durafmt.Parse(r.elapsed).LimitFirstN(2))
		}(file)
	}
	swg.Wait()
	os.Exit(retval)
}

func render(c config.Config, presetPath, file, directory string, tail float64, raw bool) (report, error) {
	start := time.Now()
	synth, err := cmd.NewSynthesizer(c, presetPath)
	if err != nil {
		return report{}, err
	}
	events, err := gomidi.ReadFile(file, c.SampleRate)
	if err != nil {
		return report{}, err
	}
	frames := int(tail * float64(c.SampleRate))
	if len(events) > 0 {
		frames += events[len(events)-1].Frame + 1
	}
	buffer := make(amsynth.AudioBuffer, 2*frames)
	var block []amsynth.MIDIEvent
	for pos := 0; pos < frames; pos += blockFrames {
		n := min(blockFrames, frames-pos)
		block, events = gomidi.Block(events, pos, n, block[:0])
		synth.Render(buffer[2*pos:2*(pos+n)], block)
	}

	var contents []byte
	ext := ".wav"
	if raw {
		ext = ".raw"
		contents, err = amsynth.Raw(buffer, true)
	} else {
		contents, err = amsynth.Wav(buffer, c.SampleRate)
	}
	if err != nil {
		return report{}, fmt.Errorf("could not encode %v: %w", ext, err)
	}
	dir, name := filepath.Split(file)
	if directory != "" {
		dir = directory
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return report{}, fmt.Errorf("could not create output directory %v: %w", dir, err)
		}
	}
	out := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+ext)
	if err := os.WriteFile(out, contents, 0644); err != nil {
		return report{}, fmt.Errorf("could not write file %v: %w", out, err)
	}
	return report{
		file:     file,
		output:   out,
		bytes:    len(contents),
		duration: time.Duration(frames) * time.Second / time.Duration(c.SampleRate),
		elapsed:  time.Since(start),
	}, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "amsynth-render renders Standard MIDI Files to audio files.\nUsage: %s [flags] file.mid ...\n", os.Args[0])
	flag.PrintDefaults()
}
