package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/cmd"
	"github.com/chzyer/readline"
)

var errQuit = errors.New("quit")

type command struct {
	name  string
	usage string
	run   func(*env, []string) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"set", "set <param> <value>", setCommand, 2},
		{"get", "get <param>", getCommand, 1},
		{"list", "list", listCommand, 0},
		{"preset", "preset <n>", presetCommand, 1},
		{"save", "save <file>", saveCommand, 1},
		{"load", "load <file>", loadCommand, 1},
		{"undo", "undo", undoCommand, 0},
		{"redo", "redo", redoCommand, 0},
		{"random", "random", randomCommand, 0},
		{"note", "note <n> [velocity]", noteCommand, -1},
		{"off", "off <n>", offCommand, 1},
		{"panic", "panic", panicCommand, 0},
		{"voices", "voices", voicesCommand, 0},
		{"level", "level", levelCommand, 0},
		{"help", "help", helpCommand, 0},
		{"quit", "quit", quitCommand, 0},
	}
}

func (e *env) eval(input string) (string, error) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]
	for _, c := range commands {
		if name != c.name {
			continue
		}
		if c.arity < 0 {
			if arity := -c.arity; len(args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v", c.name, arity, len(args))
			}
		} else if len(args) != c.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v", c.name, c.arity, len(args))
		}
		result, err := c.run(e, args)
		if err != nil && !errors.Is(err, errQuit) {
			return result, fmt.Errorf("%s error: %w", c.name, err)
		}
		return result, err
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := env.eval(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Println(err)
		} else if result != "" {
			fmt.Println(result)
		}
	}
}

func parseParam(name string) (amsynth.Param, error) {
	p, ok := amsynth.ParamFromName(name)
	if !ok {
		return 0, fmt.Errorf("unknown parameter: %s", name)
	}
	return p, nil
}

func parseNote(args []string) (note, velocity int, err error) {
	velocity = 100
	if note, err = strconv.Atoi(args[0]); err != nil || note < 0 || note > 127 {
		return 0, 0, fmt.Errorf("invalid note %q", args[0])
	}
	if len(args) > 1 {
		if velocity, err = strconv.Atoi(args[1]); err != nil || velocity < 1 || velocity > 127 {
			return 0, 0, fmt.Errorf("invalid velocity %q", args[1])
		}
	}
	return note, velocity, nil
}

func setCommand(e *env, args []string) (string, error) {
	p, err := parseParam(args[0])
	if err != nil {
		return "", err
	}
	v, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return "", err
	}
	e.synth.SetParameterValue(p, float32(v))
	return e.synth.ParameterDisplay(p), nil
}

func getCommand(e *env, args []string) (string, error) {
	p, err := parseParam(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %v (%s)", e.synth.ParameterDisplayName(p), e.synth.ParameterValue(p), e.synth.ParameterDisplay(p)), nil
}

func listCommand(e *env, _ []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.synth.PresetName())
	for p := amsynth.Param(0); p < amsynth.ParamCount; p++ {
		fmt.Fprintf(&b, "%-20s %-20s %-10v %s\n", p, e.synth.ParameterDisplayName(p), e.synth.ParameterValue(p), e.synth.ParameterDisplay(p))
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func presetCommand(e *env, args []string) (string, error) {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return "", err
	}
	if err := e.synth.SelectPreset(n); err != nil {
		return "", err
	}
	return e.synth.PresetName(), nil
}

func saveCommand(e *env, args []string) (string, error) {
	return "", cmd.SaveState(e.synth, args[0])
}

func loadCommand(e *env, args []string) (string, error) {
	e.synth.Update()
	if err := cmd.LoadState(e.synth, args[0]); err != nil {
		return "", err
	}
	return e.synth.PresetName(), nil
}

func undoCommand(e *env, _ []string) (string, error) {
	e.synth.Update()
	if !e.synth.Presets().Undo() {
		return "nothing to undo", nil
	}
	return "", nil
}

func redoCommand(e *env, _ []string) (string, error) {
	e.synth.Update()
	if !e.synth.Presets().Redo() {
		return "nothing to redo", nil
	}
	return "", nil
}

func randomCommand(e *env, _ []string) (string, error) {
	e.synth.Update()
	e.synth.Presets().Randomise(rand.New(rand.NewSource(time.Now().UnixNano())))
	return "", nil
}

func noteCommand(e *env, args []string) (string, error) {
	note, velocity, err := parseNote(args)
	if err != nil {
		return "", err
	}
	if !e.synth.SendMIDI(0x90, byte(note), byte(velocity)) {
		return "", errors.New("audio loop is not responding")
	}
	return "", nil
}

func offCommand(e *env, args []string) (string, error) {
	note, _, err := parseNote(args[:1])
	if err != nil {
		return "", err
	}
	if !e.synth.SendMIDI(0x80, byte(note), 0) {
		return "", errors.New("audio loop is not responding")
	}
	return "", nil
}

func panicCommand(e *env, _ []string) (string, error) {
	e.synth.AllSoundOff()
	return "", nil
}

func voicesCommand(e *env, _ []string) (string, error) {
	return fmt.Sprintf("%d active, max %d", e.synth.ActiveVoices(), e.synth.MaxNumVoices()), nil
}

func levelCommand(e *env, _ []string) (string, error) {
	l, r := e.levels.load()
	return fmt.Sprintf("L %.1f dB  R %.1f dB", l, r), nil
}

func helpCommand(*env, []string) (string, error) {
	usages := make([]string, len(commands))
	for i, c := range commands {
		usages[i] = c.usage
	}
	return strings.Join(usages, "\n"), nil
}

func quitCommand(*env, []string) (string, error) { return "", errQuit }
