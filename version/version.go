// Package version reports the version of the build, from the linker flags or
// the VCS information embedded by the go command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version can be set at build time using something like:
// go build -ldflags "-X github.com/amsynth/amsynth-sub001/version.Version=$(git describe --dirty)"
var Version string

// Build describes the running binary.
type Build struct {
	Version   string // from the linker flags, may be empty
	Revision  string // short VCS revision
	Modified  bool   // built from a dirty work tree
	Time      string // VCS commit time
	GoVersion string
	Platform  string
}

// Current is the build of the running binary.
var Current = readBuild()

func readBuild() Build {
	b := Build{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Revision = setting.Value[:min(7, len(setting.Value))]
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		case "vcs.time":
			b.Time = setting.Value
		}
	}
	return b
}

// Short returns the version, or the revision with a -dirty suffix for
// modified trees.
func (b Build) Short() string {
	if b.Version != "" {
		return b.Version
	}
	if b.Revision != "" && b.Modified {
		return b.Revision + "-dirty"
	}
	return b.Revision
}

// String is the one line shown by the commands, e.g.
// "amsynth v1.2.0 (abc1234, 2024-05-01T10:00:00Z, go1.24.0 linux/amd64)".
func (b Build) String() string {
	name := "amsynth"
	if s := b.Short(); s != "" {
		name += " " + s
	}
	var details []string
	if b.Version != "" && b.Revision != "" {
		details = append(details, b.Revision)
	}
	for _, d := range []string{b.Time, strings.TrimSpace(b.GoVersion + " " + b.Platform)} {
		if d != "" {
			details = append(details, d)
		}
	}
	if len(details) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(details, ", "))
}
