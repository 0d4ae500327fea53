// Package version reports build metadata of the nsisolate binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden at link time with -ldflags "-X github.com/Sumatoshi-tech/nsisolate/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

const shortHashLen = 12

// InitBinaryVersion fills Version and Commit from the embedded module build
// info when they were not set at link time (e.g. after `go install`).
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "<unknown>" {
				Commit = setting.Value
				if len(Commit) > shortHashLen {
					Commit = Commit[:shortHashLen]
				}
			}
		case "vcs.time":
			if Date == "<unknown>" {
				Date = setting.Value
			}
		}
	}
}

// String renders the version line printed by the version command.
func String() string {
	return fmt.Sprintf("nsisolate %s (commit %s, built %s)", Version, Commit, Date)
}
