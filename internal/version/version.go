// Package version reports how the cyclenes binary was built.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X cyclenes/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Modified  bool   `json:"modified"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Tags      string `json:"tags"`
}

// Get merges the ldflags values with the VCS settings the Go toolchain
// embeds. ldflags win when both are present.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "-tags":
			info.Tags = s.Value
		}
	}
	return info
}

func (i Info) shortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// String returns the one line form printed by -version.
func (i Info) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "cyclenes %s", i.Version)
	if c := i.shortCommit(); c != "" {
		fmt.Fprintf(&s, " (%s", c)
		if i.Modified {
			s.WriteString("+dirty")
		}
		s.WriteString(")")
	}
	if i.BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, i.BuildTime); err == nil {
			fmt.Fprintf(&s, " built %s", t.UTC().Format("2006-01-02"))
		} else {
			fmt.Fprintf(&s, " built %s", i.BuildTime)
		}
	}
	fmt.Fprintf(&s, " %s %s", i.GoVersion, i.Platform)
	return s.String()
}

// Short returns the version, or dev-<commit> for untagged builds.
func Short() string {
	i := Get()
	if i.Version == "dev" && i.shortCommit() != "" {
		return "dev-" + i.shortCommit()
	}
	return i.Version
}

// Print writes the detailed build report.
func Print(w io.Writer) {
	i := Get()
	fmt.Fprintf(w, "cyclenes - cycle-accurate NES emulator\n")
	fmt.Fprintf(w, "Version:    %s\n", i.Version)
	fmt.Fprintf(w, "Commit:     %s\n", i.Commit)
	fmt.Fprintf(w, "Modified:   %t\n", i.Modified)
	fmt.Fprintf(w, "Build time: %s\n", i.BuildTime)
	fmt.Fprintf(w, "Go:         %s\n", i.GoVersion)
	fmt.Fprintf(w, "Platform:   %s\n", i.Platform)
	if i.Tags != "" {
		fmt.Fprintf(w, "Tags:       %s\n", i.Tags)
	}
}
