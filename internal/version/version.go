// Package version exposes build metadata for the rowlang interpreter.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// GoVersion is the toolchain that built the binary.
var GoVersion = runtime.Version()

// Info contains the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}
}

// String renders a one-line version banner.
func (i Info) String() string {
	s := fmt.Sprintf("rowlang %s (%s)", i.Version, i.GoVersion)
	if i.GitCommit != "unknown" {
		commit := i.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += " commit " + commit
	}
	if i.BuildDate != "unknown" {
		s += " built " + i.BuildDate
	}
	return s
}
