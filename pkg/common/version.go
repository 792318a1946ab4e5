package common

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	// Version is set at build time with -ldflags
	Version = "dev"
	// CommitHash is set at build time with -ldflags
	CommitHash = "unknown"
	// BuildTime is set at build time with -ldflags
	BuildTime = "unknown"
)

// ProgramVersion is the version object of the program
type ProgramVersion struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
}

// CurrentVersion returns the version of the running binary
func CurrentVersion() ProgramVersion {
	return ProgramVersion{
		Name:       "index-crawler",
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
	}
}

// Short returns the short version of the program
func (v ProgramVersion) Short() string {
	return fmt.Sprintf("%s %s (%s)", v.Name, v.Version, v.CommitHash)
}

// String returns the verbose version of the program
func (v ProgramVersion) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", v.Name, v.Version)
	fmt.Fprintf(&b, "Commit: %s\n", v.CommitHash)
	fmt.Fprintf(&b, "Build Date: %s\n", v.BuildTime)
	fmt.Fprintf(&b, "Go: %s", v.GoVersion)
	return b.String()
}
