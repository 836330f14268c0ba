// Package version exposes build metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/jmylchreest/kindred-api/internal/version.Version=1.2.0 ..."
//
// When no ldflags are provided (plain `go run`), the commit falls back to
// vcs information embedded by the Go toolchain.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set via ldflags at build time.
var (
	Version = "0.0.0-dev"
	Commit  = ""
	Date    = ""
	Dirty   = "false"
)

// Info is the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get resolves the build metadata, preferring ldflags values and falling
// back to embedded vcs settings.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		Dirty:     Dirty == "true",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			case "vcs.modified":
				if Dirty == "false" {
					info.Dirty = s.Value == "true"
				}
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// Short returns just the version, suffixed when the tree was dirty.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}
