// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X at release time. Development builds fall back to
// the VCS stamp the Go toolchain embeds.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// Details is the build description reported by "taiga version".
type Details struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildTime string `json:"build_time"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

// Get returns the build description.
func Get() Details {
	details := Details{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if details.Commit == "" || details.BuildTime == "" {
		fillFromBuildInfo(&details)
	}
	if details.Commit == "" {
		details.Commit = "unknown"
	}
	if details.BuildTime == "" {
		details.BuildTime = "unknown"
	}
	return details
}

func fillFromBuildInfo(details *Details) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if details.Commit == "" && len(setting.Value) >= 7 {
				details.Commit = setting.Value[:7]
			}
		case "vcs.time":
			if details.BuildTime == "" {
				details.BuildTime = setting.Value
			}
		case "vcs.modified":
			if GitDirty == "" {
				details.Dirty = setting.Value == "true"
			}
		}
	}
}

// Info formats the version as "0.1.0-dev (abc1234, 2026-...)".
func Info() string {
	details := Get()
	dirty := ""
	if details.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", details.Version, details.Commit, dirty, details.BuildTime)
}

// Full adds the Go version and platform to Info.
func Full() string {
	details := Get()
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", Info(), details.Go, details.Platform)
}

// UserAgent is the User-Agent header sent to Taiga.
func UserAgent() string {
	return "taiga-cli/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
