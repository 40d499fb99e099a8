// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty is "true" when the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"
)

// shortCommitLength matches git rev-parse --short.
const shortCommitLength = 7

// stamp is the effective build information after falling back to the
// embedded VCS settings.
type stamp struct {
	commit    string
	dirty     bool
	buildTime string
}

func current() stamp {
	return resolve(GitCommit, GitDirty, BuildTime, readBuildSettings())
}

func readBuildSettings() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	return settings
}

// resolve prefers injected values and fills the unknown ones from the
// toolchain's vcs.revision, vcs.modified and vcs.time settings.
func resolve(commit, dirty, buildTime string, settings map[string]string) stamp {
	result := stamp{commit: commit, dirty: dirty == "true", buildTime: buildTime}
	if commit == "unknown" {
		if revision := settings["vcs.revision"]; revision != "" {
			if len(revision) > shortCommitLength {
				revision = revision[:shortCommitLength]
			}
			result.commit = revision
			result.dirty = settings["vcs.modified"] == "true"
		}
	}
	if buildTime == "unknown" {
		if vcsTime := settings["vcs.time"]; vcsTime != "" {
			result.buildTime = vcsTime
		}
	}
	return result
}

func (s stamp) info() string {
	dirty := ""
	if s.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, s.commit, dirty, s.buildTime)
}

// Info returns the --version line, for example
// "0.1.0-dev (abc1234, 2026-06-01T09:00:00Z)".
func Info() string {
	return current().info()
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Commit returns the effective git commit.
func Commit() string {
	return current().commit
}
