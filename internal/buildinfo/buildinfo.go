// Package buildinfo exposes build and VCS metadata for the /info endpoint.
// Values come from -ldflags when set and otherwise from the embedded module
// build info.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/goliatone/go-user-cache/internal/buildinfo.Version=...".
var (
	Version    = ""
	BuildTime  = ""
	Branch     = ""
	CommitID   = ""
	CommitTime = ""
)

// Info is the /info payload.
type Info struct {
	Build Build `json:"build"`
	Git   Git   `json:"git"`
}

type Build struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Time    string `json:"time,omitempty"`
	Profile string `json:"profile"`
}

type Git struct {
	Branch string `json:"branch,omitempty"`
	Commit Commit `json:"commit"`
}

type Commit struct {
	ID   string `json:"id,omitempty"`
	Time string `json:"time,omitempty"`
}

var (
	once    sync.Once
	vcsRev  string
	vcsTime string
	modVer  string
)

func readBuildInfo() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	modVer = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vcsRev = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}
}

// Get assembles the metadata for name running under profile.
func Get(name, profile string) Info {
	once.Do(readBuildInfo)

	info := Info{
		Build: Build{
			Name:    name,
			Version: firstNonEmpty(Version, modVer, "dev"),
			Time:    BuildTime,
			Profile: profile,
		},
		Git: Git{
			Branch: Branch,
			Commit: Commit{
				ID:   shortCommit(firstNonEmpty(CommitID, vcsRev)),
				Time: firstNonEmpty(CommitTime, vcsTime),
			},
		},
	}
	return info
}

func shortCommit(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
