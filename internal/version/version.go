package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Release builds inject both values through ldflags:
//
//	go build -ldflags="-X github.com/ziima/recuair-cli/internal/version.Version=v1.2.3 \
//	                   -X github.com/ziima/recuair-cli/internal/version.Commit=abc123"
//
// Anything built without them (go install, go run) falls back to the
// VCS stamp Go embeds in the binary, and finally to a dev placeholder.
var (
	// Version is the semantic version of the release
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo()
	}

	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populateFromBuildInfo fills the gaps from the VCS settings Go embeds
// when the binary was built inside a git checkout.
func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var vcsRevision, vcsModified, vcsTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && vcsRevision != "" {
		// Short hash, suffixed when the tree had local edits
		if len(vcsRevision) > 7 {
			Commit = vcsRevision[:7]
		} else {
			Commit = vcsRevision
		}
		if vcsModified == "true" {
			Commit += "-dirty"
		}
	}

	// Build info has no tag, so a dev build is dated by its commit time.
	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies this tool to the unit's web server, version
// included, so request logs can tell CLI traffic from browser traffic.
func UserAgent() string {
	return fmt.Sprintf("recuair-cli/%s", Version)
}
