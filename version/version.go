package version

import "strings"

// Set at build time with -ldflags "-X github.com/drivedesk/DriveDesk/version.Version=...".
var (
	Version     = "0.3.0"
	BuildNumber = ""
	CommitID    = ""
	BuildTime   = ""
)

// String returns the version with the build number appended when present.
func String() string {
	if BuildNumber != "" {
		return Version + "+" + BuildNumber
	}
	return Version
}

// Detail is String plus the commit and build time, for logs and the about box.
func Detail() string {
	var extra []string
	if CommitID != "" {
		commit := CommitID
		if len(commit) > 12 {
			commit = commit[:12]
		}
		extra = append(extra, "commit "+commit)
	}
	if BuildTime != "" {
		extra = append(extra, "built "+BuildTime)
	}
	if len(extra) == 0 {
		return String()
	}
	return String() + " (" + strings.Join(extra, ", ") + ")"
}
