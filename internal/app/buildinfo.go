package app

import (
	"fmt"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
	// Commit is filled by ldflags in release builds.
	Commit = ""
)

const shortCommitLen = 7

func BuildVersion() string {
	if version := strings.TrimSpace(Version); version != "" {
		return version
	}

	return "dev"
}

// BuildDateYMD reduces BuildDate to YYYY-MM-DD when it can be parsed and
// returns it unchanged otherwise.
func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC().Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)]); err == nil {
			return raw[:len(time.DateOnly)]
		}
	}

	return raw
}

func BuildCommitShort() string {
	commit := strings.TrimSpace(Commit)
	if len(commit) > shortCommitLen {
		return commit[:shortCommitLen]
	}

	return commit
}

// BuildVersionWithDate renders "1.2.3 (2026-01-30, abc1234)", dropping the
// parts that are not known.
func BuildVersionWithDate() string {
	var extra []string
	if date := BuildDateYMD(); date != "" {
		extra = append(extra, date)
	}
	if commit := BuildCommitShort(); commit != "" {
		extra = append(extra, commit)
	}
	if len(extra) == 0 {
		return BuildVersion()
	}

	return fmt.Sprintf("%s (%s)", BuildVersion(), strings.Join(extra, ", "))
}
