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
)

const buildDateLayout = "2006-01-02"

func BuildVersion() string {
	if version := strings.TrimSpace(Version); version != "" {
		return version
	}

	return "dev"
}

// BuildDateYMD returns the build date as YYYY-MM-DD when it can be parsed,
// or the raw value otherwise.
func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.Format(buildDateLayout)
	}
	if len(raw) >= len(buildDateLayout) {
		if _, err := time.Parse(buildDateLayout, raw[:len(buildDateLayout)]); err == nil {
			return raw[:len(buildDateLayout)]
		}
	}

	return raw
}

// VersionLine is the one-line version banner for CLI output and the about text.
func VersionLine() string {
	line := fmt.Sprintf("%s %s", Name, BuildVersion())
	if date := BuildDateYMD(); date != "" {
		line += fmt.Sprintf(" (%s)", date)
	}

	return line
}
