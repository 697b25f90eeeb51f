// Package app provides the core application structure for the fractalcalc
// CLI: configuration loading, mode dispatch, run lifecycle and version
// reporting.
package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables set via -ldflags.
// These are populated during builds to provide version information.
//
// Example build command:
//
//	go build -ldflags="-X github.com/agbru/fractalcalc/internal/app.Version=v1.2.3 -X github.com/agbru/fractalcalc/internal/app.Commit=abc123 -X github.com/agbru/fractalcalc/internal/app.BuildDate=2025-01-01T00:00:00Z"
var (
	// Version is the semantic version of the application (e.g., "v1.0.0").
	Version = "dev"
	// Commit is the short Git commit hash (e.g., "abc123").
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build (e.g., "2025-01-01T00:00:00Z").
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args ask for the version, in any position
// before a "--" terminator (e.g. "fractalcalc -server -version").
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// PrintVersion writes the build information reported by GetVersionInfo.
func PrintVersion(out io.Writer) {
	v := GetVersionInfo()
	fmt.Fprintf(out, "fractalcalc %s\n", v.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", v.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", v.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", v.OS, v.Arch)
}

// VersionData is the version information in JSON-friendly form.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the current version information as a struct.
//
// Returns:
//   - VersionData: The version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
