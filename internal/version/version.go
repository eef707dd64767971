// Package version holds build information for recordbook.
package version

import "runtime/debug"

// Overridden at build time:
// go build -ldflags "-X recordbook/internal/version.Version=1.0.0 -X recordbook/internal/version.Commit=abc123"
var (
	// Version is the semantic version of recordbook
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information including the engine driver
func Full() string {
	return "recordbook version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Engine: modernc.org/sqlite " + DriverVersion()
}

// DriverVersion reports the linked modernc.org/sqlite module version, or
// "unknown" when build info is unavailable (e.g. in some test binaries).
func DriverVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == "modernc.org/sqlite" {
			return dep.Version
		}
	}
	return "unknown"
}
