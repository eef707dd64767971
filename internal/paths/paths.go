package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnvVar overrides the default root when no --root flag is given
	HomeEnvVar = "RECORDBOOK_HOME"
	// DataDirName is the directory under the root holding all state
	DataDirName = ".recordbook"
	// MemoryFilename keeps the database in process
	MemoryFilename = ":memory:"
	// ExamplesFilename is an optional user catalogue of example queries
	ExamplesFilename = "examples.toml"
)

// ResolveRoot picks the root directory.
// Precedence: explicit flag > RECORDBOOK_HOME > user home directory
func ResolveRoot(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(HomeEnvVar); env != "" {
		return filepath.Abs(env)
	}
	return os.UserHomeDir()
}

// GetDataDir returns <root>/.recordbook
func GetDataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// EnsureDataDir creates the data directory if needed and returns its path
func EnsureDataDir(root string) (string, error) {
	dir := GetDataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// IsMemory reports whether filename names an in-process database
func IsMemory(filename string) bool {
	return filename == MemoryFilename || strings.HasPrefix(filename, "file::memory:")
}

// ResolveDatabasePath maps a configured filename to the path handed to the
// engine. In-memory names, URIs and absolute paths pass through; anything
// else lives in the data directory.
func ResolveDatabasePath(root, filename string) string {
	switch {
	case IsMemory(filename), strings.HasPrefix(filename, "file:"), filepath.IsAbs(filename):
		return filename
	default:
		return filepath.Join(GetDataDir(root), filename)
	}
}

// GetLogPath returns the path of the log file named in config
func GetLogPath(root, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(GetDataDir(root), "logs", file)
}

// GetExamplesPath returns the path of the user examples catalogue
func GetExamplesPath(root string) string {
	return filepath.Join(GetDataDir(root), ExamplesFilename)
}
