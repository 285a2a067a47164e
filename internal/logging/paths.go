package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.unidocs/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".unidocs", "logs")
	}
	return filepath.Join(home, ".unidocs", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// EnsureLogDir creates the directory for the given log path if it doesn't exist.
func EnsureLogDir(logPath string) error {
	if logPath == "" {
		logPath = DefaultLogPath()
	}
	return os.MkdirAll(filepath.Dir(logPath), 0o755)
}
