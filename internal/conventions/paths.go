package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default emailgen data directory name (relative to home).
	DefaultDataDir = ".emailgen"
	// DBFile is the SQLite database filename holding the recovery records.
	DBFile = "emailgen.db"

	// DefaultBackendURL is the generation service used when none is configured.
	DefaultBackendURL = "http://localhost:8080"
)

// DBPath returns the path of the SQLite database inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}
