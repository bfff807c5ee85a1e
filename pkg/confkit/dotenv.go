package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// dotenvSearchDepth bounds how many parent directories are searched for .env.
const dotenvSearchDepth = 6

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the process environment the first
// time it is called. Variables already set win unless DOTENV_OVERLOAD=1.
//
//	STOCKLENS_ENV_FILE=path   load exactly this file
//	STOCKLENS_NO_DOTENV=1     skip loading entirely
//
// Otherwise the working directory and its parents are searched up to the
// module root (a directory holding go.mod).
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("STOCKLENS_NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}
	if envFile := os.Getenv("STOCKLENS_ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	wd, err := os.Getwd()
	if err != nil {
		_ = load()
		return
	}
	if path, ok := findDotenv(wd); ok {
		_ = load(path)
	}
}

// findDotenv returns the nearest .env at or above dir, stopping at the module root.
func findDotenv(dir string) (string, bool) {
	for i := 0; i < dotenvSearchDepth; i++ {
		candidate := filepath.Join(dir, ".env")
		if isFile(candidate) {
			return candidate, true
		}
		if isFile(filepath.Join(dir, "go.mod")) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
