package testutils

import (
	"os"
	"path/filepath"
)

// SetRoot changes the working directory to the module root, the nearest
// ancestor holding go.mod, and returns that directory.
func SetRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("module root not found")
		}
		dir = parent
	}
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	return dir
}
