// conf/utils.go shared helpers for configuration handling
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/trajlink/trajlink-go/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the default config paths for the current operating system.
// The first returned path is where a generated default config is written.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "trajlink"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "trajlink"),
			exeDir,
			".",
		}
	}

	return configPaths, nil
}

// GetBasePath expands a possibly relative directory against the working directory
// and ensures it exists.
func GetBasePath(path string) string {
	if path == "" {
		path = "."
	}
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path)
		}
	}
	_ = os.MkdirAll(path, 0o755)
	return path
}
