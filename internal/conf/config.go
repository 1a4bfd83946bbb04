// config.go: settings struct and functions to load and save trajlink configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings holds node identity and pipeline logging configuration.
type MainSettings struct {
	Name string    // name of this trajlink node, stamped into log records
	Log  LogConfig // pipeline log file configuration
}

// InputSettings describes where detection tables are read from.
type InputSettings struct {
	Dir     string // directory containing one detection table per video
	Pattern string // glob pattern matching detection table files
}

// OutputSettings describes where merged results are written.
type OutputSettings struct {
	Dir string // directory for the merged CSV and retained worker logs

	SQLite struct {
		Enabled bool   // true to persist the merged dataset to SQLite
		Path    string // path to the SQLite database file
	}
}

// LinkerSettings configures the external particle-linking tool.
type LinkerSettings struct {
	JavaPath     string        // java executable, resolved from PATH when bare
	JarPath      string        // path to the particle linker jar
	LinkRange    int           // frames bridged across a missed detection
	Displacement float64       // max per-frame displacement in pixels
	Timeout      time.Duration // hard wall-clock cap per invocation
	CopyRuntime  bool          // copy the jar into each workspace for process isolation
}

// PoolSettings governs worker count and memory budgeting.
type PoolSettings struct {
	MemoryMB           int // total memory budget in MB, 0 = discover from system
	WorkerMemoryMB     int // per-worker JVM memory requirement in MB
	MaxWorkers         int // hard cap on concurrent workers
	Cores              int // logical core count, 0 = discover from system
	MinVideosPerWorker int // below this per-worker share, collapse to one worker
}

// KinematicsSettings configures derived metric computation.
type KinematicsSettings struct {
	FrameRate float64 // video frame rate in frames per second
}

// WorkspaceSettings configures per-worker temp directories.
type WorkspaceSettings struct {
	BaseDir string // parent for worker workspaces, empty = os.TempDir()
}

// Settings contains all configuration options for trajlink.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version string `yaml:"-"` // Version from build

	Main       MainSettings
	Input      InputSettings `yaml:"-"` // set from command line, not persisted
	Output     OutputSettings
	Linker     LinkerSettings
	Pool       PoolSettings
	Kinematics KinematicsSettings
	Workspace  WorkspaceSettings
}

// FramePeriod returns the duration of one frame in seconds.
func (s *Settings) FramePeriod() float64 {
	if s.Kinematics.FrameRate <= 0 {
		return 0
	}
	return 1.0 / s.Kinematics.FrameRate
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// Setting returns the current settings instance
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings writes the current settings to the active config file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	if settingsInstance == nil {
		return fmt.Errorf("no settings loaded")
	}

	data, err := yaml.Marshal(settingsInstance)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}

	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		configPath = filepath.Join(configPaths[0], "config.yaml")
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
