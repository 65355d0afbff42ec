package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/Tioit-Wang/fk.todo/internal/core/config"
	"github.com/Tioit-Wang/fk.todo/internal/core/eventbus"
	"github.com/Tioit-Wang/fk.todo/internal/mustdo"
	"github.com/Tioit-Wang/fk.todo/internal/storage/jsonfile"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Service orchestrates all task, project, and settings operations
	Service *mustdo.Service

	// Storage is the durable document store backing the service
	Storage *jsonfile.Storage

	// Bus carries reminder and state-change events
	Bus *eventbus.EventBus
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "mustdo", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "mustdo")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/mustdo/mustdo.log
// On Linux: $XDG_STATE_HOME/mustdo/mustdo.log (defaults to ~/.local/state/mustdo/mustdo.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "mustdo", "mustdo.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "mustdo", "mustdo.log")
	}

	return filepath.Join(home, ".local", "state", "mustdo", "mustdo.log")
}
