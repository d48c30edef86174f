// Package config loads habitsync settings from layered JSONC files, the
// environment and command line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	UserID          string `json:"user_id,omitempty"`
	APIKey          string `json:"api_key,omitempty"`
	BaseURL         string `json:"base_url,omitempty"`
	NoteDir         string `json:"note_dir,omitempty"`
	NotePrefix      string `json:"note_prefix,omitempty"`
	NoteExtension   string `json:"note_extension,omitempty"`
	DataDir         string `json:"data_dir,omitempty"`
	TaskCommand     string `json:"task_command,omitempty"`
	RequestInterval string `json:"request_interval,omitempty"`
	Editor          string `json:"editor,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string        `json:"-"`
	NoteDirAbs   string        `json:"-"`
	DataDirAbs   string        `json:"-"`
	Interval     time.Duration `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks where configuration values came from.
type Sources struct {
	Global      string // Path to global config if loaded, empty otherwise
	Project     string // Path to project config if loaded, empty otherwise
	Credentials string // "file", "env" or "taskrc" once credentials are known
}

// Environment variables that override file credentials.
const (
	EnvUserID = "HABITICA_USER_ID"
	EnvAPIKey = "HABITICA_API_KEY"
)

// Task manager rc keys consulted when no other credential source is set.
const (
	RCUserID = "rc.habitica.user_id"
	RCAPIKey = "rc.habitica.api_key"
)

// ConfigFileName is the project config file name.
const ConfigFileName = ".habitsync.json"

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://habitica.com/api",
		NoteDir:         "~/.task/notes",
		NotePrefix:      "[tasknote]",
		NoteExtension:   ".txt",
		DataDir:         "~/.task",
		TaskCommand:     "task",
		RequestInterval: "1s",
	}
}

// GlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/habitsync/config.json if set, otherwise
// ~/.config/habitsync/config.json. Returns empty string if home directory
// cannot be determined.
func GlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "habitsync", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "habitsync", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	DataDirOverride string            // --data-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/habitsync/config.json or $XDG_CONFIG_HOME/habitsync/config.json)
// 3. Project config file at default location (.habitsync.json, if exists)
// 4. Explicit config file via configPath (if non-empty)
// 5. Environment credentials
// 6. CLI overrides.
//
// Credentials are not required here; see [Config.RequireCredentials].
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if cfg.UserID != "" || cfg.APIKey != "" {
		cfg.Sources.Credentials = "file"
	}

	if v := input.Env[EnvUserID]; v != "" {
		cfg.UserID = v
		cfg.Sources.Credentials = "env"
	}

	if v := input.Env[EnvAPIKey]; v != "" {
		cfg.APIKey = v
		cfg.Sources.Credentials = "env"
	}

	if input.DataDirOverride != "" {
		cfg.DataDir = input.DataDirOverride
	}

	cfg.Interval, err = parseInterval(cfg.RequestInterval)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.NoteDirAbs = resolvePath(cfg.NoteDir, workDir, input.Env["HOME"])
	cfg.DataDirAbs = resolvePath(cfg.DataDir, workDir, input.Env["HOME"])

	return cfg, nil
}

// RCLookup returns a task manager rc value, e.g. for "rc.habitica.user_id".
type RCLookup func(key string) (string, error)

// RequireCredentials fills missing credentials from the task manager rc and
// fails with [ErrCredentialsMissing] if either is still empty. Lookup errors
// leave the value empty. A nil lookup skips the rc fallback.
func (c *Config) RequireCredentials(lookup RCLookup) error {
	if lookup != nil && (c.UserID == "" || c.APIKey == "") {
		fromRC := false

		if c.UserID == "" {
			if v, err := lookup(RCUserID); err == nil && v != "" {
				c.UserID = v
				fromRC = true
			}
		}

		if c.APIKey == "" {
			if v, err := lookup(RCAPIKey); err == nil && v != "" {
				c.APIKey = v
				fromRC = true
			}
		}

		if fromRC {
			c.Sources.Credentials = "taskrc"
		}
	}

	if strings.TrimSpace(c.UserID) == "" || strings.TrimSpace(c.APIKey) == "" {
		return ErrCredentialsMissing
	}

	return nil
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(env map[string]string) (Config, string, error) {
	globalCfgPath := GlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.habitsync.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist || !os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// An empty prefix would claim every annotation as a note mirror.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["note_prefix"]; exists {
		if str, ok := val.(string); ok && strings.TrimSpace(str) == "" {
			return Config{}, ErrNotePrefixEmpty
		}
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&base.UserID, overlay.UserID},
		{&base.APIKey, overlay.APIKey},
		{&base.BaseURL, overlay.BaseURL},
		{&base.NoteDir, overlay.NoteDir},
		{&base.NotePrefix, overlay.NotePrefix},
		{&base.NoteExtension, overlay.NoteExtension},
		{&base.DataDir, overlay.DataDir},
		{&base.TaskCommand, overlay.TaskCommand},
		{&base.RequestInterval, overlay.RequestInterval},
		{&base.Editor, overlay.Editor},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	return base
}

func parseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrRequestInterval, s, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%w %q: must not be negative", ErrRequestInterval, s)
	}

	return d, nil
}

// resolvePath expands a leading ~ with home and makes relative paths
// absolute against workDir.
func resolvePath(path, workDir, home string) string {
	if home != "" {
		switch {
		case path == "~":
			path = home
		case strings.HasPrefix(path, "~/"):
			path = filepath.Join(home, path[2:])
		}
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(workDir, path)
}
