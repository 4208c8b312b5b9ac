package napkin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mattn/go-shellwords"
	"github.com/mitchellh/go-homedir"
	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Home   string `json:"home,omitempty"`
	Editor string `json:"editor,omitempty"`

	// Resolved (computed, not serialized)
	HomeAbs    string `json:"-"` // Absolute napkin home
	HomeSource string `json:"-"` // flag, config, env or default

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to -c/--config file if given, empty otherwise
}

// Paths returns the file locations under the resolved home.
func (c Config) Paths() Paths {
	return Paths{Home: c.HomeAbs}
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/napkin/config.json if set, otherwise
// ~/.config/napkin/config.json. Returns empty string if no home is known.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "napkin", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "napkin", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDir      string            // base for relative paths; if empty, os.Getwd() is used
	ConfigPath   string            // -c/--config flag value
	HomeOverride string            // --home flag value; empty means no override
	Env          map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/napkin/config.json or $XDG_CONFIG_HOME/napkin/config.json)
// 3. Explicit config file via ConfigPath (if non-empty, must exist)
// 4. CLI overrides.
//
// The napkin home resolves as --home, then config home, then $NAPKIN_HOME,
// then ~/.napkin. A leading ~ is expanded.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	var cfg Config

	globalPath := getGlobalConfigPath(input.Env)
	if globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	if input.ConfigPath != "" {
		explicitPath := absPath(workDir, input.ConfigPath)

		if _, statErr := os.Stat(explicitPath); statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}

		explicitCfg, _, err := loadConfigFile(explicitPath, true)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.Explicit = explicitPath
		cfg = mergeConfig(cfg, explicitCfg)
	}

	home, source, err := resolveHome(input.HomeOverride, cfg.Home, input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.HomeAbs = absPath(workDir, home)
	cfg.HomeSource = source

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HomeAbs, validation.Required, validation.By(absolute)),
		validation.Field(&c.Editor, validation.By(commandLine)),
	)
}

func absolute(value any) error {
	path, _ := value.(string)
	if path != "" && !filepath.IsAbs(path) {
		return errors.New("must be an absolute path")
	}

	return nil
}

func commandLine(value any) error {
	line, _ := value.(string)
	if strings.TrimSpace(line) == "" {
		return nil
	}

	words, err := shellwords.Parse(line)
	if err != nil {
		return fmt.Errorf("cannot be split into words: %w", err)
	}

	if len(words) == 0 {
		return errors.New("names no program")
	}

	return nil
}

func resolveHome(flagHome, configHome string, env map[string]string) (string, string, error) {
	candidates := []struct {
		value  string
		source string
	}{
		{flagHome, "flag"},
		{configHome, "config"},
		{env["NAPKIN_HOME"], "env"},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}

		expanded, err := expandHome(c.value, env)
		if err != nil {
			return "", "", fmt.Errorf("%w: home %q from %s: %w", ErrConfigInvalid, c.value, c.source, err)
		}

		return expanded, c.source, nil
	}

	userHome := env["HOME"]
	if userHome == "" {
		dir, err := homedir.Dir()
		if err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrHomeUnknown, err)
		}

		userHome = dir
	}

	return filepath.Join(userHome, ".napkin"), "default", nil
}

// expandHome expands a leading ~ using $HOME from env when set.
func expandHome(path string, env map[string]string) (string, error) {
	if home := env["HOME"]; home != "" && (path == "~" || strings.HasPrefix(path, "~/")) {
		return filepath.Join(home, path[1:]), nil
	}

	return homedir.Expand(path)
}

func absPath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(workDir, path)
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero config. Returns the config, whether the file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
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
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Home != "" {
		base.Home = overlay.Home
	}

	if overlay.Editor != "" {
		base.Editor = overlay.Editor
	}

	return base
}
