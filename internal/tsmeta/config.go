package tsmeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsfile"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	SearchDirs     []string `json:"search_dirs"`
	Extensions     []string `json:"extensions"`
	MaxHeaderLines int      `json:"max_header_lines"`
	NoColor        bool     `json:"no_color"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd  string   `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	SearchDirsAbs []string `json:"-"` // Search dirs with ~ expanded, resolved against EffectiveCwd

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// fileConfig is the raw shape read from a config file. The no_color
// pointer distinguishes "absent" from "explicitly false" during merging.
type fileConfig struct {
	SearchDirs     []string `json:"search_dirs"`
	Extensions     []string `json:"extensions"`
	MaxHeaderLines int      `json:"max_header_lines"`
	NoColor        *bool    `json:"no_color"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SearchDirs:     []string{".", "./examples", "~"},
		Extensions:     []string{".txt", ".ts"},
		MaxHeaderLines: tsfile.DefaultMaxHeaderLines,
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = ".tsinfo.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/tsinfo/config.json if set, otherwise
// ~/.config/tsinfo/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "tsinfo", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tsinfo", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride        string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath             string            // -c/--config flag value
	SearchDirsOverride     []string          // --search-dir flag values; nil means no override
	MaxHeaderLinesOverride int               // --max-header-lines flag value; 0 means no override
	NoColorOverride        bool              // --no-color flag
	Env                    map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/tsinfo/config.json or $XDG_CONFIG_HOME/tsinfo/config.json)
// 3. Project config file at default location (.tsinfo.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// Extensions are normalized to lowercase with a leading dot, and search
// directories are resolved to absolute paths in SearchDirsAbs.
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

	// Apply CLI overrides
	if len(input.SearchDirsOverride) > 0 {
		cfg.SearchDirs = input.SearchDirsOverride
	}

	if input.MaxHeaderLinesOverride != 0 {
		cfg.MaxHeaderLines = input.MaxHeaderLinesOverride
	}

	if input.NoColorOverride {
		cfg.NoColor = true
	}

	cfg.Extensions = normalizeExtensions(cfg.Extensions)

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, validateErr
	}

	// Resolve all paths to absolute
	cfg.EffectiveCwd = workDir

	cfg.SearchDirsAbs = make([]string, 0, len(cfg.SearchDirs))

	for _, dir := range cfg.SearchDirs {
		expanded := session.ExpandUser(dir)
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(workDir, expanded)
		}

		cfg.SearchDirsAbs = append(cfg.SearchDirsAbs, expanded)
	}

	return cfg, nil
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(env map[string]string) (fileConfig, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return fileConfig{}, "", nil
	}

	globalCfg, invalid, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return fileConfig{}, "", err
	}

	if !loaded {
		return fileConfig{}, "", nil
	}

	if fieldErr := checkInvalidFields(invalid, globalCfgPath); fieldErr != nil {
		return fileConfig{}, "", fieldErr
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.tsinfo.json) or an
// explicit config file. Returns the config, the path if loaded, and any
// error.
func loadProjectConfig(workDir, configPath string) (fileConfig, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		// Explicit config file - must exist
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		// Check existence first to provide a clear "not found" error
		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return fileConfig{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		// Default project config file - optional
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, invalid, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return fileConfig{}, "", err
	}

	if !loaded {
		return fileConfig{}, "", nil
	}

	if fieldErr := checkInvalidFields(invalid, cfgFile); fieldErr != nil {
		return fileConfig{}, "", fieldErr
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, a map of fields explicitly set
// to unusable values, whether the file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (fileConfig, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return fileConfig{}, nil, false, nil
		}

		if mustExist {
			return fileConfig{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return fileConfig{}, nil, false, nil
	}

	cfg, invalid, parseErr := parseConfig(data)
	if parseErr != nil {
		return fileConfig{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, invalid, true, nil
}

func parseConfig(data []byte) (fileConfig, map[string]bool, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg fileConfig

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return fileConfig{}, nil, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// Check which fields were explicitly set to unusable values
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	invalid := make(map[string]bool)

	if val, exists := raw["search_dirs"]; exists {
		if list, ok := val.([]any); ok && len(list) == 0 {
			invalid["search_dirs"] = true
		}
	}

	if val, exists := raw["extensions"]; exists {
		if list, ok := val.([]any); ok && len(list) == 0 {
			invalid["extensions"] = true
		}
	}

	if val, exists := raw["max_header_lines"]; exists {
		if num, ok := val.(float64); ok && num < 1 {
			invalid["max_header_lines"] = true
		}
	}

	return cfg, invalid, nil
}

func checkInvalidFields(invalid map[string]bool, path string) error {
	switch {
	case invalid["search_dirs"]:
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrSearchDirsEmpty)
	case invalid["extensions"]:
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrExtensionsEmpty)
	case invalid["max_header_lines"]:
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrHeaderLinesInvalid)
	}

	return nil
}

func mergeConfig(base Config, overlay fileConfig) Config {
	if len(overlay.SearchDirs) > 0 {
		base.SearchDirs = overlay.SearchDirs
	}

	if len(overlay.Extensions) > 0 {
		base.Extensions = overlay.Extensions
	}

	if overlay.MaxHeaderLines > 0 {
		base.MaxHeaderLines = overlay.MaxHeaderLines
	}

	if overlay.NoColor != nil {
		base.NoColor = *overlay.NoColor
	}

	return base
}

// normalizeExtensions lowercases extensions and guarantees the leading
// dot, so matching stays a plain suffix comparison.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))

	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		out = append(out, ext)
	}

	return out
}

func validateConfig(cfg Config) error {
	if len(cfg.SearchDirs) == 0 {
		return ErrSearchDirsEmpty
	}

	if len(cfg.Extensions) == 0 {
		return ErrExtensionsEmpty
	}

	if cfg.MaxHeaderLines < 1 {
		return ErrHeaderLinesInvalid
	}

	return nil
}
