package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

const configFilePerms = 0o600

// configTemplate is JSONC; comments and trailing commas are accepted.
const configTemplate = `{
  // Directories searched for TS files, resolved against the working
  // directory. "~" expands to the home directory.
  "search_dirs": [".", "./examples", "~"],

  // File extensions recognized as TS files.
  "extensions": [".txt", ".ts"],

  // Header lines scanned per file before giving up.
  "max_header_lines": 2000,

  "no_color": false,
}
`

// InitCmd returns the init command.
func InitCmd(cfg *tsmeta.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("init", flag.ContinueOnError),
		Usage: "init",
		Short: "Write a starter config file",
		Long:  "Write a commented " + tsmeta.ConfigFileName + " with the default settings into the working directory.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execInit(io, cfg)
		},
	}
}

var errConfigExists = errors.New("config file already exists")

func execInit(io *IO, cfg *tsmeta.Config) error {
	path := filepath.Join(cfg.EffectiveCwd, tsmeta.ConfigFileName)

	// Check if file already exists
	_, statErr := os.Stat(path)
	if statErr == nil {
		return fmt.Errorf("%w: %s", errConfigExists, path)
	}

	writeErr := atomic.WriteFile(path, strings.NewReader(configTemplate))
	if writeErr != nil {
		return fmt.Errorf("failed to write config file: %w", writeErr)
	}

	// Set file permissions (atomic.WriteFile doesn't set them for new files)
	chmodErr := os.Chmod(path, configFilePerms)
	if chmodErr != nil {
		return fmt.Errorf("failed to set file permissions: %w", chmodErr)
	}

	io.Println("wrote", path)

	return nil
}
