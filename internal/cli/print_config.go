package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *tsmeta.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg *tsmeta.Config) error {
	io.Println("effective_cwd=" + cfg.EffectiveCwd)

	for _, dir := range cfg.SearchDirsAbs {
		io.Println("search_dir=" + dir)
	}

	io.Println("extensions=" + strings.Join(cfg.Extensions, ","))
	io.Println(fmt.Sprintf("max_header_lines=%d", cfg.MaxHeaderLines))
	io.Println(fmt.Sprintf("no_color=%v", cfg.NoColor))

	io.Println("")
	io.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
