package cli

import (
	"context"
	"fmt"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// ParseCmd returns the parse command.
func ParseCmd(svc *tsmeta.Service, cfg *tsmeta.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("parse", flag.ContinueOnError),
		Usage: "parse <path-or-glob>",
		Short: "Parse TS files and cache their metadata",
		Long: "Parse every TS file matching a literal path or glob pattern and cache " +
			"each result under the file's basename. Quote the pattern to keep the " +
			"shell from expanding it.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execParse(io, svc, cfg, args)
		},
	}
}

func execParse(io *IO, svc *tsmeta.Service, cfg *tsmeta.Config, args []string) error {
	if len(args) == 0 {
		return tsmeta.ErrPathRequired
	}

	results, err := svc.ParseBatch(args[0])
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.Record == nil {
			io.Warn(
				fmt.Sprintf("%s: %v", res.Path, res.Err),
				"check the file is readable, then re-run parse",
			)

			continue
		}

		if res.Err != nil {
			io.Warn(
				fmt.Sprintf("%s: %v", res.Path, res.Err),
				"metadata may be incomplete; fix the file and re-run parse",
			)
		}

		io.Println("parsed and cached:", res.Path, "->", res.Key)
		io.Println(tsmeta.Render(res.Key, res.Record, renderOpts(cfg)))
	}

	return nil
}
