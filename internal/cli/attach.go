// Package cli implements the command-line interface for tsinfo.
package cli

import (
	"context"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// AttachCmd returns the attach command.
func AttachCmd(svc *tsmeta.Service, cfg *tsmeta.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("attach", flag.ContinueOnError),
		Usage: "attach <ts-file> <key>",
		Short: "Parse a TS file and cache it under a key",
		Long: "Parse the given TS file and cache its metadata under <key>. A key naming " +
			"a loaded model (exactly or as a unique substring) caches under that " +
			"model's handle. A key matching several models is an error; nothing is cached.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execAttach(io, svc, cfg, args)
		},
	}
}

func execAttach(io *IO, svc *tsmeta.Service, cfg *tsmeta.Config, args []string) error {
	if len(args) == 0 {
		return tsmeta.ErrPathRequired
	}

	if len(args) < 2 {
		return tsmeta.ErrKeyRequired
	}

	res, err := svc.Attach(args[0], args[1])
	if err != nil {
		return err
	}

	io.Println("attached TS metadata under key:", res.Key)
	io.Println(tsmeta.Render(res.Key, res.Record, renderOpts(cfg)))

	return nil
}

func renderOpts(cfg *tsmeta.Config) *tsmeta.RenderOptions {
	return &tsmeta.RenderOptions{NoColor: cfg.NoColor}
}
