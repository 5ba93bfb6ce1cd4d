package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// LoadCmd returns the load command.
func LoadCmd(svc *tsmeta.Service, cfg *tsmeta.Config) *Command {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	fs.String("ts", "", "TS file to parse instead of searching next to the model")

	return &Command{
		Flags: fs,
		Usage: "load <model> [flags]",
		Short: "Register a model and cache its TS metadata",
		Long: "Register a model file under its basename and parse the TS file found " +
			"next to it (or given via --ts). An identifier naming an already " +
			"registered model reuses that handle. Finding no TS file is recorded " +
			"too, so show reports the absence without searching again.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execLoad(io, svc, cfg, fs, args)
		},
	}
}

var errModelRequired = errors.New("model path or name is required")

func execLoad(io *IO, svc *tsmeta.Service, cfg *tsmeta.Config, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errModelRequired
	}

	explicitTS, _ := fs.GetString("ts")

	res, err := svc.Load(args[0], explicitTS)
	if err != nil {
		return err
	}

	if res.IgnoredExplicit != "" {
		io.Warn(
			fmt.Sprintf("provided TS path not found: %s", res.IgnoredExplicit),
			"searched next to the model instead; pass an existing --ts to override",
		)
	}

	if res.AlreadyOpen {
		io.Println("model already loaded:", res.Handle)
	} else {
		io.Println("loaded model:", res.Handle, "<-", res.ModelPath)
	}

	if res.TSPath != "" {
		io.Println("TS used:", res.TSPath)
	} else {
		io.Println("no TS file found for:", res.Handle)
	}

	io.Println(tsmeta.Render(res.Handle, res.Record, renderOpts(cfg)))

	return nil
}
