package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// HandleChooser selects one handle from candidates. The bool reports
// whether a selection was made. The repl supplies an interactive chooser;
// one-shot runs have none and abort instead.
type HandleChooser func(candidates []string) (string, bool)

// ShowCmd returns the show command.
func ShowCmd(svc *tsmeta.Service, reg *session.Registry, cfg *tsmeta.Config, choose HandleChooser) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.String("ts", "", "TS file to parse when the key has no cached metadata")

	return &Command{
		Flags: fs,
		Usage: "show [key] [flags]",
		Short: "Show TS metadata for a key or loaded model",
		Long: "Show cached TS metadata for a key. On a cache miss the TS file is " +
			"located in the configured search directories, or taken from --ts when " +
			"given. Without a key the sole loaded model is used.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execShow(io, svc, reg, cfg, fs, args, choose)
		},
	}
}

var (
	errNoModels     = errors.New("no models loaded; pass a key or load a model first")
	errManyModels   = errors.New("several models loaded; pass a key")
	errNoneSelected = errors.New("no model selected")
)

func execShow(io *IO, svc *tsmeta.Service, reg *session.Registry, cfg *tsmeta.Config, fs *flag.FlagSet, args []string, choose HandleChooser) error {
	explicitTS, _ := fs.GetString("ts")

	var key string

	if len(args) > 0 {
		key = args[0]
	} else {
		selected, err := selectHandle(io, reg, choose)
		if err != nil {
			return err
		}

		key = selected
	}

	res, err := svc.Show(key, explicitTS)
	if err != nil {
		if errors.Is(err, tsmeta.ErrNoCandidates) {
			printDiscoveryHelp(io, key)
		}

		return err
	}

	if res.Source != "" {
		io.Println("parsed and cached:", res.Source, "->", res.Key)
	}

	io.Println(tsmeta.Render(res.Key, res.Record, renderOpts(cfg)))

	return nil
}

// selectHandle picks the model to show when no key was given: the sole
// loaded model wins outright, several delegate to the chooser.
func selectHandle(io *IO, reg *session.Registry, choose HandleChooser) (string, error) {
	names := reg.Names()

	switch len(names) {
	case 0:
		return "", errNoModels
	case 1:
		io.Println("one model loaded, using:", names[0])

		return names[0], nil
	}

	if choose == nil {
		io.ErrPrintln("loaded models:")

		for i, name := range names {
			io.ErrPrintln(fmt.Sprintf("  %d) %s", i+1, name))
		}

		return "", errManyModels
	}

	name, ok := choose(names)
	if !ok {
		return "", errNoneSelected
	}

	return name, nil
}

func printDiscoveryHelp(io *IO, key string) {
	io.ErrPrintln(fmt.Sprintf("no cached metadata for %q and no TS file was found automatically.", key))
	io.ErrPrintln("options:")
	io.ErrPrintln("  1) tsinfo parse <path>    cache the TS file under its basename")
	io.ErrPrintln("  2) tsinfo show", key, "--ts <path>")
}
