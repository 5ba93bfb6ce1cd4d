package cli

import (
	"context"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// HandlesCmd returns the handles command.
func HandlesCmd(store *tsmeta.Store, reg *session.Registry) *Command {
	return &Command{
		Flags: flag.NewFlagSet("handles", flag.ContinueOnError),
		Usage: "handles",
		Short: "List loaded models and cached metadata keys",
		Long: "List the models registered in this session and every key with cached " +
			"metadata, including keys cached as having none.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execHandles(io, store, reg)
		},
	}
}

func execHandles(io *IO, store *tsmeta.Store, reg *session.Registry) error {
	names := reg.Names()

	if len(names) == 0 {
		io.Println("no models loaded")
	} else {
		io.Println("loaded models:")

		for _, name := range names {
			if path := reg.Path(name); path != "" {
				io.Println("  "+name, "<-", path)
			} else {
				io.Println("  " + name)
			}
		}
	}

	keys := store.Keys()

	if len(keys) == 0 {
		io.Println("no cached metadata")

		return nil
	}

	io.Println("cached metadata keys:")

	for _, key := range keys {
		if rec, _ := store.Lookup(key); rec == nil {
			io.Println("  "+key, "(no metadata)")
		} else {
			io.Println("  " + key)
		}
	}

	return nil
}
