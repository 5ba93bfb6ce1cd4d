package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
//
// The metadata cache and the model registry are created here and shared by
// every command of the invocation. One-shot commands use them for a single
// operation; the repl command keeps them alive across many.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	// Parse global flags
	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	// Load and validate config
	cfg, err := tsmeta.LoadConfig(tsmeta.LoadConfigInput{
		WorkDirOverride:        flags.workDir,
		ConfigPath:             flags.configPath,
		SearchDirsOverride:     flags.searchDirs,
		MaxHeaderLinesOverride: flags.maxHeaderLines,
		NoColorOverride:        flags.noColor,
		Env:                    env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	name := flags.remaining[0]

	// Handle help flags
	if name == "-h" || name == helpFlag {
		printUsage(out)

		return 0
	}

	ctx := context.Background()

	if sigCh != nil {
		var cancel context.CancelFunc

		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	log := newLogger(errOut, flags.verbose)
	defer func() { _ = log.Sync() }()

	store := tsmeta.NewStore()
	reg := session.NewRegistry(session.WithBaseDir(cfg.EffectiveCwd))
	svc := tsmeta.NewService(store, reg, cfg, tsmeta.WithLogger(log))

	ioCtx := NewIO(out, errOut)

	var cmd *Command

	for _, c := range commands(in, svc, store, reg, &cfg) {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut)

		return 1
	}

	code := cmd.Run(ctx, ioCtx, flags.remaining[1:])

	// Finish handles warnings and exit code
	fin := ioCtx.Finish()
	if code != 0 {
		return code
	}

	return fin
}

// sessionCommands returns the commands available both at the top level and
// inside a repl session. The chooser handles interactive handle selection
// for show without a key; nil means list and abort.
func sessionCommands(svc *tsmeta.Service, store *tsmeta.Store, reg *session.Registry, cfg *tsmeta.Config, choose HandleChooser) []*Command {
	return []*Command{
		ParseCmd(svc, cfg),
		ShowCmd(svc, reg, cfg, choose),
		AttachCmd(svc, cfg),
		LoadCmd(svc, cfg),
		HandlesCmd(store, reg),
		PrintConfigCmd(cfg),
	}
}

func commands(in io.Reader, svc *tsmeta.Service, store *tsmeta.Store, reg *session.Registry, cfg *tsmeta.Config) []*Command {
	cmds := sessionCommands(svc, store, reg, cfg, nil)

	return append(cmds, InitCmd(cfg), ReplCmd(in, svc, store, reg, cfg))
}

type globalFlags struct {
	workDir        string
	configPath     string
	searchDirs     []string
	maxHeaderLines int
	noColor        bool
	verbose        bool
	remaining      []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", tsmeta.ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --search-dir flag (repeatable)
	if arg == "--search-dir" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", tsmeta.ErrFlagRequiresArg, arg)
		}

		flags.searchDirs = append(flags.searchDirs, args[idx+1])

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--search-dir="); ok {
		flags.searchDirs = append(flags.searchDirs, after)

		return consumedOne, nil
	}

	// --max-header-lines flag
	if arg == "--max-header-lines" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", tsmeta.ErrFlagRequiresArg, arg)
		}

		n, err := parseHeaderLines(args[idx+1])
		if err != nil {
			return consumedNone, err
		}

		flags.maxHeaderLines = n

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--max-header-lines="); ok {
		n, err := parseHeaderLines(after)
		if err != nil {
			return consumedNone, err
		}

		flags.maxHeaderLines = n

		return consumedOne, nil
	}

	// --no-color flag
	if arg == "--no-color" {
		flags.noColor = true

		return consumedOne, nil
	}

	// -v/--verbose flag
	if arg == "-v" || arg == "--verbose" {
		flags.verbose = true

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", tsmeta.ErrUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func parseHeaderLines(val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s", tsmeta.ErrHeaderLinesInvalid, val)
	}

	return n, nil
}

// newLogger builds the run logger. Quiet by default; -v enables debug
// output on stderr.
func newLogger(errOut io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(errOut),
		zap.DebugLevel,
	)

	return zap.New(core)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer) {
	fprintln(writer, `tsinfo - TS model metadata inspector

Usage: tsinfo [options] <command> [args]

Options:
  -C, --cwd <dir>             Run as if started in <dir>
  -c, --config <file>         Use specified config file
      --search-dir <dir>      Search directory for TS files (repeatable)
      --max-header-lines <n>  Cap on header lines scanned per file
      --no-color              Disable colored output
  -v, --verbose               Debug logging to stderr

Commands:`)

	for _, c := range commands(nil, nil, nil, nil, nil) {
		fprintln(writer, c.HelpLine())
	}
}
