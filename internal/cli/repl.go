package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"

	flag "github.com/spf13/pflag"
)

// ReplCmd returns the repl command.
func ReplCmd(in io.Reader, svc *tsmeta.Service, store *tsmeta.Store, reg *session.Registry, cfg *tsmeta.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Interactive session",
		Long: "Start an interactive session. Loaded models and cached metadata " +
			"persist across commands until the session ends.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			r := &repl{in: in, io: io, svc: svc, store: store, reg: reg, cfg: cfg}

			return r.run(ctx)
		},
	}
}

// repl is one interactive session. It dispatches lines to the same commands
// the top level uses, against shared state, so metadata cached by one line
// is visible to the next.
type repl struct {
	in    io.Reader
	io    *IO
	svc   *tsmeta.Service
	store *tsmeta.Store
	reg   *session.Registry
	cfg   *tsmeta.Config

	line *liner.State   // interactive input; nil when reading from a plain reader
	scan *bufio.Scanner // plain input fallback
}

func (r *repl) run(ctx context.Context) error {
	if r.in == os.Stdin && liner.TerminalSupported() {
		r.line = liner.NewLiner()
		defer r.line.Close()

		r.line.SetCtrlCAborts(true)
		r.line.SetCompleter(r.complete)

		r.loadHistory()
		defer r.saveHistory()
	} else {
		src := r.in
		if src == nil {
			src = strings.NewReader("")
		}

		r.scan = bufio.NewScanner(src)
	}

	r.io.Println("tsinfo session. Type 'help' for commands, 'exit' to leave.")

	for ctx.Err() == nil {
		input, err := r.readLine("tsinfo> ")
		if err != nil {
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if r.line != nil {
			r.line.AppendHistory(input)
		}

		if quit := r.dispatch(ctx, input); quit {
			break
		}
	}

	r.io.Println("Bye!")

	return nil
}

func (r *repl) dispatch(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])

	switch name {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		r.printHelp()

		return false
	}

	// Commands are rebuilt per line: a pflag FlagSet keeps its values
	// across Parse calls, so reusing one would leak flags between lines.
	for _, cmd := range sessionCommands(r.svc, r.store, r.reg, r.cfg, r.chooseHandle) {
		if cmd.Name() == name {
			cmd.Run(ctx, r.io, parts[1:])

			return false
		}
	}

	r.io.Println("unknown command:", name, "(type 'help' for commands)")

	return false
}

func (r *repl) printHelp() {
	r.io.Println("Commands:")

	for _, cmd := range sessionCommands(r.svc, r.store, r.reg, r.cfg, nil) {
		r.io.Println(cmd.HelpLine())
	}

	r.io.Println(fmt.Sprintf("  %-26s %s", "help", "Show this help"))
	r.io.Println(fmt.Sprintf("  %-26s %s", "exit", "Leave the session"))
}

func (r *repl) readLine(prompt string) (string, error) {
	if r.line != nil {
		return r.line.Prompt(prompt)
	}

	r.io.Printf("%s", prompt)

	if !r.scan.Scan() {
		if err := r.scan.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return r.scan.Text(), nil
}

// chooseHandle resolves show without a key when several models are loaded:
// the user picks by number or exact name. Anything else cancels.
func (r *repl) chooseHandle(candidates []string) (string, bool) {
	r.io.Println("loaded models:")

	for i, name := range candidates {
		r.io.Println(fmt.Sprintf("  %d) %s", i+1, name))
	}

	answer, err := r.readLine("model number or name: ")
	if err != nil {
		return "", false
	}

	answer = strings.TrimSpace(answer)

	if n, convErr := strconv.Atoi(answer); convErr == nil {
		if n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}

		return "", false
	}

	for _, name := range candidates {
		if name == answer {
			return name, true
		}
	}

	return "", false
}

// complete offers command names plus known handles and cache keys.
func (r *repl) complete(line string) []string {
	lower := strings.ToLower(line)

	var out []string

	for _, word := range r.completionWords() {
		if strings.HasPrefix(strings.ToLower(word), lower) {
			out = append(out, word)
		}
	}

	return out
}

func (r *repl) completionWords() []string {
	var words []string

	for _, cmd := range sessionCommands(r.svc, r.store, r.reg, r.cfg, nil) {
		words = append(words, cmd.Name())
	}

	words = append(words, "help", "exit")
	words = append(words, r.reg.Names()...)
	words = append(words, r.store.Keys()...)

	return words
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".tsinfo_history")
}

func (r *repl) loadHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = r.line.ReadHistory(f)
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = r.line.WriteHistory(f)
}
