package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/cli"
)

func TestPrintConfigDefaults(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "effective_cwd="+c.Dir)
	cli.AssertContains(t, stdout, "search_dir="+c.Dir)
	cli.AssertContains(t, stdout, "extensions=.txt,.ts")
	cli.AssertContains(t, stdout, "max_header_lines=2000")
	cli.AssertContains(t, stdout, "no_color=false")
	cli.AssertContains(t, stdout, "(defaults only)")
}

func TestPrintConfigShowsFlagOverrides(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("--search-dir", "/srv/ts", "--max-header-lines", "50", "--no-color", "print-config")

	cli.AssertContains(t, stdout, "search_dir=/srv/ts")
	cli.AssertContains(t, stdout, "max_header_lines=50")
	cli.AssertContains(t, stdout, "no_color=true")
	cli.AssertNotContains(t, stdout, "search_dir="+filepath.Join(c.Dir, "examples"))
}

func TestPrintConfigReadsProjectFile(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cfg := "{\n  // local override\n  \"max_header_lines\": 123,\n}\n"

	err := os.WriteFile(filepath.Join(c.Dir, ".tsinfo.json"), []byte(cfg), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "max_header_lines=123")
	cli.AssertContains(t, stdout, "project_config="+filepath.Join(c.Dir, ".tsinfo.json"))
}

func TestPrintConfigReadsGlobalFile(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	xdgDir := t.TempDir()
	cfgDir := filepath.Join(xdgDir, "tsinfo")

	if err := os.MkdirAll(cfgDir, 0o750); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"no_color": true}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c.Env["XDG_CONFIG_HOME"] = xdgDir

	stdout := c.MustRun("print-config")

	cli.AssertContains(t, stdout, "no_color=true")
	cli.AssertContains(t, stdout, "global_config="+cfgPath)
}
