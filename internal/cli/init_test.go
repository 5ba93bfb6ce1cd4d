package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/cli"
)

func TestInitWritesLoadableConfig(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("init")

	cli.AssertContains(t, stdout, "wrote")
	cli.AssertContains(t, stdout, ".tsinfo.json")

	content, err := os.ReadFile(filepath.Join(c.Dir, ".tsinfo.json"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	cli.AssertContains(t, string(content), "search_dirs")
	cli.AssertContains(t, string(content), "max_header_lines")

	// The JSONC template must load cleanly, comments and all.
	resolved := c.MustRun("print-config")
	cli.AssertContains(t, resolved, "project_config=")
}

func TestInitRefusesExistingConfig(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("init")

	stderr := c.MustFail("init")
	cli.AssertContains(t, stderr, "config file already exists")
}
