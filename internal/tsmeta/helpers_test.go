package tsmeta_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsfile"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"
)

const sampleTS = "METHOD: template-based modeling\n" +
	"AUTHOR: 1234-5678-9000\n" +
	"SCORE: GDT 0.8231\n" +
	"STOICH: A2B2\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

// newTestService wires a Service against a fresh store and registry, with
// the given directories as the resolved search path.
func newTestService(t *testing.T, searchDirs ...string) (*tsmeta.Service, *tsmeta.Store, *session.Registry) {
	t.Helper()

	store := tsmeta.NewStore()
	host := session.NewRegistry()

	cfg := tsmeta.Config{
		SearchDirs:     searchDirs,
		Extensions:     []string{".txt", ".ts"},
		MaxHeaderLines: tsfile.DefaultMaxHeaderLines,
		SearchDirsAbs:  searchDirs,
	}

	return tsmeta.NewService(store, host, cfg), store, host
}
