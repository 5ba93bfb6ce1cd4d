package tsmeta_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsmeta"
)

const coordLine = "ATOM      1  N   ALA A   1      11.104  13.207   2.428\n"

func Test_ParseBatch_CachesEachMatchUnderBasename_When_GlobMatchesThree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "model_1.ts", "STOICH: A1\nSCORE: 0.11\n")
	writeFile(t, dir, "model_2.ts", "STOICH: A2\nSCORE: 0.22\n")
	writeFile(t, dir, "model_3.ts", "STOICH: A3\nSCORE: 0.33\n")
	writeFile(t, dir, "ignored.pdb", coordLine)

	svc, store, _ := newTestService(t, dir)

	results, err := svc.ParseBatch(filepath.Join(dir, "*.ts"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	want := []struct{ key, score string }{
		{"model_1", "0.11"},
		{"model_2", "0.22"},
		{"model_3", "0.33"},
	}

	for i, w := range want {
		require.Equal(t, w.key, results[i].Key)
		require.NoError(t, results[i].Err)
		require.NotNil(t, results[i].Record)
		require.Equal(t, w.score, results[i].Record.Score)

		cached, ok := store.Lookup(w.key)
		require.True(t, ok)
		require.Equal(t, w.score, cached.Score)
	}
}

func Test_ParseBatch_UsesLiteralPath_When_GlobSyntaxInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// The unclosed bracket makes this a malformed pattern, but it still
	// names a real file.
	path := writeFile(t, dir, "weird[1.ts", "METHOD: folding\n")

	svc, store, _ := newTestService(t, dir)

	results, err := svc.ParseBatch(path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "weird[1", results[0].Key)

	_, ok := store.Lookup("weird[1")
	require.True(t, ok)
}

func Test_ParseBatch_ReturnsError_When_NothingMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, store, _ := newTestService(t, dir)

	_, err := svc.ParseBatch(filepath.Join(dir, "*.ts"))
	require.ErrorIs(t, err, tsmeta.ErrNoFilesMatched)
	require.Empty(t, store.Keys())
}

func Test_ParseBatch_ReturnsError_When_PatternEmpty(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, t.TempDir())

	_, err := svc.ParseBatch("")
	require.ErrorIs(t, err, tsmeta.ErrPathRequired)
}

func Test_ParseBatch_ResolvesPatternAgainstWorkDir_When_PatternRelative(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "model_1.ts", "STOICH: A1\nSCORE: 0.11\n")

	store := tsmeta.NewStore()
	cfg := tsmeta.Config{
		Extensions:     []string{".txt", ".ts"},
		MaxHeaderLines: 200,
		EffectiveCwd:   dir,
	}
	svc := tsmeta.NewService(store, session.NewRegistry(), cfg)

	results, err := svc.ParseBatch("*.ts")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "model_1", results[0].Key)

	_, ok := store.Lookup("model_1")
	require.True(t, ok)
}

func Test_Attach_StoresUnderLiteralKey_When_NoHandleMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "T1024TS042_1.txt", sampleTS)

	svc, store, _ := newTestService(t, dir)

	res, err := svc.Attach(path, "T1024")
	require.NoError(t, err)
	require.Equal(t, "T1024", res.Key)

	cached, ok := store.Lookup("T1024")
	require.True(t, ok)
	require.Equal(t, "A2B2", cached.Stoich)
}

func Test_Attach_ReKeysToHandle_When_IdentifierIsUniqueSubstring(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "meta.txt", sampleTS)

	svc, store, host := newTestService(t, dir)
	host.Register("T1024_model_1", "/models/T1024_model_1.pdb")

	res, err := svc.Attach(path, "model_1")
	require.NoError(t, err)
	require.Equal(t, "T1024_model_1", res.Key)

	_, ok := store.Lookup("T1024_model_1")
	require.True(t, ok)
}

func Test_Attach_AbortsWithoutCaching_When_IdentifierAmbiguous(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "meta.txt", sampleTS)

	svc, store, host := newTestService(t, dir)
	host.Register("model_1", "/models/model_1.pdb")
	host.Register("model_2", "/models/model_2.pdb")

	_, err := svc.Attach(path, "model")
	require.ErrorIs(t, err, session.ErrAmbiguousHandle)
	require.Empty(t, store.Keys())
}

func Test_Attach_ReturnsError_When_TSPathMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, store, _ := newTestService(t, dir)

	_, err := svc.Attach(filepath.Join(dir, "missing.txt"), "model_1")
	require.ErrorIs(t, err, tsmeta.ErrResourceNotFound)
	require.Empty(t, store.Keys())
}

func Test_Show_ServesCachedRecord_When_FileChangedOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "model_1.txt", "METHOD: first pass\n")

	svc, _, _ := newTestService(t, dir)

	first, err := svc.Show("model_1", "")
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Equal(t, "first pass", first.Record.Method)

	writeFile(t, dir, "model_1.txt", "METHOD: second pass\n")

	second, err := svc.Show("model_1", "")
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, "first pass", second.Record.Method, "no auto-refresh on cache hits")
}

func Test_Show_ShortCircuitsDiscovery_When_AbsenceCached(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "model_1.txt", "METHOD: folding\n")

	svc, store, _ := newTestService(t, dir)
	store.Put("model_1", nil)

	res, err := svc.Show("model_1", "")
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Nil(t, res.Record, "the cached absence wins over a discoverable file")
}

func Test_Show_ParsesExplicitResource_When_NotCached(t *testing.T) {
	t.Parallel()

	searchDir := t.TempDir()
	elsewhere := t.TempDir()
	path := writeFile(t, elsewhere, "elsewhere.txt", sampleTS)

	svc, store, _ := newTestService(t, searchDir)

	res, err := svc.Show("model_1", path)
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Equal(t, "model_1", res.Key)
	require.Equal(t, path, res.Source)

	cached, ok := store.Lookup("model_1")
	require.True(t, ok)
	require.Equal(t, "A2B2", cached.Stoich)
}

func Test_Show_ReturnsError_When_ExplicitResourceMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, store, _ := newTestService(t, dir)

	_, err := svc.Show("model_1", filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, tsmeta.ErrResourceNotFound)
	require.Empty(t, store.Keys())
}

func Test_Show_PrefersExactBasename_When_SubstringSortsFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "T1024_model_1_full.txt", "METHOD: substring\n")
	want := writeFile(t, dir, "model_1.txt", "METHOD: exact\n")

	svc, _, _ := newTestService(t, dir)

	res, err := svc.Show("model_1", "")
	require.NoError(t, err)
	require.Equal(t, want, res.Source)
	require.Equal(t, "exact", res.Record.Method)
}

func Test_Show_ReturnsError_When_DiscoveryFindsNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc, store, _ := newTestService(t, dir)

	_, err := svc.Show("model_1", "")
	require.ErrorIs(t, err, tsmeta.ErrNoCandidates)
	require.Empty(t, store.Keys(), "a failed discovery must not cache, so a later attach can still win")
}

func Test_Show_ReturnsError_When_KeyEmpty(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, t.TempDir())

	_, err := svc.Show("", "")
	require.ErrorIs(t, err, tsmeta.ErrKeyRequired)
}

func Test_Load_RegistersHandleAndCachesSibling_When_IdentifierIsModelPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := writeFile(t, dir, "complex_1.pdb", coordLine)
	writeFile(t, dir, "complex_1.ts", sampleTS)

	svc, store, host := newTestService(t, dir)

	res, err := svc.Load(model, "")
	require.NoError(t, err)
	require.Equal(t, "complex_1", res.Handle)
	require.Equal(t, model, res.ModelPath)
	require.Equal(t, filepath.Join(dir, "complex_1.ts"), res.TSPath)
	require.False(t, res.AlreadyOpen)
	require.NotNil(t, res.Record)
	require.Equal(t, "A2B2", res.Record.Stoich)

	require.Equal(t, []string{"complex_1"}, host.Names())
	require.Equal(t, model, host.Path("complex_1"))

	cached, ok := store.Lookup("complex_1")
	require.True(t, ok)
	require.NotNil(t, cached)
}

func Test_Load_CachesAbsence_When_NoCompanionExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := writeFile(t, dir, "complex_1.pdb", coordLine)

	svc, store, _ := newTestService(t, dir)

	res, err := svc.Load(model, "")
	require.NoError(t, err)
	require.Empty(t, res.TSPath)
	require.Nil(t, res.Record)

	cached, ok := store.Lookup("complex_1")
	require.True(t, ok, "finding nothing is itself cached")
	require.Nil(t, cached)
}

func Test_Load_UsesExplicitTS_When_ItExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := writeFile(t, dir, "complex_1.pdb", coordLine)
	writeFile(t, dir, "complex_1.ts", "METHOD: sibling\n")
	explicit := writeFile(t, dir, "handpicked.txt", "METHOD: handpicked\n")

	svc, _, _ := newTestService(t, dir)

	res, err := svc.Load(model, explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, res.TSPath)
	require.Equal(t, "handpicked", res.Record.Method)
	require.Empty(t, res.IgnoredExplicit)
}

func Test_Load_IgnoresExplicitTS_When_ItDoesNotExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := writeFile(t, dir, "complex_1.pdb", coordLine)
	writeFile(t, dir, "complex_1.ts", sampleTS)

	missing := filepath.Join(dir, "missing.ts")

	svc, _, _ := newTestService(t, dir)

	res, err := svc.Load(model, missing)
	require.NoError(t, err)
	require.Equal(t, missing, res.IgnoredExplicit)
	require.Equal(t, filepath.Join(dir, "complex_1.ts"), res.TSPath, "the sibling search still runs")
}

func Test_Load_ReusesHandle_When_IdentifierAlreadyRegistered(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	model := writeFile(t, dir, "complex_1.pdb", coordLine)
	writeFile(t, dir, "complex_1_TS.txt", sampleTS)

	svc, store, host := newTestService(t, dir)
	host.Register("complex_1", model)

	res, err := svc.Load("complex_1", "")
	require.NoError(t, err)
	require.True(t, res.AlreadyOpen)
	require.Equal(t, model, res.ModelPath)
	require.Equal(t, filepath.Join(dir, "complex_1_TS.txt"), res.TSPath)

	_, ok := store.Lookup("complex_1")
	require.True(t, ok)
}

func Test_Load_ReturnsError_When_IdentifierUnknown(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t, t.TempDir())

	_, err := svc.Load("ghost", "")
	require.ErrorIs(t, err, tsmeta.ErrUnknownModel)
	require.Empty(t, store.Keys())
}

func Test_Load_ReturnsError_When_IdentifierAmbiguous(t *testing.T) {
	t.Parallel()

	svc, store, host := newTestService(t, t.TempDir())
	host.Register("model_1", "/models/model_1.pdb")
	host.Register("model_2", "/models/model_2.pdb")

	_, err := svc.Load("model", "")
	require.ErrorIs(t, err, session.ErrAmbiguousHandle)
	require.Empty(t, store.Keys())
}
