package tsmeta

// Internal hooks for white-box tests in tsmeta_test.
var (
	TestGatherCandidates    = gatherCandidates
	TestChooseCandidate     = chooseCandidate
	TestKeyForPath          = keyForPath
	TestNormalizeExtensions = normalizeExtensions
)
