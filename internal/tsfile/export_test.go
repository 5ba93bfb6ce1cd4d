package tsfile

// Exported internals for testing.
var (
	TestLooksLikeCoordinateLine = looksLikeCoordinateLine
	TestIdentifyCanonicalKey    = identifyCanonicalKey
	TestExtractValue            = extractValue
	TestStripLeadingAlias       = stripLeadingAlias
	TestSynthesizeStoich        = synthesizeStoich
)
