package tsmeta

import "errors"

// Error variables for metadata operations.
var (
	ErrKeyRequired      = errors.New("key is required")
	ErrPathRequired     = errors.New("ts file path is required")
	ErrNoFilesMatched   = errors.New("no files matched pattern")
	ErrResourceNotFound = errors.New("ts file not found")
	ErrNoCandidates     = errors.New("no ts file found")
	ErrUnknownModel     = errors.New("neither file nor loaded model found")
)

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSearchDirsEmpty    = errors.New("search_dirs cannot be empty")
	ErrExtensionsEmpty    = errors.New("extensions cannot be empty")
	ErrHeaderLinesInvalid = errors.New("max_header_lines must be positive")
	ErrFlagRequiresArg    = errors.New("flag requires an argument")
	ErrUnknownFlag        = errors.New("unknown flag")
)
