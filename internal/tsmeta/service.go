package tsmeta

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/session"
	"github.com/Shaima-Alhaddad/pymol-ts-info/internal/tsfile"
)

// Host is the session surface the service needs: identifier
// classification, handle registration and path recall. Handle enumeration
// for interactive selection stays with the caller.
type Host interface {
	Resolve(identifier string) (session.Resolution, error)
	Path(name string) string
	Register(name, path string)
}

// Service ties the store, the host session and the configuration together
// into the metadata operations the CLI exposes.
type Service struct {
	store *Store
	host  Host
	cfg   Config
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService returns a Service operating on store through host, configured
// by cfg.
func NewService(store *Store, host Host, cfg Config, opts ...Option) *Service {
	svc := &Service{store: store, host: host, cfg: cfg, log: zap.NewNop()}

	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}

	return svc
}

func (s *Service) parseOptions() []tsfile.Option {
	return []tsfile.Option{
		tsfile.WithMaxHeaderLines(s.cfg.MaxHeaderLines),
		tsfile.WithLogger(s.log),
	}
}

// ParseResult is the outcome for one file of a batch parse.
type ParseResult struct {
	Key    string         // cache key, the file basename without extension
	Path   string         // the file parsed
	Record *tsfile.Record // nil when the file could not be opened
	Err    error          // open or mid-read failure, nil otherwise
}

// ParseBatch parses every TS file matching pattern, which may be a literal
// path or a shell-style glob, and caches each result under the file's
// basename without extension. A file that cannot be opened is reported in
// its result and not cached; a file that fails partway through a read is
// cached with whatever the scan recovered.
func (s *Service) ParseBatch(pattern string) ([]ParseResult, error) {
	if pattern == "" {
		return nil, ErrPathRequired
	}

	expanded := s.absInput(pattern)

	matches, globErr := filepath.Glob(expanded)
	if globErr != nil {
		// A malformed glob can still name a literal file.
		matches = nil
	}

	// Globs like "*" also match directories; keep regular files only.
	kept := matches[:0]

	for _, path := range matches {
		if fileExists(path) {
			kept = append(kept, path)
		}
	}

	matches = kept

	if len(matches) == 0 && fileExists(expanded) {
		matches = []string{expanded}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, pattern)
	}

	results := make([]ParseResult, 0, len(matches))

	for _, path := range matches {
		key := keyForPath(path)

		rec, parseErr := tsfile.ParseFile(path, s.parseOptions()...)
		if rec != nil {
			s.store.Put(key, rec)
		}

		if parseErr != nil {
			s.log.Warn("ts file parse failed", zap.String("path", path), zap.Error(parseErr))
		}

		results = append(results, ParseResult{Key: key, Path: path, Record: rec, Err: parseErr})
	}

	return results, nil
}

// AttachResult reports a successful Attach.
type AttachResult struct {
	Key    string // cache key the record landed under
	Path   string // TS file parsed
	Record *tsfile.Record
}

// Attach parses the TS file at path and stores the record for identifier.
// The identifier is matched against registered handles first (exact, then
// unique substring); when no handle matches, it is used verbatim as the
// cache key, so metadata can be staged before its model is loaded. An
// ambiguous identifier aborts without touching the cache.
func (s *Service) Attach(path, identifier string) (AttachResult, error) {
	if identifier == "" {
		return AttachResult{}, ErrKeyRequired
	}

	if path == "" {
		return AttachResult{}, ErrPathRequired
	}

	expanded := s.absInput(path)
	if !fileExists(expanded) {
		return AttachResult{}, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
	}

	key := identifier

	res, resolveErr := s.host.Resolve(identifier)
	if resolveErr != nil {
		return AttachResult{}, resolveErr
	}

	if res.Kind == session.KindHandle {
		key = res.Value
	}

	rec, parseErr := tsfile.ParseFile(expanded, s.parseOptions()...)
	if rec == nil {
		return AttachResult{}, fmt.Errorf("parse %s: %w", expanded, parseErr)
	}

	if parseErr != nil {
		s.log.Warn("ts file parse failed", zap.String("path", expanded), zap.Error(parseErr))
	}

	s.store.Put(key, rec)

	return AttachResult{Key: key, Path: expanded, Record: rec}, nil
}

// ShowResult reports a successful Show.
type ShowResult struct {
	Key       string         // cache key the result lives under
	Record    *tsfile.Record // nil means a cached absence was shown
	FromCache bool           // true when served without parsing
	Source    string         // TS file parsed this call, "" on cache hits
}

// Show implements resolve-and-show: serve key from the cache when present
// (a cached absence short-circuits too), otherwise parse the explicit TS
// file when one is given, otherwise discover a TS file in the configured
// search directories. Whatever parses is cached before being returned.
// Failures leave the cache untouched so a later attach or load can still
// succeed.
func (s *Service) Show(key, explicitTS string) (ShowResult, error) {
	if key == "" {
		return ShowResult{}, ErrKeyRequired
	}

	if rec, ok := s.store.Lookup(key); ok {
		s.log.Debug("metadata served from cache", zap.String("key", key), zap.Bool("absent", rec == nil))

		return ShowResult{Key: key, Record: rec, FromCache: true}, nil
	}

	if explicitTS != "" {
		return s.showExplicit(key, explicitTS)
	}

	return s.showDiscovered(key)
}

func (s *Service) showExplicit(key, explicitTS string) (ShowResult, error) {
	expanded := s.absInput(explicitTS)
	if !fileExists(expanded) {
		return ShowResult{}, fmt.Errorf("%w: %s", ErrResourceNotFound, explicitTS)
	}

	rec, parseErr := tsfile.ParseFile(expanded, s.parseOptions()...)
	if rec == nil {
		return ShowResult{}, fmt.Errorf("parse %s: %w", expanded, parseErr)
	}

	if parseErr != nil {
		s.log.Warn("ts file parse failed", zap.String("path", expanded), zap.Error(parseErr))
	}

	s.store.Put(key, rec)

	return ShowResult{Key: key, Record: rec, Source: expanded}, nil
}

func (s *Service) showDiscovered(key string) (ShowResult, error) {
	candidates := gatherCandidates(s.cfg.SearchDirsAbs, s.cfg.Extensions)

	chosen, found := chooseCandidate(key, candidates)
	if !found {
		return ShowResult{}, fmt.Errorf("%w for key %q", ErrNoCandidates, key)
	}

	rec, parseErr := tsfile.ParseFile(chosen, s.parseOptions()...)
	if rec == nil {
		return ShowResult{}, fmt.Errorf("parse %s: %w", chosen, parseErr)
	}

	if parseErr != nil {
		s.log.Warn("ts file parse failed", zap.String("path", chosen), zap.Error(parseErr))
	}

	s.store.Put(key, rec)

	return ShowResult{Key: key, Record: rec, Source: chosen}, nil
}

// LoadResult reports a Load.
type LoadResult struct {
	Handle          string         // handle registered or reused
	ModelPath       string         // model file behind the handle, "" if unknown
	TSPath          string         // TS file parsed, "" when none was found
	Record          *tsfile.Record // nil when no TS was found
	IgnoredExplicit string         // explicit TS path that did not exist, "" otherwise
	AlreadyOpen     bool           // true when identifier named an existing handle
}

// Load resolves a model identifier to a handle, registering the handle
// when the identifier is a model file path, then locates a TS companion
// next to the model and caches the outcome under the handle. Finding no TS
// is cached as an absence, so a later Show reports it without
// re-searching. An explicit TS path that does not exist is ignored, with
// the sibling search still running.
func (s *Service) Load(identifier, explicitTS string) (LoadResult, error) {
	if identifier == "" {
		return LoadResult{}, ErrKeyRequired
	}

	res, resolveErr := s.host.Resolve(identifier)
	if resolveErr != nil {
		return LoadResult{}, resolveErr
	}

	var result LoadResult

	switch res.Kind {
	case session.KindPath:
		result.ModelPath = res.Value
		result.Handle = keyForPath(res.Value)
		s.host.Register(result.Handle, res.Value)
	case session.KindHandle:
		result.Handle = res.Value
		result.ModelPath = s.host.Path(res.Value)
		result.AlreadyOpen = true
	default:
		return LoadResult{}, fmt.Errorf("%w: %s", ErrUnknownModel, identifier)
	}

	tsPath := ""

	if explicitTS != "" {
		expanded := s.absInput(explicitTS)
		if fileExists(expanded) {
			tsPath = expanded
		} else {
			result.IgnoredExplicit = explicitTS
		}
	}

	if tsPath == "" && result.ModelPath != "" {
		if sibling, ok := SiblingTS(result.ModelPath, s.cfg.Extensions); ok {
			tsPath = sibling
		}
	}

	if tsPath != "" {
		rec, parseErr := tsfile.ParseFile(tsPath, s.parseOptions()...)
		if parseErr != nil {
			s.log.Warn("ts file parse failed", zap.String("path", tsPath), zap.Error(parseErr))
		}

		result.TSPath = tsPath
		result.Record = rec
	}

	s.store.Put(result.Handle, result.Record)

	return result, nil
}

// absInput resolves a user-supplied file path or pattern against the
// effective working directory, after ~ expansion.
func (s *Service) absInput(path string) string {
	expanded := session.ExpandUser(path)
	if expanded == "" || filepath.IsAbs(expanded) {
		return expanded
	}

	if s.cfg.EffectiveCwd == "" {
		return expanded
	}

	return filepath.Join(s.cfg.EffectiveCwd, expanded)
}

// keyForPath derives the cache key for a file: its basename without the
// final extension.
func keyForPath(path string) string {
	name := filepath.Base(path)

	return strings.TrimSuffix(name, filepath.Ext(name))
}
