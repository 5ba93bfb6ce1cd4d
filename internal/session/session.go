// Package session tracks the model handles known to the running process.
//
// A handle is the logical name of a loaded model, typically the source
// file's basename without extension. The registry is the authority the rest
// of the tool consults to classify a user-supplied identifier as a file
// path or a handle, and to enumerate handles for interactive selection.
package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Resolution kinds.
const (
	// KindPath means the identifier is an existing model file path.
	KindPath = "path"

	// KindHandle means the identifier named a registered handle.
	KindHandle = "handle"

	// KindNone means the identifier matched neither a file nor a handle.
	KindNone = "none"
)

// modelExtensions are the file extensions Resolve accepts as model paths.
var modelExtensions = []string{".pdb", ".ent"}

// Resolution is the outcome of classifying an identifier.
type Resolution struct {
	Kind  string // one of KindPath, KindHandle, KindNone
	Value string // expanded path or handle name; empty for KindNone
}

// Registry holds the handles of models loaded in this session, in
// registration order. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	baseDir string
	names   []string
	paths   map[string]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithBaseDir sets the directory relative identifier paths resolve
// against. Without it, only absolute and process-relative paths classify
// as model files.
func WithBaseDir(dir string) Option {
	return func(r *Registry) {
		r.baseDir = dir
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{paths: make(map[string]string)}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Register records a handle and the path it was loaded from. The path may
// be empty for handles that did not come from disk. Re-registering a name
// updates its path without changing its position.
func (r *Registry) Register(name, path string) {
	if name == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.paths[name]; !exists {
		r.names = append(r.names, name)
	}

	r.paths[name] = path
}

// Names returns the registered handles in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.names))
	copy(out, r.names)

	return out
}

// Path returns the source path recorded for a handle, or "" when the
// handle is unknown or was registered without one.
func (r *Registry) Path(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.paths[name]
}

// Resolve classifies an identifier: an existing model file path, an exact
// handle name, or a substring of exactly one handle. A substring matching
// several handles is an ambiguity the caller must not guess through; the
// returned error is an [AmbiguousHandleError] naming the candidates.
func (r *Registry) Resolve(identifier string) (Resolution, error) {
	if p := r.resolveModelPath(identifier); p != "" {
		return Resolution{Kind: KindPath, Value: p}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.names {
		if name == identifier {
			return Resolution{Kind: KindHandle, Value: name}, nil
		}
	}

	var matches []string

	for _, name := range r.names {
		if strings.Contains(name, identifier) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{Kind: KindNone}, nil
	case 1:
		return Resolution{Kind: KindHandle, Value: matches[0]}, nil
	default:
		return Resolution{Kind: KindNone}, &AmbiguousHandleError{Identifier: identifier, Candidates: matches}
	}
}

// resolveModelPath returns the resolved path when identifier names an
// existing model file, trying it as given and then against the base
// directory. An empty return means the identifier is not a model path.
func (r *Registry) resolveModelPath(identifier string) string {
	p := ExpandUser(identifier)
	if isModelFile(p) {
		return p
	}

	if r.baseDir != "" && !filepath.IsAbs(p) {
		joined := filepath.Join(r.baseDir, p)
		if isModelFile(joined) {
			return joined
		}
	}

	return ""
}

// ExpandUser resolves a leading "~" or "~/" against the current home
// directory. Paths without the prefix, and paths when no home directory
// can be determined, come back unchanged.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}

// isModelFile reports whether path names an existing regular file with a
// recognized model extension.
func isModelFile(path string) bool {
	lower := strings.ToLower(path)

	recognized := false

	for _, ext := range modelExtensions {
		if strings.HasSuffix(lower, ext) {
			recognized = true

			break
		}
	}

	if !recognized {
		return false
	}

	info, statErr := os.Stat(path)

	return statErr == nil && !info.IsDir()
}
