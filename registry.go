package djconf

import (
	"fmt"
	"strings"
	"sync"
)

// The registry stands in for importing objects by dotted path: profiles
// and pluggable backends register under the path settings refer to them by.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]any)
)

// Register makes v importable as path.
// Call this in your init() or main() before resolving.
func Register(path string, v any) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalizePath(path)] = v
}

func normalizePath(path string) string {
	return strings.ReplaceAll(strings.TrimSpace(path), "-", "_")
}

// ImportString returns the object registered as path. Failures wrap
// ErrImportResolution together with the attempted path.
func ImportString(path string) (any, error) {
	path = normalizePath(path)
	if !strings.Contains(strings.Trim(path, "."), ".") {
		return nil, fmt.Errorf("%w: could not import %q: not a dotted module.Name path", ErrImportResolution, path)
	}
	registryMu.RLock()
	v, ok := registry[path]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: could not import %q: %w", ErrImportResolution, path, ErrKeyNotFound)
	}
	return v, nil
}

// importProfile imports path and checks it names a profile.
func importProfile(path string) (Profile, error) {
	v, err := ImportString(path)
	if err != nil {
		return Profile{}, err
	}
	switch p := v.(type) {
	case Profile:
		return p, nil
	case *Profile:
		return *p, nil
	case func() Profile:
		return p(), nil
	default:
		return Profile{}, fmt.Errorf("%w: could not import %q: %T is not a profile", ErrImportResolution, path, v)
	}
}
