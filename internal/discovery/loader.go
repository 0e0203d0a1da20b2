// Package discovery finds files under a directory tree by glob pattern and
// loads each one with a caller-supplied function.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// DefaultIgnore skips dependency trees and hidden directories.
var DefaultIgnore = []string{"**/node_modules", "**/bower_components", "**/.*"}

// Loader finds files matching Pattern and loads them with Load.
//
// Pattern and Ignore are doublestar patterns matched against slash-separated
// paths relative to the walk root. Directories matching any Ignore pattern
// are not descended into. Filter, when set, drops loaded values it rejects.
type Loader[T any] struct {
	Pattern string
	Ignore  []string
	Load    func(path string) (T, error)
	Filter  func(path string, v T) bool
}

// LoadAll walks root and returns the loaded values keyed by relative path.
// Load failures do not stop the walk: they are joined into the returned
// error and the successfully loaded values are still returned.
func (l Loader[T]) LoadAll(ctx context.Context, root string) (map[string]T, error) {
	if l.Load == nil {
		return nil, errors.New("discovery: loader has no Load function")
	}
	if !doublestar.ValidatePattern(l.Pattern) {
		return nil, fmt.Errorf("discovery: invalid pattern %q", l.Pattern)
	}
	for _, p := range l.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("discovery: invalid ignore pattern %q", p)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discovery: %s is not a directory", root)
	}

	var (
		mu       sync.Mutex
		found    = make(map[string]T)
		loadErrs []error
	)
	record := func(err error) {
		mu.Lock()
		loadErrs = append(loadErrs, err)
		mu.Unlock()
	}

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			record(fmt.Errorf("walking %s: %w", p, err))
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if l.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := doublestar.Match(l.Pattern, rel); !ok {
			return nil
		}

		v, err := l.Load(p)
		if err != nil {
			record(fmt.Errorf("loading %s: %w", rel, err))
			return nil
		}
		if l.Filter != nil && !l.Filter(p, v) {
			return nil
		}

		mu.Lock()
		found[rel] = v
		mu.Unlock()
		return nil
	})

	if walkErr != nil {
		loadErrs = append(loadErrs, walkErr)
	}
	return found, errors.Join(loadErrs...)
}

func (l Loader[T]) ignored(rel string) bool {
	for _, p := range l.Ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
