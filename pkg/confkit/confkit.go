// Package confkit holds the helpers shared by the main config and its section files.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath expands environment variables in file and anchors relative
// paths at base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(strings.TrimSpace(file))
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// Section is a config block whose content lives in its own file, e.g.
//
//	Market:
//	  File: market.yaml
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Configured reports whether the section names a file or already holds a value.
func (s Section[T]) Configured() bool {
	return strings.TrimSpace(s.File) != "" || s.Value != nil
}

// Hydrate loads File (resolved against base) through loader. The resolved
// path replaces File so later log lines show where the section came from.
// An empty File is a no-op.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}
