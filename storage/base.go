package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Base persists run logs. Every implementation keeps a copy under Dir so the
// log server can serve it.
type Base interface {
	Dir() string
	Path(name string) string
	Store(name string, data []byte) error
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid log name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid log name %q: must not contain path separators", name)
	}
	return nil
}
