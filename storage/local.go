package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// NewLocal returns a LocalStorage rooted at basePath, creating the directory
// when missing.
func NewLocal(basePath string) (Base, error) {
	var err error
	basePath, err = filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}
	stat, err := os.Stat(basePath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("%s: is not a directory", basePath)
	}

	l := LocalStorage{basePath: basePath, log: zap.L().With(zap.String("facility", "local-storage"))}
	l.log.Info("Initialized Local Storage adapter", zap.String("base_path", basePath))
	return l, nil
}

type LocalStorage struct {
	log      *zap.Logger
	basePath string
}

func (l LocalStorage) Dir() string { return l.basePath }

func (l LocalStorage) Path(name string) string {
	return filepath.Join(l.basePath, name)
}

func (l LocalStorage) Store(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	// Write through a temporary file so the log server never serves a
	// partially written log.
	tmp, err := os.CreateTemp(l.basePath, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Rename(tmp.Name(), l.Path(name)); err != nil {
		return err
	}
	l.log.Info("Stored log", zap.String("path", l.Path(name)), zap.Int("size", len(data)))
	return nil
}
