package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

type TokenSource interface {
	Token() string
}

// FileToken holds a bearer token read from disk. The file is read once at
// construction and again on every Reload.
type FileToken struct {
	path  string
	log   *zap.Logger
	mu    sync.RWMutex
	token string
}

func NewFileToken(path string) (*FileToken, error) {
	f := &FileToken{
		path: path,
		log:  zap.L().With(zap.String("facility", "auth")),
	}
	token, err := readToken(path)
	if err != nil {
		return nil, err
	}
	f.token = token
	f.log.Info("Loaded API token", zap.String("path", path))
	return f, nil
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%s: token file is empty", path)
	}
	return token, nil
}

func (f *FileToken) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

// Reload re-reads the token file. On failure the previous token is kept.
func (f *FileToken) Reload() error {
	token, err := readToken(f.path)
	if err != nil {
		f.log.Error("Failed reloading API token, keeping previous one", zap.Error(err))
		return err
	}
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	f.log.Info("Reloaded API token", zap.String("path", f.path))
	return nil
}

// Static is a TokenSource with a fixed value.
type Static string

func (s Static) Token() string { return string(s) }
