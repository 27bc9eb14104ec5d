package test_helpers

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pushci/receiver/execute"
)

func Timeout(t *testing.T, d time.Duration, fn func()) {
	ok := make(chan bool)
	go func() {
		fn()
		close(ok)
	}()

	select {
	case <-ok:
		return
	case <-time.After(d):
		t.Error("Run time exceeded")
	}
}

// TmpPath returns a path inside a fresh temporary directory that does not
// exist yet.
func TmpPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "item")
}

type Repository struct {
	Path string
	// MainSHA is the tip of main; FeatureSHA is the tip of feature-x, which
	// is not reachable from main.
	MainSHA    string
	FeatureSHA string
}

func (r Repository) URL() string {
	return "file://" + r.Path
}

func git(t *testing.T, dir string, args ...string) string {
	full := append([]string{"git", "-C", dir, "-c", "user.name=Test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	out, err := execute.Exec(context.Background(), full, nil)
	require.NoError(t, err, "git %s", strings.Join(args, " "))
	return strings.TrimSpace(out.String())
}

func writeFile(t *testing.T, dir, name, contents string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

// MakeRepository builds a tiny git repository with a main branch and a
// feature-x branch. Tests using it are skipped when git is not installed.
func MakeRepository(t *testing.T) Repository {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not available")
	}

	dir := t.TempDir()
	git(t, dir, "init", "--quiet")
	git(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	writeFile(t, dir, "README", "# Tiny\n")
	git(t, dir, "add", "README")
	git(t, dir, "commit", "--quiet", "-m", "Initial commit")
	mainSHA := git(t, dir, "rev-parse", "HEAD")

	git(t, dir, "checkout", "--quiet", "-b", "feature-x")
	writeFile(t, dir, "feature.txt", "feature\n")
	git(t, dir, "add", "feature.txt")
	git(t, dir, "commit", "--quiet", "-m", "Add feature")
	featureSHA := git(t, dir, "rev-parse", "HEAD")
	git(t, dir, "checkout", "--quiet", "main")

	return Repository{Path: dir, MainSHA: mainSHA, FeatureSHA: featureSHA}
}
