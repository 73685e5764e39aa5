// Package libfetch downloads Sea libraries into the global library
// directory with git.
package libfetch

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

type Progress func(message string)

// Fetcher clones host/path libraries under LibDir/host/path.
type Fetcher struct {
	LibDir string
	// URL maps a library name to its remote. Nil means https://<name>.
	URL      func(name string) string
	Progress Progress
}

type Result struct {
	Path string
	// Cloned is true for a fresh clone, false for an update.
	Cloned bool
	// UpToDate is true when an update found nothing new.
	UpToDate bool
}

var ErrInvalidName = errors.New("invalid library name")

func (f *Fetcher) remote(name string) string {
	if f.URL != nil {
		return f.URL(name)
	}
	return "https://" + name
}

func (f *Fetcher) progress(format string, args ...any) {
	if f.Progress != nil {
		f.Progress(fmt.Sprintf(format, args...))
	}
}

// Target is the directory name is fetched into.
func (f *Fetcher) Target(name string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(name))
	if name == "" || filepath.IsAbs(name) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: `%s`", ErrInvalidName, name)
	}
	return filepath.Join(f.LibDir, filepath.FromSlash(clean)), nil
}

// Fetch clones name, or pulls it when it was cloned before.
func (f *Fetcher) Fetch(name string) (*Result, error) {
	target, err := f.Target(name)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(target)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		f.progress("downloading library `%s`", name)
		w := bytes.NewBufferString("")
		_, err := git.PlainClone(target, false, &git.CloneOptions{
			URL:      f.remote(name),
			Progress: w,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to download library `%s`\n%w\n%s", name, err, w.String())
		}
		f.progress("library `%s` downloaded", name)
		return &Result{Path: target, Cloned: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open library `%s`: %w", name, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to update library `%s`: %w", name, err)
	}
	f.progress("updating library `%s`", name)
	w := bytes.NewBufferString("")
	err = worktree.Pull(&git.PullOptions{Progress: w})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		f.progress("library `%s` is up to date", name)
		return &Result{Path: target, UpToDate: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update library `%s`\n%w\n%s", name, err, w.String())
	}
	f.progress("library `%s` updated", name)
	return &Result{Path: target}, nil
}
