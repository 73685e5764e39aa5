package libfetch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newRemote creates a repository holding lib.sea and returns its path
// with a function that commits a new version of the file.
func newRemote(t *testing.T) (string, func(content string)) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	commit := func(content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, "lib.sea"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := worktree.Add("lib.sea"); err != nil {
			t.Fatal(err)
		}
		_, err := worktree.Commit("update lib.sea", &git.CommitOptions{
			Author: &object.Signature{Name: "sea", Email: "sea@example.com", When: time.Now()},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	commit("fun a() {}\n")
	return dir, commit
}

func TestTarget(t *testing.T) {
	f := &Fetcher{LibDir: "/home/u/.sea/lib"}

	tests := []struct {
		name        string
		expected    string
		expectError bool
	}{
		{name: "github.com/sea/gfx", expected: "/home/u/.sea/lib/github.com/sea/gfx"},
		{name: "example.com/a/../b", expected: "/home/u/.sea/lib/example.com/b"},
		{name: "", expectError: true},
		{name: "../escape", expectError: true},
		{name: "/abs/path", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Target(tt.name)
			if (err != nil) != tt.expectError {
				t.Fatalf("Target() error = %v, expectError %v", err, tt.expectError)
			}
			if tt.expectError {
				if !errors.Is(err, ErrInvalidName) {
					t.Errorf("error %v is not ErrInvalidName", err)
				}
				return
			}
			if got != filepath.FromSlash(tt.expected) {
				t.Errorf("Target() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestFetch_CloneThenPull(t *testing.T) {
	remote, commit := newRemote(t)
	var messages []string
	f := &Fetcher{
		LibDir:   t.TempDir(),
		URL:      func(string) string { return remote },
		Progress: func(m string) { messages = append(messages, m) },
	}

	res, err := f.Fetch("example.com/sea/gfx")
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	if !res.Cloned {
		t.Error("first Fetch() did not clone")
	}
	data, err := os.ReadFile(filepath.Join(res.Path, "lib.sea"))
	if err != nil || string(data) != "fun a() {}\n" {
		t.Fatalf("cloned lib.sea = %q, %v", data, err)
	}

	res, err = f.Fetch("example.com/sea/gfx")
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if res.Cloned || !res.UpToDate {
		t.Errorf("second Fetch() = %+v, expected up to date", res)
	}

	commit("fun b() {}\n")
	res, err = f.Fetch("example.com/sea/gfx")
	if err != nil {
		t.Fatalf("third Fetch() error = %v", err)
	}
	if res.Cloned || res.UpToDate {
		t.Errorf("third Fetch() = %+v, expected an update", res)
	}
	data, _ = os.ReadFile(filepath.Join(res.Path, "lib.sea"))
	if string(data) != "fun b() {}\n" {
		t.Errorf("updated lib.sea = %q", data)
	}

	if len(messages) == 0 {
		t.Error("no progress messages")
	}
}

func TestFetch_BadRemote(t *testing.T) {
	f := &Fetcher{
		LibDir: t.TempDir(),
		URL:    func(string) string { return filepath.Join(t.TempDir(), "missing") },
	}
	if _, err := f.Fetch("example.com/nothing"); err == nil {
		t.Fatal("Fetch() of a missing remote succeeded")
	}
}
