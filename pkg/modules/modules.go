// Package modules maps `use` paths onto Sea source files across an ordered
// list of library roots.
package modules

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"seac/pkg/vfs"
)

const (
	sourceExt   = ".sea"
	libFileName = "lib.sea"
)

// Resolver searches LibPaths in order, first match wins.
type Resolver struct {
	FS       vfs.FS
	LibPaths []string
}

// NotFoundError reports a module missing from every library root.
type NotFoundError struct {
	Module   string
	Searched []string
}

func (e *NotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cannot find module `%s`, searched:", e.Module)
	for _, p := range e.Searched {
		sb.WriteString("\n    ")
		sb.WriteString(p)
	}
	return sb.String()
}

func New(fsys vfs.FS, libPaths ...string) *Resolver {
	return &Resolver{FS: fsys, LibPaths: libPaths}
}

// candidates lists where module may live, in search order.
func (r *Resolver) candidates(module string) []string {
	rel := filepath.FromSlash(module)
	var out []string
	for _, root := range r.LibPaths {
		out = append(out,
			filepath.Join(root, rel+sourceExt),
			filepath.Join(root, rel, libFileName))
	}
	return out
}

func (r *Resolver) find(module string) (string, []string) {
	searched := r.candidates(module)
	for _, c := range searched {
		if r.FS.Exists(c) {
			return c, searched
		}
	}
	return "", searched
}

// findLib looks only for dir/lib.sea, the file every enclosing directory
// of a module may carry.
func (r *Resolver) findLib(dir string) string {
	for _, root := range r.LibPaths {
		c := filepath.Join(root, filepath.FromSlash(dir), libFileName)
		if r.FS.Exists(c) {
			return c
		}
	}
	return ""
}

// Resolve returns the files behind `use path [selections]`: each enclosing
// directory's lib.sea outermost first, then the module itself, then one
// file per selection. With selections the module file is optional.
func (r *Resolver) Resolve(path string, selections []string) ([]string, error) {
	var files []string
	add := func(f string) {
		if f != "" && !slices.Contains(files, f) {
			files = append(files, f)
		}
	}

	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		add(r.findLib(strings.Join(parts[:i], "/")))
	}

	file, searched := r.find(path)
	if file == "" && len(selections) == 0 {
		return nil, &NotFoundError{Module: path, Searched: searched}
	}
	add(file)

	for _, sel := range selections {
		module := path + "/" + sel
		file, searched := r.find(module)
		if file == "" {
			return nil, &NotFoundError{Module: module, Searched: searched}
		}
		add(file)
	}
	return files, nil
}

func (r *Resolver) ReadFile(path string) (string, error) {
	data, err := r.FS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
