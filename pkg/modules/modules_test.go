package modules

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"seac/lib"
	"seac/pkg/vfs"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	mem, err := vfs.NewMemFSFrom(map[string]string{
		"proj/main.sea":           "",
		"proj/util.sea":           "",
		"proj/gfx/lib.sea":        "",
		"proj/gfx/draw.sea":       "",
		"proj/gfx/shapes/lib.sea": "",
		"libs/gfx/draw.sea":       "",
		"libs/net/tcp.sea":        "",
		"libs/net/udp.sea":        "",
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(mem, "proj", "libs")
}

func TestResolve(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name       string
		path       string
		selections []string
		expected   []string
	}{
		{
			name:     "Plain file",
			path:     "util",
			expected: []string{"proj/util.sea"},
		},
		{
			name:     "Directory lib.sea",
			path:     "gfx",
			expected: []string{"proj/gfx/lib.sea"},
		},
		{
			name:     "Enclosing lib.sea comes first",
			path:     "gfx/draw",
			expected: []string{"proj/gfx/lib.sea", "proj/gfx/draw.sea"},
		},
		{
			name:     "First root wins",
			path:     "gfx/shapes",
			expected: []string{"proj/gfx/lib.sea", "proj/gfx/shapes/lib.sea"},
		},
		{
			name:     "Later root",
			path:     "net/tcp",
			expected: []string{"libs/net/tcp.sea"},
		},
		{
			name:       "Selections without a module file",
			path:       "net",
			selections: []string{"udp", "tcp"},
			expected:   []string{"libs/net/udp.sea", "libs/net/tcp.sea"},
		},
		{
			name:       "Selections are deduplicated",
			path:       "gfx",
			selections: []string{"draw", "draw"},
			expected:   []string{"proj/gfx/lib.sea", "proj/gfx/draw.sea"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.path, tt.selections)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolve() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name       string
		path       string
		selections []string
		module     string
	}{
		{name: "Missing module", path: "audio", module: "audio"},
		{name: "Missing selection", path: "net", selections: []string{"http"}, module: "net/http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.path, tt.selections)
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("Resolve() error = %v, expected *NotFoundError", err)
			}
			if nf.Module != tt.module {
				t.Errorf("Module = %q, expected %q", nf.Module, tt.module)
			}
			expected := []string{
				"proj/" + tt.module + ".sea",
				"proj/" + tt.module + "/lib.sea",
				"libs/" + tt.module + ".sea",
				"libs/" + tt.module + "/lib.sea",
			}
			if !reflect.DeepEqual(nf.Searched, expected) {
				t.Errorf("Searched = %v, expected %v", nf.Searched, expected)
			}
			for _, p := range expected {
				if !strings.Contains(err.Error(), p) {
					t.Errorf("error %q does not list %s", err, p)
				}
			}
		})
	}
}

func TestResolve_EmbeddedStd(t *testing.T) {
	fsys := vfs.Union{vfs.EmbedFS{Root: lib.Root, FS: lib.Files}}
	r := New(fsys, "nowhere", lib.Root)

	got, err := r.Resolve("std", []string{"str", "io"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	expected := []string{lib.Root + "/std/lib.sea", lib.Root + "/std/str.sea", lib.Root + "/std/io.sea"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("Resolve() = %v, expected %v", got, expected)
	}

	src, err := r.ReadFile(got[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(src, "rec String") {
		t.Errorf("std/lib.sea does not declare String")
	}

	if _, err := r.ReadFile(lib.Root + "/std/missing.sea"); err == nil {
		t.Error("ReadFile() of a missing file succeeded")
	}
}
