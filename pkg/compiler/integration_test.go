package compiler_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"seac/lib"
	"seac/pkg/colors"
	"seac/pkg/compiler"
	"seac/pkg/diag"
	"seac/pkg/modules"
	"seac/pkg/vfs"
)

// newResolver searches the in-memory project directory "proj" and then
// the embedded standard library.
func newResolver(t *testing.T, files map[string]string) *modules.Resolver {
	t.Helper()
	mem, err := vfs.NewMemFSFrom(files)
	if err != nil {
		t.Fatalf("NewMemFSFrom failed: %v", err)
	}
	fsys := vfs.Union{vfs.EmbedFS{Root: lib.Root, FS: lib.Files}, mem}
	return modules.New(fsys, "proj", lib.Root)
}

func compile(t *testing.T, src string, cfg compiler.Config) *compiler.Output {
	t.Helper()
	if cfg.File == "" {
		cfg.File = "proj/main.sea"
	}
	out, err := compiler.Compile(src, cfg)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return out
}

func assertOrder(t *testing.T, code string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		i := strings.Index(code, p)
		if i < 0 {
			t.Errorf("missing %q", p)
			return
		}
		if i < last {
			t.Errorf("%q appears out of order", p)
		}
		last = i
	}
}

func TestCompile_WithoutLoader(t *testing.T) {
	out := compile(t, "fun main(): i32 -> ret 0", compiler.Config{File: "main.sea"})
	expected := "#pragma region \"file: main.sea\"\n" +
		"i32 main()\n{\nreturn 0;\n}\n\n" +
		"#pragma endregion \"file: main.sea\"\n"
	if out.C != expected {
		t.Errorf("C =\n%s\nexpected\n%s", out.C, expected)
	}
	if len(out.CCFlags) != 0 {
		t.Errorf("CCFlags = %v, expected none", out.CCFlags)
	}
}

func TestIntegration_HelloWorld(t *testing.T) {
	src := "use std/io\n" +
		"fun main(): i32 {\n" +
		"\tio'println(\"Hello, World!\")\n" +
		"\tret 0\n" +
		"}\n"
	out := compile(t, src, compiler.Config{Loader: newResolver(t, nil)})

	expectedFiles := []string{lib.Root + "/std/lib.sea", "proj/main.sea", lib.Root + "/std/io.sea"}
	if !reflect.DeepEqual(out.Files, expectedFiles) {
		t.Errorf("Files = %v, expected %v", out.Files, expectedFiles)
	}

	assertOrder(t, out.C,
		"#include <stdio.h>",
		"typedef struct String String;",
		"const u64 _internal$strsecret = 0x9e3779b97f4a7c15;",
		"u64 hash$wyhash$hash_c_string(u64 secret, char *s, usize len)",
		"noreturn void panic(String msg)",
		"#pragma region \"file: proj/main.sea\"",
		"void io$print(String s)",
		"void io$println(String s)",
		"i32 main()",
	)
	if !strings.Contains(out.C, "(io$println((String){false, 13, hash$wyhash$hash_c_string(_internal$strsecret, \"Hello, World!\", 13), \"Hello, World!\"}));") {
		t.Errorf("missing println call:\n%s", out.C)
	}
}

func TestIntegration_NoStd(t *testing.T) {
	out := compile(t, "fun main(): i32 -> ret 0", compiler.Config{Loader: newResolver(t, nil), NoStd: true})
	if strings.Contains(out.C, "#include") {
		t.Errorf("expected no standard library with NoStd:\n%s", out.C)
	}
	if !reflect.DeepEqual(out.Files, []string{"proj/main.sea"}) {
		t.Errorf("Files = %v", out.Files)
	}
}

func TestIntegration_TagHelpers(t *testing.T) {
	src := "use std/io\n" +
		"tag Color { Red, Green }\n" +
		"fun main(): i32 {\n" +
		"\tlet c: Color = Color'from_str(\"Green\")\n" +
		"\tio'println(Color'to_str(c))\n" +
		"\tret 0\n" +
		"}\n"
	out := compile(t, src, compiler.Config{Loader: newResolver(t, nil)})

	assertOrder(t, out.C,
		"String Color$to_str(Color it)",
		"bool str$compare(String a, String b)",
		"Color Color$from_str(String it)",
		"const Color c = (Color$from_str(",
	)
	found := false
	for _, f := range out.Files {
		if f == lib.Root+"/std/str.sea" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected std/str.sea to be pulled in, Files = %v", out.Files)
	}
}

func TestIntegration_LocalModules(t *testing.T) {
	files := map[string]string{
		"proj/geom/lib.sea": "rec Vec { x: f32, y: f32 }",
		"proj/geom/ops.sea": "fun add(a: Vec, b: Vec): Vec -> ret new Vec(a.x + b.x, a.y + b.y)",
	}
	src := "use geom [ops]\n" +
		"fun main(): i32 {\n" +
		"\tlet v = add(new Vec(1.0, 2.0), new Vec(3.0, 4.0))\n" +
		"\tret v.x as i32\n" +
		"}\n"
	out := compile(t, src, compiler.Config{Loader: newResolver(t, files), NoStd: true})

	expectedFiles := []string{"proj/main.sea", "proj/geom/lib.sea", "proj/geom/ops.sea"}
	if !reflect.DeepEqual(out.Files, expectedFiles) {
		t.Errorf("Files = %v, expected %v", out.Files, expectedFiles)
	}
	assertOrder(t, out.C,
		"typedef struct Vec Vec;",
		"Vec add(Vec a, Vec b)",
		"return (Vec){((a.x) + (b.x)), ((a.y) + (b.y))};",
		"const Vec v = (add((Vec){1.0, 2.0}, (Vec){3.0, 4.0}));",
		"return (i32)((v.x));",
	)
}

func TestIntegration_Pragmas(t *testing.T) {
	src := "pragma add_library(\"m\")\npragma add_include_dir(\"${dir}/include\")\n"
	out := compile(t, src, compiler.Config{NoStd: true})
	expected := []string{"-lm", "-Iproj/include"}
	if !reflect.DeepEqual(out.CCFlags, expected) {
		t.Errorf("CCFlags = %v, expected %v", out.CCFlags, expected)
	}
}

func TestIntegration_Diagnostics(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		stage  string
		line   int
		column int
		msg    string
		help   string
	}{
		{
			name:   "Lex",
			src:    "fun main() { let s = \"oops }",
			stage:  "lex error: ",
			line:   1,
			column: 22,
			msg:    "unterminated string literal",
		},
		{
			name:   "Parse",
			src:    "fun main() {",
			stage:  "parse error: ",
			line:   1,
			column: 13,
			msg:    "reached end of file before closing `}`",
		},
		{
			name:   "Codegen",
			src:    "fun main() {\n\tnew Nope()\n}",
			stage:  "codegen error: ",
			line:   2,
			column: 2,
			msg:    "undefined or unbound symbol: `Nope`",
		},
		{
			name:   "Import",
			src:    "use nothing",
			stage:  "codegen error: ",
			line:   1,
			column: 1,
			msg:    "cannot find module `nothing`, searched:",
			help:   "check the library paths passed with -libpaths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.Compile(tt.src, compiler.Config{File: "main.sea", Loader: newResolver(t, nil), NoStd: true})
			if err == nil {
				t.Fatal("Compile succeeded, expected an error")
			}
			if !strings.HasPrefix(err.Error(), tt.stage) {
				t.Errorf("error %q does not start with %q", err, tt.stage)
			}
			d, ok := compiler.Diagnose(err)
			if !ok {
				t.Fatalf("Diagnose(%v) = false", err)
			}
			if d.File != "main.sea" || d.Line != tt.line || d.Column != tt.column {
				t.Errorf("position = %s:%d:%d, expected main.sea:%d:%d", d.File, d.Line, d.Column, tt.line, tt.column)
			}
			if !strings.Contains(d.Message, tt.msg) {
				t.Errorf("message %q does not contain %q", d.Message, tt.msg)
			}
			if d.Help != tt.help {
				t.Errorf("help = %q, expected %q", d.Help, tt.help)
			}
		})
	}

	if _, ok := compiler.Diagnose(errors.New("plain")); ok {
		t.Error("Diagnose() of an unpositioned error reported true")
	}
}

func TestIntegration_RenderDiagnostic(t *testing.T) {
	colors.Enabled = false
	defer func() { colors.Enabled = true }()

	src := "fun main() {\n\tnew Nope()\n}"
	_, err := compiler.Compile(src, compiler.Config{File: "main.sea"})
	d, ok := compiler.Diagnose(err)
	if !ok {
		t.Fatalf("Diagnose(%v) = false", err)
	}

	var buf bytes.Buffer
	diag.Render(&buf, src, d)
	expected := "main.sea:2:2: error: undefined or unbound symbol: `Nope`\n" +
		" 1 | fun main() {\n" +
		" 2 |     new Nope()\n" +
		"   |     ^\n" +
		" 3 | }\n"
	if buf.String() != expected {
		t.Errorf("Render() =\n%s\nexpected\n%s", buf.String(), expected)
	}
}
