package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"seac/lib"
	"seac/pkg/build"
	"seac/pkg/colors"
	"seac/pkg/compiler"
	"seac/pkg/diag"
	"seac/pkg/libfetch"
	"seac/pkg/modules"
	"seac/pkg/reef"
	"seac/pkg/utils"
	"seac/pkg/vfs"
)

const usage = `usage:
  seac [flags] <input.sea>     build (and optionally run) a Sea program
  seac get <host/path>...      download or update libraries in ~/.sea/lib

flags:
`

type options struct {
	output   string
	prod     bool
	cc       string
	ccflags  string
	nobuild  bool
	libpaths string
	run      bool
	args     string
	std      string
	nostd    bool
	verbose  bool
	nocolor  bool
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("seac", flag.ContinueOnError)
	fs.SetOutput(stderr)
	both := func(short, long string, p *string, value, help string) {
		fs.StringVar(p, short, value, help)
		fs.StringVar(p, long, value, "same as -"+short)
	}
	bothBool := func(short, long string, p *bool, help string) {
		fs.BoolVar(p, short, false, help)
		fs.BoolVar(p, long, false, "same as -"+short)
	}
	both("o", "output", &o.output, "", "output executable (default: main)")
	bothBool("p", "prod", &o.prod, "production build (gcc -O3)")
	both("c", "cc", &o.cc, "", "C compiler to use")
	both("f", "ccflags", &o.ccflags, "", "flags for the C compiler, replacing -g3/-O3")
	bothBool("n", "nobuild", &o.nobuild, "only generate C, do not build")
	both("l", "libpaths", &o.libpaths, "", "colon separated library search path, first match wins")
	bothBool("r", "run", &o.run, "run the program after building it")
	both("a", "args", &o.args, "", "arguments passed to the program with -run")
	fs.StringVar(&o.std, "std", "", "directory holding the standard library (default: built in)")
	fs.BoolVar(&o.nostd, "nostd", false, "disable the implicit `use std`")
	fs.BoolVar(&o.verbose, "v", false, "print each stage")
	fs.BoolVar(&o.nocolor, "nocolor", false, "disable coloured output")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	return fs
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is the whole CLI; it returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "get" {
		return runGet(args[1:], stdout, stderr)
	}

	var o options
	fs := newFlagSet(&o, stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.nocolor || os.Getenv("NO_COLOR") != "" {
		colors.Enabled = false
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	input := fs.Arg(0)
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	_, dir, err := utils.GetPathInfo(input)
	if err != nil {
		fmt.Fprintln(stderr, "path error:", err)
		return 1
	}
	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input file %q: %v\n", input, err)
		return 1
	}

	var extraFlags []string
	if err := applyReef(&o, set, dir, &extraFlags); err != nil {
		fmt.Fprintln(stderr, "error reading build.reef:", err)
		return 1
	}

	libPaths, err := searchPath(&o, filepath.Dir(input))
	if err != nil {
		fmt.Fprintln(stderr, "libpaths error:", err)
		return 1
	}
	fsys := vfs.Union{vfs.EmbedFS{Root: lib.Root, FS: lib.Files}, vfs.OSFS{}}
	resolver := modules.New(fsys, libPaths...)
	if o.verbose {
		colors.GREY.Fprintf(stdout, "library paths: %s\n", strings.Join(libPaths, ", "))
	}

	out, err := compiler.Compile(string(src), compiler.Config{File: input, Loader: resolver, NoStd: o.nostd})
	if err != nil {
		report(stderr, err, input, string(src), fsys)
		return 1
	}
	if o.verbose {
		for _, f := range out.Files {
			colors.GREY.Fprintf(stdout, "compiled %s\n", f)
		}
	}

	cPath, err := build.WriteSource(build.LocalBuildDir, out.C)
	if err != nil {
		fmt.Fprintln(stderr, "write error:", err)
		return 1
	}
	if o.nobuild {
		fmt.Fprintf(stdout, "generated %s\n", cPath)
		return 0
	}

	opts := build.DefaultOptions(o.prod)
	opts.Stdout, opts.Stderr = stdout, stderr
	opts.Verbose = o.verbose
	if o.cc != "" {
		opts.CC = o.cc
	}
	if set["f"] || set["ccflags"] {
		opts.Flags = build.SplitFlags(o.ccflags)
	}
	opts.Flags = append(opts.Flags, extraFlags...)
	if o.output != "" {
		opts.Output = o.output
	}
	if err := build.Compile(ctx, opts, cPath, out.CCFlags); err != nil {
		colors.RED.Fprintln(stderr, "build error:", err)
		return 1
	}
	colors.GREEN.Fprintf(stdout, "built %s\n", opts.Output)

	if !o.run {
		return 0
	}
	if err := build.Run(ctx, opts.Output, build.SplitFlags(o.args), stdout, stderr); err != nil {
		var exitErr *build.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		colors.RED.Fprintln(stderr, "run error:", err)
		return 1
	}
	return 0
}

// applyReef fills options from build.reef next to the input. Flags given
// on the command line win; sea.cc.flags is added to the cc flags.
func applyReef(o *options, set map[string]bool, dir string, extraFlags *[]string) error {
	data, err := os.ReadFile(filepath.Join(dir, reef.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	cfg, err := reef.SeaSchema.Parse(string(data))
	if err != nil {
		return err
	}
	if v, ok := cfg.String(reef.KeyCC); ok && !set["c"] && !set["cc"] {
		o.cc = v
	}
	if v, ok := cfg.String(reef.KeyOutput); ok && !set["o"] && !set["output"] {
		o.output = v
	}
	if v, ok := cfg.String(reef.KeyLibPaths); ok && !set["l"] && !set["libpaths"] {
		o.libpaths = v
	}
	if v, ok := cfg.Bool(reef.KeyNoStd); ok && v {
		o.nostd = true
	}
	if v, ok := cfg.String(reef.KeyCCFlags); ok {
		*extraFlags = build.SplitFlags(v)
	}
	return nil
}

// searchPath is -libpaths when given, else the input's directory, the
// global library directory and the standard library.
func searchPath(o *options, inputDir string) ([]string, error) {
	if o.libpaths != "" {
		return utils.SplitPathList(o.libpaths)
	}
	paths := []string{inputDir}
	if global, err := utils.GlobalLibDir(); err == nil {
		paths = append(paths, global)
	}
	std := lib.Root
	if o.std != "" {
		expanded, err := utils.ExpandHome(o.std)
		if err != nil {
			return nil, err
		}
		std = expanded
	}
	return append(paths, std), nil
}

// report renders positioned errors against the file they occurred in.
func report(w io.Writer, err error, input, src string, fsys vfs.FS) {
	d, ok := compiler.Diagnose(err)
	if !ok {
		fmt.Fprintln(w, "error:", err)
		return
	}
	source := src
	if d.File != "" && d.File != input {
		data, readErr := fsys.ReadFile(d.File)
		if readErr != nil {
			source = ""
		} else {
			source = string(data)
		}
	}
	diag.Render(w, source, d)
}

func runGet(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seac get", flag.ContinueOnError)
	fs.SetOutput(stderr)
	libDir := fs.String("libdir", "", "library directory (default: ~/.sea/lib)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: seac get [-libdir dir] <host/path>...")
		return 2
	}

	dir := *libDir
	if dir == "" {
		global, err := utils.GlobalLibDir()
		if err != nil {
			fmt.Fprintln(stderr, "get error:", err)
			return 1
		}
		dir = global
	}
	f := &libfetch.Fetcher{
		LibDir:   dir,
		Progress: func(m string) { colors.GREY.Fprintln(stdout, m) },
	}
	for _, name := range fs.Args() {
		res, err := f.Fetch(name)
		if err != nil {
			colors.RED.Fprintln(stderr, "get error:", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s -> %s\n", name, res.Path)
	}
	return 0
}
