// Package build hands generated C to a native compiler and runs the result.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"seac/pkg/colors"
)

const (
	CompilerDebug = "tcc"
	CompilerProd  = "gcc"
	// CompilerFallback is tried when CompilerDebug is not installed.
	CompilerFallback = "cc"

	FlagsDebug = "-g3"
	FlagsProd  = "-O3"

	LocalDir      = ".sea"
	OutputC       = "output.c"
	DefaultOutput = "main"
)

// LocalBuildDir holds generated C, relative to the working directory.
var LocalBuildDir = filepath.Join(LocalDir, "build")

// Options configures one native compile.
type Options struct {
	CC     string
	Flags  []string
	Output string
	// Verbose echoes each command before running it.
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// DefaultOptions picks the compiler and optimisation flag for a debug or
// production build. A missing tcc falls back to cc.
func DefaultOptions(prod bool) *Options {
	opts := &Options{Output: DefaultOutput, Stdout: os.Stdout, Stderr: os.Stderr}
	if prod {
		opts.CC = CompilerProd
		opts.Flags = []string{FlagsProd}
		return opts
	}
	opts.CC = CompilerDebug
	if _, err := exec.LookPath(CompilerDebug); err != nil {
		opts.CC = CompilerFallback
	}
	opts.Flags = []string{FlagsDebug}
	return opts
}

// ExitError is a child process that exited non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code: %d", e.Code)
}

// NotFoundError is a command missing from PATH.
type NotFoundError struct {
	Command string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("command not found: `%s`", e.Command)
}

// WriteSource stores the generated C under dir and returns its path.
func WriteSource(dir, c string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating build directory: %w", err)
	}
	path := filepath.Join(dir, OutputC)
	if err := os.WriteFile(path, []byte(c), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Args is the argument list passed to the C compiler. Extra flags come
// from pragmas and are placed after the source so libraries link.
func (o *Options) Args(cPath string, extra []string) []string {
	args := append([]string{}, o.Flags...)
	args = append(args, "-o", o.Output, cPath)
	return append(args, extra...)
}

// Compile builds cPath into o.Output.
func Compile(ctx context.Context, o *Options, cPath string, extra []string) error {
	args := o.Args(cPath, extra)
	if o.Verbose {
		colors.CYAN.Fprintf(o.stderr(), ": %s %s\n", o.CC, strings.Join(args, " "))
	}
	return run(ctx, o.CC, args, nil, o.stdout(), o.stderr())
}

// Run executes exe with the process's stdin and the given output streams,
// returning its exit status as an *ExitError when non-zero.
func Run(ctx context.Context, exe string, args []string, stdout, stderr io.Writer) error {
	if !strings.ContainsRune(exe, filepath.Separator) {
		exe = "." + string(filepath.Separator) + exe
	}
	return run(ctx, exe, args, os.Stdin, stdout, stderr)
}

func run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return &NotFoundError{Command: name}
	case errors.As(err, &exitErr):
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return err
}

func (o *Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o *Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

// SplitFlags splits a -ccflags or sea.cc.flags string on whitespace.
func SplitFlags(s string) []string {
	return strings.Fields(s)
}
