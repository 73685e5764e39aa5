package compiler

import "fmt"

// Config describes one compilation.
type Config struct {
	// File is the path of the source, used for diagnostics, region markers
	// and ${dir}.
	File   string
	Loader ModuleLoader
	NoStd  bool
}

// Compile runs the whole pipeline on src. Errors are wrapped with the
// failing stage; Diagnose still finds the positioned error underneath.
func Compile(src string, cfg Config) (*Output, error) {
	tokens, err := LexFile(cfg.File, src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}

	prog, err := Parse(tokens, cfg.File)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	syms := NewSymbolTable()
	out, err := Generate(prog, syms, Options{File: cfg.File, Loader: cfg.Loader, NoStd: cfg.NoStd})
	if err != nil {
		return nil, fmt.Errorf("codegen error: %w", err)
	}
	return out, nil
}
