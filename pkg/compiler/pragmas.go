package compiler

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// dirVar expands to the directory of the file being lowered.
const dirVar = "${dir}"

// pragmaFlag maps each known pragma to the cc flag built from its argument.
var pragmaFlag = map[string]func(arg string) string{
	"add_cc_flag":     func(arg string) string { return arg },
	"add_library":     func(arg string) string { return "-l" + arg },
	"add_include_dir": func(arg string) string { return "-I" + arg },
}

// PragmaNames lists the supported pragmas in sorted order.
func PragmaNames() []string {
	names := maps.Keys(pragmaFlag)
	slices.Sort(names)
	return names
}

// singleStringArg enforces the one-string-argument shape every pragma
// shares.
func (cg *CodeGen) singleStringArg(p *PragmaDecl) (string, error) {
	if len(p.Args) != 1 {
		return "", cg.errorf(ErrPragmaArgumentCount, p, "pragma expected %d argument(s) but got %d", 1, len(p.Args))
	}
	s, ok := p.Args[0].(*StringLit)
	if !ok {
		return "", cg.errorf(ErrInvalidPragmaArguments, p.Args[0], "invalid pragma arguments: expected `%s` at index `%d`", "String", 0)
	}
	return s.Value, nil
}

// genPragma records the cc flag a pragma asks for. Pragmas emit no C.
func (cg *CodeGen) genPragma(p *PragmaDecl) error {
	build, ok := pragmaFlag[p.Name]
	if !ok {
		e := cg.errorf(ErrNoSuchPragma, p, "no such pragma: %s", p.Name)
		e.Help = "known pragmas: " + strings.Join(PragmaNames(), ", ")
		return e
	}
	arg, err := cg.singleStringArg(p)
	if err != nil {
		return err
	}
	flag := build(strings.ReplaceAll(arg, dirVar, fileDir(cg.currentFile())))
	if !slices.Contains(cg.ccFlags, flag) {
		cg.ccFlags = append(cg.ccFlags, flag)
	}
	return nil
}

func fileDir(file string) string {
	if file == "" {
		return "."
	}
	return filepath.Dir(file)
}
