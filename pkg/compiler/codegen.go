package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// nsSep replaces the Sea namespace separator ' in emitted C names.
const nsSep = "$"

// ModuleLoader finds the files behind a `use` path and reads them.
type ModuleLoader interface {
	Resolve(path string, selections []string) ([]string, error)
	ReadFile(path string) (string, error)
}

// Options configures one lowering run.
type Options struct {
	// File is the path of the entry file, used in region markers and ${dir}.
	// When set it replaces the path the program was parsed with.
	File string
	// Loader resolves `use`. With a nil Loader every `use` is an import
	// error and there is no implicit std.
	Loader ModuleLoader
	// NoStd skips the implicit `use std`.
	NoStd bool
}

// Output is the result of lowering a program.
type Output struct {
	C       string
	CCFlags []string
	// Files lists every imported source file in emission order.
	Files   []string
	Symbols *SymbolTable
}

// CodeBlock is the per-block defer state.
type CodeBlock struct {
	Deferred []Expr
	// Exited is set once ret, break or continue has flushed the block.
	Exited bool
}

// CodeGen walks an AST and emits one C translation unit.
type CodeGen struct {
	syms   *SymbolTable
	out    strings.Builder
	blocks []*CodeBlock
	loader ModuleLoader

	// fileStack is the chain of files being lowered, innermost last.
	fileStack []string
	// visited holds every resolved file already emitted.
	visited []string
	// used holds every logical module path named by a `use`.
	used    []string
	ccFlags []string
}

func newCodeGen(syms *SymbolTable, loader ModuleLoader) *CodeGen {
	return &CodeGen{syms: syms, loader: loader}
}

func (cg *CodeGen) emit(s string) {
	cg.out.WriteString(s)
}

func (cg *CodeGen) emitf(format string, args ...any) {
	fmt.Fprintf(&cg.out, format, args...)
}

func (cg *CodeGen) currentFile() string {
	if len(cg.fileStack) == 0 {
		return ""
	}
	return cg.fileStack[len(cg.fileStack)-1]
}

func (cg *CodeGen) errorf(kind CompileErrorKind, n Node, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, File: cg.currentFile(), Pos: n.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// locate stamps the current file on errors raised without one.
func (cg *CodeGen) locate(err error) error {
	if ce, ok := err.(*CompileError); ok && ce.File == "" {
		ce.File = cg.currentFile()
	}
	return err
}

func cName(name string) string {
	return strings.ReplaceAll(name, "'", nsSep)
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "'" + name
}

// Generate lowers prog to C. The first error aborts lowering and is
// returned unchanged.
func Generate(prog *Program, syms *SymbolTable, opts Options) (*Output, error) {
	cg := newCodeGen(syms, opts.Loader)
	if opts.File != "" && opts.File != prog.File {
		renamed := *prog
		renamed.File = opts.File
		prog = &renamed
	}
	if !opts.NoStd && opts.Loader != nil {
		std := &UseDecl{Path: []string{"std"}}
		cg.fileStack = append(cg.fileStack, prog.File)
		err := cg.genUse(std)
		cg.fileStack = cg.fileStack[:len(cg.fileStack)-1]
		if err != nil {
			return nil, err
		}
	}
	if err := cg.genProgram(prog); err != nil {
		return nil, err
	}
	return &Output{
		C:       cg.out.String(),
		CCFlags: slices.Clone(cg.ccFlags),
		Files:   slices.Clone(cg.visited),
		Symbols: syms,
	}, nil
}

// genProgram emits one file bracketed by region markers.
func (cg *CodeGen) genProgram(prog *Program) error {
	cg.fileStack = append(cg.fileStack, prog.File)
	defer func() { cg.fileStack = cg.fileStack[:len(cg.fileStack)-1] }()
	if prog.File != "" && !slices.Contains(cg.visited, prog.File) {
		cg.visited = append(cg.visited, prog.File)
	}

	cg.emitf("#pragma region \"file: %s\"\n", prog.File)
	for _, d := range prog.Decls {
		if err := cg.genDecl(d, ""); err != nil {
			return err
		}
	}
	cg.emitf("#pragma endregion \"file: %s\"\n", prog.File)
	return nil
}

//  Top-level declarations

// genDecl lowers a top-level declaration. ns is the enclosing pkg
// namespace, empty at file level.
func (cg *CodeGen) genDecl(d Decl, ns string) error {
	switch n := d.(type) {
	case *RawText:
		cg.emit(n.Text + "\n")
	case *UseDecl:
		if ns != "" {
			return cg.errorf(ErrStatementNotAllowedAtTopLevel, n, "`use` is not allowed inside pkg `%s`", ns)
		}
		return cg.genUse(n)
	case *PragmaDecl:
		if ns != "" {
			return cg.errorf(ErrStatementNotAllowedAtTopLevel, n, "`pragma` is not allowed inside pkg `%s`", ns)
		}
		return cg.genPragma(n)
	case *PkgDecl:
		inner := qualify(ns, n.Name)
		for _, child := range n.Decls {
			if err := cg.genDecl(child, inner); err != nil {
				return err
			}
		}
	case *FunDecl:
		return cg.genFun(n, qualify(ns, n.Name))
	case *RecDecl:
		return cg.genRec(n, qualify(ns, n.Name))
	case *DefDecl:
		return cg.genDef(n, qualify(ns, n.Name))
	case *TagDecl:
		return cg.genTag(n, qualify(ns, n.Name))
	case *TagRecDecl:
		return cg.genTagRec(n, qualify(ns, n.Name))
	case *GlobalDecl:
		v := *n.Var
		v.Name = qualify(ns, v.Name)
		if err := cg.genVar(&v); err != nil {
			return err
		}
		cg.emit(";\n")
	default:
		return cg.errorf(ErrStatementNotAllowedAtTopLevel, d, "statement not allowed at top level")
	}
	return nil
}

func (cg *CodeGen) uses(path string) bool {
	return slices.Contains(cg.used, path)
}

// genUse resolves a `use` and lowers every file not emitted yet,
// depth first, re-entering the parser for each.
func (cg *CodeGen) genUse(u *UseDecl) error {
	path := strings.Join(u.Path, "/")
	if cg.loader == nil {
		return cg.errorf(ErrImport, u, "import error: cannot resolve `%s`: no module loader", path)
	}
	files, err := cg.loader.Resolve(path, u.Selections)
	if err != nil {
		e := cg.errorf(ErrImport, u, "import error: %v", err)
		e.Help = "check the library paths passed with -libpaths"
		return e
	}
	if !cg.uses(path) {
		cg.used = append(cg.used, path)
	}
	for _, sel := range u.Selections {
		if full := path + "/" + sel; !cg.uses(full) {
			cg.used = append(cg.used, full)
		}
	}

	for _, file := range files {
		if slices.Contains(cg.visited, file) {
			continue
		}
		cg.visited = append(cg.visited, file)
		src, err := cg.loader.ReadFile(file)
		if err != nil {
			return cg.errorf(ErrImport, u, "import error: %v", err)
		}
		prog, err := ParseSource(file, src)
		if err != nil {
			return err
		}
		if err := cg.genProgram(prog); err != nil {
			return err
		}
	}
	return nil
}

var funTagKeywords = map[string]string{
	TagNoRet:  "noreturn ",
	TagInline: "inline ",
	TagStatic: "static ",
	TagExtern: "extern ",
}

func (cg *CodeGen) genFun(f *FunDecl, name string) error {
	for _, tag := range f.Tags {
		cg.emit(funTagKeywords[tag])
	}
	ret, err := cg.cType(f.Return.Type, f.Return)
	if err != nil {
		return err
	}
	params := make([]SeaType, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type.Type
	}
	cg.syms.Declare(name, FunSymbol{Tags: f.Tags, Params: params, Return: f.Return.Type}, cg.syms.Depth())

	cg.emitf("%s %s(", ret, cName(name))
	cg.syms.EnterScope()
	defer cg.syms.ExitScope()
	for i, p := range f.Params {
		if i > 0 {
			cg.emit(", ")
		}
		decl, err := cg.cNamedType(p.Name, p.Type.Type, p.Type)
		if err != nil {
			return err
		}
		cg.emit(decl)
		cg.syms.Declare(p.Name, VarSymbol{Type: p.Type.Type, Mutable: true}, cg.syms.Depth())
	}
	if f.Body == nil {
		cg.emit(");\n\n")
		return nil
	}
	cg.emit(")\n")
	if err := cg.genBlock(f.Body); err != nil {
		return err
	}
	cg.emit("\n\n")
	return nil
}

func recFields(fields []Field) []SymField {
	out := make([]SymField, len(fields))
	for i, f := range fields {
		out[i] = SymField{Name: f.Name, Type: f.Type.Type}
	}
	return out
}

// genRec emits a forward typedef then the body, so fields may point back
// at the rec itself.
func (cg *CodeGen) genRec(r *RecDecl, name string) error {
	kw := "struct"
	if hasTag(r.Tags, TagUnion) {
		kw = "union"
	}
	id := cName(name)
	cg.emitf("typedef %s %s %s;\n", kw, id, id)
	cg.emitf("typedef %s %s{\n", kw, id)
	for _, f := range r.Fields {
		decl, err := cg.cNamedType(f.Name, f.Type.Type, f.Type)
		if err != nil {
			return err
		}
		cg.emitf("\t%s;\n", decl)
	}
	cg.emitf("} %s;\n\n", id)
	cg.syms.Declare(name, RecSymbol{Fields: recFields(r.Fields)}, cg.syms.Depth())
	return nil
}

func (cg *CodeGen) genDef(d *DefDecl, name string) error {
	decl, err := cg.cNamedType(name, d.Type.Type, d.Type)
	if err != nil {
		return err
	}
	cg.emitf("typedef %s;\n\n", decl)
	cg.syms.Declare(name, DefSymbol{Type: d.Type.Type}, cg.syms.Depth())
	return nil
}

func (cg *CodeGen) genTag(t *TagDecl, name string) error {
	id := cName(name)
	cg.emit("typedef enum {\n")
	entries := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = e.Name
		cg.emitf("\t%s%s%s", id, nsSep, e.Name)
		if e.Value != nil {
			cg.emit(" = ")
			if err := cg.genExpr(e.Value); err != nil {
				return err
			}
		}
		cg.emit(",\n")
	}
	cg.emitf("} %s;\n\n", id)
	cg.syms.Declare(name, TagSymbol{Entries: entries}, cg.syms.Depth())

	if len(entries) == 0 || hasTag(t.Tags, TagNoHelpers) {
		return nil
	}

	storage := ""
	if hasTag(t.Tags, TagStatic) {
		storage = "static "
	}
	cg.emitf("%sconst %s %s%sentries[] = {\n", storage, id, id, nsSep)
	for _, e := range entries {
		cg.emitf("\t%s%s%s,\n", id, nsSep, e)
	}
	cg.emit("};\n\n")
	cg.emitf("%sconst int %s%slen = %d;\n\n", storage, id, nsSep, len(entries))

	return cg.genTagHelpers(t, name, entries)
}

func (cg *CodeGen) genTagRec(t *TagRecDecl, name string) error {
	id := cName(name)
	cg.emit("typedef enum {\n")
	for _, v := range t.Variants {
		cg.emitf("\t%s%s%s,\n", id, nsSep, v.Name)
	}
	cg.emitf("} %s;\n\n", cName(tagRecKindName(name)))

	variants := make([]VariantSymbol, len(t.Variants))
	for i, v := range t.Variants {
		cg.emit("typedef struct { ")
		for _, f := range v.Fields {
			decl, err := cg.cNamedType(f.Name, f.Type.Type, f.Type)
			if err != nil {
				return err
			}
			cg.emit(decl + "; ")
		}
		variantName := variantTypeName(name, v.Name)
		cg.emitf("} %s;\n", cName(variantName))
		fields := recFields(v.Fields)
		variants[i] = VariantSymbol{Name: v.Name, Fields: fields}
		cg.syms.Declare(variantName, RecSymbol{Fields: fields}, cg.syms.Depth())
	}

	cg.emit("typedef struct {\n")
	cg.emitf("\t%s kind;\n", cName(tagRecKindName(name)))
	cg.emit("\tunion {\n")
	for _, v := range t.Variants {
		cg.emitf("\t\t%s %s;\n", cName(variantTypeName(name, v.Name)), v.Name)
	}
	cg.emit("\t};\n")
	cg.emitf("} %s;\n\n", id)
	cg.syms.Declare(name, TagRecSymbol{Variants: variants}, cg.syms.Depth())
	return nil
}

//  Types

// cType renders a type with no declarator, as used by casts and return
// types. Function pointers need a name and are rejected.
func (cg *CodeGen) cType(t SeaType, at Node) (string, error) {
	if t.IsFunPtr() {
		err := cg.errorf(ErrFunPtrUnnamed, at, "function pointers must be named types")
		err.Help = "declare an alias with `def Name = fun(...)` and use that"
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(cName(t.Name))
	sb.WriteString(strings.Repeat("*", int(t.Pointers)))
	for _, a := range t.Arrays {
		sb.WriteString(a.String())
	}
	return sb.String(), nil
}

// cNamedType renders a declaration of id with type t.
//
//	int **id[4]
//	void(* id)(int, char*)
func (cg *CodeGen) cNamedType(id string, t SeaType, at Node) (string, error) {
	var sb strings.Builder
	if t.IsFunPtr() {
		ret, err := cg.cType(*t.FunReturn, at)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%s(*%s %s)(", ret, strings.Repeat("*", int(t.Pointers)), cName(id))
		for i, p := range t.FunParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			param, err := cg.cType(p, at)
			if err != nil {
				return "", err
			}
			sb.WriteString(param)
		}
		sb.WriteString(")")
	} else {
		fmt.Fprintf(&sb, "%s %s%s", cName(t.Name), strings.Repeat("*", int(t.Pointers)), cName(id))
	}
	for _, a := range t.Arrays {
		sb.WriteString(a.String())
	}
	return sb.String(), nil
}

//  Blocks and defer

func (cg *CodeGen) currentBlock() *CodeBlock {
	return cg.blocks[len(cg.blocks)-1]
}

func (cg *CodeGen) emitDeferred(block *CodeBlock) error {
	for i := len(block.Deferred) - 1; i >= 0; i-- {
		cg.emit("/* deferred */\n")
		if err := cg.genExpr(block.Deferred[i]); err != nil {
			return err
		}
		cg.emit(";\n")
	}
	return nil
}

// flushAll runs every open block's deferred list, innermost first.
func (cg *CodeGen) flushAll() error {
	for i := len(cg.blocks) - 1; i >= 0; i-- {
		if err := cg.emitDeferred(cg.blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

// genBlock emits { ... }. Falling off the end flushes the block's own
// deferred list unless a ret already did.
func (cg *CodeGen) genBlock(b *BlockExpr) error {
	cg.emit("{\n")
	block := &CodeBlock{}
	cg.blocks = append(cg.blocks, block)
	cg.syms.EnterScope()
	for _, s := range b.Stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	if !block.Exited {
		if err := cg.emitDeferred(block); err != nil {
			return err
		}
		block.Deferred = nil
	}
	cg.syms.ExitScope()
	cg.blocks = cg.blocks[:len(cg.blocks)-1]
	cg.emit("}")
	return nil
}

//  Statements

func (cg *CodeGen) genStmt(s Stmt) error {
	switch n := s.(type) {
	case *RetStmt:
		if err := cg.flushAll(); err != nil {
			return err
		}
		if n.Value == nil {
			cg.emit("return;\n")
		} else {
			cg.emit("return ")
			if err := cg.genExpr(n.Value); err != nil {
				return err
			}
			cg.emit(";\n")
		}
		cg.currentBlock().Exited = true
	case *ContinueStmt:
		if err := cg.emitDeferred(cg.currentBlock()); err != nil {
			return err
		}
		cg.emit("continue;\n")
		cg.currentBlock().Exited = true
	case *BreakStmt:
		if err := cg.emitDeferred(cg.currentBlock()); err != nil {
			return err
		}
		cg.emit("break;\n")
		cg.currentBlock().Exited = true
	case *DeferStmt:
		block := cg.currentBlock()
		block.Deferred = append(block.Deferred, n.Value)
	case *RawText:
		cg.emit(n.Text + "\n")
	case *IfStmt:
		if err := cg.genIf(n); err != nil {
			return err
		}
		cg.emit("\n")
	case *SwitchStmt:
		return cg.genSwitch(n)
	case *ForCStmt:
		return cg.genForC(n)
	case *ForWhileStmt:
		cg.emit("while (")
		if err := cg.genExpr(n.Cond); err != nil {
			return err
		}
		cg.emit(") ")
		if err := cg.genBlock(n.Body); err != nil {
			return err
		}
		cg.emit("\n")
	case *ForRangeStmt:
		return cg.genForRange(n)
	case *ExprStmt:
		if cg.callsNoRet(n.X) {
			if err := cg.flushAll(); err != nil {
				return err
			}
		}
		if err := cg.genExpr(n.X); err != nil {
			return err
		}
		cg.emit(";\n")
	default:
		return cg.errorf(ErrStatementNotAllowedAtTopLevel, s, "unsupported statement")
	}
	return nil
}

// callsNoRet reports whether x is a direct call to a #noret function.
func (cg *CodeGen) callsNoRet(x Expr) bool {
	call, ok := x.(*CallExpr)
	if !ok {
		return false
	}
	id, ok := call.Fn.(*Ident)
	if !ok {
		return false
	}
	sym, ok := cg.syms.Resolve(id.Name)
	if !ok {
		return false
	}
	fun, ok := sym.(FunSymbol)
	return ok && hasTag(fun.Tags, TagNoRet)
}

func (cg *CodeGen) genIf(n *IfStmt) error {
	cg.emit("if (")
	if err := cg.genExpr(n.Cond); err != nil {
		return err
	}
	cg.emit(") ")
	if err := cg.genBlock(n.Then); err != nil {
		return err
	}
	switch e := n.Else.(type) {
	case nil:
	case *IfStmt:
		cg.emit(" else ")
		return cg.genIf(e)
	case *BlockExpr:
		cg.emit(" else ")
		return cg.genBlock(e)
	}
	return nil
}

func (cg *CodeGen) genSwitch(n *SwitchStmt) error {
	cg.emit("switch (")
	if err := cg.genExpr(n.Value); err != nil {
		return err
	}
	cg.emit(") {\n")
	for _, c := range n.Cases {
		if c.Value == nil {
			cg.emit("default: ")
		} else {
			cg.emit("case (")
			if err := cg.genExpr(c.Value); err != nil {
				return err
			}
			cg.emit("): ")
		}
		if err := cg.genBlock(c.Body); err != nil {
			return err
		}
		if !c.Fall {
			cg.emit(" break;")
		}
		cg.emit("\n")
	}
	cg.emit("}\n")
	return nil
}

func (cg *CodeGen) genForC(n *ForCStmt) error {
	cg.syms.EnterScope()
	defer cg.syms.ExitScope()
	cg.emit("for (")
	if err := cg.genExpr(n.Init); err != nil {
		return err
	}
	cg.emit(" ; ")
	if err := cg.genExpr(n.Cond); err != nil {
		return err
	}
	cg.emit(" ; ")
	if err := cg.genExpr(n.Post); err != nil {
		return err
	}
	cg.emit(") ")
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.emit("\n")
	return nil
}

// defaultRangeVar names the loop variable of `for a to b`.
const defaultRangeVar = "_i"

func (cg *CodeGen) genForRange(n *ForRangeStmt) error {
	v := n.Var
	if v == "" {
		v = defaultRangeVar
	}
	cg.syms.EnterScope()
	defer cg.syms.ExitScope()
	cg.emitf("for (int %s = ", cName(v))
	if err := cg.genExpr(n.From); err != nil {
		return err
	}
	cg.emitf(" ; %s < ", cName(v))
	if err := cg.genExpr(n.To); err != nil {
		return err
	}
	cg.emitf(" ; %s++) ", cName(v))
	cg.syms.Declare(v, VarSymbol{Type: TypeI32, Mutable: true}, cg.syms.Depth())
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.emit("\n")
	return nil
}

//  Expressions

func (cg *CodeGen) genExprList(xs []Expr) error {
	for i, x := range xs {
		if i > 0 {
			cg.emit(", ")
		}
		if err := cg.genExpr(x); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genExpr(x Expr) error {
	switch n := x.(type) {
	case *GroupExpr:
		cg.emit("(")
		if err := cg.genExpr(n.X); err != nil {
			return err
		}
		cg.emit(")")
	case *NumberLit:
		cg.emit(strings.ReplaceAll(n.Value, "_", ""))
	case *StringLit:
		size := cStringLen(n.Value)
		cg.emitf("(String){false, %d, hash%swyhash%shash_c_string(_internal%sstrsecret, \"%s\", %d), \"%s\"}",
			size, nsSep, nsSep, nsSep, n.Value, size, n.Value)
	case *CStringLit:
		cg.emitf("\"%s\"", n.Value)
	case *CharLit:
		cg.emitf("'%s'", n.Value)
	case *BoolLit:
		cg.emitf("%t", n.Value)
	case *Ident:
		cg.emit(cName(n.Name))
	case *BlockExpr:
		return cg.genBlock(n)
	case *NewExpr:
		return cg.genNew(n)
	case *UnaryExpr:
		cg.emit("(" + cOperators[n.Op])
		if err := cg.genExpr(n.X); err != nil {
			return err
		}
		cg.emit(")")
	case *PostfixExpr:
		cg.emit("(")
		if n.Op == CARET {
			cg.emit("*")
			if err := cg.genExpr(n.X); err != nil {
				return err
			}
		} else {
			if err := cg.genExpr(n.X); err != nil {
				return err
			}
			cg.emit(cOperators[n.Op])
		}
		cg.emit(")")
	case *BinaryExpr:
		cg.emit("(")
		if err := cg.genExpr(n.Left); err != nil {
			return err
		}
		if n.Op == DOT {
			cg.emit(".")
		} else {
			cg.emit(" " + cOperators[n.Op] + " ")
		}
		if err := cg.genExpr(n.Right); err != nil {
			return err
		}
		cg.emit(")")
	case *CastExpr:
		// The type comes first in C.
		typ, err := cg.cType(n.Type.Type, n.Type)
		if err != nil {
			return err
		}
		cg.emit("(" + typ + ")(")
		if err := cg.genExpr(n.X); err != nil {
			return err
		}
		cg.emit(")")
	case *IndexExpr:
		if err := cg.genExpr(n.X); err != nil {
			return err
		}
		cg.emit("[")
		if err := cg.genExpr(n.Index); err != nil {
			return err
		}
		cg.emit("]")
	case *CallExpr:
		cg.emit("(")
		if err := cg.genExpr(n.Fn); err != nil {
			return err
		}
		cg.emit("(")
		if err := cg.genExprList(n.Args); err != nil {
			return err
		}
		cg.emit("))")
	case *MacroCallExpr:
		cg.emit(cName(n.Name) + "(")
		if err := cg.genExprList(n.Args); err != nil {
			return err
		}
		cg.emit(")")
	case *ListExpr:
		cg.emit("{")
		if err := cg.genExprList(n.Elems); err != nil {
			return err
		}
		cg.emit("}")
	case *VarExpr:
		return cg.genVar(n)
	default:
		return cg.errorf(ErrInference, x, "unsupported expression")
	}
	return nil
}

// genVar emits `[const ]T name = value` and declares the binding after its
// value, so the value cannot see it.
func (cg *CodeGen) genVar(v *VarExpr) error {
	var typ SeaType
	var at Node = v
	if v.Type != nil {
		typ = v.Type.Type
		at = v.Type
	} else {
		inferred, err := Infer(v.Value, cg.syms)
		if err != nil {
			return cg.locate(err)
		}
		typ = inferred
	}
	decl, err := cg.cNamedType(v.Name, typ, at)
	if err != nil {
		return err
	}
	if !v.Mutable {
		cg.emit("const ")
	}
	cg.emit(decl + " = ")
	if err := cg.genExpr(v.Value); err != nil {
		return err
	}
	cg.syms.Declare(v.Name, VarSymbol{Type: typ, Mutable: v.Mutable}, cg.syms.Depth())
	return nil
}

// genNew emits a compound literal. Tag recs take their variant first and
// fill that variant's union branch with the rest.
func (cg *CodeGen) genNew(n *NewExpr) error {
	sym, ok := cg.syms.Resolve(n.Name)
	if !ok {
		return cg.errorf(ErrUnknownSymbol, n, "undefined or unbound symbol: `%s`", n.Name)
	}
	if !sym.Instantiable() {
		e := cg.errorf(ErrUninstantiatable, n, "cannot instantiate `%s`", n.Name)
		e.Help = fmt.Sprintf("`%s` is a %s; only rec and tag rec can follow `new`", n.Name, sym.Kind())
		return e
	}

	cg.emitf("(%s){", cName(n.Name))
	tagRec, isTagRec := sym.(TagRecSymbol)
	if !isTagRec {
		if err := cg.genExprList(n.Args); err != nil {
			return err
		}
		cg.emit("}")
		return nil
	}

	if len(n.Args) == 0 {
		e := cg.errorf(ErrTagRecInstantiateWithoutKind, n, "tag rec instantiation requires a kind")
		e.Help = fmt.Sprintf("pass the variant first, e.g. new %s(%s'%s, ...)", n.Name, n.Name, firstVariant(tagRec))
		return e
	}
	kind, ok := n.Args[0].(*Ident)
	variant := ""
	if ok {
		variant = strings.TrimPrefix(kind.Name, n.Name+"'")
		if variant == kind.Name {
			ok = false
		} else if _, found := tagRec.Variant(variant); !found {
			ok = false
		}
	}
	if !ok {
		e := cg.errorf(ErrTagRecInstantiateWithoutKind, n.Args[0], "tag rec instantiation requires a kind")
		e.Help = "the first parameter must be an entry in the tag rec (it currently is not)"
		return e
	}
	cg.emit(cName(kind.Name))
	if len(n.Args) > 1 {
		cg.emitf(", .%s={", variant)
		if err := cg.genExprList(n.Args[1:]); err != nil {
			return err
		}
		cg.emit("}")
	}
	cg.emit("}")
	return nil
}

func firstVariant(t TagRecSymbol) string {
	if len(t.Variants) == 0 {
		return "Variant"
	}
	return t.Variants[0].Name
}

// cStringLen is the byte length of a string literal body once its escape
// sequences are decoded by the C compiler.
func cStringLen(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n++
		if s[i] != '\\' || i+1 >= len(s) {
			continue
		}
		i++
		switch c := s[i]; {
		case c == 'x':
			for i+1 < len(s) && isHexDigit(rune(s[i+1])) {
				i++
			}
		case c >= '0' && c <= '7':
			for j := 0; j < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
				i++
			}
		}
	}
	return n
}
