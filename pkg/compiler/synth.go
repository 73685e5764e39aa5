package compiler

// Derived tag helpers are built as ordinary AST and lowered through genFun,
// the same path as hand-written functions.

// Module paths the derived helpers depend on.
const (
	stdModule    = "std"
	stdStrModule = "std/str"
	strCompare   = "str'compare"
)

// synthesizeAndLower lowers a compiler-built function declaration.
func (cg *CodeGen) synthesizeAndLower(decl *FunDecl) error {
	return cg.genFun(decl, decl.Name)
}

// genTagHelpers derives Name'to_str and, when the string library is
// available, Name'from_str.
func (cg *CodeGen) genTagHelpers(t *TagDecl, name string, entries []string) error {
	var tags []string
	if hasTag(t.Tags, TagStatic) {
		tags = []string{TagStatic}
	}
	if err := cg.synthesizeAndLower(toStrHelper(t.At, tags, name, entries)); err != nil {
		return err
	}

	if !cg.uses(stdStrModule) {
		// Without std in use the caller opted out of the library.
		if !cg.uses(stdModule) {
			return nil
		}
		if err := cg.genUse(&UseDecl{At: t.At, Path: []string{"std", "str"}}); err != nil {
			return err
		}
	}
	return cg.synthesizeAndLower(fromStrHelper(t.At, tags, name, entries))
}

func typeNode(pos At, t SeaType) *TypeNode {
	return &TypeNode{At: pos, Type: t}
}

func retBlock(pos At, value Expr) *BlockExpr {
	return &BlockExpr{At: pos, Stmts: []Stmt{&RetStmt{At: pos, Value: value}}}
}

// toStrHelper builds
//
//	fun Name'to_str(it: Name): String {
//		switch it { case Name'A -> ret "A" ... }
//		ret ""
//	}
func toStrHelper(pos At, tags []string, name string, entries []string) *FunDecl {
	sw := &SwitchStmt{At: pos, Value: &Ident{At: pos, Name: "it"}}
	for _, e := range entries {
		sw.Cases = append(sw.Cases, SwitchCase{
			Value: &Ident{At: pos, Name: name + "'" + e},
			Body:  retBlock(pos, &StringLit{At: pos, Value: e}),
		})
	}
	return &FunDecl{
		At:     pos,
		Tags:   tags,
		Name:   name + "'to_str",
		Params: []Field{{Name: "it", Type: typeNode(pos, NamedType(name))}},
		Return: typeNode(pos, TypeString),
		Body: &BlockExpr{At: pos, Stmts: []Stmt{
			sw,
			&RetStmt{At: pos, Value: &StringLit{At: pos, Value: ""}},
		}},
	}
}

// fromStrHelper builds an if/else chain over str'compare that falls back
// to the last entry.
//
//	fun Name'from_str(it: String): Name {
//		if str'compare(it, "A") -> ret Name'A
//		else if ... else -> ret Name'<last>
//	}
func fromStrHelper(pos At, tags []string, name string, entries []string) *FunDecl {
	last := entries[len(entries)-1]
	var chain Node = retBlock(pos, &Ident{At: pos, Name: name + "'" + last})
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		chain = &IfStmt{
			At: pos,
			Cond: &CallExpr{
				At:   pos,
				Fn:   &Ident{At: pos, Name: strCompare},
				Args: []Expr{&Ident{At: pos, Name: "it"}, &StringLit{At: pos, Value: e}},
			},
			Then: retBlock(pos, &Ident{At: pos, Name: name + "'" + e}),
			Else: chain,
		}
	}
	return &FunDecl{
		At:     pos,
		Tags:   tags,
		Name:   name + "'from_str",
		Params: []Field{{Name: "it", Type: typeNode(pos, TypeString)}},
		Return: typeNode(pos, NamedType(name)),
		Body:   &BlockExpr{At: pos, Stmts: []Stmt{chain.(*IfStmt)}},
	}
}
