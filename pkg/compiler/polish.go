package compiler

import (
	"strings"

	"seac/pkg/colors"
)

// polishNode is an expression flattened for prefix-notation printing: a
// leaf when children is nil.
type polishNode struct {
	name     string
	children []polishNode
}

var polishUnary = map[TokenType]string{
	REF:         "ref",
	NOT:         "not",
	MINUS:       "negate",
	CARET:       "deref",
	PLUS_PLUS:   "inc",
	MINUS_MINUS: "dec",
}

func leaf(s string) polishNode { return polishNode{name: s} }

func branch(name string, children ...polishNode) polishNode {
	if children == nil {
		children = []polishNode{}
	}
	return polishNode{name: name, children: children}
}

func polishAll(xs []Expr) []polishNode {
	out := make([]polishNode, len(xs))
	for i, x := range xs {
		out[i] = toPolish(x)
	}
	return out
}

func toPolish(x Expr) polishNode {
	switch n := x.(type) {
	case *GroupExpr:
		return branch("group", toPolish(n.X))
	case *NumberLit:
		return leaf(n.Value)
	case *StringLit:
		return leaf(n.Value)
	case *CStringLit:
		return leaf(n.Value)
	case *CharLit:
		return leaf(n.Value)
	case *BoolLit:
		return leaf(n.String())
	case *Ident:
		return leaf(n.Name)
	case *BlockExpr:
		return leaf("block")
	case *NewExpr:
		return branch("new", append([]polishNode{leaf(n.Name)}, polishAll(n.Args)...)...)
	case *UnaryExpr:
		return branch(polishUnary[n.Op], toPolish(n.X))
	case *PostfixExpr:
		return branch(polishUnary[n.Op], toPolish(n.X))
	case *BinaryExpr:
		return branch(seaOperators[n.Op], toPolish(n.Left), toPolish(n.Right))
	case *CastExpr:
		return branch("as", toPolish(n.X), leaf(n.Type.String()))
	case *IndexExpr:
		return branch("index", toPolish(n.X), toPolish(n.Index))
	case *CallExpr:
		return branch("invoke", append([]polishNode{toPolish(n.Fn)}, polishAll(n.Args)...)...)
	case *MacroCallExpr:
		return branch("@"+n.Name, polishAll(n.Args)...)
	case *ListExpr:
		return branch("list", polishAll(n.Elems)...)
	case *VarExpr:
		kw := "let"
		if n.Mutable {
			kw = "var"
		}
		return branch(kw, leaf(n.Name), toPolish(n.Value))
	}
	return leaf(x.String())
}

func (p polishNode) write(sb *strings.Builder, colored bool) {
	if p.children == nil {
		if colored {
			sb.WriteString(colors.RED.Sprint(p.name))
		} else {
			sb.WriteString(p.name)
		}
		return
	}
	sb.WriteString("(")
	if colored {
		sb.WriteString(colors.BLUE.Sprint(p.name))
	} else {
		sb.WriteString(p.name)
	}
	for _, c := range p.children {
		sb.WriteString(" ")
		c.write(sb, colored)
	}
	sb.WriteString(")")
}

// Polish renders x in prefix notation: 1 + 2 * 3 is (+ 1 (* 2 3)).
func Polish(x Expr) string {
	var sb strings.Builder
	toPolish(x).write(&sb, false)
	return sb.String()
}

// PolishColored is Polish with operators and values in ANSI colour.
func PolishColored(x Expr) string {
	var sb strings.Builder
	toPolish(x).write(&sb, true)
	return sb.String()
}

// Walk calls fn for every statement-level expression in prog, in source
// order: values of ret, defer and expression statements, conditions,
// switch values and loop headers, and global initialisers.
func Walk(prog *Program, fn func(Expr)) {
	for _, d := range prog.Decls {
		walkDecl(d, fn)
	}
}

func walkDecl(d Decl, fn func(Expr)) {
	switch n := d.(type) {
	case *PkgDecl:
		for _, child := range n.Decls {
			walkDecl(child, fn)
		}
	case *FunDecl:
		if n.Body != nil {
			walkBlock(n.Body, fn)
		}
	case *GlobalDecl:
		fn(n.Var)
	}
}

func walkBlock(b *BlockExpr, fn func(Expr)) {
	for _, s := range b.Stmts {
		walkStmt(s, fn)
	}
}

func walkStmt(s Stmt, fn func(Expr)) {
	switch n := s.(type) {
	case *RetStmt:
		if n.Value != nil {
			fn(n.Value)
		}
	case *DeferStmt:
		fn(n.Value)
	case *ExprStmt:
		fn(n.X)
	case *IfStmt:
		fn(n.Cond)
		walkBlock(n.Then, fn)
		switch e := n.Else.(type) {
		case *IfStmt:
			walkStmt(e, fn)
		case *BlockExpr:
			walkBlock(e, fn)
		}
	case *SwitchStmt:
		fn(n.Value)
		for _, c := range n.Cases {
			walkBlock(c.Body, fn)
		}
	case *ForCStmt:
		fn(n.Init)
		fn(n.Cond)
		fn(n.Post)
		walkBlock(n.Body, fn)
	case *ForWhileStmt:
		fn(n.Cond)
		walkBlock(n.Body, fn)
	case *ForRangeStmt:
		fn(n.From)
		fn(n.To)
		walkBlock(n.Body, fn)
	}
}
