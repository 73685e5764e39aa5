package compiler

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
	String() string
}

// Expr is implemented by every node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by nodes allowed inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by nodes allowed at the top level of a file or pkg.
type Decl interface {
	Node
	declNode()
}

// At is embedded in every node to record where it started.
type At struct {
	Start Position
}

func (a At) Pos() Position { return a.Start }

func at(tok Token) At { return At{Start: tok.Pos()} }

func joinNodes[T Node](nodes []T, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

//  Types

// TypeNode is a type annotation as written in the source.
//
//	^^fun(int, ^char[]): int
type TypeNode struct {
	At
	Type SeaType
}

func (t *TypeNode) String() string { return t.Type.String() }

//  Expression nodes

// GroupExpr is a parenthesised expression, kept so emission preserves it.
type GroupExpr struct {
	At
	X Expr
}

func (*GroupExpr) exprNode()        {}
func (g *GroupExpr) String() string { return fmt.Sprintf("(%s)", g.X) }

// NumberLit holds the literal text, underscores included.
type NumberLit struct {
	At
	Value string
}

func (*NumberLit) exprNode()        {}
func (n *NumberLit) String() string { return n.Value }

type StringLit struct {
	At
	Value string
}

func (*StringLit) exprNode()        {}
func (s *StringLit) String() string { return fmt.Sprintf("%q", s.Value) }

// CStringLit is c"..." and lowers to a plain C string.
type CStringLit struct {
	At
	Value string
}

func (*CStringLit) exprNode()        {}
func (s *CStringLit) String() string { return fmt.Sprintf("c%q", s.Value) }

type CharLit struct {
	At
	Value string
}

func (*CharLit) exprNode()        {}
func (c *CharLit) String() string { return "`" + c.Value + "`" }

type BoolLit struct {
	At
	Value bool
}

func (*BoolLit) exprNode()        {}
func (b *BoolLit) String() string { return fmt.Sprintf("%t", b.Value) }

// Ident is a possibly namespaced name: x, str'compare.
type Ident struct {
	At
	Name string
}

func (*Ident) exprNode()        {}
func (i *Ident) String() string { return i.Name }

// BlockExpr is { stmts } or -> stmt.
type BlockExpr struct {
	At
	Stmts []Stmt
}

func (*BlockExpr) exprNode() {}
func (b *BlockExpr) String() string {
	return "{" + joinNodes(b.Stmts, "; ") + "}"
}

// NewExpr constructs a rec or tag rec: new Name(args...).
type NewExpr struct {
	At
	Name string
	Args []Expr
}

func (*NewExpr) exprNode() {}
func (n *NewExpr) String() string {
	return fmt.Sprintf("new %s(%s)", n.Name, joinNodes(n.Args, ", "))
}

// UnaryExpr is a prefix operator: not, -, ref.
type UnaryExpr struct {
	At
	Op TokenType
	X  Expr
}

func (*UnaryExpr) exprNode() {}
func (u *UnaryExpr) String() string {
	return fmt.Sprintf("(%s %s)", u.Op, u.X)
}

// PostfixExpr is a postfix operator: ^ (deref), ++, --.
type PostfixExpr struct {
	At
	Op TokenType
	X  Expr
}

func (*PostfixExpr) exprNode() {}
func (p *PostfixExpr) String() string {
	return fmt.Sprintf("(%s %s)", p.X, p.Op)
}

// BinaryExpr is Left Op Right, including '.' and '='.
type BinaryExpr struct {
	At
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// CastExpr is X as Type. Emission puts the type first.
type CastExpr struct {
	At
	X    Expr
	Type *TypeNode
}

func (*CastExpr) exprNode() {}
func (c *CastExpr) String() string {
	return fmt.Sprintf("(%s as %s)", c.X, c.Type)
}

type IndexExpr struct {
	At
	X     Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}
func (i *IndexExpr) String() string {
	return fmt.Sprintf("%s[%s]", i.X, i.Index)
}

type CallExpr struct {
	At
	Fn   Expr
	Args []Expr
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", c.Fn, joinNodes(c.Args, ", "))
}

// MacroCallExpr is @name(args...), a call to a C preprocessor macro.
type MacroCallExpr struct {
	At
	Name string
	Args []Expr
}

func (*MacroCallExpr) exprNode() {}
func (m *MacroCallExpr) String() string {
	return fmt.Sprintf("@%s(%s)", m.Name, joinNodes(m.Args, ", "))
}

// ListExpr is [a, b, c] and lowers to a C initializer list.
type ListExpr struct {
	At
	Elems []Expr
}

func (*ListExpr) exprNode() {}
func (l *ListExpr) String() string {
	return "[" + joinNodes(l.Elems, ", ") + "]"
}

// VarExpr is a var (Mutable) or let binding. Type is nil when inferred.
type VarExpr struct {
	At
	Mutable bool
	Name    string
	Type    *TypeNode
	Value   Expr
}

func (*VarExpr) exprNode() {}
func (v *VarExpr) String() string {
	kw := "let"
	if v.Mutable {
		kw = "var"
	}
	if v.Type != nil {
		return fmt.Sprintf("%s %s: %s = %s", kw, v.Name, v.Type, v.Value)
	}
	return fmt.Sprintf("%s %s = %s", kw, v.Name, v.Value)
}

//  Statement nodes

type RetStmt struct {
	At
	Value Expr // nil for a bare ret
}

func (*RetStmt) stmtNode() {}
func (r *RetStmt) String() string {
	if r.Value == nil {
		return "ret"
	}
	return "ret " + r.Value.String()
}

// IfStmt's Else is nil, an *IfStmt or a *BlockExpr.
type IfStmt struct {
	At
	Cond Expr
	Then *BlockExpr
	Else Node
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	if i.Else == nil {
		return fmt.Sprintf("if %s %s", i.Cond, i.Then)
	}
	return fmt.Sprintf("if %s %s else %s", i.Cond, i.Then, i.Else)
}

// SwitchCase with a nil Value is the default (else) case.
type SwitchCase struct {
	Value Expr
	Fall  bool
	Body  *BlockExpr
}

type SwitchStmt struct {
	At
	Value Expr
	Cases []SwitchCase
}

func (*SwitchStmt) stmtNode() {}
func (s *SwitchStmt) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch %s {", s.Value)
	for _, c := range s.Cases {
		if c.Value == nil {
			sb.WriteString(" else")
		} else {
			fmt.Fprintf(&sb, " case %s", c.Value)
		}
		if c.Fall {
			sb.WriteString(" fall")
		}
		fmt.Fprintf(&sb, " %s", c.Body)
	}
	sb.WriteString(" }")
	return sb.String()
}

// ForCStmt is for init; cond; post body.
type ForCStmt struct {
	At
	Init Expr
	Cond Expr
	Post Expr
	Body *BlockExpr
}

func (*ForCStmt) stmtNode() {}
func (f *ForCStmt) String() string {
	return fmt.Sprintf("for %s; %s; %s %s", f.Init, f.Cond, f.Post, f.Body)
}

// ForWhileStmt is for cond body.
type ForWhileStmt struct {
	At
	Cond Expr
	Body *BlockExpr
}

func (*ForWhileStmt) stmtNode() {}
func (f *ForWhileStmt) String() string {
	return fmt.Sprintf("for %s %s", f.Cond, f.Body)
}

// ForRangeStmt is for [v in] from to to body. Var is empty when omitted.
type ForRangeStmt struct {
	At
	Var  string
	From Expr
	To   Expr
	Body *BlockExpr
}

func (*ForRangeStmt) stmtNode() {}
func (f *ForRangeStmt) String() string {
	if f.Var == "" {
		return fmt.Sprintf("for %s to %s %s", f.From, f.To, f.Body)
	}
	return fmt.Sprintf("for %s in %s to %s %s", f.Var, f.From, f.To, f.Body)
}

type ContinueStmt struct{ At }

func (*ContinueStmt) stmtNode()      {}
func (*ContinueStmt) String() string { return "continue" }

type BreakStmt struct{ At }

func (*BreakStmt) stmtNode()      {}
func (*BreakStmt) String() string { return "break" }

type DeferStmt struct {
	At
	Value Expr
}

func (*DeferStmt) stmtNode()        {}
func (d *DeferStmt) String() string { return "defer " + d.Value.String() }

type ExprStmt struct {
	At
	X Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string { return e.X.String() }

// RawText is a raw[...] block copied verbatim into the output.
type RawText struct {
	At
	Text string
}

func (*RawText) stmtNode()        {}
func (*RawText) declNode()        {}
func (r *RawText) String() string { return fmt.Sprintf("raw[%s]", r.Text) }

//  Top-level declarations

// Field is a name: Type pair used by parameters, rec fields and variants.
type Field struct {
	Name string
	Type *TypeNode
}

func (f Field) String() string { return f.Name + ": " + f.Type.String() }

func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

func tagPrefix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#(" + strings.Join(tags, ", ") + ") "
}

// UseDecl imports a/b/c, optionally only the listed children.
type UseDecl struct {
	At
	Path       []string
	Selections []string
}

func (*UseDecl) declNode() {}
func (u *UseDecl) String() string {
	s := "use " + strings.Join(u.Path, "/")
	if len(u.Selections) > 0 {
		s += " [" + strings.Join(u.Selections, ", ") + "]"
	}
	return s
}

// FunDecl's Body is nil only for an #extern prototype.
type FunDecl struct {
	At
	Tags   []string
	Name   string
	Params []Field
	Return *TypeNode
	Body   *BlockExpr
}

func (*FunDecl) declNode() {}
func (f *FunDecl) String() string {
	head := fmt.Sprintf("%sfun %s(%s): %s", tagPrefix(f.Tags), f.Name, joinFields(f.Params), f.Return)
	if f.Body == nil {
		return head
	}
	return head + " " + f.Body.String()
}

type RecDecl struct {
	At
	Tags   []string
	Name   string
	Fields []Field
}

func (*RecDecl) declNode() {}
func (r *RecDecl) String() string {
	return fmt.Sprintf("%srec %s {%s}", tagPrefix(r.Tags), r.Name, joinFields(r.Fields))
}

// DefDecl is a type alias: def Name = Type.
type DefDecl struct {
	At
	Tags []string
	Name string
	Type *TypeNode
}

func (*DefDecl) declNode() {}
func (d *DefDecl) String() string {
	return fmt.Sprintf("%sdef %s = %s", tagPrefix(d.Tags), d.Name, d.Type)
}

// TagEntry's Value is nil when the enumerator is implicit.
type TagEntry struct {
	Name  string
	Value Expr
}

type TagDecl struct {
	At
	Tags    []string
	Name    string
	Entries []TagEntry
}

func (*TagDecl) declNode() {}
func (t *TagDecl) String() string {
	parts := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		parts[i] = e.Name
		if e.Value != nil {
			parts[i] += " = " + e.Value.String()
		}
	}
	return fmt.Sprintf("%stag %s {%s}", tagPrefix(t.Tags), t.Name, strings.Join(parts, ", "))
}

type Variant struct {
	Name   string
	Fields []Field
}

type TagRecDecl struct {
	At
	Tags     []string
	Name     string
	Variants []Variant
}

func (*TagRecDecl) declNode() {}
func (t *TagRecDecl) String() string {
	parts := make([]string, len(t.Variants))
	for i, v := range t.Variants {
		parts[i] = fmt.Sprintf("%s(%s)", v.Name, joinFields(v.Fields))
	}
	return fmt.Sprintf("%stag rec %s {%s}", tagPrefix(t.Tags), t.Name, strings.Join(parts, ", "))
}

// PragmaDecl is pragma name(args...).
type PragmaDecl struct {
	At
	Name string
	Args []Expr
}

func (*PragmaDecl) declNode() {}
func (p *PragmaDecl) String() string {
	return fmt.Sprintf("pragma %s(%s)", p.Name, joinNodes(p.Args, ", "))
}

// PkgDecl prefixes every declaration inside it with Name'.
type PkgDecl struct {
	At
	Name  string
	Decls []Decl
}

func (*PkgDecl) declNode() {}
func (p *PkgDecl) String() string {
	return fmt.Sprintf("pkg %s {%s}", p.Name, joinNodes(p.Decls, "; "))
}

// GlobalDecl is a top-level var or let.
type GlobalDecl struct {
	At
	Var *VarExpr
}

func (*GlobalDecl) declNode()        {}
func (g *GlobalDecl) String() string { return g.Var.String() }

// Program is one parsed source file.
type Program struct {
	File  string
	Decls []Decl
}

func (p *Program) Pos() Position  { return Position{Line: 1, Column: 1} }
func (p *Program) String() string { return joinNodes(p.Decls, "\n") }
