package compiler

import (
	"fmt"
	"strings"
)

func inferError(n Node, format string, args ...any) *CompileError {
	err := &CompileError{Kind: ErrInference, Pos: n.Pos(), Msg: "cannot infer type: " + fmt.Sprintf(format, args...)}
	err.Help = "add an explicit type annotation"
	return err
}

// Infer computes the type of x where the source omitted an annotation.
// It only reads the table.
func Infer(x Expr, syms *SymbolTable) (SeaType, error) {
	switch n := x.(type) {
	case *GroupExpr:
		return Infer(n.X, syms)
	case *NumberLit:
		if strings.Contains(n.Value, ".") {
			return TypeF32, nil
		}
		return TypeI32, nil
	case *StringLit:
		return TypeString, nil
	case *CStringLit:
		return TypeCString, nil
	case *CharLit:
		return TypeChar, nil
	case *BoolLit:
		return TypeBool, nil
	case *Ident:
		sym, ok := syms.Resolve(n.Name)
		if !ok {
			return SeaType{}, inferError(n, "`%s` is not defined", n.Name)
		}
		v, ok := sym.(VarSymbol)
		if !ok {
			return SeaType{}, inferError(n, "`%s` is a %s, not a variable", n.Name, sym.Kind())
		}
		return v.Type.clone(), nil
	case *NewExpr:
		return NamedType(n.Name), nil
	case *CastExpr:
		return n.Type.Type.clone(), nil
	case *UnaryExpr:
		t, err := Infer(n.X, syms)
		if err != nil {
			return SeaType{}, err
		}
		if n.Op == REF {
			t.Pointers++
		}
		return t, nil
	case *PostfixExpr:
		t, err := Infer(n.X, syms)
		if err != nil {
			return SeaType{}, err
		}
		if n.Op == CARET {
			if t.Pointers == 0 {
				return SeaType{}, inferError(n, "dereference of non-pointer type `%s`", t)
			}
			t.Pointers--
		}
		return t, nil
	case *IndexExpr:
		t, err := Infer(n.X, syms)
		if err != nil {
			return SeaType{}, err
		}
		switch {
		case len(t.Arrays) > 0:
			t.Arrays = t.Arrays[:len(t.Arrays)-1]
		case t.Pointers > 0:
			t.Pointers--
		default:
			return SeaType{}, inferError(n, "indexing non-array type `%s`", t)
		}
		return t, nil
	case *BinaryExpr:
		if n.Op == DOT {
			return inferField(n, syms)
		}
		return Infer(n.Left, syms)
	case *CallExpr:
		return inferCall(n, syms)
	case *ListExpr:
		if len(n.Elems) == 0 {
			return SeaType{}, inferError(n, "empty list literal")
		}
		elem, err := Infer(n.Elems[0], syms)
		if err != nil {
			return SeaType{}, err
		}
		return elem.ArrayOf(len(n.Elems)), nil
	case *BlockExpr:
		return SeaType{}, inferError(n, "block expression")
	case *MacroCallExpr:
		return SeaType{}, inferError(n, "macro invocation `@%s`", n.Name)
	case *VarExpr:
		return SeaType{}, inferError(n, "binding `%s` used as a value", n.Name)
	}
	return SeaType{}, inferError(x, "unsupported expression")
}

// inferField resolves left.name through the rec or tag rec named by the
// type of left.
func inferField(n *BinaryExpr, syms *SymbolTable) (SeaType, error) {
	field, ok := n.Right.(*Ident)
	if !ok {
		return SeaType{}, inferError(n, "field access needs a field name")
	}
	left, err := Infer(n.Left, syms)
	if err != nil {
		return SeaType{}, err
	}
	sym, ok := syms.Resolve(left.Name)
	if !ok {
		return SeaType{}, inferError(n, "type `%s` is not defined", left.Name)
	}
	switch s := sym.(type) {
	case RecSymbol:
		if f, ok := s.Field(field.Name); ok {
			return f.Type.clone(), nil
		}
		return SeaType{}, inferError(n, "rec `%s` has no field `%s`", left.Name, field.Name)
	case TagRecSymbol:
		if _, ok := s.Variant(field.Name); ok {
			return NamedType(variantTypeName(left.Name, field.Name)), nil
		}
		if field.Name == "kind" {
			return NamedType(tagRecKindName(left.Name)), nil
		}
		return SeaType{}, inferError(n, "tag rec `%s` has no variant `%s`", left.Name, field.Name)
	}
	return SeaType{}, inferError(n, "`%s` is a %s, not a rec", left.Name, sym.Kind())
}

func inferCall(n *CallExpr, syms *SymbolTable) (SeaType, error) {
	if id, ok := n.Fn.(*Ident); ok {
		sym, found := syms.Resolve(id.Name)
		if !found {
			return SeaType{}, inferError(n, "`%s` is not defined", id.Name)
		}
		if fun, ok := sym.(FunSymbol); ok {
			return fun.Return.clone(), nil
		}
	}
	callee, err := Infer(n.Fn, syms)
	if err != nil {
		return SeaType{}, err
	}
	if !callee.IsFunPtr() {
		return SeaType{}, inferError(n, "calling non-function type `%s`", callee)
	}
	return callee.FunReturn.clone(), nil
}

// variantTypeName is the Sea name of the struct backing one tag rec variant.
func variantTypeName(tagRec, variant string) string {
	return "_" + tagRec + "_" + variant
}

// tagRecKindName is the Sea name of a tag rec's hidden kind enum.
func tagRecKindName(tagRec string) string {
	return "_" + tagRec + "_tag"
}
