package compiler

import (
	"strconv"
	"strings"
)

// ArraySuffix is one trailing [...] group of a type. Size is only
// meaningful when Sized is set; neither Sized nor SizeName means [].
type ArraySuffix struct {
	Size     int
	Sized    bool
	SizeName string
}

func (a ArraySuffix) String() string {
	switch {
	case a.SizeName != "":
		return "[" + a.SizeName + "]"
	case a.Sized:
		return "[" + strconv.Itoa(a.Size) + "]"
	}
	return "[]"
}

// SeaType is the structural type descriptor shared by the parser, the
// symbol table and inference. FunReturn is non-nil exactly for
// function-pointer types.
type SeaType struct {
	Pointers  uint8
	Name      string
	Arrays    []ArraySuffix
	FunParams []SeaType
	FunReturn *SeaType
}

// Primitive types produced by inference.
var (
	TypeVoid    = SeaType{Name: "void"}
	TypeI32     = SeaType{Name: "i32"}
	TypeF32     = SeaType{Name: "f32"}
	TypeBool    = SeaType{Name: "bool"}
	TypeChar    = SeaType{Name: "char"}
	TypeString  = SeaType{Name: "String"}
	TypeCString = SeaType{Pointers: 1, Name: "char"}
)

// NamedType returns a plain type with no pointers or arrays.
func NamedType(name string) SeaType {
	return SeaType{Name: name}
}

func (t SeaType) IsFunPtr() bool {
	return t.FunReturn != nil
}

// ArrayOf returns t with a fixed-size array suffix appended.
func (t SeaType) ArrayOf(size int) SeaType {
	out := t.clone()
	out.Arrays = append(out.Arrays, ArraySuffix{Size: size, Sized: true})
	return out
}

func (t SeaType) clone() SeaType {
	out := t
	if t.Arrays != nil {
		out.Arrays = append([]ArraySuffix(nil), t.Arrays...)
	}
	if t.FunParams != nil {
		out.FunParams = make([]SeaType, len(t.FunParams))
		for i, p := range t.FunParams {
			out.FunParams[i] = p.clone()
		}
	}
	if t.FunReturn != nil {
		ret := t.FunReturn.clone()
		out.FunReturn = &ret
	}
	return out
}

// Equal reports structural equality.
func (t SeaType) Equal(o SeaType) bool {
	if t.Pointers != o.Pointers || t.Name != o.Name || len(t.Arrays) != len(o.Arrays) {
		return false
	}
	for i := range t.Arrays {
		if t.Arrays[i] != o.Arrays[i] {
			return false
		}
	}
	if (t.FunReturn == nil) != (o.FunReturn == nil) {
		return false
	}
	if t.FunReturn == nil {
		return true
	}
	if !t.FunReturn.Equal(*o.FunReturn) || len(t.FunParams) != len(o.FunParams) {
		return false
	}
	for i := range t.FunParams {
		if !t.FunParams[i].Equal(o.FunParams[i]) {
			return false
		}
	}
	return true
}

// String renders the type in Sea syntax.
func (t SeaType) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("^", int(t.Pointers)))
	if t.IsFunPtr() {
		sb.WriteString("fun(")
		for i, p := range t.FunParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(")")
		if t.FunReturn.Name != "void" || t.FunReturn.Pointers > 0 || len(t.FunReturn.Arrays) > 0 {
			sb.WriteString(": ")
			sb.WriteString(t.FunReturn.String())
		}
	} else {
		sb.WriteString(t.Name)
	}
	for _, a := range t.Arrays {
		sb.WriteString(a.String())
	}
	return sb.String()
}
