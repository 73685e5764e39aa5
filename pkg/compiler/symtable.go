package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Symbol is what a declared name resolves to.
type Symbol interface {
	Kind() string
	// Instantiable reports whether the symbol may follow `new`.
	Instantiable() bool
	// Invocable reports whether the symbol may be called.
	Invocable() bool
}

// SymField is a named, typed slot of a rec or tag rec variant.
type SymField struct {
	Name string
	Type SeaType
}

type FunSymbol struct {
	Tags   []string
	Params []SeaType
	Return SeaType
}

type RecSymbol struct {
	Fields []SymField
}

type DefSymbol struct {
	Type SeaType
}

type TagSymbol struct {
	Entries []string
}

type VariantSymbol struct {
	Name   string
	Fields []SymField
}

type TagRecSymbol struct {
	Variants []VariantSymbol
}

type VarSymbol struct {
	Type    SeaType
	Mutable bool
}

func (FunSymbol) Kind() string    { return "fun" }
func (RecSymbol) Kind() string    { return "rec" }
func (DefSymbol) Kind() string    { return "def" }
func (TagSymbol) Kind() string    { return "tag" }
func (TagRecSymbol) Kind() string { return "tag rec" }
func (VarSymbol) Kind() string    { return "var" }

func (FunSymbol) Instantiable() bool    { return false }
func (RecSymbol) Instantiable() bool    { return true }
func (DefSymbol) Instantiable() bool    { return false }
func (TagSymbol) Instantiable() bool    { return false }
func (TagRecSymbol) Instantiable() bool { return true }
func (VarSymbol) Instantiable() bool    { return false }

func (FunSymbol) Invocable() bool    { return true }
func (RecSymbol) Invocable() bool    { return false }
func (DefSymbol) Invocable() bool    { return false }
func (TagSymbol) Invocable() bool    { return false }
func (TagRecSymbol) Invocable() bool { return false }
func (v VarSymbol) Invocable() bool  { return v.Type.IsFunPtr() }

// Field looks up a rec field by name.
func (r RecSymbol) Field(name string) (SymField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SymField{}, false
}

// Variant looks up a tag rec variant by name.
func (t TagRecSymbol) Variant(name string) (VariantSymbol, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantSymbol{}, false
}

type scopedSymbol struct {
	depth int
	sym   Symbol
}

// SymbolTable is a single global namespace where every entry remembers the
// scope depth it was declared at. Redeclaring a name at the same depth
// overwrites it; a deeper declaration shadows it until its scope exits.
// Globals live at depth 0 and are never removed.
type SymbolTable struct {
	// entries holds each name's bindings, outermost first.
	entries map[string][]scopedSymbol
	depth   int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string][]scopedSymbol)}
}

// Depth is the current scope depth, 0 at the top level.
func (s *SymbolTable) Depth() int {
	return s.depth
}

func (s *SymbolTable) Declare(name string, sym Symbol, depth int) {
	stack := s.entries[name]
	i := slices.IndexFunc(stack, func(e scopedSymbol) bool { return e.depth >= depth })
	switch {
	case i < 0:
		stack = append(stack, scopedSymbol{depth: depth, sym: sym})
	case stack[i].depth == depth:
		stack[i].sym = sym
	default:
		stack = slices.Insert(stack, i, scopedSymbol{depth: depth, sym: sym})
	}
	s.entries[name] = stack
}

// Resolve returns the innermost symbol bound to name, if any.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	stack := s.entries[name]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1].sym, true
}

func (s *SymbolTable) EnterScope() {
	s.depth++
}

// ExitScope drops every binding declared at or deeper than the scope being
// left, uncovering any binding it shadowed.
func (s *SymbolTable) ExitScope() {
	if s.depth == 0 {
		return
	}
	for name, stack := range s.entries {
		for len(stack) > 0 && stack[len(stack)-1].depth >= s.depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			delete(s.entries, name)
		} else {
			s.entries[name] = stack
		}
	}
	s.depth--
}

// String returns a deterministically ordered dump of the innermost binding
// of every name.
func (s *SymbolTable) String() string {
	if len(s.entries) == 0 {
		return "Symbols: (empty)\n"
	}
	names := maps.Keys(s.entries)
	slices.Sort(names)

	var sb strings.Builder
	sb.WriteString("Symbols:\n")
	for _, name := range names {
		stack := s.entries[name]
		e := stack[len(stack)-1]
		fmt.Fprintf(&sb, "  %-24s  depth %d  %s\n", name, e.depth, describeSymbol(e.sym))
	}
	return sb.String()
}

func describeSymbol(sym Symbol) string {
	switch s := sym.(type) {
	case FunSymbol:
		params := make([]string, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("fun(%s): %s%s", strings.Join(params, ", "), s.Return, tagSuffix(s.Tags))
	case RecSymbol:
		return "rec {" + describeFields(s.Fields) + "}"
	case DefSymbol:
		return "def = " + s.Type.String()
	case TagSymbol:
		return "tag {" + strings.Join(s.Entries, ", ") + "}"
	case TagRecSymbol:
		parts := make([]string, len(s.Variants))
		for i, v := range s.Variants {
			parts[i] = v.Name + "(" + describeFields(v.Fields) + ")"
		}
		return "tag rec {" + strings.Join(parts, ", ") + "}"
	case VarSymbol:
		if s.Mutable {
			return "var: " + s.Type.String()
		}
		return "let: " + s.Type.String()
	}
	return sym.Kind()
}

func describeFields(fields []SymField) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	return strings.Join(parts, ", ")
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " #(" + strings.Join(tags, ", ") + ")"
}
