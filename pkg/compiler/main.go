// Package compiler translates Sea source into a single C translation unit.
//
// Pipeline: Sea source → Lex → Parse → Generate (symbol table, inference,
// lowering, recursive `use`) → C text plus the cc flags requested by
// pragmas.
package compiler
