package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // name, possibly namespaced: str'compare
	INTEGER    // 10, 1_000, 0xFF, 0b101
	FLOAT      // 4.0
	STRING     // "..."
	CSTRING    // c"..."
	CHAR       // `c`
	RAW_TEXT   // body of raw[...]
	TRUE       // "true"
	FALSE      // "false"

	// Keywords
	USE      // "use"
	PKG      // "pkg"
	REC      // "rec"
	FUN      // "fun"
	VAR      // "var"
	LET      // "let"
	RET      // "ret"
	RAW      // "raw"
	IF       // "if"
	ELSE     // "else"
	FOR      // "for"
	EACH     // "each"
	OF       // "of"
	CONTINUE // "continue"
	BREAK    // "break"
	DEFER    // "defer"
	NEW      // "new"
	REF      // "ref"
	AS       // "as"
	TO       // "to"
	IN       // "in"
	DEF      // "def"
	TAG      // "tag"
	PRAGMA   // "pragma"
	SWITCH   // "switch"
	CASE     // "case"
	FALL     // "fall"

	// Paired delimiters
	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	CARET     // ^ (pointer type / dereference)
	BACKSLASH // \
	HASHTAG   // #
	AT        // @
	ARROW     // ->
	ASSIGN    // =

	// Operators
	DOT         // .
	NOT         // "not"
	AND         // "and"
	OR          // "or"
	EQUALS      // ==
	NOT_EQ      // !=
	GREATER     // >
	GREATER_EQ  // >=
	LESS        // <
	LESS_EQ     // <=
	PLUS_PLUS   // ++
	MINUS_MINUS // --
	PLUS        // +
	MINUS       // -
	STAR        // *
	SLASH       // /
	PERCENT     // %
)

var tokenNames = [...]string{
	EOF:         "EOF",
	IDENTIFIER:  "IDENTIFIER",
	INTEGER:     "INTEGER",
	FLOAT:       "FLOAT",
	STRING:      "STRING",
	CSTRING:     "CSTRING",
	CHAR:        "CHAR",
	RAW_TEXT:    "RAW_TEXT",
	TRUE:        "TRUE",
	FALSE:       "FALSE",
	USE:         "USE",
	PKG:         "PKG",
	REC:         "REC",
	FUN:         "FUN",
	VAR:         "VAR",
	LET:         "LET",
	RET:         "RET",
	RAW:         "RAW",
	IF:          "IF",
	ELSE:        "ELSE",
	FOR:         "FOR",
	EACH:        "EACH",
	OF:          "OF",
	CONTINUE:    "CONTINUE",
	BREAK:       "BREAK",
	DEFER:       "DEFER",
	NEW:         "NEW",
	REF:         "REF",
	AS:          "AS",
	TO:          "TO",
	IN:          "IN",
	DEF:         "DEF",
	TAG:         "TAG",
	PRAGMA:      "PRAGMA",
	SWITCH:      "SWITCH",
	CASE:        "CASE",
	FALL:        "FALL",
	LBRACE:      "LBRACE",
	RBRACE:      "RBRACE",
	LPAREN:      "LPAREN",
	RPAREN:      "RPAREN",
	LBRACKET:    "LBRACKET",
	RBRACKET:    "RBRACKET",
	COMMA:       "COMMA",
	COLON:       "COLON",
	SEMICOLON:   "SEMICOLON",
	CARET:       "CARET",
	BACKSLASH:   "BACKSLASH",
	HASHTAG:     "HASHTAG",
	AT:          "AT",
	ARROW:       "ARROW",
	ASSIGN:      "ASSIGN",
	DOT:         "DOT",
	NOT:         "NOT",
	AND:         "AND",
	OR:          "OR",
	EQUALS:      "EQUALS",
	NOT_EQ:      "NOT_EQ",
	GREATER:     "GREATER",
	GREATER_EQ:  "GREATER_EQ",
	LESS:        "LESS",
	LESS_EQ:     "LESS_EQ",
	PLUS_PLUS:   "PLUS_PLUS",
	MINUS_MINUS: "MINUS_MINUS",
	PLUS:        "PLUS",
	MINUS:       "MINUS",
	STAR:        "STAR",
	SLASH:       "SLASH",
	PERCENT:     "PERCENT",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Position is a 1-based line/column pair in a source file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // source text; literals exclude their quotes
	Line   int    // 1-based source line
	Column int    // 1-based source column of the first rune
}

func (t Token) Pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}

func (t Token) String() string {
	return fmt.Sprintf("%-12s %-14q  %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}
