package compiler

import (
	"fmt"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"use":      USE,
	"pkg":      PKG,
	"rec":      REC,
	"fun":      FUN,
	"var":      VAR,
	"let":      LET,
	"ret":      RET,
	"raw":      RAW,
	"if":       IF,
	"else":     ELSE,
	"for":      FOR,
	"each":     EACH,
	"of":       OF,
	"continue": CONTINUE,
	"break":    BREAK,
	"defer":    DEFER,
	"new":      NEW,
	"ref":      REF,
	"as":       AS,
	"to":       TO,
	"in":       IN,
	"def":      DEF,
	"tag":      TAG,
	"pragma":   PRAGMA,
	"switch":   SWITCH,
	"case":     CASE,
	"fall":     FALL,
	"not":      NOT,
	"and":      AND,
	"or":       OR,
	"true":     TRUE,
	"false":    FALSE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	file string
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based source column

	prev TokenType // type of the last emitted token
}

func newLexer(file, src string) *Lexer {
	return &Lexer{file: file, src: []rune(src), pos: 0, line: 1, col: 1, prev: EOF}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) errorAt(line, col int, format string, args ...any) error {
	return &LexError{File: l.file, Pos: Position{Line: line, Column: col}, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards a possibly nested block comment.
// The opening "/*" must already have been consumed.
func (l *Lexer) skipBlockComment(line, col int) error {
	depth := 1
	for !l.atEnd() {
		switch {
		case l.peek() == '/' && l.peek2() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peek2() == '/':
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return nil
			}
		default:
			l.advance()
		}
	}
	return l.errorAt(line, col, "unterminated block comment")
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// scanIdent collects an identifier, keyword or namespaced identifier.
// The first rune must still be at l.peek().
func (l *Lexer) scanIdent() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}

	namespaced := false
	for l.peek() == '\'' {
		sepLine, sepCol := l.line, l.col
		l.advance()
		if !isIdentStart(l.peek()) {
			return Token{}, l.errorAt(sepLine, sepCol, "expected identifier after namespace separator `'`")
		}
		for isIdentPart(l.peek()) {
			l.advance()
		}
		namespaced = true
	}

	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if !namespaced {
		if kw, ok := keywords[lexeme]; ok {
			tt = kw
		}
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Column: col}, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// scanNumber collects a decimal, float, hex or binary literal. Underscores
// are kept in the lexeme and stripped on emission.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos

	if l.peek() == '0' && (l.peek2() == 'x' || l.peek2() == 'X') {
		l.advance()
		l.advance()
		if !isHexDigit(l.peek()) {
			return Token{}, l.errorAt(line, col, "expected hex digits after `0x`")
		}
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		return Token{Type: INTEGER, Lexeme: string(l.src[start:l.pos]), Line: line, Column: col}, nil
	}

	if l.peek() == '0' && (l.peek2() == 'b' || l.peek2() == 'B') {
		l.advance()
		l.advance()
		if l.peek() != '0' && l.peek() != '1' {
			return Token{}, l.errorAt(line, col, "expected binary digits after `0b`")
		}
		for l.peek() == '0' || l.peek() == '1' || l.peek() == '_' {
			l.advance()
		}
		return Token{Type: INTEGER, Lexeme: string(l.src[start:l.pos]), Line: line, Column: col}, nil
	}

	tt := INTEGER
	for unicode.IsDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		tt = FLOAT
		l.advance()
		for unicode.IsDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
			return Token{}, l.errorAt(l.line, l.col, "unexpected character `.`")
		}
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line, Column: col}, nil
}

// scanString collects a "..." literal. Escapes are kept verbatim so the C
// compiler interprets them. The opening quote must still be at l.peek().
func (l *Lexer) scanString(tt TokenType, line, col int) (Token, error) {
	l.advance() // opening "
	start := l.pos
	for !l.atEnd() && l.peek() != '"' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.atEnd() {
		return Token{}, l.errorAt(line, col, "unterminated string literal")
	}
	text := string(l.src[start:l.pos])
	l.advance() // closing "
	return Token{Type: tt, Lexeme: text, Line: line, Column: col}, nil
}

// scanChar collects a `c` literal.
func (l *Lexer) scanChar() (Token, error) {
	line, col := l.line, l.col
	l.advance() // opening `
	start := l.pos
	for !l.atEnd() && l.peek() != '`' {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.atEnd() {
		return Token{}, l.errorAt(line, col, "unterminated character literal")
	}
	text := string(l.src[start:l.pos])
	l.advance() // closing `
	if text == "" {
		return Token{}, l.errorAt(line, col, "empty character literal")
	}
	return Token{Type: CHAR, Lexeme: text, Line: line, Column: col}, nil
}

// scanRaw collects the body of raw[...] up to the matching bracket.
// Brackets inside C string/char literals and comments are not counted.
// The opening '[' must already have been consumed.
func (l *Lexer) scanRaw(line, col int) (Token, error) {
	depth := 1
	start := l.pos
	var inString, inChar, inLineComment, inBlockComment bool
	for {
		if l.atEnd() {
			return Token{}, l.errorAt(line, col, "unterminated raw block")
		}
		r := l.peek()
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if r == '*' && l.peek2() == '/' {
				l.advance()
				inBlockComment = false
			}
		case inString:
			if r == '\\' {
				l.advance()
			} else if r == '"' {
				inString = false
			}
		case inChar:
			if r == '\\' {
				l.advance()
			} else if r == '\'' {
				inChar = false
			}
		case r == '"':
			inString = true
		case r == '\'':
			inChar = true
		case r == '/' && l.peek2() == '/':
			l.advance()
			inLineComment = true
		case r == '/' && l.peek2() == '*':
			l.advance()
			inBlockComment = true
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				text := string(l.src[start:l.pos])
				l.advance() // closing ]
				return Token{Type: RAW_TEXT, Lexeme: text, Line: line, Column: col}, nil
			}
		}
		l.advance()
	}
}

// next scans a single token.
func (l *Lexer) next() (Token, error) {
	for {
		l.skipWhitespace()
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			line, col := l.line, l.col
			l.advance()
			l.advance()
			if err := l.skipBlockComment(line, col); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	line, col := l.line, l.col
	if l.atEnd() {
		return Token{Type: EOF, Line: line, Column: col}, nil
	}

	if l.prev == RAW {
		if l.peek() != '[' {
			return Token{}, l.errorAt(line, col, "expected `[` after `raw` but found `%c`", l.peek())
		}
		l.advance()
		return l.scanRaw(line, col)
	}

	r := l.peek()
	switch {
	case r == 'c' && l.peek2() == '"':
		l.advance()
		return l.scanString(CSTRING, line, col)
	case isIdentStart(r):
		return l.scanIdent()
	case unicode.IsDigit(r):
		return l.scanNumber()
	case r == '"':
		return l.scanString(STRING, line, col)
	case r == '`':
		return l.scanChar()
	}

	tok := func(tt TokenType, lexeme string) (Token, error) {
		return Token{Type: tt, Lexeme: lexeme, Line: line, Column: col}, nil
	}

	l.advance()
	switch r {
	case ',':
		return tok(COMMA, ",")
	case ':':
		return tok(COLON, ":")
	case ';':
		return tok(SEMICOLON, ";")
	case '^':
		return tok(CARET, "^")
	case '(':
		return tok(LPAREN, "(")
	case ')':
		return tok(RPAREN, ")")
	case '[':
		return tok(LBRACKET, "[")
	case ']':
		return tok(RBRACKET, "]")
	case '{':
		return tok(LBRACE, "{")
	case '}':
		return tok(RBRACE, "}")
	case '\\':
		return tok(BACKSLASH, "\\")
	case '#':
		return tok(HASHTAG, "#")
	case '@':
		return tok(AT, "@")
	case '.':
		return tok(DOT, ".")
	case '*':
		return tok(STAR, "*")
	case '/':
		return tok(SLASH, "/")
	case '%':
		return tok(PERCENT, "%")
	case '=':
		if l.peek() == '=' {
			l.advance()
			return tok(EQUALS, "==")
		}
		return tok(ASSIGN, "=")
	case '!':
		if l.peek() == '=' {
			l.advance()
			return tok(NOT_EQ, "!=")
		}
		return Token{}, l.errorAt(line, col, "unexpected character `!` (use `not`)")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return tok(GREATER_EQ, ">=")
		}
		return tok(GREATER, ">")
	case '<':
		if l.peek() == '=' {
			l.advance()
			return tok(LESS_EQ, "<=")
		}
		return tok(LESS, "<")
	case '+':
		if l.peek() == '+' {
			l.advance()
			return tok(PLUS_PLUS, "++")
		}
		return tok(PLUS, "+")
	case '-':
		switch l.peek() {
		case '-':
			l.advance()
			return tok(MINUS_MINUS, "--")
		case '>':
			l.advance()
			return tok(ARROW, "->")
		}
		return tok(MINUS, "-")
	}
	return Token{}, l.errorAt(line, col, "unexpected character `%c`", r)
}

// Lex converts src into a slice of Tokens terminated by EOF.
func Lex(src string) ([]Token, error) {
	return LexFile("", src)
}

// LexFile is Lex with the file name recorded in any error.
func LexFile(file, src string) ([]Token, error) {
	l := newLexer(file, src)
	var tokens []Token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
		l.prev = t.Type
		if t.Type == EOF {
			return tokens, nil
		}
	}
}
