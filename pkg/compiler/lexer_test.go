package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// tok is a token without its position.
type tok struct {
	Type   TokenType
	Lexeme string
}

func stripPositions(tokens []Token) []tok {
	out := make([]tok, len(tokens))
	for i, t := range tokens {
		out[i] = tok{t.Type, t.Lexeme}
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tok
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []tok{{EOF, ""}},
		},
		{
			name:  "Symbols",
			input: ", : ; ^ ( ) [ ] { } \\ # @ . = == != > >= < <= + ++ - -- -> * / %",
			expected: []tok{
				{COMMA, ","}, {COLON, ":"}, {SEMICOLON, ";"}, {CARET, "^"},
				{LPAREN, "("}, {RPAREN, ")"}, {LBRACKET, "["}, {RBRACKET, "]"},
				{LBRACE, "{"}, {RBRACE, "}"}, {BACKSLASH, "\\"}, {HASHTAG, "#"},
				{AT, "@"}, {DOT, "."}, {ASSIGN, "="}, {EQUALS, "=="}, {NOT_EQ, "!="},
				{GREATER, ">"}, {GREATER_EQ, ">="}, {LESS, "<"}, {LESS_EQ, "<="},
				{PLUS, "+"}, {PLUS_PLUS, "++"}, {MINUS, "-"}, {MINUS_MINUS, "--"},
				{ARROW, "->"}, {STAR, "*"}, {SLASH, "/"}, {PERCENT, "%"},
				{EOF, ""},
			},
		},
		{
			name:  "Keywords and word operators",
			input: "use pkg rec fun var let ret if else for each of continue break defer new ref as to in def tag pragma switch case fall not and or true false",
			expected: []tok{
				{USE, "use"}, {PKG, "pkg"}, {REC, "rec"}, {FUN, "fun"}, {VAR, "var"},
				{LET, "let"}, {RET, "ret"}, {IF, "if"}, {ELSE, "else"}, {FOR, "for"},
				{EACH, "each"}, {OF, "of"}, {CONTINUE, "continue"}, {BREAK, "break"},
				{DEFER, "defer"}, {NEW, "new"}, {REF, "ref"}, {AS, "as"}, {TO, "to"},
				{IN, "in"}, {DEF, "def"}, {TAG, "tag"}, {PRAGMA, "pragma"},
				{SWITCH, "switch"}, {CASE, "case"}, {FALL, "fall"}, {NOT, "not"},
				{AND, "and"}, {OR, "or"}, {TRUE, "true"}, {FALSE, "false"},
				{EOF, ""},
			},
		},
		{
			name:  "Identifiers",
			input: "x _tmp $omething str'compare a'b'c fun'ret",
			expected: []tok{
				{IDENTIFIER, "x"}, {IDENTIFIER, "_tmp"}, {IDENTIFIER, "$omething"},
				{IDENTIFIER, "str'compare"}, {IDENTIFIER, "a'b'c"}, {IDENTIFIER, "fun'ret"},
				{EOF, ""},
			},
		},
		{
			name:  "Numbers",
			input: "0 42 1_000_000 4.0 3.14_15 0xFF 0x1a_2B 0b1010",
			expected: []tok{
				{INTEGER, "0"}, {INTEGER, "42"}, {INTEGER, "1_000_000"}, {FLOAT, "4.0"},
				{FLOAT, "3.14_15"}, {INTEGER, "0xFF"}, {INTEGER, "0x1a_2B"}, {INTEGER, "0b1010"},
				{EOF, ""},
			},
		},
		{
			name:  "Number followed by field access",
			input: "a.0 1.x",
			expected: []tok{
				{IDENTIFIER, "a"}, {DOT, "."}, {INTEGER, "0"},
				{INTEGER, "1"}, {DOT, "."}, {IDENTIFIER, "x"},
				{EOF, ""},
			},
		},
		{
			name:  "Strings and chars",
			input: "\"hi\\n\" c\"raw %d\" `a` `\\n` `\\``",
			expected: []tok{
				{STRING, "hi\\n"}, {CSTRING, "raw %d"}, {CHAR, "a"}, {CHAR, "\\n"}, {CHAR, "\\`"},
				{EOF, ""},
			},
		},
		{
			name:  "c alone is an identifier",
			input: "c + c2",
			expected: []tok{
				{IDENTIFIER, "c"}, {PLUS, "+"}, {IDENTIFIER, "c2"},
				{EOF, ""},
			},
		},
		{
			name:  "Comments",
			input: "a // line\nb /* block /* nested */ still */ c",
			expected: []tok{
				{IDENTIFIER, "a"}, {IDENTIFIER, "b"}, {IDENTIFIER, "c"},
				{EOF, ""},
			},
		},
		{
			name:  "Raw block",
			input: "raw[int x[2] = {1, 2};] ret",
			expected: []tok{
				{RAW, "raw"}, {RAW_TEXT, "int x[2] = {1, 2};"}, {RET, "ret"},
				{EOF, ""},
			},
		},
		{
			name:  "Raw block ignores brackets in literals and comments",
			input: "raw [puts(\"]\"); char c = ']'; // ]\n/* ] */ x[0];]",
			expected: []tok{
				{RAW, "raw"}, {RAW_TEXT, "puts(\"]\"); char c = ']'; // ]\n/* ] */ x[0];"},
				{EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			got := stripPositions(tokens)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() =\n%v\nexpected\n%v", got, tt.expected)
			}
		})
	}
}

func TestLex_Positions(t *testing.T) {
	tokens, err := Lex("fun main() {\n\tret 1\n}")
	if err != nil {
		t.Fatal(err)
	}
	expected := []Position{
		{1, 1}, {1, 5}, {1, 9}, {1, 10}, {1, 12},
		{2, 2}, {2, 6},
		{3, 1}, {3, 2},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, expected %d", len(tokens), len(expected))
	}
	for i, tok := range tokens {
		if tok.Pos() != expected[i] {
			t.Errorf("token %d (%s) at %s, expected %s", i, tok.Lexeme, tok.Pos(), expected[i])
		}
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pos      Position
		contains string
	}{
		{name: "Unexpected character", input: "a ~ b", pos: Position{1, 3}, contains: "unexpected character `~`"},
		{name: "Bang without equals", input: "!a", pos: Position{1, 1}, contains: "use `not`"},
		{name: "Unterminated string", input: "x = \"abc", pos: Position{1, 5}, contains: "unterminated string"},
		{name: "Unterminated char", input: "`a", pos: Position{1, 1}, contains: "unterminated character"},
		{name: "Empty char", input: "``", pos: Position{1, 1}, contains: "empty character"},
		{name: "Unterminated comment", input: "a\n/* /* */", pos: Position{2, 1}, contains: "unterminated block comment"},
		{name: "Unterminated raw block", input: "raw[ [ ]", pos: Position{1, 4}, contains: "unterminated raw block"},
		{name: "Raw without bracket", input: "raw x", pos: Position{1, 5}, contains: "expected `[` after `raw`"},
		{name: "Doubled namespace separator", input: "a''b", pos: Position{1, 2}, contains: "namespace separator"},
		{name: "Bad hex", input: "0xg", pos: Position{1, 1}, contains: "hex digits"},
		{name: "Bad binary", input: "0b2", pos: Position{1, 1}, contains: "binary digits"},
		{name: "Two decimal points", input: "1.2.3", pos: Position{1, 4}, contains: "unexpected character `.`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LexFile("main.sea", tt.input)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("Lex() error = %v, expected *LexError", err)
			}
			if lexErr.Pos != tt.pos {
				t.Errorf("position = %s, expected %s", lexErr.Pos, tt.pos)
			}
			if lexErr.File != "main.sea" {
				t.Errorf("file = %q", lexErr.File)
			}
			if !strings.Contains(lexErr.Msg, tt.contains) {
				t.Errorf("message %q does not contain %q", lexErr.Msg, tt.contains)
			}
		})
	}
}
