package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser turns a token slice into a Program.
type Parser struct {
	file   string
	tokens []Token
	pos    int
}

func NewParser(tokens []Token, file string) *Parser {
	return &Parser{file: file, tokens: tokens}
}

// errorf builds a ParseError positioned at tok.
func (p *Parser) errorf(kind ParseErrorKind, tok Token, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, File: p.file, Pos: tok.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.eofToken()
	}
	return p.tokens[p.pos]
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return p.eofToken()
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) eofToken() Token {
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return Token{Type: EOF, Line: last.Line, Column: last.Column}
	}
	return Token{Type: EOF, Line: 1, Column: 1}
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// accept consumes the current token if it matches tt.
func (p *Parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it matches tt, otherwise returns an
// ExpectedToken error describing what was being parsed.
func (p *Parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(ErrExpectedToken, tok, "expected %s %s, got %s", describe(tt), context, describeTok(tok))
	}
	return p.advance(), nil
}

// expectKind is expect for token classes (identifiers, literals) rather
// than fixed punctuation.
func (p *Parser) expectKind(tt TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(ErrExpectedTokenOfKind, tok, "expected %s, got %s", what, describeTok(tok))
	}
	return p.advance(), nil
}

var punctuation = map[TokenType]string{
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	COMMA: ",", COLON: ":", SEMICOLON: ";", ASSIGN: "=", ARROW: "->", TO: "to", IN: "in",
}

func describe(tt TokenType) string {
	if s, ok := punctuation[tt]; ok {
		return "`" + s + "`"
	}
	return strings.ToLower(tt.String())
}

func describeTok(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of file"
	case RAW_TEXT:
		return "raw text"
	}
	return fmt.Sprintf("`%s`", tok.Lexeme)
}

//  Types

// parseType parses ^* (name | fun(T, ...)[: R]) ([] | [N] | [name])*.
func (p *Parser) parseType() (*TypeNode, error) {
	start := p.peek()
	var pointers uint8
	for p.accept(CARET) {
		pointers++
	}

	var t SeaType
	if p.peek().Type == FUN {
		funTok := p.advance()
		if p.peek().Type != LPAREN {
			return nil, p.errorf(ErrFunPtrMissingParenthesis, p.peek(), "expected `(` after `fun` in function pointer type")
		}
		p.advance()
		params := []SeaType{}
		if p.peek().Type != RPAREN {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				params = append(params, param.Type)
				if !p.accept(COMMA) {
					break
				}
			}
		}
		if _, err := p.expect(RPAREN, "to close function pointer parameters"); err != nil {
			return nil, err
		}
		ret := TypeVoid
		if p.accept(COLON) {
			rt, err := p.parseType()
			if err != nil {
				return nil, err
			}
			ret = rt.Type
		}
		t = SeaType{Name: funTok.Lexeme, FunParams: params, FunReturn: &ret}
	} else {
		name, err := p.expectKind(IDENTIFIER, "type name")
		if err != nil {
			return nil, err
		}
		t = SeaType{Name: name.Lexeme}
	}
	t.Pointers = pointers

	for p.peek().Type == LBRACKET {
		bracket := p.advance()
		if t.IsFunPtr() {
			err := p.errorf(ErrFunPtrWithArrays, bracket, "function pointer types cannot be arrays")
			err.Help = "use an array of a type alias to a function pointer instead"
			return nil, err
		}
		switch tok := p.peek(); tok.Type {
		case INTEGER:
			p.advance()
			size, err := parseIntLiteral(tok.Lexeme)
			if err != nil {
				return nil, p.errorf(ErrExpectedTokenOfKind, tok, "invalid array size `%s`", tok.Lexeme)
			}
			t.Arrays = append(t.Arrays, ArraySuffix{Size: size, Sized: true})
		case IDENTIFIER:
			p.advance()
			t.Arrays = append(t.Arrays, ArraySuffix{SizeName: tok.Lexeme})
		default:
			t.Arrays = append(t.Arrays, ArraySuffix{})
		}
		if _, err := p.expect(RBRACKET, "to close array type"); err != nil {
			return nil, err
		}
	}
	return &TypeNode{At: at(start), Type: t}, nil
}

func parseIntLiteral(lexeme string) (int, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(lexeme, "_", ""), 0, 64)
	return int(n), err
}

//  Expressions

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseBinary(PrecAssign)
}

// parseBinary is a precedence climber over binaryOperators.
func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, ok := infixOperator(tok.Type)
		if !ok || op.Prec < minPrec {
			return left, nil
		}
		p.advance()
		next := op.Prec + 1
		if op.Assoc == AssocRight {
			next = op.Prec
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		left, err = p.parsePostfix(&BinaryExpr{At: At{Start: left.Pos()}, Op: tok.Type, Left: left, Right: right})
		if err != nil {
			return nil, err
		}
	}
}

// parseUnary handles the prefix operators not, - and ref.
func (p *Parser) parseUnary() (Expr, error) {
	switch tok := p.peek(); tok.Type {
	case NOT, MINUS, REF:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{At: at(tok), Op: tok.Type, X: x}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(atom)
}

// parsePostfix greedily applies ^, calls, indexing, as, field access, ++ and --.
func (p *Parser) parsePostfix(x Expr) (Expr, error) {
	for {
		tok := p.peek()
		switch tok.Type {
		case CARET, PLUS_PLUS, MINUS_MINUS:
			p.advance()
			x = &PostfixExpr{At: At{Start: x.Pos()}, Op: tok.Type, X: x}
		case LPAREN:
			p.advance()
			args, err := p.parseArgs(RPAREN)
			if err != nil {
				return nil, err
			}
			x = &CallExpr{At: At{Start: x.Pos()}, Fn: x, Args: args}
		case LBRACKET:
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, "to close index"); err != nil {
				return nil, err
			}
			x = &IndexExpr{At: At{Start: x.Pos()}, X: x, Index: index}
		case AS:
			p.advance()
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			x = &CastExpr{At: At{Start: x.Pos()}, X: x, Type: typ}
		case DOT:
			p.advance()
			field, err := p.expectKind(IDENTIFIER, "field name after `.`")
			if err != nil {
				return nil, err
			}
			x = &BinaryExpr{At: At{Start: x.Pos()}, Op: DOT, Left: x, Right: &Ident{At: at(field), Name: field.Lexeme}}
		default:
			return x, nil
		}
	}
}

// parseArgs parses a comma separated expression list up to closer.
// The opening delimiter must already have been consumed.
func (p *Parser) parseArgs(closer TokenType) ([]Expr, error) {
	var args []Expr
	if p.accept(closer) {
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(closer) {
			return args, nil
		}
		if _, err := p.expect(COMMA, "or "+describe(closer)+" in argument list"); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseAtom() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case LPAREN:
		p.advance()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "to close group"); err != nil {
			return nil, err
		}
		return &GroupExpr{At: at(tok), X: x}, nil
	case INTEGER, FLOAT:
		p.advance()
		return &NumberLit{At: at(tok), Value: tok.Lexeme}, nil
	case STRING:
		p.advance()
		return &StringLit{At: at(tok), Value: tok.Lexeme}, nil
	case CSTRING:
		p.advance()
		return &CStringLit{At: at(tok), Value: tok.Lexeme}, nil
	case CHAR:
		p.advance()
		return &CharLit{At: at(tok), Value: tok.Lexeme}, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLit{At: at(tok), Value: tok.Type == TRUE}, nil
	case IDENTIFIER:
		p.advance()
		return &Ident{At: at(tok), Name: tok.Lexeme}, nil
	case LBRACE, ARROW:
		return p.parseBlock()
	case LBRACKET:
		p.advance()
		elems, err := p.parseArgs(RBRACKET)
		if err != nil {
			return nil, err
		}
		return &ListExpr{At: at(tok), Elems: elems}, nil
	case NEW:
		p.advance()
		name, err := p.expectKind(IDENTIFIER, "type name after `new`")
		if err != nil {
			return nil, err
		}
		var args []Expr
		if p.accept(LPAREN) {
			if args, err = p.parseArgs(RPAREN); err != nil {
				return nil, err
			}
		}
		return &NewExpr{At: at(tok), Name: name.Lexeme, Args: args}, nil
	case AT:
		p.advance()
		name, err := p.expectKind(IDENTIFIER, "macro name after `@`")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LPAREN, "after macro name"); err != nil {
			return nil, err
		}
		args, err := p.parseArgs(RPAREN)
		if err != nil {
			return nil, err
		}
		return &MacroCallExpr{At: at(tok), Name: name.Lexeme, Args: args}, nil
	case VAR, LET:
		return p.parseVar()
	}
	return nil, p.errorf(ErrExpectedExpression, tok, "expected expression, got %s", describeTok(tok))
}

// parseVar parses (var|let) name [: Type] = value.
func (p *Parser) parseVar() (*VarExpr, error) {
	kw := p.advance()
	name, err := p.expectKind(IDENTIFIER, "variable name")
	if err != nil {
		return nil, err
	}
	v := &VarExpr{At: at(kw), Mutable: kw.Type == VAR, Name: name.Lexeme}
	if p.accept(COLON) {
		if v.Type, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(ASSIGN, "in variable binding"); err != nil {
		return nil, err
	}
	if v.Value, err = p.parseExpression(); err != nil {
		return nil, err
	}
	return v, nil
}

// parseBlock parses { stmts } or -> stmt.
func (p *Parser) parseBlock() (*BlockExpr, error) {
	tok := p.peek()
	switch tok.Type {
	case ARROW:
		p.advance()
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &BlockExpr{At: at(tok), Stmts: []Stmt{stmt}}, nil
	case LBRACE:
		p.advance()
		block := &BlockExpr{At: at(tok), Stmts: []Stmt{}}
		for {
			switch p.peek().Type {
			case RBRACE:
				p.advance()
				return block, nil
			case SEMICOLON:
				p.advance()
				continue
			case EOF:
				return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, p.peek(), "reached end of file before closing `}` opened at %s", tok.Pos())
			}
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	return nil, p.errorf(ErrExpectedTokenOfKind, tok, "expected block (`{` or `->`), got %s", describeTok(tok))
}

//  Statements

// startsExpression reports whether tt can begin an expression.
func startsExpression(tt TokenType) bool {
	switch tt {
	case LPAREN, INTEGER, FLOAT, STRING, CSTRING, CHAR, TRUE, FALSE, IDENTIFIER,
		LBRACE, ARROW, LBRACKET, NEW, AT, VAR, LET, NOT, MINUS, REF:
		return true
	}
	return false
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case RET:
		p.advance()
		ret := &RetStmt{At: at(tok)}
		// A value must start on the same line as ret.
		if next := p.peek(); next.Line == tok.Line && startsExpression(next.Type) {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			ret.Value = value
		}
		return ret, nil
	case IF:
		return p.parseIf()
	case SWITCH:
		return p.parseSwitch()
	case FOR:
		return p.parseFor()
	case CONTINUE:
		p.advance()
		return &ContinueStmt{At: at(tok)}, nil
	case BREAK:
		p.advance()
		return &BreakStmt{At: at(tok)}, nil
	case DEFER:
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &DeferStmt{At: at(tok), Value: value}, nil
	case RAW:
		return p.parseRaw()
	}
	if !startsExpression(tok.Type) {
		return nil, p.errorf(ErrExpectedStatement, tok, "expected statement, got %s", describeTok(tok))
	}
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{At: at(tok), X: x}, nil
}

func (p *Parser) parseRaw() (*RawText, error) {
	kw := p.advance()
	text, err := p.expectKind(RAW_TEXT, "raw block after `raw`")
	if err != nil {
		return nil, err
	}
	return &RawText{At: at(kw), Text: text.Lexeme}, nil
}

func (p *Parser) parseIf() (*IfStmt, error) {
	kw := p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{At: at(kw), Cond: cond, Then: then}
	if !p.accept(ELSE) {
		return stmt, nil
	}
	if p.peek().Type == IF {
		elseIf, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseIf
		return stmt, nil
	}
	elseBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Else = elseBlock
	return stmt, nil
}

// parseSwitch parses switch v { case x [fall] block ... [else block] }.
func (p *Parser) parseSwitch() (*SwitchStmt, error) {
	kw := p.advance()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	open, err := p.expect(LBRACE, "to open switch body")
	if err != nil {
		return nil, err
	}
	stmt := &SwitchStmt{At: at(kw), Value: value}
	sawElse := false
	for {
		tok := p.peek()
		switch tok.Type {
		case RBRACE:
			p.advance()
			return stmt, nil
		case SEMICOLON:
			p.advance()
		case EOF:
			return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, tok, "reached end of file before closing `}` opened at %s", open.Pos())
		case CASE:
			if sawElse {
				err := p.errorf(ErrUnexpectedToken, tok, "`case` after `else` in switch")
				err.Help = "the `else` case must be the last case of a switch"
				return nil, err
			}
			p.advance()
			c := SwitchCase{}
			if c.Value, err = p.parseExpression(); err != nil {
				return nil, err
			}
			c.Fall = p.accept(FALL)
			if c.Body, err = p.parseBlock(); err != nil {
				return nil, err
			}
			stmt.Cases = append(stmt.Cases, c)
		case ELSE:
			if sawElse {
				return nil, p.errorf(ErrUnexpectedToken, tok, "duplicate `else` in switch")
			}
			p.advance()
			if fall := p.peek(); fall.Type == FALL {
				err := p.errorf(ErrUnexpectedToken, fall, "`fall` is not allowed on the `else` case")
				err.Help = "the `else` case is last, there is nothing to fall into"
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Cases = append(stmt.Cases, SwitchCase{Body: body})
			sawElse = true
		default:
			return nil, p.errorf(ErrUnexpectedToken, tok, "expected `case`, `else` or `}` in switch, got %s", describeTok(tok))
		}
	}
}

// parseFor disambiguates the three loop forms by what follows the first
// expression: ';' (C-style), 'to' (range) or a block (while-like).
func (p *Parser) parseFor() (Stmt, error) {
	kw := p.advance()

	if p.peek().Type == IDENTIFIER && p.peekAt(1).Type == IN {
		name := p.advance()
		p.advance() // in
		from, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return p.finishRange(kw, name.Lexeme, from)
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case SEMICOLON:
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "after for condition"); err != nil {
			return nil, err
		}
		post, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ForCStmt{At: at(kw), Init: first, Cond: cond, Post: post, Body: body}, nil
	case TO:
		return p.finishRange(kw, "", first)
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForWhileStmt{At: at(kw), Cond: first, Body: body}, nil
}

func (p *Parser) finishRange(kw Token, name string, from Expr) (Stmt, error) {
	if _, err := p.expect(TO, "in range loop"); err != nil {
		return nil, err
	}
	to, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForRangeStmt{At: at(kw), Var: name, From: from, To: to, Body: body}, nil
}

//  Top-level declarations

// parseHashtags parses #name or #(a, b) and returns the names with their
// tokens for later validation. The '#' must still be at p.peek().
func (p *Parser) parseHashtags() ([]Token, error) {
	p.advance() // #
	if !p.accept(LPAREN) {
		tok, err := p.expectKind(IDENTIFIER, "attribute name after `#`")
		if err != nil {
			return nil, err
		}
		return []Token{tok}, nil
	}
	var tags []Token
	for {
		tok, err := p.expectKind(IDENTIFIER, "attribute name in hashtag list")
		if err != nil {
			return nil, err
		}
		tags = append(tags, tok)
		if p.accept(RPAREN) {
			return tags, nil
		}
		if _, err := p.expect(COMMA, "or `)` in hashtag list"); err != nil {
			return nil, err
		}
	}
}

// validateHashtags checks every attribute against the vocabulary of kind.
func (p *Parser) validateHashtags(kind DeclKind, tags []Token) ([]string, error) {
	var names []string
	for _, tok := range tags {
		if !hashtagAllowed(kind, tok.Lexeme) {
			err := p.errorf(ErrInvalidHashtag, tok, "unknown attribute `%s` for `%s`", tok.Lexeme, kind)
			err.Help = fmt.Sprintf("`%s` accepts: %s", kind, strings.Join(AllowedHashtags(kind), ", "))
			return nil, err
		}
		names = append(names, tok.Lexeme)
	}
	return names, nil
}

func (p *Parser) parseTopLevel() (Decl, error) {
	tok := p.peek()
	switch tok.Type {
	case USE:
		return p.parseUse()
	case PRAGMA:
		return p.parsePragma()
	case PKG:
		return p.parsePkg()
	case RAW:
		return p.parseRaw()
	case VAR, LET:
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		return &GlobalDecl{At: at(tok), Var: v}, nil
	case HASHTAG:
		tags, err := p.parseHashtags()
		if err != nil {
			return nil, err
		}
		return p.parseTaggable(tok, tags)
	case FUN, REC, DEF, TAG:
		return p.parseTaggable(tok, nil)
	}
	return nil, p.errorf(ErrUnexpectedToken, tok, "expected a top-level declaration, got %s", describeTok(tok))
}

// parseTaggable parses the declarations that may carry hashtags.
func (p *Parser) parseTaggable(start Token, tagToks []Token) (Decl, error) {
	tok := p.peek()
	var kind DeclKind
	switch tok.Type {
	case FUN:
		kind = DeclFun
	case REC:
		kind = DeclRec
	case DEF:
		kind = DeclDef
	case TAG:
		kind = DeclTag
		if p.peekAt(1).Type == REC {
			kind = DeclTagRec
		}
	default:
		return nil, p.errorf(ErrUnexpectedToken, tok, "expected `fun`, `rec`, `def` or `tag` after hashtag, got %s", describeTok(tok))
	}
	tags, err := p.validateHashtags(kind, tagToks)
	if err != nil {
		return nil, err
	}
	switch kind {
	case DeclFun:
		return p.parseFun(start, tags)
	case DeclRec:
		return p.parseRec(start, tags)
	case DeclDef:
		return p.parseDef(start, tags)
	case DeclTag:
		return p.parseTag(start, tags)
	}
	return p.parseTagRec(start, tags)
}

// parseUse parses use a/b/c [sel, ...].
func (p *Parser) parseUse() (*UseDecl, error) {
	kw := p.advance()
	first, err := p.expectKind(IDENTIFIER, "module path after `use`")
	if err != nil {
		return nil, err
	}
	decl := &UseDecl{At: at(kw), Path: []string{first.Lexeme}}
	for p.accept(SLASH) {
		part, err := p.expectKind(IDENTIFIER, "module path segment after `/`")
		if err != nil {
			return nil, err
		}
		decl.Path = append(decl.Path, part.Lexeme)
	}
	if p.peek().Type == LBRACKET && p.peek().Line == kw.Line {
		p.advance()
		for {
			sel, err := p.expectKind(IDENTIFIER, "module name in selective import")
			if err != nil {
				return nil, err
			}
			decl.Selections = append(decl.Selections, sel.Lexeme)
			if p.accept(RBRACKET) {
				break
			}
			if _, err := p.expect(COMMA, "or `]` in selective import"); err != nil {
				return nil, err
			}
		}
	}
	return decl, nil
}

func (p *Parser) parsePragma() (*PragmaDecl, error) {
	kw := p.advance()
	name, err := p.expectKind(IDENTIFIER, "pragma name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "after pragma name"); err != nil {
		return nil, err
	}
	args, err := p.parseArgs(RPAREN)
	if err != nil {
		return nil, err
	}
	return &PragmaDecl{At: at(kw), Name: name.Lexeme, Args: args}, nil
}

func (p *Parser) parsePkg() (*PkgDecl, error) {
	kw := p.advance()
	name, err := p.expectKind(IDENTIFIER, "package name")
	if err != nil {
		return nil, err
	}
	open, err := p.expect(LBRACE, "to open package body")
	if err != nil {
		return nil, err
	}
	pkg := &PkgDecl{At: at(kw), Name: name.Lexeme}
	for {
		switch p.peek().Type {
		case RBRACE:
			p.advance()
			return pkg, nil
		case SEMICOLON:
			p.advance()
			continue
		case EOF:
			return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, p.peek(), "reached end of file before closing `}` opened at %s", open.Pos())
		}
		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		pkg.Decls = append(pkg.Decls, decl)
	}
}

// parseFields parses name: Type pairs separated by optional commas until closer.
func (p *Parser) parseFields(closer TokenType, context string) ([]Field, error) {
	var fields []Field
	for !p.accept(closer) {
		if p.peek().Type == EOF {
			return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, p.peek(), "reached end of file in %s", context)
		}
		name, err := p.expectKind(IDENTIFIER, "name in "+context)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON, "between name and type in "+context); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name.Lexeme, Type: typ})
		p.accept(COMMA)
	}
	return fields, nil
}

// parseFun parses fun name(p: T, ...)[: R] block.
func (p *Parser) parseFun(start Token, tags []string) (*FunDecl, error) {
	kw := p.advance()
	name, err := p.expectKind(IDENTIFIER, "function name after `fun`")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "after function name"); err != nil {
		return nil, err
	}
	params, err := p.parseFields(RPAREN, "parameter list")
	if err != nil {
		return nil, err
	}
	ret := &TypeNode{At: at(kw), Type: TypeVoid}
	if p.accept(COLON) {
		if ret, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	decl := &FunDecl{At: at(start), Tags: tags, Name: name.Lexeme, Params: params, Return: ret}
	// An #extern function may be a bare prototype.
	if next := p.peek().Type; hasTag(tags, TagExtern) && next != LBRACE && next != ARROW {
		return decl, nil
	}
	if decl.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseRec(start Token, tags []string) (*RecDecl, error) {
	p.advance() // rec
	name, err := p.expectKind(IDENTIFIER, "record name after `rec`")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "to open record body"); err != nil {
		return nil, err
	}
	fields, err := p.parseFields(RBRACE, "record body")
	if err != nil {
		return nil, err
	}
	return &RecDecl{At: at(start), Tags: tags, Name: name.Lexeme, Fields: fields}, nil
}

func (p *Parser) parseDef(start Token, tags []string) (*DefDecl, error) {
	p.advance() // def
	name, err := p.expectKind(IDENTIFIER, "alias name after `def`")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN, "after alias name"); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &DefDecl{At: at(start), Tags: tags, Name: name.Lexeme, Type: typ}, nil
}

// parseTag parses tag Name { A [= v], B, ... }.
func (p *Parser) parseTag(start Token, tags []string) (*TagDecl, error) {
	p.advance() // tag
	name, err := p.expectKind(IDENTIFIER, "tag name after `tag`")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "to open tag body"); err != nil {
		return nil, err
	}
	decl := &TagDecl{At: at(start), Tags: tags, Name: name.Lexeme}
	for !p.accept(RBRACE) {
		if p.peek().Type == EOF {
			return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, p.peek(), "reached end of file in tag `%s`", name.Lexeme)
		}
		entry, err := p.expectKind(IDENTIFIER, "tag entry")
		if err != nil {
			return nil, err
		}
		e := TagEntry{Name: entry.Lexeme}
		if p.accept(ASSIGN) {
			if e.Value, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		decl.Entries = append(decl.Entries, e)
		p.accept(COMMA)
	}
	return decl, nil
}

// parseTagRec parses tag rec Name { A(f: T, ...), B, ... }.
func (p *Parser) parseTagRec(start Token, tags []string) (*TagRecDecl, error) {
	p.advance() // tag
	p.advance() // rec
	name, err := p.expectKind(IDENTIFIER, "tag rec name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "to open tag rec body"); err != nil {
		return nil, err
	}
	decl := &TagRecDecl{At: at(start), Tags: tags, Name: name.Lexeme}
	for !p.accept(RBRACE) {
		if p.peek().Type == EOF {
			return nil, p.errorf(ErrReachedEOFBeforeClosingBrace, p.peek(), "reached end of file in tag rec `%s`", name.Lexeme)
		}
		variant, err := p.expectKind(IDENTIFIER, "variant name")
		if err != nil {
			return nil, err
		}
		v := Variant{Name: variant.Lexeme}
		if p.accept(LPAREN) {
			if v.Fields, err = p.parseFields(RPAREN, "variant fields"); err != nil {
				return nil, err
			}
		}
		decl.Variants = append(decl.Variants, v)
		p.accept(COMMA)
	}
	return decl, nil
}

// Parse builds the Program for one file from its tokens.
func Parse(tokens []Token, file string) (*Program, error) {
	p := NewParser(tokens, file)
	prog := &Program{File: file}
	for p.peek().Type != EOF {
		if p.accept(SEMICOLON) {
			continue
		}
		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}
	return prog, nil
}

// ParseSource lexes and parses src as the contents of file.
func ParseSource(file, src string) (*Program, error) {
	tokens, err := LexFile(file, src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, file)
}

// ParseExpression parses a standalone expression, used by debug tooling.
func ParseExpression(src string) (Expr, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens, "")
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.errorf(ErrUnexpectedToken, tok, "unexpected %s after expression", describeTok(tok))
	}
	return x, nil
}
