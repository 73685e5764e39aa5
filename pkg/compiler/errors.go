package compiler

import (
	"errors"
	"fmt"

	"seac/pkg/diag"
)

// LexError reports a character-level failure in the token source.
type LexError struct {
	File string
	Pos  Position
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", displayFile(e.File), e.Pos.Line, e.Pos.Column, e.Msg)
}

type ParseErrorKind int

const (
	ErrUnexpectedToken ParseErrorKind = iota
	ErrExpectedToken
	ErrExpectedTokenOfKind
	ErrExpectedExpression
	ErrExpectedStatement
	ErrFunPtrMissingParenthesis
	ErrFunPtrWithArrays
	ErrReachedEOFBeforeClosingBrace
	ErrInvalidHashtag
)

var parseErrorNames = map[ParseErrorKind]string{
	ErrUnexpectedToken:              "UnexpectedToken",
	ErrExpectedToken:                "ExpectedToken",
	ErrExpectedTokenOfKind:          "ExpectedTokenOfKind",
	ErrExpectedExpression:           "ExpectedExpression",
	ErrExpectedStatement:            "ExpectedStatement",
	ErrFunPtrMissingParenthesis:     "FunPtrMissingParenthesis",
	ErrFunPtrWithArrays:             "FunPtrWithArrays",
	ErrReachedEOFBeforeClosingBrace: "ReachedEOFBeforeClosingBrace",
	ErrInvalidHashtag:               "InvalidHashtag",
}

func (k ParseErrorKind) String() string {
	if name, ok := parseErrorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ParseErrorKind(%d)", int(k))
}

// ParseError is the first syntax error of a compilation unit.
type ParseError struct {
	Kind ParseErrorKind
	File string
	Pos  Position
	Msg  string
	Help string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", displayFile(e.File), e.Pos.Line, e.Pos.Column, e.Msg)
}

type CompileErrorKind int

const (
	ErrUnknownSymbol CompileErrorKind = iota
	ErrUninstantiatable
	ErrTagRecInstantiateWithoutKind
	ErrImport
	ErrNoSuchPragma
	ErrPragmaArgumentCount
	ErrInvalidPragmaArguments
	ErrInference
	ErrStatementNotAllowedAtTopLevel
	ErrFunPtrUnnamed
)

var compileErrorNames = map[CompileErrorKind]string{
	ErrUnknownSymbol:                 "UnknownSymbol",
	ErrUninstantiatable:              "Uninstantiatable",
	ErrTagRecInstantiateWithoutKind:  "TagRecInstantiateWithoutKind",
	ErrImport:                        "ImportError",
	ErrNoSuchPragma:                  "NoSuchPragma",
	ErrPragmaArgumentCount:           "NotEnoughOrTooManyPragmaArguments",
	ErrInvalidPragmaArguments:        "InvalidPragmaArguments",
	ErrInference:                     "InferenceError",
	ErrStatementNotAllowedAtTopLevel: "StatementNotAllowedAtTopLevel",
	ErrFunPtrUnnamed:                 "FunPtrUnnamed",
}

func (k CompileErrorKind) String() string {
	if name, ok := compileErrorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CompileErrorKind(%d)", int(k))
}

// CompileError is raised while lowering. It aborts the whole run.
type CompileError struct {
	Kind CompileErrorKind
	File string
	Pos  Position
	Msg  string
	Help string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", displayFile(e.File), e.Pos.Line, e.Pos.Column, e.Msg)
}

func displayFile(file string) string {
	if file == "" {
		return "<input>"
	}
	return file
}

// Diagnose converts a lexer, parser or lowering error into a renderable
// diagnostic. Errors from anywhere else report false.
func Diagnose(err error) (diag.Diagnostic, bool) {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return diag.Diagnostic{
			File:    lexErr.File,
			Line:    lexErr.Pos.Line,
			Column:  lexErr.Pos.Column,
			Message: lexErr.Msg,
		}, true
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return diag.Diagnostic{
			File:    parseErr.File,
			Line:    parseErr.Pos.Line,
			Column:  parseErr.Pos.Column,
			Message: parseErr.Msg,
			Help:    parseErr.Help,
		}, true
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return diag.Diagnostic{
			File:    compileErr.File,
			Line:    compileErr.Pos.Line,
			Column:  compileErr.Pos.Column,
			Message: compileErr.Msg,
			Help:    compileErr.Help,
		}, true
	}
	return diag.Diagnostic{}, false
}
