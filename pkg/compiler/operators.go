package compiler

// Associativity of an infix operator.
type Associativity int

const (
	AssocLeft Associativity = iota
	AssocRight
)

// Operator is one row of the precedence table. Higher Prec binds tighter.
type Operator struct {
	Prec  int
	Assoc Associativity
}

// Precedence levels, loosest first.
const (
	PrecAssign = 1 + iota
	PrecAdditive
	PrecMultiplicative
	PrecEquality
	PrecRelational
	PrecLogical
	PrecAccess // '.' and 'as'
)

// binaryOperators is the infix precedence table. '.' and 'as' share the
// top level and are consumed by the postfix loop; they are listed so the
// table describes every binary form.
var binaryOperators = map[TokenType]Operator{
	DOT:        {PrecAccess, AssocLeft},
	AS:         {PrecAccess, AssocRight},
	AND:        {PrecLogical, AssocLeft},
	OR:         {PrecLogical, AssocLeft},
	GREATER:    {PrecRelational, AssocLeft},
	GREATER_EQ: {PrecRelational, AssocLeft},
	LESS:       {PrecRelational, AssocLeft},
	LESS_EQ:    {PrecRelational, AssocLeft},
	EQUALS:     {PrecEquality, AssocLeft},
	NOT_EQ:     {PrecEquality, AssocLeft},
	STAR:       {PrecMultiplicative, AssocLeft},
	SLASH:      {PrecMultiplicative, AssocLeft},
	PERCENT:    {PrecMultiplicative, AssocLeft},
	PLUS:       {PrecAdditive, AssocLeft},
	MINUS:      {PrecAdditive, AssocLeft},
	ASSIGN:     {PrecAssign, AssocRight},
}

// infixOperator reports the table entry for tt, excluding the postfix-handled
// access operators.
func infixOperator(tt TokenType) (Operator, bool) {
	if tt == DOT || tt == AS {
		return Operator{}, false
	}
	op, ok := binaryOperators[tt]
	return op, ok
}

// cOperators maps Sea operators to their C spelling.
var cOperators = map[TokenType]string{
	DOT:         ".",
	ASSIGN:      "=",
	AND:         "&&",
	OR:          "||",
	NOT:         "!",
	EQUALS:      "==",
	NOT_EQ:      "!=",
	GREATER:     ">",
	GREATER_EQ:  ">=",
	LESS:        "<",
	LESS_EQ:     "<=",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	PERCENT:     "%",
	PLUS_PLUS:   "++",
	MINUS_MINUS: "--",
	REF:         "&",
	CARET:       "*",
}

// seaOperators maps operator tokens to their Sea spelling for debug output.
var seaOperators = map[TokenType]string{
	DOT:         ".",
	AS:          "as",
	ASSIGN:      "=",
	AND:         "and",
	OR:          "or",
	NOT:         "not",
	EQUALS:      "==",
	NOT_EQ:      "!=",
	GREATER:     ">",
	GREATER_EQ:  ">=",
	LESS:        "<",
	LESS_EQ:     "<=",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	PERCENT:     "%",
	PLUS_PLUS:   "++",
	MINUS_MINUS: "--",
	REF:         "ref",
	CARET:       "^",
}
