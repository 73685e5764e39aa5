package compiler

import (
	"reflect"
	"strings"
	"testing"

	"seac/pkg/colors"
)

func TestPolishColored(t *testing.T) {
	x, err := ParseExpression("a + 1")
	if err != nil {
		t.Fatalf("ParseExpression() error = %v", err)
	}

	got := PolishColored(x)
	if !strings.Contains(got, string(colors.BLUE)+"+") {
		t.Errorf("expected a coloured operator, got %q", got)
	}
	if plain := colors.StripANSI(got); plain != Polish(x) {
		t.Errorf("StripANSI(PolishColored()) = %q, expected %q", plain, Polish(x))
	}

	colors.Enabled = false
	defer func() { colors.Enabled = true }()
	if got := PolishColored(x); got != "(+ a 1)" {
		t.Errorf("PolishColored() with colours off = %q", got)
	}
}

func TestWalk(t *testing.T) {
	src := `let g = 1
pkg p {
	fun helper(): i32 -> ret g
}
#extern fun puts(s: ^char): i32
fun main(): i32 {
	defer cleanup()
	if a == 1 -> x() else if b -> y() else -> z()
	switch v { case 1 -> one() else -> other() }
	for var i = 0; i < n; i++ -> step(i)
	for running -> tick()
	for j in 0 to 3 -> visit(j)
	ret 0
}`
	prog, err := ParseSource("walk.sea", src)
	if err != nil {
		t.Fatalf("ParseSource() error = %v", err)
	}

	var got []string
	Walk(prog, func(x Expr) { got = append(got, Polish(x)) })

	expected := []string{
		"(let g 1)",
		"g",
		"(invoke cleanup)",
		"(== a 1)", "(invoke x)", "b", "(invoke y)", "(invoke z)",
		"v", "(invoke one)", "(invoke other)",
		"(var i 0)", "(< i n)", "(inc i)", "(invoke step i)",
		"running", "(invoke tick)",
		"0", "3", "(invoke visit j)",
		"0",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Walk visited\n%q\nexpected\n%q", got, expected)
	}
}
