// Package diag renders positioned compiler errors with source context and
// a caret under the offending column.
package diag

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"seac/pkg/colors"
)

// Diagnostic is one positioned error. Line and Column are 1-based, Column
// counts runes.
type Diagnostic struct {
	File    string
	Line    int
	Column  int
	Message string
	Help    string
}

// contextLines is how many lines are shown on each side of the error line.
const contextLines = 1

const tabWidth = 4

// Render writes d against source:
//
//	main.sea:3:9: error: undefined or unbound symbol: `Foo`
//	 2 | fun main() {
//	 3 |     new Foo()
//	   |         ^
//	 4 | }
//	help: ...
func Render(w io.Writer, source string, d Diagnostic) {
	file := d.File
	if file == "" {
		file = "<input>"
	}
	fmt.Fprintf(w, "%s %s\n",
		colors.BOLD_RED.Sprintf("%s:%d:%d: error:", file, d.Line, d.Column),
		colors.BOLD.Sprint(d.Message))

	lines := strings.Split(source, "\n")
	if d.Line >= 1 && d.Line <= len(lines) {
		first := max(1, d.Line-contextLines)
		last := min(len(lines), d.Line+contextLines)
		gutter := len(fmt.Sprint(last))
		for n := first; n <= last; n++ {
			text := expandTabs(strings.TrimRight(lines[n-1], "\r"))
			fmt.Fprintf(w, "%s %s\n", colors.BOLD_BLUE.Sprintf(" %*d |", gutter, n), text)
			if n == d.Line {
				pad := strings.Repeat(" ", caretOffset(lines[n-1], d.Column))
				fmt.Fprintf(w, "%s %s%s\n", colors.BOLD_BLUE.Sprintf(" %*s |", gutter, ""), pad, colors.BOLD_RED.Sprint("^"))
			}
		}
	}

	if d.Help != "" {
		fmt.Fprintf(w, "%s %s\n", colors.BOLD_GREEN.Sprint("help:"), d.Help)
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// caretOffset is the display width of the text before column on line.
func caretOffset(line string, column int) int {
	offset := 0
	col := 1
	for _, r := range line {
		if col >= column {
			break
		}
		offset += runeWidth(r)
		col++
	}
	return offset
}

func runeWidth(r rune) int {
	if r == '\t' {
		return tabWidth
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
