// seadump prints every stage of lowering one Sea file: tokens, AST,
// expressions in polish notation, the generated C and the symbol table.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"seac/lib"
	"seac/pkg/compiler"
	"seac/pkg/modules"
	"seac/pkg/vfs"
)

const testSource = `tag Color { Red, Green, Blue }

fun main(): i32 {
	let c: Color = Color'Green
	defer @puts(c"bye")
	for i in 0 to 3 {
		if i == 1 -> continue
	}
	ret (1 + 2) * 3 as i32
}
`

func main() {
	expr := flag.String("expr", "", "print only this expression in polish notation")
	nostd := flag.Bool("nostd", false, "skip the implicit `use std`")
	flag.Parse()

	if *expr != "" {
		x, err := compiler.ParseExpression(*expr)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse error:", err)
			os.Exit(1)
		}
		fmt.Println(compiler.PolishColored(x))
		return
	}

	src := testSource
	file := "<demo>"
	libPaths := []string{lib.Root}
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		file = flag.Arg(0)
		libPaths = []string{filepath.Dir(file), lib.Root}
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.LexFile(file, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	prog, err := compiler.Parse(tokens, file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("AST")
	for _, d := range prog.Decls {
		fmt.Println(" ", d)
	}
	fmt.Println()

	fmt.Println("Expressions")
	compiler.Walk(prog, func(x compiler.Expr) {
		fmt.Println(" ", compiler.PolishColored(x))
	})
	fmt.Println()

	// Code generation
	fsys := vfs.Union{vfs.EmbedFS{Root: lib.Root, FS: lib.Files}, vfs.OSFS{}}
	syms := compiler.NewSymbolTable()
	out, err := compiler.Generate(prog, syms, compiler.Options{
		File:   file,
		Loader: modules.New(fsys, libPaths...),
		NoStd:  *nostd,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Println("Generated C")
	fmt.Print(out.C)
	fmt.Println()
	if len(out.CCFlags) > 0 {
		fmt.Println("CC flags:", out.CCFlags)
	}
	fmt.Print(syms)
}
