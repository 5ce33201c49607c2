package main

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// PrintlnAnalyzer reports printing to stdout from non-main packages.
var PrintlnAnalyzer = &analysis.Analyzer{
	Name:     "printlnlint",
	Doc:      "reports fmt.Print, fmt.Printf and fmt.Println outside package main",
	Run:      runPrintln,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func runPrintln(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() == "main" {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		if strings.HasSuffix(pass.Fset.File(call.Pos()).Name(), "_test.go") {
			return
		}

		if isPkgFunc(pass, call, "fmt", "Print", "Printf", "Println") {
			pass.Reportf(call.Pos(), "use the logger instead of %s", render(pass.Fset, call.Fun))
		}
	})

	return nil, nil
}
