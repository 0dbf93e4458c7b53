package linter

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "linter",
	Doc:  "reports uses of builtin panic and log.Fatal/os.Exit outside main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		pkgName := file.Name.Name
		for _, decl := range file.Decls {
			// Для функций запоминаем имя, чтобы отличить main.main.
			if fDecl, ok := decl.(*ast.FuncDecl); ok && fDecl.Body != nil {
				funcName := fDecl.Name.Name

				ast.Inspect(fDecl.Body, func(node ast.Node) bool {
					checkCall(pass, node, funcName, pkgName)
					return true
				})
			} else {
				ast.Inspect(decl, func(node ast.Node) bool {
					checkCall(pass, node, "", pkgName)
					return true
				})
			}
		}
	}
	return nil, nil
}

// checkCall инспектирует *ast.CallExpr и через pass.TypesInfo определяет
// вызываемую функцию и её пакет.
func checkCall(pass *analysis.Pass, node ast.Node, funcName string, pkgName string) {
	call, ok := node.(*ast.CallExpr)
	if !ok {
		return
	}
	if id, ok := call.Fun.(*ast.Ident); ok {
		if id.Name == "panic" {
			// Именно встроенный panic, а не переопределённый.
			obj := pass.TypesInfo.Uses[id]
			if obj != nil && obj.Pkg() == nil {
				pass.Reportf(id.Pos(), "use of builtin panic is discouraged")
			}
			return
		}
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return
	}

	obj := pass.TypesInfo.Uses[ident]
	if obj == nil {
		return
	}
	pkgNameObj, ok := obj.(*types.PkgName)
	if !ok {
		return
	}

	pkgPath := pkgNameObj.Imported().Path()

	if !(pkgName == "main" && funcName == "main") {
		switch pkgPath {
		case "log":
			if sel.Sel.Name == "Fatal" || sel.Sel.Name == "Fatalf" || sel.Sel.Name == "Fatalln" {
				pass.Reportf(sel.Sel.Pos(), "call to log.Fatal or os.Exit outside main.main")
			}
		case "os":
			if sel.Sel.Name == "Exit" {
				pass.Reportf(sel.Sel.Pos(), "call to log.Fatal or os.Exit outside main.main")
			}
		}
	}
}
