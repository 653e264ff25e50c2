package arch_test

import (
	"go/ast"
	"testing"
)

// TestInterfacePlacement flags interfaces declared next to a type whose
// method set covers them. Interfaces belong with their consumers.
func TestInterfacePlacement(t *testing.T) {
	t.Parallel()
	for _, pkg := range packages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			files := sources(t, pkg)
			methods := map[string]map[string]bool{}
			for _, f := range files {
				for _, decl := range f.node.Decls {
					fd, ok := decl.(*ast.FuncDecl)
					if !ok || fd.Recv == nil {
						continue
					}
					recv := receiverName(fd.Recv)
					if methods[recv] == nil {
						methods[recv] = map[string]bool{}
					}
					methods[recv][fd.Name.Name] = true
				}
			}
			for _, f := range files {
				for name, want := range interfaces(f.node) {
					for typ, have := range methods {
						if covers(have, want) {
							t.Errorf("%s: interface %s is implemented by %s in the same package", f.rel, name, typ)
						}
					}
				}
			}
		})
	}
}

// interfaces maps each non-empty interface declared in file to its method
// names.
func interfaces(file *ast.File) map[string][]string {
	out := map[string][]string{}
	ast.Inspect(file, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		it, ok := ts.Type.(*ast.InterfaceType)
		if !ok {
			return false
		}
		var names []string
		for _, m := range it.Methods.List {
			for _, id := range m.Names {
				names = append(names, id.Name)
			}
		}
		if len(names) > 0 {
			out[ts.Name.Name] = names
		}
		return false
	})
	return out
}

func receiverName(recv *ast.FieldList) string {
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func covers(have map[string]bool, want []string) bool {
	for _, m := range want {
		if !have[m] {
			return false
		}
	}
	return true
}

func TestInterfacesFound(t *testing.T) {
	t.Parallel()
	for _, f := range sources(t, "chart") {
		if f.rel != "internal/chart/chart.go" {
			continue
		}
		if got := interfaces(f.node)["Oracle"]; len(got) != 2 {
			t.Errorf("Oracle methods = %v, want 2", got)
		}
		return
	}
	t.Error("internal/chart/chart.go not parsed")
}
