package types

import "github.com/smasher164/pyscc/ast"

// typeFromAnnotation reads a type annotation. A missing annotation and the
// constant None both mean NoneType.
func typeFromAnnotation(ann ast.Expr) (Type, error) {
	switch a := ann.(type) {
	case nil:
		return NoneType, nil
	case *ast.Name:
		return Instance{Name: a.Id}, nil
	case *ast.Constant:
		if a.Kind == ast.NoneConst {
			return NoneType, nil
		}
	case *ast.Subscript:
		return nil, &UnsupportedConstructError{Span: a.Span(), Node: "Subscript", Reason: "generic types are not supported"}
	}
	return nil, &UnsupportedConstructError{Span: ann.Span(), Node: ast.KindOf(ann), Reason: "not supported as a type annotation"}
}
