package ast

import (
	"fmt"
	"strings"
)

// Children returns the direct children of n in source order, including
// annotations and default values.
func Children(n Node) []Node {
	return children(n, true)
}

func children(n Node, annotations bool) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n := n.(type) {
	case *Module:
		add(stmts(n.Body)...)
	case *FunctionDef:
		if n.Args != nil {
			add(n.Args)
		}
		add(stmts(n.Body)...)
		if annotations && n.Returns != nil {
			add(n.Returns)
		}
	case *Arguments:
		for _, a := range n.Args {
			add(a)
		}
		if n.Vararg != nil {
			add(n.Vararg)
		}
		for _, a := range n.KwOnlyArgs {
			add(a)
		}
		if n.Kwarg != nil {
			add(n.Kwarg)
		}
		if annotations {
			add(exprs(n.Defaults)...)
			add(exprs(n.KwDefaults)...)
		}
	case *Arg:
		if annotations && n.Annotation != nil {
			add(n.Annotation)
		}
	case *If:
		add(n.Test)
		add(stmts(n.Body)...)
		add(stmts(n.Orelse)...)
	case *While:
		add(n.Test)
		add(stmts(n.Body)...)
		add(stmts(n.Orelse)...)
	case *Assign:
		add(exprs(n.Targets)...)
		add(n.Value)
	case *Return:
		if n.Value != nil {
			add(n.Value)
		}
	case *ExprStmt:
		add(n.Value)
	case *Tuple:
		add(exprs(n.Elts)...)
	case *List:
		add(exprs(n.Elts)...)
	case *Compare:
		add(n.Left)
		add(exprs(n.Comparators)...)
	case *BinOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Operand)
	case *BoolOp:
		add(exprs(n.Values)...)
	case *Call:
		add(n.Func)
		add(exprs(n.Args)...)
		for _, k := range n.Keywords {
			add(k)
		}
	case *Keyword:
		add(n.Value)
	case *Attribute:
		add(n.Value)
	case *Subscript:
		add(n.Value, n.Slice)
	case *Pass, *Name, *Constant:
	default:
		panic(fmt.Sprintf("unexpected node %T", n))
	}
	return out
}

func stmts(s []Stmt) []Node {
	out := make([]Node, 0, len(s))
	for _, n := range s {
		out = append(out, n)
	}
	return out
}

func exprs(s []Expr) []Node {
	out := make([]Node, 0, len(s))
	for _, n := range s {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// KindOf returns the name of the node's type without its package.
func KindOf(n Node) string {
	s := fmt.Sprintf("%T", n)
	return s[strings.LastIndexByte(s, '.')+1:]
}

// Shape renders the tree of node kinds, e.g. Module(Assign(Name,Constant)).
// Annotations and default values are left out.
func Shape(n Node) string {
	var sb strings.Builder
	writeShape(&sb, n)
	return sb.String()
}

func writeShape(sb *strings.Builder, n Node) {
	sb.WriteString(KindOf(n))
	cs := children(n, false)
	if len(cs) == 0 {
		return
	}
	sb.WriteByte('(')
	for i, c := range cs {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeShape(sb, c)
	}
	sb.WriteByte(')')
}
