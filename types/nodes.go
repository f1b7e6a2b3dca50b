package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smasher164/pyscc/ast"
	"github.com/smasher164/pyscc/lexer"
)

// TypedNode is a node of the typed tree. It mirrors the untyped node it was
// inferred from and carries that node's type.
type TypedNode interface {
	Span() lexer.Span
	Type() Type
	ASTString(depth int) string
}

type TypedStmt interface {
	TypedNode
	typedStmt()
}

type TypedExpr interface {
	TypedNode
	typedExpr()
}

var (
	_ TypedStmt = (*TypedModule)(nil)
	_ TypedStmt = (*TypedFunctionDef)(nil)
	_ TypedStmt = (*TypedIf)(nil)
	_ TypedStmt = (*TypedAssign)(nil)
	_ TypedStmt = (*TypedReturn)(nil)
	_ TypedStmt = (*TypedPass)(nil)
	_ TypedStmt = (*TypedExprStmt)(nil)

	_ TypedExpr = (*TypedName)(nil)
	_ TypedExpr = (*TypedConstant)(nil)
	_ TypedExpr = (*TypedTuple)(nil)
	_ TypedExpr = (*TypedList)(nil)
	_ TypedExpr = (*TypedCompare)(nil)
	_ TypedExpr = (*TypedBinOp)(nil)
	_ TypedExpr = (*TypedUnaryOp)(nil)
	_ TypedExpr = (*TypedCall)(nil)

	_ TypedNode = (*TypedArguments)(nil)
	_ TypedNode = (*TypedArg)(nil)
)

type stmtNode struct{}

func (stmtNode) Type() Type  { return NoValue }
func (stmtNode) typedStmt() {}

type exprNode struct {
	T Type
}

func (e exprNode) Type() Type { return e.T }
func (exprNode) typedExpr()   {}

func indent(depth int) string {
	return fmt.Sprintf("%*s", depth*2, "")
}

func printNodeSlice[T TypedNode](depth int, nodes []T) string {
	if len(nodes) == 0 {
		return "[]"
	}
	s := fmt.Sprintf("[\n%s", indent(depth+1))
	for _, n := range nodes {
		s += fmt.Sprintf("%s\n%s", n.ASTString(depth+1), indent(depth+1))
	}
	s += "]"
	return s
}

func printOps[T fmt.Stringer](ops []T) string {
	s := make([]string, len(ops))
	for i, op := range ops {
		s[i] = op.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}

type TypedModule struct {
	ast.Loc
	stmtNode
	Filename string
	Body     []TypedStmt
}

func (m *TypedModule) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedModule\n%sFilename: %s\n%sBody: %s\n%sType: %s",
		indent(depth+1), m.Filename,
		indent(depth+1), printNodeSlice(depth+1, m.Body),
		indent(depth+1), m.Type())
}

// TypedFunctionDef is a function definition statement. Its own type is
// NoValue; the type bound to its name is Signature.
type TypedFunctionDef struct {
	ast.Loc
	stmtNode
	Name      string
	Args      *TypedArguments
	Body      []TypedStmt
	Returns   ast.Expr
	Signature Function
}

func (f *TypedFunctionDef) ASTString(depth int) string {
	returns := "nil"
	if f.Returns != nil {
		returns = f.Returns.ASTString(depth + 1)
	}
	return fmt.Sprintf(
		"TypedFunctionDef\n%sName: %s\n%sArgs: %s\n%sBody: %s\n%sReturns: %s\n%sSignature: %s\n%sType: %s",
		indent(depth+1), f.Name,
		indent(depth+1), f.Args.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, f.Body),
		indent(depth+1), returns,
		indent(depth+1), f.Signature,
		indent(depth+1), f.Type())
}

type TypedArguments struct {
	ast.Loc
	Args []*TypedArg
}

func (a *TypedArguments) Type() Type {
	return NoValue
}

func (a *TypedArguments) ASTString(depth int) string {
	return fmt.Sprintf("TypedArguments\n%sArgs: %s", indent(depth+1), printNodeSlice(depth+1, a.Args))
}

// TypedArg is a parameter; T is the type read from its annotation.
type TypedArg struct {
	ast.Loc
	Arg        string
	Annotation ast.Expr
	T          Type
}

func (a *TypedArg) Type() Type {
	return a.T
}

func (a *TypedArg) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedArg\n%sArg: %s\n%sAnnotation: %s\n%sType: %s",
		indent(depth+1), a.Arg,
		indent(depth+1), a.Annotation.ASTString(depth+1),
		indent(depth+1), a.T)
}

type TypedIf struct {
	ast.Loc
	stmtNode
	Test   TypedExpr
	Body   []TypedStmt
	Orelse []TypedStmt
}

func (i *TypedIf) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedIf\n%sTest: %s\n%sBody: %s\n%sOrelse: %s\n%sType: %s",
		indent(depth+1), i.Test.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, i.Body),
		indent(depth+1), printNodeSlice(depth+1, i.Orelse),
		indent(depth+1), i.Type())
}

type TypedAssign struct {
	ast.Loc
	stmtNode
	Targets []*TypedName
	Value   TypedExpr
}

func (a *TypedAssign) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedAssign\n%sTargets: %s\n%sValue: %s\n%sType: %s",
		indent(depth+1), printNodeSlice(depth+1, a.Targets),
		indent(depth+1), a.Value.ASTString(depth+1),
		indent(depth+1), a.Type())
}

type TypedReturn struct {
	ast.Loc
	stmtNode
	Value TypedExpr // nil for a bare return
}

func (r *TypedReturn) ASTString(depth int) string {
	value := "nil"
	if r.Value != nil {
		value = r.Value.ASTString(depth + 1)
	}
	return fmt.Sprintf("TypedReturn\n%sValue: %s\n%sType: %s", indent(depth+1), value, indent(depth+1), r.Type())
}

type TypedPass struct {
	ast.Loc
	stmtNode
}

func (p *TypedPass) ASTString(depth int) string {
	return fmt.Sprintf("TypedPass\n%sType: %s", indent(depth+1), p.Type())
}

type TypedExprStmt struct {
	ast.Loc
	stmtNode
	Value TypedExpr
}

func (e *TypedExprStmt) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedExprStmt\n%sValue: %s\n%sType: %s",
		indent(depth+1), e.Value.ASTString(depth+1),
		indent(depth+1), e.Type())
}

type TypedName struct {
	ast.Loc
	exprNode
	Id string
}

func (n *TypedName) ASTString(depth int) string {
	return fmt.Sprintf("TypedName\n%sId: %s\n%sType: %s", indent(depth+1), n.Id, indent(depth+1), n.Type())
}

type TypedConstant struct {
	ast.Loc
	exprNode
	Kind  ast.ConstKind
	Value string
}

func (c *TypedConstant) ASTString(depth int) string {
	value := c.Value
	if c.Kind == ast.StrConst {
		value = strconv.Quote(value)
	}
	return fmt.Sprintf(
		"TypedConstant\n%sKind: %s\n%sValue: %s\n%sType: %s",
		indent(depth+1), c.Kind,
		indent(depth+1), value,
		indent(depth+1), c.Type())
}

type TypedTuple struct {
	ast.Loc
	exprNode
	Elts []TypedExpr
}

func (t *TypedTuple) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedTuple\n%sElts: %s\n%sType: %s",
		indent(depth+1), printNodeSlice(depth+1, t.Elts),
		indent(depth+1), t.Type())
}

type TypedList struct {
	ast.Loc
	exprNode
	Elts []TypedExpr
}

func (l *TypedList) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedList\n%sElts: %s\n%sType: %s",
		indent(depth+1), printNodeSlice(depth+1, l.Elts),
		indent(depth+1), l.Type())
}

type TypedCompare struct {
	ast.Loc
	exprNode
	Left        TypedExpr
	Ops         []ast.CmpOp
	Comparators []TypedExpr
}

func (c *TypedCompare) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedCompare\n%sLeft: %s\n%sOps: %s\n%sComparators: %s\n%sType: %s",
		indent(depth+1), c.Left.ASTString(depth+1),
		indent(depth+1), printOps(c.Ops),
		indent(depth+1), printNodeSlice(depth+1, c.Comparators),
		indent(depth+1), c.Type())
}

type TypedBinOp struct {
	ast.Loc
	exprNode
	Left  TypedExpr
	Op    ast.Operator
	Right TypedExpr
}

func (b *TypedBinOp) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedBinOp\n%sLeft: %s\n%sOp: %s\n%sRight: %s\n%sType: %s",
		indent(depth+1), b.Left.ASTString(depth+1),
		indent(depth+1), b.Op,
		indent(depth+1), b.Right.ASTString(depth+1),
		indent(depth+1), b.Type())
}

type TypedUnaryOp struct {
	ast.Loc
	exprNode
	Op      ast.UnaryOperator
	Operand TypedExpr
}

func (u *TypedUnaryOp) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedUnaryOp\n%sOp: %s\n%sOperand: %s\n%sType: %s",
		indent(depth+1), u.Op,
		indent(depth+1), u.Operand.ASTString(depth+1),
		indent(depth+1), u.Type())
}

type TypedCall struct {
	ast.Loc
	exprNode
	Func TypedExpr
	Args []TypedExpr
}

func (c *TypedCall) ASTString(depth int) string {
	return fmt.Sprintf(
		"TypedCall\n%sFunc: %s\n%sArgs: %s\n%sType: %s",
		indent(depth+1), c.Func.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, c.Args),
		indent(depth+1), c.Type())
}

// Children returns the typed children of n in source order.
func Children(n TypedNode) []TypedNode {
	var out []TypedNode
	add := func(nodes ...TypedNode) {
		out = append(out, nodes...)
	}
	switch n := n.(type) {
	case *TypedModule:
		add(stmts(n.Body)...)
	case *TypedFunctionDef:
		add(n.Args)
		add(stmts(n.Body)...)
	case *TypedArguments:
		for _, a := range n.Args {
			add(a)
		}
	case *TypedIf:
		add(n.Test)
		add(stmts(n.Body)...)
		add(stmts(n.Orelse)...)
	case *TypedAssign:
		for _, t := range n.Targets {
			add(t)
		}
		add(n.Value)
	case *TypedReturn:
		if n.Value != nil {
			add(n.Value)
		}
	case *TypedExprStmt:
		add(n.Value)
	case *TypedTuple:
		add(exprs(n.Elts)...)
	case *TypedList:
		add(exprs(n.Elts)...)
	case *TypedCompare:
		add(n.Left)
		add(exprs(n.Comparators)...)
	case *TypedBinOp:
		add(n.Left, n.Right)
	case *TypedUnaryOp:
		add(n.Operand)
	case *TypedCall:
		add(n.Func)
		add(exprs(n.Args)...)
	case *TypedPass, *TypedName, *TypedConstant, *TypedArg:
	default:
		panic(fmt.Sprintf("unexpected typed node %T", n))
	}
	return out
}

func stmts(s []TypedStmt) []TypedNode {
	out := make([]TypedNode, len(s))
	for i, n := range s {
		out[i] = n
	}
	return out
}

func exprs(s []TypedExpr) []TypedNode {
	out := make([]TypedNode, len(s))
	for i, n := range s {
		out[i] = n
	}
	return out
}

// Inspect traverses the typed tree in depth-first order. If f returns false,
// the children of that node are skipped.
func Inspect(n TypedNode, f func(TypedNode) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// KindOf returns the name of the untyped node kind n was inferred from.
func KindOf(n TypedNode) string {
	s := fmt.Sprintf("%T", n)
	return strings.TrimPrefix(s[strings.LastIndexByte(s, '.')+1:], "Typed")
}

// Shape renders the tree of node kinds in the same form as ast.Shape, so
// that a typed tree and its source tree can be compared.
func Shape(n TypedNode) string {
	var sb strings.Builder
	writeShape(&sb, n)
	return sb.String()
}

func writeShape(sb *strings.Builder, n TypedNode) {
	sb.WriteString(KindOf(n))
	cs := Children(n)
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
