package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smasher164/pyscc/lexer"
)

type Node interface {
	Span() lexer.Span
	ASTString(depth int) string
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

var (
	_ Stmt = (*FunctionDef)(nil)
	_ Stmt = (*If)(nil)
	_ Stmt = (*While)(nil)
	_ Stmt = (*Assign)(nil)
	_ Stmt = (*Return)(nil)
	_ Stmt = (*Pass)(nil)
	_ Stmt = (*ExprStmt)(nil)

	_ Expr = (*Name)(nil)
	_ Expr = (*Constant)(nil)
	_ Expr = (*Tuple)(nil)
	_ Expr = (*List)(nil)
	_ Expr = (*Compare)(nil)
	_ Expr = (*BinOp)(nil)
	_ Expr = (*UnaryOp)(nil)
	_ Expr = (*BoolOp)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Attribute)(nil)
	_ Expr = (*Subscript)(nil)

	_ Node = (*Module)(nil)
	_ Node = (*Arguments)(nil)
	_ Node = (*Arg)(nil)
	_ Node = (*Keyword)(nil)
)

// Loc is the source range of a node. It is embedded in every node.
type Loc struct {
	Start lexer.Pos
	End   lexer.Pos
}

func LocOf(span lexer.Span) Loc {
	return Loc{Start: span.Start, End: span.End}
}

func (l Loc) Span() lexer.Span {
	return lexer.Span{Start: l.Start, End: l.End}
}

func indent(depth int) string {
	return fmt.Sprintf("%*s", depth*2, "")
}

func printNodeSlice[T Node](depth int, nodes []T) string {
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

func printOptional[T Node](depth int, n T, present bool) string {
	if !present {
		return "nil"
	}
	return n.ASTString(depth)
}

func PrintAST(root Node) {
	fmt.Println(root.ASTString(0))
}

func Fprint(w io.Writer, root Node) error {
	_, err := fmt.Fprintln(w, root.ASTString(0))
	return err
}

type Module struct {
	Loc
	Filename string
	Body     []Stmt
}

func (m *Module) ASTString(depth int) string {
	return fmt.Sprintf(
		"Module\n%sFilename: %s\n%sBody: %s",
		indent(depth+1), m.Filename,
		indent(depth+1), printNodeSlice(depth+1, m.Body))
}

type FunctionDef struct {
	Loc
	Name    string
	Args    *Arguments
	Body    []Stmt
	Returns Expr // nil when the return annotation is omitted
}

func (*FunctionDef) stmtNode() {}

func (f *FunctionDef) ASTString(depth int) string {
	return fmt.Sprintf(
		"FunctionDef\n%sName: %s\n%sArgs: %s\n%sBody: %s\n%sReturns: %s",
		indent(depth+1), f.Name,
		indent(depth+1), f.Args.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, f.Body),
		indent(depth+1), printOptional(depth+1, f.Returns, f.Returns != nil))
}

// Arguments is a parameter list. Only Args is ever non-empty for code the
// inferrer accepts; the other fields exist so that unsupported forms can be
// reported with a precise location.
type Arguments struct {
	Loc
	Args       []*Arg
	Vararg     *Arg
	KwOnlyArgs []*Arg
	KwDefaults []Expr // parallel to KwOnlyArgs, nil entries for required ones
	Kwarg      *Arg
	Defaults   []Expr // defaults of the trailing positional parameters
}

func (a *Arguments) ASTString(depth int) string {
	kwDefaults := make([]Node, 0, len(a.KwDefaults))
	for _, d := range a.KwDefaults {
		if d != nil {
			kwDefaults = append(kwDefaults, d)
		}
	}
	return fmt.Sprintf(
		"Arguments\n%sArgs: %s\n%sVararg: %s\n%sKwOnlyArgs: %s\n%sKwDefaults: %s\n%sKwarg: %s\n%sDefaults: %s",
		indent(depth+1), printNodeSlice(depth+1, a.Args),
		indent(depth+1), printOptional(depth+1, a.Vararg, a.Vararg != nil),
		indent(depth+1), printNodeSlice(depth+1, a.KwOnlyArgs),
		indent(depth+1), printNodeSlice(depth+1, kwDefaults),
		indent(depth+1), printOptional(depth+1, a.Kwarg, a.Kwarg != nil),
		indent(depth+1), printNodeSlice(depth+1, a.Defaults))
}

type Arg struct {
	Loc
	Arg        string
	Annotation Expr
}

func (a *Arg) ASTString(depth int) string {
	return fmt.Sprintf(
		"Arg\n%sArg: %s\n%sAnnotation: %s",
		indent(depth+1), a.Arg,
		indent(depth+1), printOptional(depth+1, a.Annotation, a.Annotation != nil))
}

type If struct {
	Loc
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*If) stmtNode() {}

func (i *If) ASTString(depth int) string {
	return fmt.Sprintf(
		"If\n%sTest: %s\n%sBody: %s\n%sOrelse: %s",
		indent(depth+1), i.Test.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, i.Body),
		indent(depth+1), printNodeSlice(depth+1, i.Orelse))
}

type While struct {
	Loc
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

func (*While) stmtNode() {}

func (w *While) ASTString(depth int) string {
	return fmt.Sprintf(
		"While\n%sTest: %s\n%sBody: %s\n%sOrelse: %s",
		indent(depth+1), w.Test.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, w.Body),
		indent(depth+1), printNodeSlice(depth+1, w.Orelse))
}

// Assign binds Value to every target: a = b = v has two targets.
type Assign struct {
	Loc
	Targets []Expr
	Value   Expr
}

func (*Assign) stmtNode() {}

func (a *Assign) ASTString(depth int) string {
	return fmt.Sprintf(
		"Assign\n%sTargets: %s\n%sValue: %s",
		indent(depth+1), printNodeSlice(depth+1, a.Targets),
		indent(depth+1), a.Value.ASTString(depth+1))
}

type Return struct {
	Loc
	Value Expr // nil for a bare return
}

func (*Return) stmtNode() {}

func (r *Return) ASTString(depth int) string {
	return fmt.Sprintf("Return\n%sValue: %s", indent(depth+1), printOptional(depth+1, r.Value, r.Value != nil))
}

type Pass struct {
	Loc
}

func (*Pass) stmtNode() {}

func (*Pass) ASTString(int) string {
	return "Pass"
}

type ExprStmt struct {
	Loc
	Value Expr
}

func (*ExprStmt) stmtNode() {}

func (e *ExprStmt) ASTString(depth int) string {
	return fmt.Sprintf("ExprStmt\n%sValue: %s", indent(depth+1), e.Value.ASTString(depth+1))
}

type Name struct {
	Loc
	Id string
}

func (*Name) exprNode() {}

func (n *Name) ASTString(depth int) string {
	return fmt.Sprintf("Name\n%sId: %s", indent(depth+1), n.Id)
}

type ConstKind int

const (
	BoolConst ConstKind = iota
	IntConst
	StrConst
	NoneConst
	FloatConst
	ComplexConst
	EllipsisConst
)

var constKindNames = [...]string{
	BoolConst:     "bool",
	IntConst:      "int",
	StrConst:      "str",
	NoneConst:     "NoneType",
	FloatConst:    "float",
	ComplexConst:  "complex",
	EllipsisConst: "ellipsis",
}

// TypeName is the name of the runtime class of a literal of this kind.
func (k ConstKind) TypeName() string {
	if k >= 0 && int(k) < len(constKindNames) {
		return constKindNames[k]
	}
	return fmt.Sprintf("ConstKind(%d)", int(k))
}

func (k ConstKind) String() string {
	return k.TypeName()
}

// Constant is a literal. Value holds the decoded contents of a string and
// the source text of every other kind.
type Constant struct {
	Loc
	Kind  ConstKind
	Value string
}

func (*Constant) exprNode() {}

func (c *Constant) ASTString(depth int) string {
	value := c.Value
	if c.Kind == StrConst {
		value = strconv.Quote(value)
	}
	return fmt.Sprintf("Constant\n%sKind: %s\n%sValue: %s", indent(depth+1), c.Kind, indent(depth+1), value)
}

type Tuple struct {
	Loc
	Elts []Expr
}

func (*Tuple) exprNode() {}

func (t *Tuple) ASTString(depth int) string {
	return fmt.Sprintf("Tuple\n%sElts: %s", indent(depth+1), printNodeSlice(depth+1, t.Elts))
}

type List struct {
	Loc
	Elts []Expr
}

func (*List) exprNode() {}

func (l *List) ASTString(depth int) string {
	return fmt.Sprintf("List\n%sElts: %s", indent(depth+1), printNodeSlice(depth+1, l.Elts))
}

type CmpOp int

const (
	Eq CmpOp = iota
	NotEq
	Lt
	LtE
	Gt
	GtE
	Is
	IsNot
	In
	NotIn
)

var cmpOpNames = [...]string{
	Eq:    "==",
	NotEq: "!=",
	Lt:    "<",
	LtE:   "<=",
	Gt:    ">",
	GtE:   ">=",
	Is:    "is",
	IsNot: "is not",
	In:    "in",
	NotIn: "not in",
}

func (op CmpOp) String() string {
	if op >= 0 && int(op) < len(cmpOpNames) {
		return cmpOpNames[op]
	}
	return fmt.Sprintf("CmpOp(%d)", int(op))
}

// Compare is a comparison chain: a < b < c has two Ops and two Comparators.
type Compare struct {
	Loc
	Left        Expr
	Ops         []CmpOp
	Comparators []Expr
}

func (*Compare) exprNode() {}

func (c *Compare) ASTString(depth int) string {
	return fmt.Sprintf(
		"Compare\n%sLeft: %s\n%sOps: %s\n%sComparators: %s",
		indent(depth+1), c.Left.ASTString(depth+1),
		indent(depth+1), printOps(c.Ops),
		indent(depth+1), printNodeSlice(depth+1, c.Comparators))
}

func printOps[T fmt.Stringer](ops []T) string {
	s := make([]string, len(ops))
	for i, op := range ops {
		s[i] = op.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}

type Operator int

const (
	Add Operator = iota
	Sub
	Mult
	MatMult
	Div
	FloorDiv
	Mod
	Pow
	LShift
	RShift
	BitOr
	BitXor
	BitAnd
)

var operatorNames = [...]string{
	Add:      "+",
	Sub:      "-",
	Mult:     "*",
	MatMult:  "@",
	Div:      "/",
	FloorDiv: "//",
	Mod:      "%",
	Pow:      "**",
	LShift:   "<<",
	RShift:   ">>",
	BitOr:    "|",
	BitXor:   "^",
	BitAnd:   "&",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

type BinOp struct {
	Loc
	Left  Expr
	Op    Operator
	Right Expr
}

func (*BinOp) exprNode() {}

func (b *BinOp) ASTString(depth int) string {
	return fmt.Sprintf(
		"BinOp\n%sLeft: %s\n%sOp: %s\n%sRight: %s",
		indent(depth+1), b.Left.ASTString(depth+1),
		indent(depth+1), b.Op,
		indent(depth+1), b.Right.ASTString(depth+1))
}

type UnaryOperator int

const (
	Invert UnaryOperator = iota
	Not
	UAdd
	USub
)

var unaryOperatorNames = [...]string{
	Invert: "~",
	Not:    "not",
	UAdd:   "+",
	USub:   "-",
}

func (op UnaryOperator) String() string {
	if op >= 0 && int(op) < len(unaryOperatorNames) {
		return unaryOperatorNames[op]
	}
	return fmt.Sprintf("UnaryOperator(%d)", int(op))
}

type UnaryOp struct {
	Loc
	Op      UnaryOperator
	Operand Expr
}

func (*UnaryOp) exprNode() {}

func (u *UnaryOp) ASTString(depth int) string {
	return fmt.Sprintf(
		"UnaryOp\n%sOp: %s\n%sOperand: %s",
		indent(depth+1), u.Op,
		indent(depth+1), u.Operand.ASTString(depth+1))
}

type BoolOperator int

const (
	And BoolOperator = iota
	Or
)

func (op BoolOperator) String() string {
	switch op {
	case And:
		return "and"
	case Or:
		return "or"
	}
	return fmt.Sprintf("BoolOperator(%d)", int(op))
}

type BoolOp struct {
	Loc
	Op     BoolOperator
	Values []Expr
}

func (*BoolOp) exprNode() {}

func (b *BoolOp) ASTString(depth int) string {
	return fmt.Sprintf(
		"BoolOp\n%sOp: %s\n%sValues: %s",
		indent(depth+1), b.Op,
		indent(depth+1), printNodeSlice(depth+1, b.Values))
}

type Call struct {
	Loc
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

func (*Call) exprNode() {}

func (c *Call) ASTString(depth int) string {
	return fmt.Sprintf(
		"Call\n%sFunc: %s\n%sArgs: %s\n%sKeywords: %s",
		indent(depth+1), c.Func.ASTString(depth+1),
		indent(depth+1), printNodeSlice(depth+1, c.Args),
		indent(depth+1), printNodeSlice(depth+1, c.Keywords))
}

// Keyword is a name=value argument of a call.
type Keyword struct {
	Loc
	Arg   string
	Value Expr
}

func (k *Keyword) ASTString(depth int) string {
	return fmt.Sprintf(
		"Keyword\n%sArg: %s\n%sValue: %s",
		indent(depth+1), k.Arg,
		indent(depth+1), k.Value.ASTString(depth+1))
}

type Attribute struct {
	Loc
	Value Expr
	Attr  string
}

func (*Attribute) exprNode() {}

func (a *Attribute) ASTString(depth int) string {
	return fmt.Sprintf(
		"Attribute\n%sValue: %s\n%sAttr: %s",
		indent(depth+1), a.Value.ASTString(depth+1),
		indent(depth+1), a.Attr)
}

type Subscript struct {
	Loc
	Value Expr
	Slice Expr
}

func (*Subscript) exprNode() {}

func (s *Subscript) ASTString(depth int) string {
	return fmt.Sprintf(
		"Subscript\n%sValue: %s\n%sSlice: %s",
		indent(depth+1), s.Value.ASTString(depth+1),
		indent(depth+1), s.Slice.ASTString(depth+1))
}
