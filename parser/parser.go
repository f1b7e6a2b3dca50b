package parser

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/smasher164/pyscc/ast"
	"github.com/smasher164/pyscc/lexer"
)

type Lexer interface {
	Next() lexer.Token
	Filename() string
}

// Error is a syntax error. Parsing stops at the first one.
type Error struct {
	Filename string
	Span     lexer.Span
	Msg      string
	// Unsupported is set for valid Python outside the accepted subset.
	Unsupported bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Span.Start.Line, e.Span.Start.Column, e.Msg)
}

type Option func(*parser)

// WithTrace prints an indented trace of the grammar rules entered to w.
func WithTrace(w io.Writer) Option {
	return func(p *parser) {
		p.traceW = w
	}
}

type parser struct {
	l       Lexer
	tok     lexer.Token
	buf     []lexer.Token
	prevEnd lexer.Pos // end of the last consumed non-layout token
	traceW  io.Writer
	indent  int
}

func (p *parser) trace(msg string) func() {
	if p.traceW == nil {
		return func() {}
	}
	fmt.Fprintf(p.traceW, "%*s%s\n", p.indent*2, "", msg)
	p.indent++
	return func() {
		p.indent--
	}
}

// Parse parses a single source file into a module.
func Parse(filename string, src []byte, opts ...Option) (*ast.Module, error) {
	return newParser(lexer.New(filename, src), opts).parse()
}

func ParseFile(fsys fs.FS, filename string, opts ...Option) (*ast.Module, error) {
	l, err := lexer.NewLexer(fsys, filename)
	if err != nil {
		return nil, err
	}
	return newParser(l, opts).parse()
}

func newParser(l Lexer, opts []Option) *parser {
	p := &parser{l: l}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *parser) parse() (mod *ast.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			mod, err = nil, perr
		}
	}()
	p.next()
	return p.parseModule(), nil
}

func (p *parser) errorf(span lexer.Span, format string, args ...any) *Error {
	return &Error{Filename: p.l.Filename(), Span: span, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) unsupported(span lexer.Span, what string) *Error {
	err := p.errorf(span, "%s are not supported", what)
	err.Unsupported = true
	return err
}

// Python keywords outside the subset. The lexer reads them as identifiers.
var unsupportedKeywords = map[string]string{
	"for":      "for statements",
	"class":    "class definitions",
	"import":   "import statements",
	"from":     "import statements",
	"with":     "with statements",
	"try":      "try statements",
	"except":   "try statements",
	"finally":  "try statements",
	"raise":    "raise statements",
	"del":      "del statements",
	"global":   "global declarations",
	"nonlocal": "nonlocal declarations",
	"assert":   "assert statements",
	"break":    "break statements",
	"continue": "continue statements",
	"async":    "async functions",
	"await":    "await expressions",
	"lambda":   "lambda expressions",
	"yield":    "yield expressions",
}

func (p *parser) next() {
	switch p.tok.Type {
	case lexer.Newline, lexer.Indent, lexer.Dedent, lexer.EOF:
	default:
		p.prevEnd = p.tok.Span.End
	}
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
	} else {
		p.tok = p.l.Next()
	}
	if p.tok.Type == lexer.Illegal {
		panic(p.errorf(p.tok.Span, "%s", p.tok.Data))
	}
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

func (p *parser) expect(ttyp lexer.TokenType, what string) lexer.Token {
	if p.tok.Type != ttyp {
		panic(p.errorf(p.tok.Span, "expected %s, found %s", what, describe(p.tok)))
	}
	tok := p.tok
	p.next()
	return tok
}

func (p *parser) locFrom(start lexer.Pos) ast.Loc {
	return ast.Loc{Start: start, End: p.prevEnd}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.Newline:
		return "newline"
	case lexer.EOF:
		return "end of file"
	case lexer.Indent:
		return "indent"
	case lexer.Dedent:
		return "dedent"
	case lexer.Ident:
		return "identifier " + tok.Data
	case lexer.Int, lexer.Float, lexer.Imag, lexer.String:
		return "literal " + tok.Data
	}
	return fmt.Sprintf("%q", tok.Type.String())
}

// Module = { Newline | Stmt } EOF
func (p *parser) parseModule() *ast.Module {
	defer p.trace("parseModule")()
	start := p.tok.Span.Start
	mod := &ast.Module{Filename: p.l.Filename()}
	for p.tok.Type != lexer.EOF {
		switch p.tok.Type {
		case lexer.Newline:
			p.next()
		case lexer.Indent:
			panic(p.errorf(p.tok.Span, "unexpected indent"))
		default:
			mod.Body = append(mod.Body, p.parseStmt()...)
		}
	}
	mod.Loc = ast.Loc{Start: start, End: p.prevEnd.Max(start)}
	return mod
}

// Stmt = FunctionDef | If | While | SimpleStmts
func (p *parser) parseStmt() []ast.Stmt {
	defer p.trace("parseStmt")()
	switch p.tok.Type {
	case lexer.Def:
		return []ast.Stmt{p.parseFunctionDef()}
	case lexer.If:
		return []ast.Stmt{p.parseIf()}
	case lexer.While:
		return []ast.Stmt{p.parseWhile()}
	}
	return p.parseSimpleStmts()
}

// SimpleStmts = SmallStmt { ";" SmallStmt } [ ";" ] Newline
func (p *parser) parseSimpleStmts() []ast.Stmt {
	defer p.trace("parseSimpleStmts")()
	var stmts []ast.Stmt
	for {
		stmts = append(stmts, p.parseSmallStmt())
		if p.tok.Type != lexer.Semicolon {
			break
		}
		p.next()
		if p.tok.Type == lexer.Newline {
			break
		}
	}
	p.expect(lexer.Newline, "newline")
	return stmts
}

// SmallStmt = "pass" | "return" [ TestList ] | TestList { "=" TestList }
func (p *parser) parseSmallStmt() ast.Stmt {
	defer p.trace("parseSmallStmt")()
	start := p.tok.Span.Start
	switch p.tok.Type {
	case lexer.Pass:
		p.next()
		return &ast.Pass{Loc: p.locFrom(start)}
	case lexer.Return:
		p.next()
		ret := &ast.Return{}
		if p.tok.BeginsExpr() {
			ret.Value = p.parseTestList()
		}
		ret.Loc = p.locFrom(start)
		return ret
	}
	x := p.parseTestList()
	if p.tok.Type != lexer.Assign {
		return &ast.ExprStmt{Loc: p.locFrom(start), Value: x}
	}
	exprs := []ast.Expr{x}
	for p.tok.Type == lexer.Assign {
		p.next()
		exprs = append(exprs, p.parseTestList())
	}
	targets := exprs[:len(exprs)-1]
	for _, t := range targets {
		p.checkTarget(t)
	}
	return &ast.Assign{Loc: p.locFrom(start), Targets: targets, Value: exprs[len(exprs)-1]}
}

func (p *parser) checkTarget(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
	case *ast.Tuple:
		for _, elt := range x.Elts {
			p.checkTarget(elt)
		}
	case *ast.List:
		for _, elt := range x.Elts {
			p.checkTarget(elt)
		}
	case *ast.Constant:
		panic(p.errorf(x.Span(), "cannot assign to literal"))
	case *ast.Call:
		panic(p.errorf(x.Span(), "cannot assign to function call"))
	default:
		panic(p.errorf(x.Span(), "cannot assign to expression"))
	}
}

// Suite = SimpleStmts | Newline Indent Stmt { Stmt } Dedent
func (p *parser) parseSuite() []ast.Stmt {
	defer p.trace("parseSuite")()
	if p.tok.Type != lexer.Newline {
		return p.parseSimpleStmts()
	}
	p.next()
	p.expect(lexer.Indent, "an indented block")
	var body []ast.Stmt
	for p.tok.Type != lexer.Dedent && p.tok.Type != lexer.EOF {
		body = append(body, p.parseStmt()...)
	}
	p.expect(lexer.Dedent, "dedent")
	return body
}

// FunctionDef = "def" ident "(" [ Parameters ] ")" [ "->" Test ] ":" Suite
func (p *parser) parseFunctionDef() ast.Stmt {
	defer p.trace("parseFunctionDef")()
	start := p.tok.Span.Start
	p.next()
	name := p.expect(lexer.Ident, "function name")
	def := &ast.FunctionDef{Name: name.Data}
	lparen := p.expect(lexer.LeftParen, "'('")
	def.Args = p.parseParameters()
	rparen := p.expect(lexer.RightParen, "')'")
	def.Args.Loc = ast.LocOf(lparen.Span.Add(rparen.Span))
	if p.tok.Type == lexer.RightArrow {
		p.next()
		def.Returns = p.parseTest()
	}
	p.expect(lexer.Colon, "':'")
	def.Body = p.parseSuite()
	def.Loc = p.locFrom(start)
	return def
}

// Parameters = Param { "," Param } [ "," ]
// Param = ident [ ":" Test ] [ "=" Test ] | "*" [ ident [ ":" Test ] ] | "**" ident [ ":" Test ]
func (p *parser) parseParameters() *ast.Arguments {
	defer p.trace("parseParameters")()
	args := &ast.Arguments{}
	seen := make(map[string]bool)
	declare := func(arg *ast.Arg) *ast.Arg {
		if seen[arg.Arg] {
			panic(p.errorf(arg.Span(), "duplicate argument %q in function definition", arg.Arg))
		}
		seen[arg.Arg] = true
		return arg
	}
	var star lexer.Token
	seenDefault, seenStar := false, false
	for p.tok.Type != lexer.RightParen {
		switch p.tok.Type {
		case lexer.Power:
			p.next()
			args.Kwarg = declare(p.parseParam())
			if p.tok.Type == lexer.Comma {
				p.next()
			}
			if p.tok.Type != lexer.RightParen {
				panic(p.errorf(p.tok.Span, "arguments cannot follow var-keyword argument"))
			}
			continue
		case lexer.Times:
			if seenStar {
				panic(p.errorf(p.tok.Span, "* argument may appear only once"))
			}
			star, seenStar = p.tok, true
			p.next()
			if p.tok.Type == lexer.Ident {
				args.Vararg = declare(p.parseParam())
			}
		default:
			arg := declare(p.parseParam())
			var def ast.Expr
			if p.tok.Type == lexer.Assign {
				p.next()
				def = p.parseTest()
			}
			if seenStar {
				args.KwOnlyArgs = append(args.KwOnlyArgs, arg)
				args.KwDefaults = append(args.KwDefaults, def)
				break
			}
			if def != nil {
				seenDefault = true
				args.Defaults = append(args.Defaults, def)
			} else if seenDefault {
				panic(p.errorf(arg.Span(), "non-default argument follows default argument"))
			}
			args.Args = append(args.Args, arg)
		}
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	if seenStar && args.Vararg == nil && len(args.KwOnlyArgs) == 0 {
		panic(p.errorf(star.Span, "named arguments must follow bare *"))
	}
	return args
}

func (p *parser) parseParam() *ast.Arg {
	defer p.trace("parseParam")()
	name := p.expect(lexer.Ident, "parameter name")
	arg := &ast.Arg{Arg: name.Data}
	if p.tok.Type == lexer.Colon {
		p.next()
		arg.Annotation = p.parseTest()
	}
	arg.Loc = p.locFrom(name.Span.Start)
	return arg
}

// If = ( "if" | "elif" ) Test ":" Suite [ If | "else" ":" Suite ]
func (p *parser) parseIf() ast.Stmt {
	defer p.trace("parseIf")()
	start := p.tok.Span.Start
	p.next()
	n := &ast.If{Test: p.parseTest()}
	p.expect(lexer.Colon, "':'")
	n.Body = p.parseSuite()
	switch p.tok.Type {
	case lexer.Elif:
		n.Orelse = []ast.Stmt{p.parseIf()}
	case lexer.Else:
		p.next()
		p.expect(lexer.Colon, "':'")
		n.Orelse = p.parseSuite()
	}
	n.Loc = p.locFrom(start)
	return n
}

// While = "while" Test ":" Suite [ "else" ":" Suite ]
func (p *parser) parseWhile() ast.Stmt {
	defer p.trace("parseWhile")()
	start := p.tok.Span.Start
	p.next()
	n := &ast.While{Test: p.parseTest()}
	p.expect(lexer.Colon, "':'")
	n.Body = p.parseSuite()
	if p.tok.Type == lexer.Else {
		p.next()
		p.expect(lexer.Colon, "':'")
		n.Orelse = p.parseSuite()
	}
	n.Loc = p.locFrom(start)
	return n
}

// TestList = Test { "," Test } [ "," ]
func (p *parser) parseTestList() ast.Expr {
	defer p.trace("parseTestList")()
	start := p.tok.Span.Start
	x := p.parseTest()
	if p.tok.Type != lexer.Comma {
		return x
	}
	elts := []ast.Expr{x}
	for p.tok.Type == lexer.Comma {
		p.next()
		if !p.tok.BeginsExpr() {
			break
		}
		elts = append(elts, p.parseTest())
	}
	return &ast.Tuple{Loc: p.locFrom(start), Elts: elts}
}

func (p *parser) parseTest() ast.Expr {
	defer p.trace("parseTest")()
	x := p.parseBoolOp(lexer.KwOr, ast.Or, p.parseAndTest)
	if p.tok.Type == lexer.If {
		panic(p.unsupported(p.tok.Span, "conditional expressions"))
	}
	return x
}

func (p *parser) parseAndTest() ast.Expr {
	return p.parseBoolOp(lexer.KwAnd, ast.And, p.parseNotTest)
}

func (p *parser) parseBoolOp(ttyp lexer.TokenType, op ast.BoolOperator, operand func() ast.Expr) ast.Expr {
	start := p.tok.Span.Start
	x := operand()
	if p.tok.Type != ttyp {
		return x
	}
	values := []ast.Expr{x}
	for p.tok.Type == ttyp {
		p.next()
		values = append(values, operand())
	}
	return &ast.BoolOp{Loc: p.locFrom(start), Op: op, Values: values}
}

func (p *parser) parseNotTest() ast.Expr {
	if p.tok.Type != lexer.KwNot {
		return p.parseComparison()
	}
	start := p.tok.Span.Start
	p.next()
	operand := p.parseNotTest()
	return &ast.UnaryOp{Loc: p.locFrom(start), Op: ast.Not, Operand: operand}
}

// Comparison = Expr { CompareOp Expr }
func (p *parser) parseComparison() ast.Expr {
	defer p.trace("parseComparison")()
	start := p.tok.Span.Start
	left := p.parseExpr()
	var ops []ast.CmpOp
	var comparators []ast.Expr
	for {
		op, ok := p.parseCompareOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseExpr())
	}
	if len(ops) == 0 {
		return left
	}
	return &ast.Compare{Loc: p.locFrom(start), Left: left, Ops: ops, Comparators: comparators}
}

var compareOps = map[lexer.TokenType]ast.CmpOp{
	lexer.LogicalEquals:     ast.Eq,
	lexer.NotEquals:         ast.NotEq,
	lexer.LessThan:          ast.Lt,
	lexer.LessThanEquals:    ast.LtE,
	lexer.GreaterThan:       ast.Gt,
	lexer.GreaterThanEquals: ast.GtE,
	lexer.In:                ast.In,
}

func (p *parser) parseCompareOp() (ast.CmpOp, bool) {
	if op, ok := compareOps[p.tok.Type]; ok {
		p.next()
		return op, true
	}
	switch p.tok.Type {
	case lexer.Is:
		p.next()
		if p.tok.Type == lexer.KwNot {
			p.next()
			return ast.IsNot, true
		}
		return ast.Is, true
	case lexer.KwNot:
		if p.peek().Type == lexer.In {
			p.next()
			p.next()
			return ast.NotIn, true
		}
	}
	return 0, false
}

var binaryOps = map[lexer.TokenType]ast.Operator{
	lexer.Plus:        ast.Add,
	lexer.Minus:       ast.Sub,
	lexer.Times:       ast.Mult,
	lexer.At:          ast.MatMult,
	lexer.Divide:      ast.Div,
	lexer.FloorDivide: ast.FloorDiv,
	lexer.Remainder:   ast.Mod,
	lexer.LeftShift:   ast.LShift,
	lexer.RightShift:  ast.RShift,
	lexer.Or:          ast.BitOr,
	lexer.Caret:       ast.BitXor,
	lexer.And:         ast.BitAnd,
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(lexer.MinPrec)
}

// All binary operators handled here are left-associative.
func (p *parser) parseBinaryExpr(minPrec int) ast.Expr {
	defer p.trace("parseBinaryExpr")()
	start := p.tok.Span.Start
	res := p.parseFactor()
	for p.tok.IsBinaryOp() && p.tok.Prec() >= minPrec {
		op := p.tok
		p.next()
		rhs := p.parseBinaryExpr(op.Prec() + 1)
		res = &ast.BinOp{Loc: p.locFrom(start), Left: res, Op: binaryOps[op.Type], Right: rhs}
	}
	return res
}

var unaryOps = map[lexer.TokenType]ast.UnaryOperator{
	lexer.Plus:  ast.UAdd,
	lexer.Minus: ast.USub,
	lexer.Tilde: ast.Invert,
}

// Factor = ( "+" | "-" | "~" ) Factor | Power
func (p *parser) parseFactor() ast.Expr {
	defer p.trace("parseFactor")()
	if !p.tok.IsUnaryOp() {
		return p.parsePower()
	}
	start := p.tok.Span.Start
	op := unaryOps[p.tok.Type]
	p.next()
	operand := p.parseFactor()
	return &ast.UnaryOp{Loc: p.locFrom(start), Op: op, Operand: operand}
}

// Power = Primary [ "**" Factor ]
func (p *parser) parsePower() ast.Expr {
	start := p.tok.Span.Start
	x := p.parsePrimary()
	if p.tok.Type != lexer.Power {
		return x
	}
	p.next()
	rhs := p.parseFactor()
	return &ast.BinOp{Loc: p.locFrom(start), Left: x, Op: ast.Pow, Right: rhs}
}

// Primary = Atom { "(" Arguments ")" | "[" TestList "]" | "." ident }
func (p *parser) parsePrimary() ast.Expr {
	defer p.trace("parsePrimary")()
	start := p.tok.Span.Start
	x := p.parseAtom()
	for {
		switch p.tok.Type {
		case lexer.LeftParen:
			x = p.parseCall(start, x)
		case lexer.LeftBracket:
			p.next()
			if p.tok.Type == lexer.Colon {
				panic(p.errorf(p.tok.Span, "slices are not supported"))
			}
			slice := p.parseTestList()
			if p.tok.Type == lexer.Colon {
				panic(p.errorf(p.tok.Span, "slices are not supported"))
			}
			p.expect(lexer.RightBracket, "']'")
			x = &ast.Subscript{Loc: p.locFrom(start), Value: x, Slice: slice}
		case lexer.Period:
			p.next()
			name := p.expect(lexer.Ident, "attribute name")
			x = &ast.Attribute{Loc: p.locFrom(start), Value: x, Attr: name.Data}
		default:
			return x
		}
	}
}

func (p *parser) parseCall(start lexer.Pos, fn ast.Expr) ast.Expr {
	defer p.trace("parseCall")()
	p.next()
	call := &ast.Call{Func: fn}
	seen := make(map[string]bool)
	for p.tok.Type != lexer.RightParen {
		if p.tok.Type == lexer.Ident && p.peek().Type == lexer.Assign {
			name := p.tok
			if seen[name.Data] {
				panic(p.errorf(name.Span, "keyword argument repeated: %s", name.Data))
			}
			seen[name.Data] = true
			p.next()
			p.next()
			value := p.parseTest()
			call.Keywords = append(call.Keywords, &ast.Keyword{Loc: p.locFrom(name.Span.Start), Arg: name.Data, Value: value})
		} else {
			arg := p.parseTest()
			if len(call.Keywords) > 0 {
				panic(p.errorf(arg.Span(), "positional argument follows keyword argument"))
			}
			call.Args = append(call.Args, arg)
		}
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightParen, "')'")
	call.Loc = p.locFrom(start)
	return call
}

func (p *parser) parseAtom() ast.Expr {
	defer p.trace("parseAtom")()
	tok := p.tok
	constant := func(kind ast.ConstKind, value string) ast.Expr {
		p.next()
		return &ast.Constant{Loc: ast.LocOf(tok.Span), Kind: kind, Value: value}
	}
	switch tok.Type {
	case lexer.Ident:
		if what, ok := unsupportedKeywords[tok.Data]; ok {
			panic(p.unsupported(tok.Span, what))
		}
		p.next()
		return &ast.Name{Loc: ast.LocOf(tok.Span), Id: tok.Data}
	case lexer.Int:
		return constant(ast.IntConst, tok.Data)
	case lexer.Float:
		return constant(ast.FloatConst, tok.Data)
	case lexer.Imag:
		return constant(ast.ComplexConst, tok.Data)
	case lexer.True, lexer.False:
		return constant(ast.BoolConst, tok.Type.String())
	case lexer.None:
		return constant(ast.NoneConst, "None")
	case lexer.Ellipsis:
		return constant(ast.EllipsisConst, "...")
	case lexer.String:
		return p.parseStrings()
	case lexer.LeftParen:
		return p.parseParenExpr()
	case lexer.LeftBracket:
		return p.parseList()
	case lexer.LeftBrace:
		panic(p.unsupported(tok.Span, "dict and set displays"))
	}
	panic(p.errorf(tok.Span, "expected expression, found %s", describe(tok)))
}

// Adjacent string literals are concatenated.
func (p *parser) parseStrings() ast.Expr {
	start := p.tok.Span.Start
	var sb strings.Builder
	for p.tok.Type == lexer.String {
		if i := strings.IndexAny(p.tok.Data, `'"`); i > 0 {
			prefix := strings.ToLower(p.tok.Data[:i])
			switch {
			case strings.Contains(prefix, "b"):
				panic(p.unsupported(p.tok.Span, "bytes literals"))
			case strings.Contains(prefix, "f"):
				panic(p.unsupported(p.tok.Span, "f-strings"))
			}
		}
		s, err := lexer.Unquote(p.tok.Data)
		if err != nil {
			panic(p.errorf(p.tok.Span, "%v", err))
		}
		sb.WriteString(s)
		p.next()
	}
	return &ast.Constant{Loc: p.locFrom(start), Kind: ast.StrConst, Value: sb.String()}
}

// ParenExpr = "(" ")" | "(" Test ")" | "(" Test "," [ Test { "," Test } [ "," ] ] ")"
func (p *parser) parseParenExpr() ast.Expr {
	defer p.trace("parseParenExpr")()
	start := p.tok.Span.Start
	p.next()
	if p.tok.Type == lexer.RightParen {
		p.next()
		return &ast.Tuple{Loc: p.locFrom(start)}
	}
	x := p.parseTest()
	if p.tok.Type == lexer.RightParen {
		p.next()
		return x
	}
	elts := []ast.Expr{x}
	for p.tok.Type == lexer.Comma {
		p.next()
		if p.tok.Type == lexer.RightParen {
			break
		}
		elts = append(elts, p.parseTest())
	}
	p.expect(lexer.RightParen, "')'")
	return &ast.Tuple{Loc: p.locFrom(start), Elts: elts}
}

// List = "[" [ Test { "," Test } [ "," ] ] "]"
func (p *parser) parseList() ast.Expr {
	defer p.trace("parseList")()
	start := p.tok.Span.Start
	p.next()
	list := &ast.List{}
	for p.tok.Type != lexer.RightBracket {
		list.Elts = append(list.Elts, p.parseTest())
		if p.tok.Type != lexer.Comma {
			break
		}
		p.next()
	}
	p.expect(lexer.RightBracket, "']'")
	list.Loc = p.locFrom(start)
	return list
}
