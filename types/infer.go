package types

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/smasher164/pyscc/ast"
	"github.com/smasher164/pyscc/lexer"
)

type Config struct {
	// StrictConditions requires the test of an if statement to be a bool.
	StrictConditions bool
	// CheckReturns requires returned values to match the declared return
	// type of the enclosing function.
	CheckReturns bool
	// Trace receives an indented trace of the inference, if non-nil.
	Trace io.Writer
}

type Option func(*Config)

func WithStrictConditions(on bool) Option {
	return func(c *Config) {
		c.StrictConditions = on
	}
}

func WithCheckReturns(on bool) Option {
	return func(c *Config) {
		c.CheckReturns = on
	}
}

func WithTrace(w io.Writer) Option {
	return func(c *Config) {
		c.Trace = w
	}
}

type inferrer struct {
	conf    Config
	env     *Env
	returns []Type // declared return types of the enclosing functions
	indent  int
}

// Infer accepts an untyped module and returns the isomorphic typed module,
// resolving names and inferring the type of every node. The first error
// aborts inference. Infer keeps no state between calls and is safe to call
// concurrently on different modules.
func Infer(mod *ast.Module, opts ...Option) (*TypedModule, error) {
	var conf Config
	for _, opt := range opts {
		opt(&conf)
	}
	in := &inferrer{conf: conf, env: NewEnv()}
	return in.inferModule(mod)
}

func (in *inferrer) trace(msg string) func() {
	if in.conf.Trace == nil {
		return func() {}
	}
	fmt.Fprintf(in.conf.Trace, "%*s%s\n", in.indent*2, "", msg)
	in.indent++
	return func() {
		in.indent--
	}
}

func (in *inferrer) tracef(format string, args ...any) {
	if in.conf.Trace != nil {
		fmt.Fprintf(in.conf.Trace, "%*s%s\n", in.indent*2, "", fmt.Sprintf(format, args...))
	}
}

func unsupported(n ast.Node, reason string) error {
	return &UnsupportedConstructError{Span: n.Span(), Node: ast.KindOf(n), Reason: reason}
}

func (in *inferrer) bind(name string, t Type, span lexer.Span) error {
	if err := in.env.Bind(name, t); err != nil {
		var tm *TypeMismatchError
		if errors.As(err, &tm) {
			tm.Span = span
		}
		return err
	}
	in.tracef("bind %s: %s", name, t)
	return nil
}

func typesOf(nodes []TypedExpr) []Type {
	return lo.Map(nodes, func(n TypedExpr, _ int) Type {
		return n.Type()
	})
}

func (in *inferrer) inferModule(mod *ast.Module) (*TypedModule, error) {
	defer in.trace("Module")()
	in.env.EnterScope()
	defer in.env.ExitScope()
	body, err := in.inferBody(mod.Body)
	if err != nil {
		return nil, err
	}
	return &TypedModule{Loc: mod.Loc, Filename: mod.Filename, Body: body}, nil
}

func (in *inferrer) inferBody(body []ast.Stmt) ([]TypedStmt, error) {
	out := make([]TypedStmt, 0, len(body))
	for _, s := range body {
		ts, err := in.inferStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (in *inferrer) inferStmt(s ast.Stmt) (TypedStmt, error) {
	switch s := s.(type) {
	case *ast.FunctionDef:
		return in.inferFunctionDef(s)
	case *ast.If:
		return in.inferIf(s)
	case *ast.Assign:
		return in.inferAssign(s)
	case *ast.Return:
		return in.inferReturn(s)
	case *ast.Pass:
		return &TypedPass{Loc: s.Loc}, nil
	case *ast.ExprStmt:
		value, err := in.inferExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &TypedExprStmt{Loc: s.Loc, Value: value}, nil
	}
	return nil, unsupported(s, "")
}

func (in *inferrer) inferExprs(es []ast.Expr) ([]TypedExpr, error) {
	out := make([]TypedExpr, 0, len(es))
	for _, e := range es {
		te, err := in.inferExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, te)
	}
	return out, nil
}

func (in *inferrer) inferExpr(e ast.Expr) (TypedExpr, error) {
	switch e := e.(type) {
	case *ast.Constant:
		return in.inferConstant(e)
	case *ast.Name:
		t, ok := in.env.Lookup(e.Id)
		if !ok {
			return nil, &UnboundNameError{Span: e.Span(), Name: e.Id}
		}
		return &TypedName{Loc: e.Loc, exprNode: exprNode{T: t}, Id: e.Id}, nil
	case *ast.Tuple:
		elts, err := in.inferExprs(e.Elts)
		if err != nil {
			return nil, err
		}
		return &TypedTuple{Loc: e.Loc, exprNode: exprNode{T: Tuple{Elems: typesOf(elts)}}, Elts: elts}, nil
	case *ast.List:
		elts, err := in.inferExprs(e.Elts)
		if err != nil {
			return nil, err
		}
		return &TypedList{Loc: e.Loc, exprNode: exprNode{T: List{Elems: typesOf(elts)}}, Elts: elts}, nil
	case *ast.Compare:
		return in.inferCompare(e)
	case *ast.BinOp:
		return in.inferBinOp(e)
	case *ast.UnaryOp:
		operand, err := in.inferExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return &TypedUnaryOp{Loc: e.Loc, exprNode: exprNode{T: operand.Type()}, Op: e.Op, Operand: operand}, nil
	case *ast.Call:
		return in.inferCall(e)
	}
	return nil, unsupported(e, "")
}

func (in *inferrer) inferConstant(c *ast.Constant) (TypedExpr, error) {
	switch c.Kind {
	case ast.FloatConst, ast.ComplexConst, ast.EllipsisConst:
		return nil, unsupported(c, "float, complex numbers and ellipsis are not supported")
	}
	t := Instance{Name: c.Kind.TypeName()}
	return &TypedConstant{Loc: c.Loc, exprNode: exprNode{T: t}, Kind: c.Kind, Value: c.Value}, nil
}

func (in *inferrer) inferCompare(c *ast.Compare) (TypedExpr, error) {
	left, err := in.inferExpr(c.Left)
	if err != nil {
		return nil, err
	}
	comparators, err := in.inferExprs(c.Comparators)
	if err != nil {
		return nil, err
	}
	for i, comp := range comparators {
		if !Equal(left.Type(), comp.Type()) {
			return nil, &TypeMismatchError{
				Span:   c.Comparators[i].Span(),
				Want:   left.Type(),
				Got:    comp.Type(),
				Reason: "not all compared expressions have the same type",
			}
		}
	}
	return &TypedCompare{Loc: c.Loc, exprNode: exprNode{T: Bool}, Left: left, Ops: c.Ops, Comparators: comparators}, nil
}

func (in *inferrer) inferBinOp(b *ast.BinOp) (TypedExpr, error) {
	left, err := in.inferExpr(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.inferExpr(b.Right)
	if err != nil {
		return nil, err
	}
	if !Equal(left.Type(), right.Type()) {
		return nil, &TypeMismatchError{
			Span:   b.Span(),
			Want:   left.Type(),
			Got:    right.Type(),
			Reason: fmt.Sprintf("operands of %s need to have the same type", b.Op),
		}
	}
	return &TypedBinOp{Loc: b.Loc, exprNode: exprNode{T: left.Type()}, Left: left, Op: b.Op, Right: right}, nil
}

func (in *inferrer) inferCall(c *ast.Call) (TypedExpr, error) {
	if len(c.Keywords) > 0 {
		return nil, unsupported(c.Keywords[0], "keyword arguments are not supported")
	}
	fn, err := in.inferExpr(c.Func)
	if err != nil {
		return nil, err
	}
	sig, ok := fn.Type().(Function)
	if !ok {
		return nil, &TypeMismatchError{
			Span:   c.Func.Span(),
			Got:    fn.Type(),
			Reason: fmt.Sprintf("called object of type %s is not a function", fn.Type()),
		}
	}
	args, err := in.inferExprs(c.Args)
	if err != nil {
		return nil, err
	}
	if len(args) != len(sig.Args) {
		return nil, &TypeMismatchError{
			Span:   c.Span(),
			Reason: fmt.Sprintf("wrong number of arguments: want %d, got %d", len(sig.Args), len(args)),
		}
	}
	for i, arg := range args {
		if !Equal(sig.Args[i], arg.Type()) {
			return nil, &TypeMismatchError{
				Span:   c.Args[i].Span(),
				Want:   sig.Args[i],
				Got:    arg.Type(),
				Reason: fmt.Sprintf("argument %d has the wrong type", i+1),
			}
		}
	}
	return &TypedCall{Loc: c.Loc, exprNode: exprNode{T: sig.Ret}, Func: fn, Args: args}, nil
}

func (in *inferrer) inferAssign(a *ast.Assign) (TypedStmt, error) {
	defer in.trace("Assign")()
	// Targets are checked before anything is inferred or bound.
	for _, t := range a.Targets {
		switch t.(type) {
		case *ast.Name:
		case *ast.Tuple, *ast.List:
			return nil, unsupported(t, "destructuring assignment is not supported")
		default:
			return nil, unsupported(t, "assignment target is not supported")
		}
	}
	value, err := in.inferExpr(a.Value)
	if err != nil {
		return nil, err
	}
	targets := make([]*TypedName, len(a.Targets))
	for i, t := range a.Targets {
		name := t.(*ast.Name)
		if err := in.bind(name.Id, value.Type(), name.Span()); err != nil {
			return nil, err
		}
		targets[i] = &TypedName{Loc: name.Loc, exprNode: exprNode{T: value.Type()}, Id: name.Id}
	}
	return &TypedAssign{Loc: a.Loc, Targets: targets, Value: value}, nil
}

// Both branches are inferred in the enclosing frame.
func (in *inferrer) inferIf(s *ast.If) (TypedStmt, error) {
	defer in.trace("If")()
	test, err := in.inferExpr(s.Test)
	if err != nil {
		return nil, err
	}
	if in.conf.StrictConditions && !Equal(test.Type(), Bool) {
		return nil, &TypeMismatchError{
			Span:   s.Test.Span(),
			Want:   Bool,
			Got:    test.Type(),
			Reason: "condition must be a bool",
		}
	}
	body, err := in.inferBody(s.Body)
	if err != nil {
		return nil, err
	}
	orelse, err := in.inferBody(s.Orelse)
	if err != nil {
		return nil, err
	}
	return &TypedIf{Loc: s.Loc, Test: test, Body: body, Orelse: orelse}, nil
}

func (in *inferrer) inferReturn(r *ast.Return) (TypedStmt, error) {
	ret := &TypedReturn{Loc: r.Loc}
	var t Type = NoneType
	if r.Value != nil {
		value, err := in.inferExpr(r.Value)
		if err != nil {
			return nil, err
		}
		ret.Value, t = value, value.Type()
	}
	if in.conf.CheckReturns && len(in.returns) > 0 {
		if want := in.returns[len(in.returns)-1]; !Equal(want, t) {
			return nil, &TypeMismatchError{
				Span:   r.Span(),
				Want:   want,
				Got:    t,
				Reason: "returned value does not match the declared return type",
			}
		}
	}
	return ret, nil
}

// checkArguments rejects every parameter form other than annotated
// positional parameters and reads the parameter types.
func checkArguments(args *ast.Arguments) ([]Type, error) {
	if args.Vararg != nil {
		return nil, unsupported(args.Vararg, "*args is not supported")
	}
	if len(args.KwOnlyArgs) > 0 {
		return nil, unsupported(args.KwOnlyArgs[0], "keyword-only arguments are not supported")
	}
	if len(args.Defaults) > 0 {
		return nil, unsupported(args.Defaults[0], "default values are not supported")
	}
	if d, ok := lo.Find(args.KwDefaults, func(d ast.Expr) bool { return d != nil }); ok {
		return nil, unsupported(d, "default values are not supported")
	}
	if args.Kwarg != nil {
		return nil, unsupported(args.Kwarg, "**kwargs is not supported")
	}
	params := make([]Type, len(args.Args))
	for i, a := range args.Args {
		if a.Annotation == nil {
			return nil, unsupported(a, fmt.Sprintf("parameter %s has no type annotation", a.Arg))
		}
		t, err := typeFromAnnotation(a.Annotation)
		if err != nil {
			return nil, err
		}
		params[i] = t
	}
	return params, nil
}

func (in *inferrer) inferFunctionDef(f *ast.FunctionDef) (TypedStmt, error) {
	defer in.trace("FunctionDef " + f.Name)()
	args := f.Args
	if args == nil {
		args = &ast.Arguments{Loc: f.Loc}
	}
	params, err := checkArguments(args)
	if err != nil {
		return nil, err
	}
	ret, err := typeFromAnnotation(f.Returns)
	if err != nil {
		return nil, err
	}
	sig := Function{Args: params, Ret: ret}

	typedArgs := &TypedArguments{Loc: args.Loc, Args: make([]*TypedArg, len(args.Args))}
	for i, a := range args.Args {
		typedArgs.Args[i] = &TypedArg{Loc: a.Loc, Arg: a.Arg, Annotation: a.Annotation, T: params[i]}
	}

	body, err := in.inferFunctionBody(f, args, sig)
	if err != nil {
		return nil, err
	}
	// The name is visible after the definition in the enclosing scope.
	if err := in.bind(f.Name, sig, f.Span()); err != nil {
		return nil, err
	}
	return &TypedFunctionDef{
		Loc:       f.Loc,
		Name:      f.Name,
		Args:      typedArgs,
		Body:      body,
		Returns:   f.Returns,
		Signature: sig,
	}, nil
}

func (in *inferrer) inferFunctionBody(f *ast.FunctionDef, args *ast.Arguments, sig Function) ([]TypedStmt, error) {
	in.env.EnterScope()
	defer in.env.ExitScope()
	for i, a := range args.Args {
		if err := in.bind(a.Arg, sig.Args[i], a.Span()); err != nil {
			return nil, err
		}
	}
	// Bound inside the body's frame as well, for recursion.
	if err := in.bind(f.Name, sig, f.Span()); err != nil {
		return nil, err
	}
	in.returns = append(in.returns, sig.Ret)
	defer func() {
		in.returns = in.returns[:len(in.returns)-1]
	}()
	return in.inferBody(f.Body)
}
