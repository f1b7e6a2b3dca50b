package types_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/smasher164/pyscc/ast"
	"github.com/smasher164/pyscc/parser"
	. "github.com/smasher164/pyscc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := parser.Parse("test.py", []byte(src))
	require.NoError(t, err)
	return mod
}

func infer(t *testing.T, src string, opts ...Option) *TypedModule {
	t.Helper()
	typed, err := Infer(parse(t, src), opts...)
	require.NoError(t, err)
	return typed
}

func inferErr(t *testing.T, src string, opts ...Option) error {
	t.Helper()
	typed, err := Infer(parse(t, src), opts...)
	require.Error(t, err)
	assert.Nil(t, typed)
	return err
}

// lastAssigned returns the type of the value assigned by the last statement
// of the module, which must be an assignment.
func lastAssigned(t *testing.T, typed *TypedModule) Type {
	t.Helper()
	require.NotEmpty(t, typed.Body)
	assign, ok := typed.Body[len(typed.Body)-1].(*TypedAssign)
	require.True(t, ok, "last statement is %T", typed.Body[len(typed.Body)-1])
	return assign.Value.Type()
}

func TestInferIfElse(t *testing.T) {
	typed := infer(t, "e = 1\nif e == 0:\n    a = \"str\"\nelse:\n    a = \"bald\"\n")
	require.Len(t, typed.Body, 2)
	assert.Equal(t, "test.py", typed.Filename)
	assert.Equal(t, NoValue, typed.Type())

	assign := typed.Body[0].(*TypedAssign)
	assert.Equal(t, Int, assign.Value.Type())
	assert.Equal(t, Int, assign.Targets[0].Type())
	assert.Equal(t, NoValue, assign.Type())

	ifStmt := typed.Body[1].(*TypedIf)
	assert.Equal(t, NoValue, ifStmt.Type())
	cmp := ifStmt.Test.(*TypedCompare)
	assert.Equal(t, Bool, cmp.Type())
	assert.Equal(t, Int, cmp.Left.Type())
	assert.Equal(t, []ast.CmpOp{ast.Eq}, cmp.Ops)
	assert.Equal(t, Int, cmp.Comparators[0].Type())

	for _, branch := range [][]TypedStmt{ifStmt.Body, ifStmt.Orelse} {
		require.Len(t, branch, 1)
		a := branch[0].(*TypedAssign)
		assert.Equal(t, "a", a.Targets[0].Id)
		assert.Equal(t, Str, a.Value.Type())
	}
	assert.Equal(t, "bald", ifStmt.Orelse[0].(*TypedAssign).Value.(*TypedConstant).Value)
}

func TestInferLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want Type
	}{
		{"x = True", Bool},
		{"x = False", Bool},
		{"x = 42", Int},
		{"x = 0x2a", Int},
		{"x = 'hi'", Str},
		{"x = None", NoneType},
		{"x = ()", Tuple{}},
		{"x = (1, 'a')", Tuple{Elems: []Type{Int, Str}}},
		{"x = 1, 'a', None", Tuple{Elems: []Type{Int, Str, NoneType}}},
		{"x = []", List{}},
		{"x = [1, 'a']", List{Elems: []Type{Int, Str}}},
		{"x = [[1], (True,)]", List{Elems: []Type{List{Elems: []Type{Int}}, Tuple{Elems: []Type{Bool}}}}},
		{"x = -1", Int},
		{"x = not True", Bool},
		{"x = 1 + 2 * 3", Int},
		{"x = 'a' + 'b'", Str},
		{"x = 1 < 2 < 3", Bool},
		{"x = 'a' in 'abc'", Bool},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := lastAssigned(t, infer(t, tt.src))
			assert.True(t, Equal(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestInferRejects(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		node   string
		reason string
	}{
		{"float", "x = 1.5", "Constant", "float, complex numbers and ellipsis are not supported"},
		{"complex", "x = 2j", "Constant", "float, complex numbers and ellipsis are not supported"},
		{"ellipsis", "x = ...", "Constant", "float, complex numbers and ellipsis are not supported"},
		{"keyword_argument", "f(x=1)", "Keyword", "keyword arguments are not supported"},
		{"tuple_target", "a, b = 1, 2", "Tuple", "destructuring assignment is not supported"},
		{"list_target", "[a] = [1]", "List", "destructuring assignment is not supported"},
		{"attribute_target", "a.b = 1", "Attribute", "assignment target is not supported"},
		{"while", "while True:\n    pass\n", "While", ""},
		{"bool_op", "x = True and False", "BoolOp", ""},
		{"attribute", "x = 1\ny = x.real\n", "Attribute", ""},
		{"subscript", "x = [1]\ny = x[0]\n", "Subscript", ""},
		{"varargs", "def f(*a: int):\n    pass\n", "Arg", "*args is not supported"},
		{"keyword_only", "def f(*, a: int):\n    pass\n", "Arg", "keyword-only arguments are not supported"},
		{"default", "def f(a: int = 1):\n    pass\n", "Constant", "default values are not supported"},
		{"kwargs", "def f(**k: int):\n    pass\n", "Arg", "**kwargs is not supported"},
		{"unannotated", "def f(a):\n    pass\n", "Arg", "parameter a has no type annotation"},
		{"generic_annotation", "def f(a: list[int]):\n    pass\n", "Subscript", "generic types are not supported"},
		{"generic_return", "def f() -> list[int]:\n    pass\n", "Subscript", "generic types are not supported"},
		{"literal_annotation", "def f(a: 1):\n    pass\n", "Constant", "not supported as a type annotation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inferErr(t, tt.src)
			var uc *UnsupportedConstructError
			require.ErrorAs(t, err, &uc)
			assert.Equal(t, tt.node, uc.Node)
			assert.Equal(t, tt.reason, uc.Reason)
			assert.False(t, uc.Span.IsZero())
		})
	}
}

func TestInferKeywordBeforeCallee(t *testing.T) {
	// The callee is unbound, but keyword arguments are rejected first.
	err := inferErr(t, "undefined(1, k=2)")
	var uc *UnsupportedConstructError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, "Keyword", uc.Node)
}

func TestInferTargetsBeforeValue(t *testing.T) {
	err := inferErr(t, "a, b = undefined")
	var uc *UnsupportedConstructError
	require.ErrorAs(t, err, &uc)
}

func TestInferShapes(t *testing.T) {
	srcs := []string{
		"e = 1\nif e == 0:\n    a = \"str\"\nelse:\n    a = \"bald\"\n",
		"x = (1, [True, None], 'a')\n",
		"a = b = -1 + 2\n",
		"def f(a: int, b: str) -> bool:\n    if a == 1:\n        return True\n    return False\nok = f(1, 'x')\nf(2, 'y')\n",
		"def g():\n    pass\n    return\ng()\n",
		"if 1 < 2:\n    pass\nelif 2 < 3:\n    x = 1\nelse:\n    x = 2\n",
	}
	for i, src := range srcs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			mod := parse(t, src)
			typed, err := Infer(mod)
			require.NoError(t, err)
			assert.Equal(t, ast.Shape(mod), Shape(typed))

			// Annotations are not part of the typed tree.
			var spans []string
			annotations := make(map[ast.Node]bool)
			ast.Inspect(mod, func(n ast.Node) bool {
				if annotations[n] {
					return false
				}
				spans = append(spans, n.Span().String())
				switch n := n.(type) {
				case *ast.FunctionDef:
					if n.Returns != nil {
						annotations[n.Returns] = true
					}
				case *ast.Arg:
					return false
				}
				return true
			})
			var typedSpans []string
			Inspect(typed, func(n TypedNode) bool {
				typedSpans = append(typedSpans, n.Span().String())
				assert.NotNil(t, n.Type(), "%s has no type", KindOf(n))
				return true
			})
			assert.Equal(t, spans, typedSpans)
		})
	}
}

func TestInferFunction(t *testing.T) {
	typed := infer(t, "def f(a: int, b: str) -> bool:\n    return a == 1\nx = f(1, 'b')\n")
	fn := typed.Body[0].(*TypedFunctionDef)
	want := Function{Args: []Type{Int, Str}, Ret: Bool}
	assert.True(t, Equal(want, fn.Signature), "got %s", fn.Signature)
	assert.Equal(t, NoValue, fn.Type())
	require.Len(t, fn.Args.Args, 2)
	assert.Equal(t, Int, fn.Args.Args[0].Type())
	assert.Equal(t, Str, fn.Args.Args[1].Type())

	call := typed.Body[1].(*TypedAssign).Value.(*TypedCall)
	assert.Equal(t, Bool, call.Type())
	assert.True(t, Equal(want, call.Func.Type()))
}

func TestInferNoneReturn(t *testing.T) {
	for _, src := range []string{
		"def f():\n    pass\nx = f()\n",
		"def f() -> None:\n    pass\nx = f()\n",
	} {
		assert.Equal(t, NoneType, lastAssigned(t, infer(t, src)))
	}
}

func TestInferRecursion(t *testing.T) {
	src := "" +
		"def fact(n: int) -> int:\n" +
		"    if n == 0:\n" +
		"        return 1\n" +
		"    return n * fact(n - 1)\n" +
		"x = fact(5)\n"
	assert.Equal(t, Int, lastAssigned(t, infer(t, src)))
	assert.Equal(t, Int, lastAssigned(t, infer(t, src, WithCheckReturns(true))))
}

func TestInferShadowing(t *testing.T) {
	src := "" +
		"x = 1\n" +
		"def f(x: str) -> str:\n" +
		"    y = x\n" +
		"    return y\n" +
		"y = x\n"
	assert.Equal(t, Int, lastAssigned(t, infer(t, src)))

	// Locals of a function do not leak into the enclosing scope.
	err := inferErr(t, "def f():\n    z = 1\ny = z\n")
	var ub *UnboundNameError
	require.ErrorAs(t, err, &ub)
	assert.Equal(t, "z", ub.Name)
}

func TestInferRebinding(t *testing.T) {
	infer(t, "x = 1\nx = 2\nx = x + 3\n")

	err := inferErr(t, "x = 1\nx = 'a'\n")
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "x", tm.Name)
	assert.Equal(t, Int, tm.Want)
	assert.Equal(t, Str, tm.Got)
	assert.Equal(t, 2, tm.Span.Start.Line)
	assert.Equal(t, 1, tm.Span.Start.Column)
}

func TestInferFunctionNameRebinding(t *testing.T) {
	// The function name is bound in the enclosing frame after the body.
	err := inferErr(t, "f = 1\ndef f() -> int:\n    return 1\n")
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "f", tm.Name)
	assert.Equal(t, Int, tm.Want)

	// Redefining with the same signature is allowed.
	infer(t, "def f() -> int:\n    return 1\ndef f() -> int:\n    return 2\n")
}

func TestInferBranchDisagreement(t *testing.T) {
	err := inferErr(t, "c = True\nif c:\n    a = 1\nelse:\n    a = 's'\n")
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "a", tm.Name)
	assert.Equal(t, 5, tm.Span.Start.Line)
}

func TestInferMismatches(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
		line   int
	}{
		{"compare", "x = 1 == 'a'", "not all compared expressions have the same type", 1},
		{"chained_compare", "x = 1 < 2 < 'a'", "not all compared expressions have the same type", 1},
		{"binop", "x = 1 + 'a'", "operands of + need to have the same type", 1},
		{"not_callable", "x = 1\nx(1)\n", "called object of type int is not a function", 2},
		{"too_many", "def f(a: int):\n    pass\nf(1, 2)\n", "wrong number of arguments: want 1, got 2", 3},
		{"too_few", "def f(a: int):\n    pass\nf()\n", "wrong number of arguments: want 1, got 0", 3},
		{"argument", "def f(a: int, b: int):\n    pass\nf(1, 'b')\n", "argument 2 has the wrong type", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inferErr(t, tt.src)
			var tm *TypeMismatchError
			require.ErrorAs(t, err, &tm)
			assert.Equal(t, tt.reason, tm.Reason)
			assert.Equal(t, tt.line, tm.Span.Start.Line)
		})
	}
}

func TestInferUnbound(t *testing.T) {
	err := inferErr(t, "y = x")
	var ub *UnboundNameError
	require.ErrorAs(t, err, &ub)
	assert.Equal(t, "x", ub.Name)
	assert.Equal(t, 1, ub.Span.Start.Line)
	assert.Equal(t, 5, ub.Span.Start.Column)
	assert.Equal(t, `1:5: unbound name: name "x" is not defined`, err.Error())

	var e Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "unbound name", e.Kind())
}

func TestInferStrictConditions(t *testing.T) {
	src := "if 1:\n    pass\n"
	infer(t, src)
	err := inferErr(t, src, WithStrictConditions(true))
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "condition must be a bool", tm.Reason)
	assert.Equal(t, Bool, tm.Want)
	assert.Equal(t, Int, tm.Got)

	infer(t, "if 1 == 1:\n    pass\n", WithStrictConditions(true))
}

func TestInferCheckReturns(t *testing.T) {
	src := "def f() -> int:\n    return 's'\n"
	infer(t, src)
	err := inferErr(t, src, WithCheckReturns(true))
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "returned value does not match the declared return type", tm.Reason)
	assert.Equal(t, Int, tm.Want)
	assert.Equal(t, Str, tm.Got)

	infer(t, "def f():\n    return\n", WithCheckReturns(true))
	infer(t, "def f() -> None:\n    return None\n", WithCheckReturns(true))
	infer(t, "return 1\n", WithCheckReturns(true))

	// The innermost function's declared type applies.
	infer(t, ""+
		"def outer() -> str:\n"+
		"    def inner() -> int:\n"+
		"        return 1\n"+
		"    return 'a'\n", WithCheckReturns(true))
}

func TestInferTrace(t *testing.T) {
	var buf bytes.Buffer
	infer(t, "x = 1\n", WithTrace(&buf))
	assert.Equal(t, "Module\n  Assign\n    bind x: int\n", buf.String())
}

func TestInferConcurrent(t *testing.T) {
	srcs := []string{
		"x = 1\n",
		"x = 'a'\n",
		"x = (1, 2)\n",
		"def x() -> bool:\n    return True\n",
	}
	results := make([]*TypedModule, len(srcs))
	var g errgroup.Group
	for i, src := range srcs {
		i, mod := i, parse(t, src)
		g.Go(func() error {
			typed, err := Infer(mod)
			results[i] = typed
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, Int, results[0].Body[0].(*TypedAssign).Value.Type())
	assert.Equal(t, Str, results[1].Body[0].(*TypedAssign).Value.Type())
	assert.Equal(t, "tuple[int, int]", results[2].Body[0].(*TypedAssign).Value.Type().String())
	assert.Equal(t, "() -> bool", results[3].Body[0].(*TypedFunctionDef).Signature.String())
}
