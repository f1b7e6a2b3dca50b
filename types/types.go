package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Type is the closed set of types the inferrer assigns: Instance, Class,
// Tuple, List and Function.
type Type interface {
	fmt.Stringer
	Equal(Type) bool
	isType()
}

var (
	_ Type = Instance{}
	_ Type = Class{}
	_ Type = Tuple{}
	_ Type = List{}
	_ Type = Function{}
)

var (
	Bool     = Instance{Name: "bool"}
	Int      = Instance{Name: "int"}
	Str      = Instance{Name: "str"}
	NoneType = Instance{Name: "NoneType"}

	// NoValue is the type of every statement.
	NoValue Type = NoneType
)

// Equal reports whether a and b are structurally identical. A nil type is
// equal only to nil.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func typeString(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func joinTypes(ts []Type) string {
	return strings.Join(lo.Map(ts, func(t Type, _ int) string {
		return typeString(t)
	}), ", ")
}

// Instance is the type of a value of the named class.
type Instance struct {
	Name string
}

func (Instance) isType() {}

func (t Instance) Equal(other Type) bool {
	o, ok := other.(Instance)
	return ok && o.Name == t.Name
}

func (t Instance) String() string {
	return t.Name
}

// Class is the type of the named class object itself.
type Class struct {
	Name string
}

func (Class) isType() {}

func (t Class) Equal(other Type) bool {
	o, ok := other.(Class)
	return ok && o.Name == t.Name
}

func (t Class) String() string {
	return fmt.Sprintf("type[%s]", t.Name)
}

// Tuple has one element type per position.
type Tuple struct {
	Elems []Type
}

func (Tuple) isType() {}

func (t Tuple) Equal(other Type) bool {
	o, ok := other.(Tuple)
	return ok && slices.EqualFunc(t.Elems, o.Elems, Equal)
}

func (t Tuple) String() string {
	return fmt.Sprintf("tuple[%s]", joinTypes(t.Elems))
}

// List is typed positionally like a Tuple: [1, "a"] is list[int, str].
type List struct {
	Elems []Type
}

func (List) isType() {}

func (t List) Equal(other Type) bool {
	o, ok := other.(List)
	return ok && slices.EqualFunc(t.Elems, o.Elems, Equal)
}

func (t List) String() string {
	return fmt.Sprintf("list[%s]", joinTypes(t.Elems))
}

type Function struct {
	Args []Type
	Ret  Type
}

func (Function) isType() {}

func (t Function) Equal(other Type) bool {
	o, ok := other.(Function)
	return ok && slices.EqualFunc(t.Args, o.Args, Equal) && Equal(t.Ret, o.Ret)
}

func (t Function) String() string {
	return fmt.Sprintf("(%s) -> %s", joinTypes(t.Args), typeString(t.Ret))
}
