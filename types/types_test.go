package types_test

import (
	"testing"

	. "github.com/smasher164/pyscc/types"
	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int, "int"},
		{NoneType, "NoneType"},
		{Class{Name: "str"}, "type[str]"},
		{Tuple{}, "tuple[]"},
		{Tuple{Elems: []Type{Int, Str}}, "tuple[int, str]"},
		{List{Elems: []Type{Bool, Tuple{Elems: []Type{Int}}}}, "list[bool, tuple[int]]"},
		{Function{Ret: NoneType}, "() -> NoneType"},
		{Function{Args: []Type{Int, Int}, Ret: Bool}, "(int, int) -> bool"},
		{Function{Args: []Type{Function{Args: []Type{Int}, Ret: Int}}, Ret: Str}, "((int) -> int) -> str"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same_instance", Int, Instance{Name: "int"}, true},
		{"different_instance", Int, Str, false},
		{"instance_vs_class", Instance{Name: "int"}, Class{Name: "int"}, false},
		{"class", Class{Name: "C"}, Class{Name: "C"}, true},
		{"empty_tuple_nil_elems", Tuple{}, Tuple{Elems: []Type{}}, true},
		{"tuple", Tuple{Elems: []Type{Int, Str}}, Tuple{Elems: []Type{Int, Str}}, true},
		{"tuple_order", Tuple{Elems: []Type{Int, Str}}, Tuple{Elems: []Type{Str, Int}}, false},
		{"tuple_length", Tuple{Elems: []Type{Int}}, Tuple{Elems: []Type{Int, Int}}, false},
		{"tuple_vs_list", Tuple{Elems: []Type{Int}}, List{Elems: []Type{Int}}, false},
		{"nested_list", List{Elems: []Type{List{Elems: []Type{Int}}}}, List{Elems: []Type{List{Elems: []Type{Int}}}}, true},
		{"nested_list_differs", List{Elems: []Type{List{Elems: []Type{Int}}}}, List{Elems: []Type{List{Elems: []Type{Str}}}}, false},
		{"function", Function{Args: []Type{Int}, Ret: Bool}, Function{Args: []Type{Int}, Ret: Bool}, true},
		{"function_ret", Function{Args: []Type{Int}, Ret: Bool}, Function{Args: []Type{Int}, Ret: Int}, false},
		{"function_args", Function{Args: []Type{Int}, Ret: Bool}, Function{Args: []Type{Str}, Ret: Bool}, false},
		{"nil_nil", nil, nil, true},
		{"nil_left", nil, Int, false},
		{"nil_right", Int, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestNoValue(t *testing.T) {
	assert.True(t, Equal(NoValue, NoneType))
}
