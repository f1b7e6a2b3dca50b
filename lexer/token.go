package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota
	Newline
	Indent
	Dedent

	Plus
	Minus
	Times
	Divide
	FloorDivide
	Remainder
	Power
	At
	LeftShift
	RightShift
	And
	Or
	Caret
	Tilde
	LessThan
	GreaterThan
	LessThanEquals
	GreaterThanEquals
	LogicalEquals
	NotEquals

	Assign
	Colon
	Comma
	Period
	Semicolon
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	RightArrow
	Ellipsis

	Def
	If
	Elif
	Else
	While
	Return
	Pass
	KwAnd
	KwOr
	KwNot
	Is
	In
	True
	False
	None

	Ident
	Int
	Float
	Imag
	String
	Whitespace
	Comment
	Illegal
)

var tokenNames = [...]string{
	EOF:               "EOF",
	Newline:           "Newline",
	Indent:            "Indent",
	Dedent:            "Dedent",
	Plus:              "+",
	Minus:             "-",
	Times:             "*",
	Divide:            "/",
	FloorDivide:       "//",
	Remainder:         "%",
	Power:             "**",
	At:                "@",
	LeftShift:         "<<",
	RightShift:        ">>",
	And:               "&",
	Or:                "|",
	Caret:             "^",
	Tilde:             "~",
	LessThan:          "<",
	GreaterThan:       ">",
	LessThanEquals:    "<=",
	GreaterThanEquals: ">=",
	LogicalEquals:     "==",
	NotEquals:         "!=",
	Assign:            "=",
	Colon:             ":",
	Comma:             ",",
	Period:            ".",
	Semicolon:         ";",
	LeftParen:         "(",
	RightParen:        ")",
	LeftBracket:       "[",
	RightBracket:      "]",
	LeftBrace:         "{",
	RightBrace:        "}",
	RightArrow:        "->",
	Ellipsis:          "...",
	Def:               "def",
	If:                "if",
	Elif:              "elif",
	Else:              "else",
	While:             "while",
	Return:            "return",
	Pass:              "pass",
	KwAnd:             "and",
	KwOr:              "or",
	KwNot:             "not",
	Is:                "is",
	In:                "in",
	True:              "True",
	False:             "False",
	None:              "None",
	Ident:             "Ident",
	Int:               "Int",
	Float:             "Float",
	Imag:              "Imag",
	String:            "String",
	Whitespace:        "Whitespace",
	Comment:           "Comment",
	Illegal:           "Illegal",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var SingleCharTokens = map[rune]TokenType{
	'+': Plus,
	'-': Minus,
	'*': Times,
	'/': Divide,
	'%': Remainder,
	'@': At,
	'&': And,
	'|': Or,
	'^': Caret,
	'~': Tilde,
	'<': LessThan,
	'>': GreaterThan,
	'=': Assign,
	':': Colon,
	',': Comma,
	'.': Period,
	';': Semicolon,
	'(': LeftParen,
	')': RightParen,
	'[': LeftBracket,
	']': RightBracket,
	'{': LeftBrace,
	'}': RightBrace,
}

var DoubleCharTokens = map[[2]rune]TokenType{
	{'*', '*'}: Power,
	{'/', '/'}: FloorDivide,
	{'<', '<'}: LeftShift,
	{'>', '>'}: RightShift,
	{'<', '='}: LessThanEquals,
	{'>', '='}: GreaterThanEquals,
	{'=', '='}: LogicalEquals,
	{'!', '='}: NotEquals,
	{'-', '>'}: RightArrow,
}

var Keywords = map[string]TokenType{
	"def":    Def,
	"if":     If,
	"elif":   Elif,
	"else":   Else,
	"while":  While,
	"return": Return,
	"pass":   Pass,
	"and":    KwAnd,
	"or":     KwOr,
	"not":    KwNot,
	"is":     Is,
	"in":     In,
	"True":   True,
	"False":  False,
	"None":   None,
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	return Span{span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (b Token) Eq(a Token) bool {
	return a.Type == b.Type && a.Data == b.Data
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}

func (t Token) IsBinaryOp() bool {
	switch t.Type {
	case Or, Caret, And, LeftShift, RightShift, Plus, Minus, Times, Divide, FloorDivide, Remainder, At:
		return true
	}
	return false
}

func (t Token) IsUnaryOp() bool {
	switch t.Type {
	case Plus, Minus, Tilde:
		return true
	}
	return false
}

func (t Token) IsCompareOp() bool {
	switch t.Type {
	case LessThan, GreaterThan, LessThanEquals, GreaterThanEquals, LogicalEquals, NotEquals, Is, In, KwNot:
		return true
	}
	return false
}

const MinPrec = 1

// Prec reports the binding power of a binary arithmetic or bitwise operator.
// Comparisons, boolean operators and ** are parsed by dedicated rules.
func (t Token) Prec() int {
	switch t.Type {
	case Times, Divide, FloorDivide, Remainder, At:
		return 6
	case Plus, Minus:
		return 5
	case LeftShift, RightShift:
		return 4
	case And:
		return 3
	case Caret:
		return 2
	case Or:
		return 1
	}
	return 0
}

// BeginsExpr reports whether t can start an expression.
func (t Token) BeginsExpr() bool {
	if t.IsUnaryOp() {
		return true
	}
	switch t.Type {
	case Ident, Int, Float, Imag, String, True, False, None, Ellipsis, LeftParen, LeftBracket, KwNot:
		return true
	}
	return false
}
