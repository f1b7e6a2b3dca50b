package lexer_test

import (
	"testing"
	"testing/fstest"
	"unicode/utf8"

	"github.com/kr/pretty"
	. "github.com/smasher164/pyscc/lexer"
	"golang.org/x/exp/slices"
)

func single(trivia []Token, ttyp TokenType, pos Pos) Token {
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: pos, End: pos}}
}

func singleWS(wsPos Pos, ttyp TokenType, pos Pos) Token {
	return single([]Token{{nil, Whitespace, unitSpan(wsPos), " "}}, ttyp, pos)
}

func dataTok(trivia []Token, ttyp TokenType, start Pos, data string) Token {
	dataLen := utf8.RuneCountInString(data)
	return Token{LeadingTrivia: trivia, Type: ttyp, Span: Span{Start: start, End: Pos{Offset: start.Offset + dataLen - 1, Line: start.Line, Column: start.Column + dataLen - 1}}, Data: data}
}

func dataTokWS(wsPos Pos, ttyp TokenType, start Pos, data string) Token {
	return dataTok([]Token{{nil, Whitespace, unitSpan(wsPos), " "}}, ttyp, start, data)
}

func unitSpan(pos Pos) Span {
	return Span{Start: pos, End: pos}
}

func lexAll(name, src string) []Token {
	l := New(name, []byte(src))
	var got []Token
	var tok Token
	for tok = l.Next(); tok.Type != EOF; tok = l.Next() {
		got = append(got, tok)
	}
	return append(got, tok)
}

func tokenTypes(toks []Token) []TokenType {
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	return types
}

func TestLexerExact(t *testing.T) {
	run := func(name, data string, expected []Token) {
		t.Run(name, func(t *testing.T) {
			got := lexAll(name, data)
			if !slices.EqualFunc(got, expected, Token.ExactEq) {
				pretty.Ldiff(t, expected, got)
				t.Fail()
			}
		})
	}

	run("empty.py", "", []Token{single(nil, EOF, Pos{0, 1, 1})})

	run("assign.py", "x = 1", []Token{
		dataTok(nil, Ident, Pos{0, 1, 1}, "x"),
		singleWS(Pos{1, 1, 2}, Assign, Pos{2, 1, 3}),
		dataTokWS(Pos{3, 1, 4}, Int, Pos{4, 1, 5}, "1"),
		single(nil, Newline, Pos{5, 1, 6}),
		single(nil, EOF, Pos{5, 1, 6}),
	})

	run("compare.py", "a == b\n", []Token{
		dataTok(nil, Ident, Pos{0, 1, 1}, "a"),
		{
			LeadingTrivia: []Token{{nil, Whitespace, unitSpan(Pos{1, 1, 2}), " "}},
			Type:          LogicalEquals,
			Span:          Span{Start: Pos{2, 1, 3}, End: Pos{3, 1, 4}},
		},
		dataTokWS(Pos{4, 1, 5}, Ident, Pos{5, 1, 6}, "b"),
		single(nil, Newline, Pos{6, 1, 7}),
		single(nil, EOF, Pos{7, 2, 1}),
	})
}

func TestLexerStructure(t *testing.T) {
	run := func(name, data string, expected []TokenType) {
		t.Run(name, func(t *testing.T) {
			got := tokenTypes(lexAll(name, data))
			if !slices.Equal(got, expected) {
				t.Errorf("got %v, want %v", got, expected)
			}
		})
	}

	run("indent.py", "if x:\n    y = 1\nz = 2\n", []TokenType{
		If, Ident, Colon, Newline,
		Indent, Ident, Assign, Int, Newline,
		Dedent, Ident, Assign, Int, Newline,
		EOF,
	})

	run("no_trailing_newline.py", "if x:\n  y", []TokenType{
		If, Ident, Colon, Newline,
		Indent, Ident, Newline,
		Dedent, EOF,
	})

	run("nested.py", "def f():\n  if x:\n    pass\n  return 1\n", []TokenType{
		Def, Ident, LeftParen, RightParen, Colon, Newline,
		Indent, If, Ident, Colon, Newline,
		Indent, Pass, Newline,
		Dedent, Return, Int, Newline,
		Dedent, EOF,
	})

	run("blank_lines.py", "x\n\n  # comment\ny\n", []TokenType{
		Ident, Newline, Ident, Newline, EOF,
	})

	run("brackets.py", "f(1,\n    2)\n[3,\n4]\n", []TokenType{
		Ident, LeftParen, Int, Comma, Int, RightParen, Newline,
		LeftBracket, Int, Comma, Int, RightBracket, Newline,
		EOF,
	})

	run("continuation.py", "x = 1 + \\\n  2\n", []TokenType{
		Ident, Assign, Int, Plus, Int, Newline, EOF,
	})

	run("keywords.py", "def if elif else while return pass and or not is in True False None", []TokenType{
		Def, If, Elif, Else, While, Return, Pass, KwAnd, KwOr, KwNot, Is, In, True, False, None, Newline, EOF,
	})

	run("operators.py", "+ - * / // % ** @ << >> & | ^ ~ < > <= >= == != = : , . ; -> ...", []TokenType{
		Plus, Minus, Times, Divide, FloorDivide, Remainder, Power, At, LeftShift, RightShift,
		And, Or, Caret, Tilde, LessThan, GreaterThan, LessThanEquals, GreaterThanEquals,
		LogicalEquals, NotEquals, Assign, Colon, Comma, Period, Semicolon, RightArrow, Ellipsis,
		Newline, EOF,
	})

	run("bad_dedent.py", "if x:\n    y\n  z\n", []TokenType{
		If, Ident, Colon, Newline,
		Indent, Ident, Newline,
		Dedent, Illegal, Ident, Newline,
		EOF,
	})
}

func TestLexerLiterals(t *testing.T) {
	run := func(name, data string, ttyp TokenType, want string) {
		t.Run(name, func(t *testing.T) {
			toks := lexAll("literal.py", data)
			if len(toks) != 3 {
				t.Fatalf("expected a single token, got %v", toks)
			}
			if toks[0].Type != ttyp || toks[0].Data != want {
				t.Errorf("got %v, want %v %q", toks[0], ttyp, want)
			}
		})
	}

	run("int", "42", Int, "42")
	run("raw_string", `r'\d'`, String, `r'\d'`)
	run("bytes_string", `Br"x"`, String, `Br"x"`)
	run("underscore", "1_000", Int, "1_000")
	run("hex", "0xFB", Int, "0xFB")
	run("octal", "0o755", Int, "0o755")
	run("binary", "0b0101", Int, "0b0101")
	run("float", "1.5", Float, "1.5")
	run("leading_dot", ".5", Float, ".5")
	run("exponent", "1.2e-3", Float, "1.2e-3")
	run("imag", "3j", Imag, "3j")
	run("ident", "अखिल", Ident, "अखिल")
	run("double_quoted", `"str"`, String, `"str"`)
	run("single_quoted", `'bald'`, String, `'bald'`)
	run("escaped_quote", `"a\"b"`, String, `"a\"b"`)
	run("triple_quoted", "\"\"\"a\nb\"\"\"", String, "\"\"\"a\nb\"\"\"")

	run("double_underscore", "1__0", Illegal, "'_' must separate successive digits")
	run("trailing_underscore", "1_", Illegal, "'_' must separate successive digits")
	run("bad_binary_digit", "0b12", Illegal, "'2' is not a valid digit in base 2")
	run("empty_hex", "0x", Illegal, "no digits in number")
	run("empty_exponent", "1e", Illegal, "no digits in exponent")
	run("unterminated", `"abc`, Illegal, "unterminated string")
	run("unexpected", "$", Illegal, "unexpected character '$'")
}

func TestUnquote(t *testing.T) {
	cases := []struct {
		lit  string
		want string
	}{
		{`"hello"`, "hello"},
		{`'it'`, "it"},
		{`"a\tb\nc"`, "a\tb\nc"},
		{`"\x41\u00e9\U0001F600"`, "Aé😀"},
		{`"\101"`, "A"},
		{`"\q"`, `\q`},
		{`'\''`, "'"},
		{"'''multi\nline'''", "multi\nline"},
		{`""`, ""},
		{`r"a\nb"`, `a\nb`},
		{`U'x'`, "x"},
		{`Ru'''\q'''`, `\q`},
	}
	for _, c := range cases {
		got, err := Unquote(c.lit)
		if err != nil {
			t.Errorf("Unquote(%s): %v", c.lit, err)
			continue
		}
		if got != c.want {
			t.Errorf("Unquote(%s) = %q, want %q", c.lit, got, c.want)
		}
	}
	for _, lit := range []string{`abc`, `"abc`, `"\x4"`, `"\`} {
		if _, err := Unquote(lit); err == nil {
			t.Errorf("Unquote(%s): expected error", lit)
		}
	}
}

func TestNewLexer(t *testing.T) {
	testfs := fstest.MapFS{
		"main.py":  {Data: []byte("x = 1\n")},
		"main.txt": {Data: []byte("x = 1\n")},
	}
	l, err := NewLexer(testfs, "main.py")
	if err != nil {
		t.Fatal(err)
	}
	if l.Filename() != "main.py" {
		t.Errorf("got filename %q", l.Filename())
	}
	if tok := l.Next(); tok.Type != Ident || tok.Data != "x" {
		t.Errorf("got %v", tok)
	}
	if _, err := NewLexer(testfs, "main.txt"); err == nil {
		t.Error("expected extension error")
	}
	if _, err := NewLexer(testfs, "missing.py"); err == nil {
		t.Error("expected missing file error")
	}
}
