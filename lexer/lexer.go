package lexer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/smasher164/xid"
)

// Lexer turns source text into tokens, synthesizing Newline, Indent and
// Dedent tokens from the line structure. Whitespace and comments are
// attached to the following token as leading trivia.
type Lexer struct {
	filename    string
	src         []rune
	ch          rune
	pos         int
	lines       []int // offsets of line starts
	indents     []int
	parenDepth  int
	atLineStart bool
	done        bool
	prev        TokenType
	trivia      []Token
	pending     []Token
}

const eof = -1

func isLetter(ch rune) bool {
	return ch == '_' || ch != eof && xid.Start(ch)
}

func isContinue(ch rune) bool {
	return ch != eof && xid.Continue(ch)
}

func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }
func isHex(ch rune) bool {
	return '0' <= ch && ch <= '9' || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
func isValidDigit(base int, ch rune) bool {
	switch base {
	case 2, 8, 10:
		return ch >= '0' && ch < rune('0'+base)
	default:
		return isHex(ch)
	}
}

func New(filename string, src []byte) *Lexer {
	l := &Lexer{
		filename:    filename,
		src:         []rune(string(src)),
		pos:         -1,
		lines:       []int{0},
		indents:     []int{0},
		atLineStart: true,
		prev:        Newline,
	}
	for i, r := range l.src {
		if r == '\n' {
			l.lines = append(l.lines, i+1)
		}
	}
	l.next()
	return l
}

func NewLexer(fsys fs.FS, filename string) (*Lexer, error) {
	if filepath.Ext(filename) != ".py" {
		return nil, fmt.Errorf("invalid file extension %q, expected \".py\"", filepath.Ext(filename))
	}
	src, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, err
	}
	return New(filename, src), nil
}

func (l *Lexer) Filename() string {
	return l.filename
}

// Next returns the next token. After the end of input it keeps returning EOF.
func (l *Lexer) Next() Token {
	for len(l.pending) == 0 {
		l.scan()
	}
	t := l.pending[0]
	l.pending = l.pending[1:]
	return t
}

func (l *Lexer) emit(t Token) {
	t.LeadingTrivia = l.trivia
	l.trivia = nil
	l.pending = append(l.pending, t)
	l.prev = t.Type
}

func (l *Lexer) scan() {
	if l.done {
		l.emit(Token{Type: EOF, Span: l.spanOf(l.pos, l.pos)})
		return
	}
	if l.atLineStart && l.parenDepth == 0 && !l.lexIndentation() {
		return
	}
	l.skipTrivia()
	switch l.ch {
	case eof:
		l.lexEOF()
	case '\n', '\r':
		l.lexLineEnd()
	default:
		l.emit(l.lexToken())
	}
}

// lexIndentation measures the indentation of a new logical line. It reports
// false if the line was blank or held only a comment.
func (l *Lexer) lexIndentation() bool {
	startPos := l.pos
	col := 0
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
		switch l.ch {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		}
		l.next()
	}
	if l.pos > startPos {
		l.trivia = append(l.trivia, Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)})
	}
	switch l.ch {
	case '#':
		l.trivia = append(l.trivia, l.lexComment())
		return false
	case '\n', '\r':
		l.trivia = append(l.trivia, l.lexWS())
		return false
	case eof:
		return true
	}
	l.atLineStart = false
	span := l.spanOf(l.pos, l.pos)
	switch top := l.indents[len(l.indents)-1]; {
	case col > top:
		l.indents = append(l.indents, col)
		l.emit(Token{Type: Indent, Span: span})
	case col < top:
		for col < l.indents[len(l.indents)-1] {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(Token{Type: Dedent, Span: span})
		}
		if col != l.indents[len(l.indents)-1] {
			l.emit(Token{Type: Illegal, Span: span, Data: "unindent does not match any outer indentation level"})
		}
	}
	return true
}

func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f':
			l.trivia = append(l.trivia, l.lexWS())
		case l.ch == '#':
			l.trivia = append(l.trivia, l.lexComment())
		case l.ch == '\\' && (l.peek() == '\n' || l.peek() == '\r'):
			l.trivia = append(l.trivia, l.lexWS())
		case l.parenDepth > 0 && (l.ch == '\n' || l.ch == '\r'):
			l.trivia = append(l.trivia, l.lexWS())
		default:
			return
		}
	}
}

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	switch l.ch {
	case '\\':
		l.next()
		l.skipLineEnd()
	case '\r', '\n':
		l.skipLineEnd()
	default:
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			l.next()
		}
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)}
}

func (l *Lexer) skipLineEnd() {
	if l.ch == '\r' {
		l.next()
	}
	if l.ch == '\n' {
		l.next()
	}
}

func (l *Lexer) lexComment() Token {
	startPos := l.pos
	for l.ch != '\n' && l.ch != '\r' && l.ch != eof {
		l.next()
	}
	return Token{Type: Comment, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)}
}

func (l *Lexer) lexLineEnd() {
	startPos := l.pos
	l.skipLineEnd()
	l.emit(Token{Type: Newline, Span: l.spanOf(startPos, startPos)})
	l.atLineStart = true
}

func (l *Lexer) lexEOF() {
	span := l.spanOf(l.pos, l.pos)
	if l.prev != Newline && l.prev != Dedent {
		l.emit(Token{Type: Newline, Span: span})
	}
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(Token{Type: Dedent, Span: span})
	}
	l.done = true
	l.emit(Token{Type: EOF, Span: span})
}

func (l *Lexer) lexToken() Token {
	startPos := l.pos
	switch {
	case isLetter(l.ch):
		return l.lexIdentOrKeyword()
	case isDecimal(l.ch) || l.ch == '.' && isDecimal(l.peek()):
		return l.lexNumber()
	case l.ch == '"' || l.ch == '\'':
		return l.lexString()
	case l.ch == '.' && l.peek() == '.' && l.peekN(2) == '.':
		l.nextN(3)
		return Token{Type: Ellipsis, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := DoubleCharTokens[[2]rune{l.ch, l.peek()}]; ok {
		l.nextN(2)
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		switch ttyp {
		case LeftParen, LeftBracket, LeftBrace:
			l.parenDepth++
		case RightParen, RightBracket, RightBrace:
			if l.parenDepth > 0 {
				l.parenDepth--
			}
		}
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

func (l *Lexer) lexIdentOrKeyword() Token {
	startPos := l.pos
	l.next()
	for isContinue(l.ch) {
		l.next()
	}
	ident := l.text(startPos)
	if (l.ch == '\'' || l.ch == '"') && isStringPrefix(ident) {
		tok := l.lexString()
		if tok.Type == String {
			tok.Span, tok.Data = l.spanOf(startPos, l.pos-1), l.text(startPos)
		}
		return tok
	}
	if ttyp, ok := Keywords[ident]; ok {
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	return Token{Type: Ident, Span: l.spanOf(startPos, l.pos-1), Data: ident}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (l *Lexer) lexDigits(base int, allowUnderscore bool, setErr func(string)) (digitCount int) {
	for {
		switch {
		case l.ch == '_':
			if !allowUnderscore {
				setErr("'_' must separate successive digits")
			}
			allowUnderscore = false
		case isDecimal(l.ch) || base == 16 && isHex(l.ch):
			if !isValidDigit(base, l.ch) {
				setErr(fmt.Sprintf("%q is not a valid digit in base %d", l.ch, base))
			}
			allowUnderscore = true
			digitCount++
		default:
			if !allowUnderscore && digitCount > 0 {
				setErr("'_' must separate successive digits")
			}
			return digitCount
		}
		l.next()
	}
}

func (l *Lexer) lexNumber() Token {
	startPos := l.pos
	ttyp := Int
	var msg string
	setErr := func(m string) {
		if msg == "" {
			msg = m
		}
	}
	if base := prefixBase(l.peek()); l.ch == '0' && base != 0 {
		l.nextN(2)
		if l.lexDigits(base, true, setErr) == 0 {
			setErr("no digits in number")
		}
	} else {
		if l.ch != '.' {
			l.lexDigits(10, false, setErr)
		}
		if l.ch == '.' {
			ttyp = Float
			l.next()
			l.lexDigits(10, false, setErr)
		}
		if l.ch == 'e' || l.ch == 'E' {
			ttyp = Float
			l.next()
			if l.ch == '+' || l.ch == '-' {
				l.next()
			}
			if l.lexDigits(10, false, setErr) == 0 {
				setErr("no digits in exponent")
			}
		}
		if l.ch == 'j' || l.ch == 'J' {
			ttyp = Imag
			l.next()
		}
	}
	if msg != "" {
		return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: msg}
	}
	return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)}
}

func prefixBase(ch rune) int {
	switch ch {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

func (l *Lexer) lexString() Token {
	startPos := l.pos
	quote := l.ch
	triple := l.peek() == quote && l.peekN(2) == quote
	if triple {
		l.nextN(3)
	} else {
		l.next()
	}
	for {
		switch l.ch {
		case eof:
			return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "unterminated string"}
		case '\n', '\r':
			if !triple {
				return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos-1), Data: "unterminated string"}
			}
			l.next()
		case '\\':
			l.next()
			if l.ch != eof {
				l.next()
			}
		case quote:
			if !triple {
				l.next()
				return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)}
			}
			if l.peek() == quote && l.peekN(2) == quote {
				l.nextN(3)
				return Token{Type: String, Span: l.spanOf(startPos, l.pos-1), Data: l.text(startPos)}
			}
			l.next()
		default:
			l.next()
		}
	}
}

func (l *Lexer) next() {
	if l.pos < len(l.src) {
		l.pos++
	}
	if l.pos < len(l.src) {
		l.ch = l.src[l.pos]
	} else {
		l.ch = eof
	}
}

func (l *Lexer) nextN(n int) {
	for i := 0; i < n; i++ {
		l.next()
	}
}

func (l *Lexer) peek() rune {
	return l.peekN(1)
}

func (l *Lexer) peekN(n int) rune {
	if i := l.pos + n; i >= 0 && i < len(l.src) {
		return l.src[i]
	}
	return eof
}

func (l *Lexer) text(startPos int) string {
	return string(l.src[startPos:l.pos])
}

func (l *Lexer) lineIndex(offset int) int {
	return sort.Search(len(l.lines), func(i int) bool {
		return l.lines[i] > offset
	}) - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	if off2 < off1 {
		off2 = off1
	}
	start := l.posOf(off1)
	if off1 == off2 {
		return Span{Start: start, End: start}
	}
	return Span{Start: start, End: l.posOf(off2)}
}

// Unquote decodes the body of a string literal token, including triple-quoted
// forms. Unknown escapes are kept verbatim. An r prefix leaves the body
// undecoded and a u prefix is ignored.
func Unquote(lit string) (string, error) {
	raw := false
	for len(lit) > 0 && lit[0] != '"' && lit[0] != '\'' {
		switch lit[0] {
		case 'r', 'R':
			raw = true
		case 'u', 'U':
		default:
			return "", fmt.Errorf("unsupported string prefix %q", lit[0])
		}
		lit = lit[1:]
	}
	if len(lit) < 2 || lit[0] != '"' && lit[0] != '\'' {
		return "", errors.New("invalid string literal")
	}
	delim := lit[:1]
	if len(lit) >= 6 && lit[1] == lit[0] && lit[2] == lit[0] {
		delim = lit[:3]
	}
	if len(lit) < 2*len(delim) || !strings.HasSuffix(lit, delim) {
		return "", errors.New("invalid string literal")
	}
	body := lit[len(delim) : len(lit)-len(delim)]
	if raw {
		return body, nil
	}
	var sb strings.Builder
	for i := 0; i < len(body); {
		if body[i] != '\\' {
			sb.WriteByte(body[i])
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.New("escape sequence not terminated")
		}
		e := body[i]
		i++
		switch e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+n > len(body) {
				return "", errors.New("escape sequence not terminated")
			}
			x, err := strconv.ParseUint(body[i:i+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("illegal escape sequence \\%c%s", e, body[i:i+n])
			}
			sb.WriteRune(rune(x))
			i += n
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(body) && j < i+2 && body[j] >= '0' && body[j] <= '7' {
				j++
			}
			x, _ := strconv.ParseUint(body[i-1:j], 8, 32)
			sb.WriteRune(rune(x))
			i = j
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}
