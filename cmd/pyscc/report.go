package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/smasher164/pyscc/lexer"
	"github.com/smasher164/pyscc/parser"
	"github.com/smasher164/pyscc/types"
)

type palette struct {
	location *color.Color
	kind     *color.Color
	caret    *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		location: color.New(color.Bold),
		kind:     color.New(color.FgRed, color.Bold),
		caret:    color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.location, p.kind, p.caret} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// diagnostic is an error located in a source file.
type diagnostic struct {
	filename string
	span     lexer.Span
	kind     string
	msg      string
}

func diagnose(filename string, err error) diagnostic {
	var perr *parser.Error
	var terr types.Error
	switch {
	case errors.As(err, &perr):
		kind := "syntax error"
		if perr.Unsupported {
			kind = "unsupported construct"
		}
		return diagnostic{filename: filename, span: perr.Span, kind: kind, msg: perr.Msg}
	case errors.As(err, &terr):
		return diagnostic{filename: filename, span: terr.Location(), kind: terr.Kind(), msg: terr.Message()}
	}
	return diagnostic{filename: filename, kind: "error", msg: err.Error()}
}

// formatDiagnostic renders
//
//	file:line:col: kind: message
//	    source line
//	    ^^^
//
// The snippet is left out when the error has no location in src.
func formatDiagnostic(d diagnostic, src []byte, p palette) string {
	var sb strings.Builder
	loc := d.filename
	if !d.span.IsZero() {
		loc = fmt.Sprintf("%s:%d:%d", d.filename, d.span.Start.Line, d.span.Start.Column)
	}
	fmt.Fprintf(&sb, "%s: %s %s\n", p.location.Sprint(loc), p.kind.Sprint(d.kind+":"), d.msg)
	if d.span.IsZero() {
		return sb.String()
	}
	line, ok := sourceLine(src, d.span.Start.Line)
	if !ok {
		return sb.String()
	}
	// Columns count characters, not bytes.
	runes := []rune(line)
	col := d.span.Start.Column
	if col < 1 || col > len(runes)+1 {
		return sb.String()
	}
	width := 1
	if d.span.End.Line == d.span.Start.Line && d.span.End.Column >= col {
		width = d.span.End.Column - col + 1
	}
	width = min(width, max(len(runes)-col+1, 1))
	fmt.Fprintf(&sb, "    %s\n", line)
	fmt.Fprintf(&sb, "    %s%s\n", caretPrefix(runes[:col-1]), p.caret.Sprint(strings.Repeat("^", width)))
	return sb.String()
}

func sourceLine(src []byte, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := bytes.Split(src, []byte("\n"))
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(string(lines[n-1]), "\r"), true
}

// caretPrefix blanks out prefix while keeping its tabs, so the caret lines up
// under the source line.
func caretPrefix(prefix []rune) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
