package types

import (
	"fmt"

	"github.com/smasher164/pyscc/lexer"
)

// Error is implemented by every error returned by Infer.
type Error interface {
	error
	Location() lexer.Span
	Kind() string
	Message() string
}

var (
	_ Error = (*UnsupportedConstructError)(nil)
	_ Error = (*TypeMismatchError)(nil)
	_ Error = (*UnboundNameError)(nil)
)

func formatError(span lexer.Span, kind, msg string) string {
	if span.IsZero() {
		return fmt.Sprintf("%s: %s", kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", span, kind, msg)
}

// UnsupportedConstructError reports a node kind, or a form of a known node,
// that the inferrer has no rule for.
type UnsupportedConstructError struct {
	Span   lexer.Span
	Node   string
	Reason string
}

func (e *UnsupportedConstructError) Location() lexer.Span { return e.Span }
func (e *UnsupportedConstructError) Kind() string         { return "unsupported construct" }

func (e *UnsupportedConstructError) Message() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot infer type of %s", e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Node, e.Reason)
}

func (e *UnsupportedConstructError) Error() string {
	return formatError(e.Span, e.Kind(), e.Message())
}

// TypeMismatchError reports two types that were required to be equal.
// Name is set when the mismatch concerns a variable binding.
type TypeMismatchError struct {
	Span   lexer.Span
	Name   string
	Want   Type
	Got    Type
	Reason string
}

func (e *TypeMismatchError) Location() lexer.Span { return e.Span }
func (e *TypeMismatchError) Kind() string         { return "type mismatch" }

func (e *TypeMismatchError) Message() string {
	if e.Want == nil || e.Got == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s (want %s, got %s)", e.Reason, e.Want, e.Got)
}

func (e *TypeMismatchError) Error() string {
	return formatError(e.Span, e.Kind(), e.Message())
}

type UnboundNameError struct {
	Span lexer.Span
	Name string
}

func (e *UnboundNameError) Location() lexer.Span { return e.Span }
func (e *UnboundNameError) Kind() string         { return "unbound name" }

func (e *UnboundNameError) Message() string {
	return fmt.Sprintf("name %q is not defined", e.Name)
}

func (e *UnboundNameError) Error() string {
	return formatError(e.Span, e.Kind(), e.Message())
}
