package jinjatt

import (
	"fmt"

	"github.com/pkg/errors"
)

// LexError reports an unterminated variable, statement, or comment tag.
type LexError struct {
	Offset int
	Tag    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unterminated tag %q at offset %d", e.Tag, e.Offset)
}

func newLexError(tag string, offset int) error {
	return errors.WithStack(&LexError{Offset: offset, Tag: tag})
}

// ParseErrorKind distinguishes the ParseError variants named in the error
// taxonomy: UnexpectedToken, UnknownStatement, UnmatchedClosure, and
// MalformedExpression all share this shape.
type ParseErrorKind int

const (
	UnexpectedToken ParseErrorKind = iota
	UnknownStatement
	UnmatchedClosure
	MalformedExpression
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnknownStatement:
		return "UnknownStatement"
	case UnmatchedClosure:
		return "UnmatchedClosure"
	case MalformedExpression:
		return "MalformedExpression"
	}

	return "ParseError"
}

type ParseError struct {
	Kind     ParseErrorKind
	Offset   int
	Message  string
	Expected string
	Actual   string
}

func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%s at offset %d: expected %s, got %s", e.Kind, e.Offset, e.Expected, e.Actual)
	}

	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func newUnexpectedTokenError(tok *token, expected string) error {
	return errors.WithStack(&ParseError{
		Kind:     UnexpectedToken,
		Offset:   tok.pos,
		Expected: expected,
		Actual:   fmt.Sprintf("%s %q", tok.kind, tok.lexeme),
	})
}

func newUnknownStatementError(tok *token) error {
	return errors.WithStack(&ParseError{
		Kind:    UnknownStatement,
		Offset:  tok.pos,
		Message: fmt.Sprintf("unknown statement keyword %q", tok.lexeme),
	})
}

func newUnmatchedClosureError(tok *token) error {
	return errors.WithStack(&ParseError{
		Kind:    UnmatchedClosure,
		Offset:  tok.pos,
		Message: fmt.Sprintf("%q has no matching opener", tok.lexeme),
	})
}

func newMalformedExpressionError(tok *token) error {
	return errors.WithStack(&ParseError{
		Kind:    MalformedExpression,
		Offset:  tok.pos,
		Message: fmt.Sprintf("unexpected token %q in primary position", tok.lexeme),
	})
}

// EmitError indicates an AST node kind the emitter does not recognize;
// it should never occur on parser output and signals an internal
// invariant violation.
type EmitError struct {
	NodeKind string
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emitter: unrecognized node kind %q", e.NodeKind)
}

func newEmitError(nodeKind string) error {
	return errors.WithStack(&EmitError{NodeKind: nodeKind})
}
