package jinjatt

import (
	"os"

	"github.com/pkg/errors"
)

// Transpiler converts Source text to Target text under one fixed Config.
// A Transpiler is safe for concurrent use: Transpile and TranspileFile
// hold no mutable state beyond the Config they were built with, and a
// tokenStream/AST are built fresh on every call.
type Transpiler struct {
	config *Config
}

// New builds a Transpiler. A nil cfg is equivalent to DefaultConfig().
func New(cfg *Config) *Transpiler {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Transpiler{config: cfg}
}

// Transpile runs the full Tokenizer -> Parser -> Emitter pipeline over
// src and returns the Target text. Errors are one of *LexError,
// *ParseError, or *EmitError, wrapped with a stack trace.
func (t *Transpiler) Transpile(src string) (string, error) {
	ts, err := tokenize(src, t.config.Delimiters)
	if err != nil {
		return "", err
	}

	root, err := parse(ts, src)
	if err != nil {
		return "", err
	}

	return Emit(root, t.config)
}

// TranspileFile reads path, transpiles its contents, and returns the
// result. It never writes the result back; callers decide where output
// goes.
func (t *Transpiler) TranspileFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %q", path)
	}

	return t.Transpile(string(data))
}

// Tokens runs only the tokenizer, for diagnostic (--debug) use; the
// returned slice is a snapshot and shares no state with a subsequent
// Transpile call.
func (t *Transpiler) Tokens(src string) ([]*token, error) {
	ts, err := tokenize(src, t.config.Delimiters)
	if err != nil {
		return nil, err
	}

	return ts.tokens, nil
}

// Parse runs the tokenizer and parser only, for diagnostic (--debug) use.
func (t *Transpiler) Parse(src string) (*RootNode, error) {
	ts, err := tokenize(src, t.config.Delimiters)
	if err != nil {
		return nil, err
	}

	return parse(ts, src)
}
