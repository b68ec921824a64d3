package jinjatt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranspileSimpleTemplate(t *testing.T) {
	tp := New(nil)
	out, err := tp.Transpile("{{ 1 + 1 }}")
	require.NoError(t, err)
	assert.Equal(t, "[% (1 + 1) %]", out)
}

func TestTranspileFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.j2")
	require.NoError(t, os.WriteFile(path, []byte("Hi {{ name }}"), 0o644))

	tp := New(nil)
	out, err := tp.TranspileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hi [% name %]", out)
}

func TestTranspileFileMissingReturnsError(t *testing.T) {
	tp := New(nil)
	_, err := tp.TranspileFile(filepath.Join(t.TempDir(), "missing.j2"))
	require.Error(t, err)
}

func TestTranspilePropagatesLexError(t *testing.T) {
	tp := New(nil)
	_, err := tp.Transpile("{{ unterminated")
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestTranspileCustomDelimitersFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delimiters.VarStart = "<<"
	cfg.Delimiters.VarEnd = ">>"
	tp := New(cfg)
	out, err := tp.Transpile("<< name >>")
	require.NoError(t, err)
	assert.Equal(t, "[% name %]", out)
}

func TestTokensAndParseDiagnosticHelpers(t *testing.T) {
	tp := New(nil)
	tokens, err := tp.Tokens("{{ x }}")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens)

	root, err := tp.Parse("{{ x }}")
	require.NoError(t, err)
	require.Len(t, root.Body, 1)
}
