package jinjatt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesOverridesAndOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jinjatt.yaml")
	yaml := "var_start: \"<<\"\nvar_end: \">>\"\ndebug: true\nfilters:\n  - name: shout\n    disposition: filter\n    target: shout\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "<<", cfg.Delimiters.VarStart)
	assert.Equal(t, ">>", cfg.Delimiters.VarEnd)
	assert.Equal(t, DefaultDelimiters().StmtStart, cfg.Delimiters.StmtStart)
	assert.True(t, cfg.Debug)

	m, ok := cfg.Filters.Lookup("shout")
	require.True(t, ok)
	assert.Equal(t, dispFilter, m.Disposition)
}

func TestLoadConfigRejectsUnknownDisposition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yaml := "filters:\n  - name: x\n    disposition: bogus\n    target: x\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsCustomDisposition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yaml := "filters:\n  - name: x\n    disposition: custom\n    target: x\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigMissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
