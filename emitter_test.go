package jinjatt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmplforge/jinjatt/internal/txtarfixture"
)

func TestEmitGoldenFixtures(t *testing.T) {
	cases, err := txtarfixture.Load("testdata/golden")
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	tp := New(DefaultConfig())
	for _, c := range cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			got, err := tp.Transpile(c.Source)
			require.NoError(t, err)
			assert.Equal(t, c.Target, got)
		})
	}
}

func TestEmitLoopPseudoVariableTranslation(t *testing.T) {
	tp := New(DefaultConfig())
	out, err := tp.Transpile("{% for x in xs %}{{ loop.index0 }}{{ loop.first }}{% endfor %}")
	require.NoError(t, err)
	assert.Equal(t, "[% FOREACH x IN xs %][% loop.index %][% loop.first %][% END %]", out)
}

func TestEmitUnknownNodeKindFails(t *testing.T) {
	e := &emitter{config: DefaultConfig()}
	_, err := e.emitExpr(unsupportedNode{})
	require.Error(t, err)
	var ee *EmitError
	require.ErrorAs(t, err, &ee)
}

type unsupportedNode struct{}

func (unsupportedNode) Kind() string { return "UNSUPPORTED" }
