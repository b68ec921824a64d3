package jinjatt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *RootNode {
	t.Helper()
	ts, err := tokenize(src, DefaultDelimiters())
	require.NoError(t, err)
	root, err := parse(ts, src)
	require.NoError(t, err)

	return root
}

// Regression: tokenStream's cursor used to start at -1 with Current()
// special-casing current<0 to tokens[0], which meant the first Next()
// call (-1 -> 0) didn't actually move past the already-read first
// token. That produced a spurious duplicate read of tokens[0] at the
// start of every parse.
func TestParseBareTextProducesSingleTextNode(t *testing.T) {
	root := mustParse(t, "Hello")
	require.Len(t, root.Body, 1)
	text, ok := root.Body[0].(*TextNode)
	require.True(t, ok)
	assert.Equal(t, "Hello", text.Value)
}

func TestParseSimpleOutputExpression(t *testing.T) {
	root := mustParse(t, "{{ name }}")
	require.Len(t, root.Body, 1)
	out, ok := root.Body[0].(*OutputNode)
	require.True(t, ok)
	name, ok := out.Expr.(*NameExpr)
	require.True(t, ok)
	assert.Equal(t, "name", name.Value)
}

func TestParseIfElifElse(t *testing.T) {
	root := mustParse(t, "{% if a %}1{% elif b %}2{% else %}3{% endif %}")
	require.Len(t, root.Body, 1)
	ifNode, ok := root.Body[0].(*IfNode)
	require.True(t, ok)
	assert.IsType(t, &NameExpr{}, ifNode.Condition)
	require.Len(t, ifNode.Branches, 2)
	_, isElif := ifNode.Branches[0].(*ElifNode)
	assert.True(t, isElif)
	_, isElse := ifNode.Branches[1].(*ElseNode)
	assert.True(t, isElse)
}

func TestParseForWithFilterClause(t *testing.T) {
	root := mustParse(t, "{% for x in items if x > 0 %}{{ x }}{% endfor %}")
	forNode, ok := root.Body[0].(*ForNode)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, forNode.LoopVars)
	require.NotNil(t, forNode.Filter)
	bin, ok := forNode.Filter.(*BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, ">", bin.Op)
}

func TestParseForDestructuring(t *testing.T) {
	root := mustParse(t, "{% for k, v in pairs %}{{ k }}{% endfor %}")
	forNode := root.Body[0].(*ForNode)
	assert.Equal(t, []string{"k", "v"}, forNode.LoopVars)
}

func TestParseExpressionPrecedence(t *testing.T) {
	root := mustParse(t, "{{ 1 + 2 * 3 }}")
	out := root.Body[0].(*OutputNode)
	bin, ok := out.Expr.(*BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
	rhs, ok := bin.Right.(*BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, "*", rhs.Op)
}

func TestParseFilterChainRightAssociative(t *testing.T) {
	root := mustParse(t, "{{ x | a | b }}")
	out := root.Body[0].(*OutputNode)
	outer, ok := out.Expr.(*FilterExpr)
	require.True(t, ok)
	assert.Equal(t, "b", outer.Name)
	inner, ok := outer.Expr.(*FilterExpr)
	require.True(t, ok)
	assert.Equal(t, "a", inner.Name)
	assert.IsType(t, &NameExpr{}, inner.Expr)
}

func TestParseTernaryShortForm(t *testing.T) {
	root := mustParse(t, "{{ x if y }}")
	out := root.Body[0].(*OutputNode)
	tern, ok := out.Expr.(*TernaryExpr)
	require.True(t, ok)
	assert.Nil(t, tern.FalseVal)
}

func TestParseCallExprArgsAndKwargs(t *testing.T) {
	root := mustParse(t, "{{ f(1, name=2) }}")
	out := root.Body[0].(*OutputNode)
	call, ok := out.Expr.(*CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	require.Len(t, call.Kwargs, 1)
	assert.Equal(t, "name", call.Kwargs[0].Name)
}

func TestParseRawPreservesExactSourceSlice(t *testing.T) {
	src := "{% raw %}  {{ keep me }}  {% endraw %}"
	root := mustParse(t, src)
	raw, ok := root.Body[0].(*RawNode)
	require.True(t, ok)
	assert.Equal(t, "  {{ keep me }}  ", raw.Value)
}

func TestParseUnmatchedClosureFails(t *testing.T) {
	_, err := parse(mustTokenize(t, "{% endif %}"), "{% endif %}")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, UnmatchedClosure, pe.Kind)
}

func TestParseUnknownStatementFails(t *testing.T) {
	src := "{% bogus %}{% endbogus %}"
	_, err := parse(mustTokenize(t, src), src)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, UnknownStatement, pe.Kind)
}

func mustTokenize(t *testing.T, src string) *tokenStream {
	t.Helper()
	ts, err := tokenize(src, DefaultDelimiters())
	require.NoError(t, err)

	return ts
}
