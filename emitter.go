package jinjatt

import (
	"strconv"
	"strings"
)

// These constants are the Target-language tag markers the emitter writes.
// Unlike the tokenizer's Delimiters, these are not configurable: Target is
// always TT2 syntax.
const (
	tgtOpen       = "[%"
	tgtOpenChomp  = "[%-"
	tgtClose      = "%]"
	tgtCloseChomp = "-%]"
)

// loopVarMap translates Jinja's `loop.*` pseudo-variables to their TT2
// FOREACH equivalents. TT2's `loop.index` is already zero-based, the
// inverse of Jinja's convention, so index/index0 swap here rather than
// mapping one-to-one. loop.revindex is rewritten separately in emitExpr;
// any other attribute not listed passes through unchanged
// (loop.first/loop.last already mean the same thing in both dialects).
var loopVarMap = map[string]string{
	"index":  "count",
	"index0": "index",
	"length": "size",
}

type emitter struct {
	sb     strings.Builder
	config *Config
}

// Emit walks root depth-first and renders it as Target (TT2) source text.
func Emit(root *RootNode, cfg *Config) (string, error) {
	e := &emitter{config: cfg}
	if err := e.emitNodes(root.Body); err != nil {
		return "", err
	}

	return e.sb.String(), nil
}

func (e *emitter) emitNodes(nodes []Node) error {
	for _, n := range nodes {
		if err := e.emitNode(n); err != nil {
			return err
		}
	}

	return nil
}

// commentTag renders a Target comment in the same `[%# ... %]` form as a
// Source COMMENT node, used to annotate the lossy constructs spec.md §7
// documents as "a successful transpilation with documented semantic
// loss": extends, call-block, autoescape, import/from.
func (e *emitter) commentTag(note string) string {
	return tgtOpen + "# " + note + " " + tgtClose
}

func (e *emitter) tag(open bool, stripBefore, stripAfter bool) string {
	if open {
		if stripBefore {
			return tgtOpenChomp
		}

		return tgtOpen
	}
	if stripAfter {
		return tgtCloseChomp
	}

	return tgtClose
}

func (e *emitter) emitNode(n Node) error {
	switch v := n.(type) {
	case *TextNode:
		e.sb.WriteString(v.Value)

	case *CommentNode:
		e.sb.WriteString(tgtOpen + "# " + v.Value + " " + tgtClose)

	case *OutputNode:
		expr, err := e.emitExpr(v.Expr)
		if err != nil {
			return err
		}
		e.sb.WriteString(e.tag(true, v.StripBefore, false))
		e.sb.WriteString(" ")
		e.sb.WriteString(expr)
		e.sb.WriteString(" ")
		e.sb.WriteString(e.tag(false, false, v.StripAfter))

	case *IfNode:
		return e.emitIf(v)

	case *ForNode:
		return e.emitFor(v)

	case *BlockNode:
		e.sb.WriteString(tgtOpen + " BLOCK " + v.Name + " " + tgtClose)
		if err := e.emitNodes(v.Body); err != nil {
			return err
		}
		e.sb.WriteString(tgtOpen + " END " + tgtClose)

	case *ExtendsNode:
		tmpl, err := e.emitExpr(v.Template)
		if err != nil {
			return err
		}
		e.sb.WriteString(e.commentTag("extends: TT2 has no template-inheritance block override; approximated as PROCESS"))
		e.sb.WriteString(tgtOpen + " PROCESS " + tmpl + " %]")

	case *IncludeNode:
		tmpl, err := e.emitExpr(v.Template)
		if err != nil {
			return err
		}
		directive := "INCLUDE"
		if !v.WithContext {
			directive = "PROCESS"
		}
		e.sb.WriteString(tgtOpen + " " + directive + " " + tmpl)
		if v.IgnoreMissing {
			e.sb.WriteString("; IF 0; END") // best-effort: TT2 lacks ignore-missing natively
		}
		e.sb.WriteString(" %]")

	case *ImportNode:
		tmpl, err := e.emitExpr(v.Template)
		if err != nil {
			return err
		}
		e.sb.WriteString(e.commentTag("import " + v.Alias + ": TT2 USE binds a plugin namespace, not a macro module"))
		e.sb.WriteString(tgtOpen + " USE " + v.Alias + " = " + tmpl + " %]")

	case *FromNode:
		tmpl, err := e.emitExpr(v.Template)
		if err != nil {
			return err
		}
		names := make([]string, len(v.Imports))
		for i, imp := range v.Imports {
			if imp.Alias != "" {
				names[i] = imp.Name + " as " + imp.Alias
			} else {
				names[i] = imp.Name
			}
		}
		e.sb.WriteString(e.commentTag("from " + tmpl + " import " + strings.Join(names, ", ") + ": TT2 has no selective macro import"))

	case *SetNode:
		return e.emitSet(v)

	case *MacroNode:
		return e.emitMacro(v)

	case *CallStmt:
		return e.emitCallStmt(v)

	case *FilterStmt:
		return e.emitFilterStmt(v)

	case *RawNode:
		e.sb.WriteString(v.Value)

	case *WithNode:
		for _, a := range v.Assignments {
			val, err := e.emitExpr(a.Value)
			if err != nil {
				return err
			}
			e.sb.WriteString(tgtOpen + " SET " + a.Name + " = " + val + " %]")
		}

		return e.emitNodes(v.Body)

	case *AutoescapeNode:
		if !v.Enabled {
			e.sb.WriteString(e.commentTag("autoescape false: TT2 has no scoped autoescape toggle; body left unescaped"))

			return e.emitNodes(v.Body)
		}
		e.sb.WriteString(e.commentTag("autoescape: approximated as a scoped html FILTER block"))
		e.sb.WriteString(tgtOpen + " FILTER html %]")
		if err := e.emitNodes(v.Body); err != nil {
			return err
		}
		e.sb.WriteString(tgtOpen + " END %]")

	default:
		return newEmitError(n.Kind())
	}

	return nil
}

func (e *emitter) emitIf(v *IfNode) error {
	cond, err := e.emitExpr(v.Condition)
	if err != nil {
		return err
	}
	e.sb.WriteString(e.tag(true, v.StripBefore, false))
	e.sb.WriteString(" IF " + cond + " ")
	e.sb.WriteString(tgtClose)
	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	for _, b := range v.Branches {
		switch branch := b.(type) {
		case *ElifNode:
			c, err := e.emitExpr(branch.Condition)
			if err != nil {
				return err
			}
			e.sb.WriteString(tgtOpen + " ELSIF " + c + " " + tgtClose)
			if err := e.emitNodes(branch.Body); err != nil {
				return err
			}
		case *ElseNode:
			e.sb.WriteString(tgtOpen + " ELSE " + tgtClose)
			if err := e.emitNodes(branch.Body); err != nil {
				return err
			}
		}
	}
	e.sb.WriteString(e.tag(true, false, v.StripAfter))
	e.sb.WriteString(" END ")
	e.sb.WriteString(tgtClose)

	return nil
}

func (e *emitter) emitFor(v *ForNode) error {
	iterable, err := e.emitExpr(v.Iterable)
	if err != nil {
		return err
	}

	// TT2's FOREACH has no native destructuring or filter clause. With
	// one loop var and no filter, the translation is exact; destructuring
	// (`for k, v in ...`) is rendered as SET directives and a filter clause
	// as a NEXT UNLESS directive, which is the best-effort fallback the emitter
	// documents for constructs TT2 has no equivalent of.
	varName := v.LoopVars[0]
	hasElse := v.ElseBody != nil

	// Per spec.md's FOR-with-else translation table, the whole FOREACH is
	// wrapped in an outer `IF it.size` rather than guarded from the
	// inside, so the else arm renders as that IF's own ELSE.
	if hasElse {
		e.sb.WriteString(e.tag(true, v.StripBefore, false))
		e.sb.WriteString(" IF " + iterable + ".size " + tgtClose)
		e.sb.WriteString(tgtOpen + " FOREACH " + varName + " IN " + iterable + " " + tgtClose)
	} else {
		e.sb.WriteString(e.tag(true, v.StripBefore, false))
		e.sb.WriteString(" FOREACH " + varName + " IN " + iterable + " " + tgtClose)
	}

	if len(v.LoopVars) > 1 {
		for i, name := range v.LoopVars[1:] {
			e.sb.WriteString(tgtOpen + " SET " + name + " = " + varName + ".$" + strconv.Itoa(i+1) + " %]")
		}
	}

	if v.Filter != nil {
		filterCond, err := e.emitExpr(v.Filter)
		if err != nil {
			return err
		}
		e.sb.WriteString(tgtOpen + " NEXT UNLESS " + filterCond + " %]")
	}

	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " END " + tgtClose)

	if hasElse {
		e.sb.WriteString(tgtOpen + " ELSE " + tgtClose)
		if err := e.emitNodes(v.ElseBody); err != nil {
			return err
		}
		e.sb.WriteString(tgtOpen + " END " + tgtClose)
	}

	return nil
}

func (e *emitter) emitSet(v *SetNode) error {
	if v.Value != nil {
		val, err := e.emitExpr(v.Value)
		if err != nil {
			return err
		}
		e.sb.WriteString(tgtOpen + " SET " + strings.Join(v.Names, ", ") + " = " + val + " " + tgtClose)

		return nil
	}

	// Block-form SET has no direct TT2 equivalent for multi-name capture;
	// TT2's own block SET only captures one variable, matching the
	// single-name case this emitter expects here.
	e.sb.WriteString(tgtOpen + " SET " + strings.Join(v.Names, ", ") + " %]")
	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " END %]")

	return nil
}

func (e *emitter) emitMacro(v *MacroNode) error {
	var params []string
	for _, a := range v.Args {
		if a.Default != nil {
			def, err := e.emitExpr(a.Default)
			if err != nil {
				return err
			}
			params = append(params, a.Name+" = "+def)
		} else {
			params = append(params, a.Name)
		}
	}
	e.sb.WriteString(tgtOpen + " MACRO " + v.Name + "(" + strings.Join(params, ", ") + ") BLOCK " + tgtClose)
	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " END %]")

	return nil
}

// emitCallStmt renders the `{% call %}` block-macro-invocation form as a
// WRAPPER around the macro call, the nearest TT2 has to "invoke this
// macro, handing it my block body as its implicit content". Block-call
// formal arguments (`{% call(user) ... %}`) have no WRAPPER equivalent
// and are dropped, noted in the annotation when present.
func (e *emitter) emitCallStmt(v *CallStmt) error {
	call, err := e.emitExpr(v.Call)
	if err != nil {
		return err
	}
	note := "call-block has no exact TT2 equivalent; approximated as a WRAPPER"
	if len(v.Args) > 0 {
		note += " (block arguments dropped)"
	}
	e.sb.WriteString(e.commentTag(note))
	e.sb.WriteString(tgtOpen + " WRAPPER " + call + " %]")
	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " END %]")

	return nil
}

func (e *emitter) emitFilterStmt(v *FilterStmt) error {
	chain, err := e.emitFilterChainSuffix(v.Filter)
	if err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " FILTER " + chain + " " + tgtClose)
	if err := e.emitNodes(v.Body); err != nil {
		return err
	}
	e.sb.WriteString(tgtOpen + " END " + tgtClose)

	return nil
}

// emitFilterChainSuffix renders a *FilterExpr chain whose innermost Expr
// is nil (the `{% filter %}` statement form) as the bare `name | name`
// suffix TT2's FILTER directive expects, without a leading operand.
func (e *emitter) emitFilterChainSuffix(n Node) (string, error) {
	fe, ok := n.(*FilterExpr)
	if !ok {
		return "", newEmitError(n.Kind())
	}
	var parts []string
	cur := fe
	for {
		target, err := e.emitFilterCall(cur)
		if err != nil {
			return "", err
		}
		parts = append([]string{target}, parts...)
		if cur.Expr == nil {
			break
		}
		inner, ok := cur.Expr.(*FilterExpr)
		if !ok {
			break
		}
		cur = inner
	}

	return strings.Join(parts, " | "), nil
}

// emitFilterCall renders one filter's translated name plus its arg list,
// without the leading `|` or operand.
func (e *emitter) emitFilterCall(fe *FilterExpr) (string, error) {
	mapping := e.resolveFilter(fe.Name)
	args, err := e.emitArgList(fe.Args)
	if err != nil {
		return "", err
	}
	if args != "" {
		return mapping.Target + "(" + args + ")", nil
	}

	return mapping.Target, nil
}

func (e *emitter) resolveFilter(name string) filterMapping {
	if e.config != nil {
		if m, ok := e.config.Filters.Lookup(name); ok {
			return m
		}
	}
	if m, ok := defaultFilterTable[name]; ok {
		return m
	}

	return filterMapping{Disposition: dispNone, Target: name}
}

// ---------------------------------------------------------------------
// Expressions

func (e *emitter) emitExpr(n Node) (string, error) {
	switch v := n.(type) {
	case *NameExpr:
		return v.Value, nil

	case *LiteralExpr:
		switch v.Subtype {
		case "STRING":
			return "'" + strings.ReplaceAll(v.Value, "'", "\\'") + "'", nil
		case "NONE":
			return "undef", nil
		case "BOOL":
			if v.Value == "true" {
				return "1", nil
			}

			return "0", nil
		default:
			return v.Value, nil
		}

	case *BinOpExpr:
		return e.emitBinOp(v)

	case *UnaryOpExpr:
		operand, err := e.emitExpr(v.Operand)
		if err != nil {
			return "", err
		}
		if v.Op == "not" {
			return "NOT " + operand, nil
		}

		return v.Op + operand, nil

	case *TernaryExpr:
		return e.emitTernary(v)

	case *GetAttrExpr:
		base, err := e.emitExpr(v.Expr)
		if err != nil {
			return "", err
		}
		if base == "loop" {
			if v.Attr == "revindex" {
				return "loop.max - loop.index + 1", nil
			}
			if mapped, ok := loopVarMap[v.Attr]; ok {
				return "loop." + mapped, nil
			}
		}

		return base + "." + v.Attr, nil

	case *GetItemExpr:
		return e.emitGetItem(v)

	case *CallExpr:
		return e.emitCallExpr(v)

	case *FilterExpr:
		return e.emitFilterExpr(v)

	case *ListExpr:
		return e.emitList(v)

	case *TupleExpr:
		return e.emitList(&ListExpr{Elements: v.Elements})

	case *DictExpr:
		return e.emitDict(v)

	default:
		return "", newEmitError(n.Kind())
	}
}

// binOpMap holds the operators spec.md names an explicit Target spelling
// for; every operator not in this map passes through unchanged (==, !=,
// <, >, <=, >=, is, is not, +, -, *, /, %, **).
var binOpMap = map[string]string{
	"and":    "AND",
	"or":     "OR",
	"~":      "_",
	"in":     "IN",
	"not in": "NOT IN",
	"//":     "div",
}

func (e *emitter) emitBinOp(v *BinOpExpr) (string, error) {
	left, err := e.emitExpr(v.Left)
	if err != nil {
		return "", err
	}
	right, err := e.emitExpr(v.Right)
	if err != nil {
		return "", err
	}

	op, ok := binOpMap[v.Op]
	if !ok {
		op = v.Op
	}

	return "(" + left + " " + op + " " + right + ")", nil
}

func (e *emitter) emitTernary(v *TernaryExpr) (string, error) {
	trueVal, err := e.emitExpr(v.TrueVal)
	if err != nil {
		return "", err
	}
	cond, err := e.emitExpr(v.Condition)
	if err != nil {
		return "", err
	}
	falseVal := "''"
	if v.FalseVal != nil {
		falseVal, err = e.emitExpr(v.FalseVal)
		if err != nil {
			return "", err
		}
	}

	return "(" + cond + " ? " + trueVal + " : " + falseVal + ")", nil
}

// emitGetItem renders bracketed indexing. TT2 has no general item-getter
// syntax; a literal string/number index translates to dotted attribute
// access (TT2's uniform hash/list accessor). An identifier index uses
// TT2's `.$name` variable-dereference idiom, which only works when the
// index is itself a simple name; any other dynamic index expression is
// silently mis-emitted the same way, a documented limitation rather than
// a guarded fallback.
func (e *emitter) emitGetItem(v *GetItemExpr) (string, error) {
	base, err := e.emitExpr(v.Expr)
	if err != nil {
		return "", err
	}
	if lit, ok := v.Index.(*LiteralExpr); ok {
		switch lit.Subtype {
		case "STRING":
			return base + "." + lit.Value, nil
		case "NUMBER":
			return base + "." + lit.Value, nil
		}
	}
	if name, ok := v.Index.(*NameExpr); ok {
		return base + ".$" + name.Value, nil
	}
	idx, err := e.emitExpr(v.Index)
	if err != nil {
		return "", err
	}

	return base + ".$" + idx, nil
}

// emitCallExpr special-cases two Source builtins with no direct Target
// call syntax: `range(...)`, translated to a TT2 range literal since TT2
// has no function-call range but does have `[ a .. b ]`, and `super()`,
// translated to TT2's implicit block-content variable. Every other
// callee emits as an ordinary Target function/vmethod call.
func (e *emitter) emitCallExpr(v *CallExpr) (string, error) {
	if name, ok := v.Expr.(*NameExpr); ok {
		switch name.Value {
		case "range":
			if len(v.Args) > 0 {
				return e.emitRangeCall(v)
			}
		case "super":
			if len(v.Args) == 0 && len(v.Kwargs) == 0 {
				return "content", nil
			}
		}
	}

	callee, err := e.emitExpr(v.Expr)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, a := range v.Args {
		s, err := e.emitExpr(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	for _, kw := range v.Kwargs {
		s, err := e.emitExpr(kw.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, kw.Name+" = "+s)
	}

	return callee + "(" + strings.Join(parts, ", ") + ")", nil
}

// emitRangeCall renders `range(n)` as `[0 .. n - 1]` and `range(a, b)` as
// `[a .. b - 1]`, matching Source's exclusive-end convention against
// TT2's inclusive `..` range operator. `range(a, b, c)` has no stepped
// equivalent in TT2, so it degrades to the unstepped two-argument form:
// the step is dropped and no annotation is emitted for it. Callers route
// only calls with at least one argument here.
func (e *emitter) emitRangeCall(v *CallExpr) (string, error) {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		s, err := e.emitExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}

	switch len(args) {
	case 1:
		return "[0 .. " + args[0] + " - 1]", nil
	case 2:
		return "[" + args[0] + " .. " + args[1] + " - 1]", nil
	default:
		// range(a, b, step): TT2's `..` operator has no step. Degrade to
		// the unstepped two-argument form; the dropped step can't be
		// noted as an inline comment here without corrupting the
		// enclosing expression's own Target tag delimiters.
		return "[" + args[0] + " .. " + args[1] + " - 1]", nil
	}
}

// emitFilterExpr dispatches on the resolved disposition: vmethod becomes
// dotted method syntax, filter becomes a piped TT2 filter, custom invokes
// its bespoke formatter closure, and a dispNone entry either elides the
// filter (known no-op filters) or passes the original name through
// unchanged as a best-effort filter call (unknown filters).
func (e *emitter) emitFilterExpr(v *FilterExpr) (string, error) {
	operand, err := e.emitExpr(v.Expr)
	if err != nil {
		return "", err
	}
	mapping := e.resolveFilter(v.Name)

	switch mapping.Disposition {
	case dispVMethod:
		args, err := e.emitArgList(v.Args)
		if err != nil {
			return "", err
		}
		if args != "" {
			return operand + "." + mapping.Target + "(" + args + ")", nil
		}

		return operand + "." + mapping.Target, nil

	case dispCustom:
		if mapping.Custom != nil {
			return mapping.Custom(e, operand, v.Args)
		}

		fallthrough

	case dispNone:
		if mapping.Elide {
			return operand, nil
		}

		fallthrough

	default: // dispFilter, and dispNone passthrough of an unknown filter
		args, err := e.emitArgList(v.Args)
		if err != nil {
			return "", err
		}
		if args != "" {
			return operand + " | " + mapping.Target + "(" + args + ")", nil
		}

		return operand + " | " + mapping.Target, nil
	}
}

func (e *emitter) emitArgList(args []Node) (string, error) {
	var parts []string
	for _, a := range args {
		if named, ok := a.(*NamedArg); ok {
			s, err := e.emitExpr(named.Value)
			if err != nil {
				return "", err
			}
			parts = append(parts, named.Name+" = "+s)
			continue
		}
		s, err := e.emitExpr(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}

	return strings.Join(parts, ", "), nil
}

func (e *emitter) emitList(v *ListExpr) (string, error) {
	var parts []string
	for _, el := range v.Elements {
		s, err := e.emitExpr(el)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}

	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (e *emitter) emitDict(v *DictExpr) (string, error) {
	var parts []string
	for _, pair := range v.Pairs {
		k, err := e.emitExpr(pair.Key)
		if err != nil {
			return "", err
		}
		val, err := e.emitExpr(pair.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, k+" => "+val)
	}

	return "{ " + strings.Join(parts, ", ") + " }", nil
}
