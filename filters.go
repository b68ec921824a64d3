package jinjatt

// filterDisposition classifies how a Source filter maps onto Target
// syntax: as a TT2 vmethod (dotted method call), as a TT2 pipe filter, as
// a bespoke formatter closure, or as having no TT2 equivalent at all.
type filterDisposition int

const (
	dispVMethod filterDisposition = iota
	dispFilter
	dispCustom
	dispNone
)

func (d filterDisposition) String() string {
	switch d {
	case dispVMethod:
		return "vmethod"
	case dispFilter:
		return "filter"
	case dispCustom:
		return "custom"
	default:
		return "none"
	}
}

// customFilterFunc renders a dispCustom filter application given its
// already-rendered operand and the filter's raw (unrendered) argument
// nodes, so a formatter can choose how to interpret an argument (e.g.
// attr's key name must stay unquoted, round's precision is read as a
// literal digit).
type customFilterFunc func(e *emitter, operand string, args []Node) (string, error)

type filterMapping struct {
	Disposition filterDisposition
	// Target is the TT2 name for vmethod/filter dispositions, and the
	// best-effort pipe-filter name used when this mapping is applied as
	// part of a `{% filter %}` statement chain (which has no single
	// expression operand to hand a custom closure).
	Target string
	// Elide marks a dispNone entry whose filter application is dropped
	// entirely rather than passed through by name (safe/float/list/string
	// have no TT2 equivalent and no observable effect worth preserving).
	Elide bool
	// Custom is set on the builtin dispCustom entries. Entries added with
	// FilterTable.Register never carry one, even when registered as
	// dispCustom; the emitter renders such an entry as a pipe filter named
	// Target.
	Custom customFilterFunc
}

func absFormatter(e *emitter, operand string, args []Node) (string, error) {
	return "(" + operand + " >= 0 ? " + operand + " : -" + operand + ")", nil
}

// roundFormatter reads an optional precision argument (an integer literal)
// and falls back to zero decimal places, mirroring Source's `round()`
// default.
func roundFormatter(e *emitter, operand string, args []Node) (string, error) {
	precision := "0"
	if len(args) > 0 {
		if lit, ok := args[0].(*LiteralExpr); ok && lit.Subtype == "NUMBER" {
			precision = lit.Value
		}
	}

	return "format(" + operand + ", '%." + precision + "f')", nil
}

// defaultFormatter implements `default(d)`/`d(d)` as TT2's idiomatic
// short-circuit-or fallback; a call with no default argument degrades to
// the bare operand.
func defaultFormatter(e *emitter, operand string, args []Node) (string, error) {
	if len(args) == 0 {
		return operand, nil
	}
	arg := args[0]
	if named, ok := arg.(*NamedArg); ok {
		arg = named.Value
	}
	val, err := e.emitExpr(arg)
	if err != nil {
		return "", err
	}

	return "(" + operand + " || " + val + ")", nil
}

func minFormatter(e *emitter, operand string, args []Node) (string, error) {
	return operand + ".sort.first", nil
}

func maxFormatter(e *emitter, operand string, args []Node) (string, error) {
	return operand + ".sort.last", nil
}

func wordcountFormatter(e *emitter, operand string, args []Node) (string, error) {
	return operand + ".split.size", nil
}

// attrFormatter implements `attr("k")` as dotted access. When the key
// argument isn't a plain string literal, it falls back to TT2's
// `.item(key)` accessor rather than fabricating a dotted name.
func attrFormatter(e *emitter, operand string, args []Node) (string, error) {
	if len(args) == 0 {
		return operand, nil
	}
	arg := args[0]
	if named, ok := arg.(*NamedArg); ok {
		arg = named.Value
	}
	if lit, ok := arg.(*LiteralExpr); ok && lit.Subtype == "STRING" {
		return operand + "." + lit.Value, nil
	}
	key, err := e.emitExpr(arg)
	if err != nil {
		return "", err
	}

	return operand + ".item(" + key + ")", nil
}

// defaultFilterTable grounds the Source-to-Target filter names documented
// for the emitter's translation table (spec.md section 4.3): scalar and
// collection vmethods, filters with a direct TT2 pipe-filter counterpart,
// filters requiring a bespoke formula, and filters with no Target
// equivalent at all.
var defaultFilterTable map[string]filterMapping

func init() {
	defaultFilterTable = map[string]filterMapping{
		// vmethod: Source filter -> TT2 method name, called as expr.NAME(args)
		"upper":      {Disposition: dispVMethod, Target: "upper"},
		"lower":      {Disposition: dispVMethod, Target: "lower"},
		"capitalize": {Disposition: dispVMethod, Target: "ucfirst"},
		"trim":       {Disposition: dispVMethod, Target: "trim"},
		"first":      {Disposition: dispVMethod, Target: "first"},
		"last":       {Disposition: dispVMethod, Target: "last"},
		"length":     {Disposition: dispVMethod, Target: "size"},
		"count":      {Disposition: dispVMethod, Target: "size"},
		"reverse":    {Disposition: dispVMethod, Target: "reverse"},
		"sort":       {Disposition: dispVMethod, Target: "sort"},
		"join":       {Disposition: dispVMethod, Target: "join"},
		"unique":     {Disposition: dispVMethod, Target: "unique"},
		"batch":      {Disposition: dispVMethod, Target: "batch"},
		"slice":      {Disposition: dispVMethod, Target: "slice"},
		"replace":    {Disposition: dispVMethod, Target: "replace"},
		"dictsort":   {Disposition: dispVMethod, Target: "sort"},
		"items":      {Disposition: dispVMethod, Target: "pairs"},
		"int":        {Disposition: dispVMethod, Target: "int"},
		"select":     {Disposition: dispVMethod, Target: "grep"},

		// filter: Source filter -> TT2 filter name, called as expr | NAME(args)
		"title":       {Disposition: dispFilter, Target: "title"},
		"striptags":   {Disposition: dispFilter, Target: "html_strip"},
		"escape":      {Disposition: dispFilter, Target: "html_entity"},
		"e":           {Disposition: dispFilter, Target: "html_entity"},
		"forceescape": {Disposition: dispFilter, Target: "html_entity"},
		"truncate":    {Disposition: dispFilter, Target: "truncate"},
		"wordwrap":    {Disposition: dispFilter, Target: "wrap"},
		"center":      {Disposition: dispFilter, Target: "center"},
		"indent":      {Disposition: dispFilter, Target: "indent"},
		"format":      {Disposition: dispFilter, Target: "format"},
		"urlencode":   {Disposition: dispFilter, Target: "uri"},
		"tojson":      {Disposition: dispFilter, Target: "json"},
		"pprint":      {Disposition: dispFilter, Target: "dumper"},

		// custom: no stock TT2 construct, rendered via a bespoke formula.
		"abs":       {Disposition: dispCustom, Target: "abs", Custom: absFormatter},
		"round":     {Disposition: dispCustom, Target: "format", Custom: roundFormatter},
		"default":   {Disposition: dispCustom, Target: "default", Custom: defaultFormatter},
		"d":         {Disposition: dispCustom, Target: "default", Custom: defaultFormatter},
		"min":       {Disposition: dispCustom, Target: "min", Custom: minFormatter},
		"max":       {Disposition: dispCustom, Target: "max", Custom: maxFormatter},
		"wordcount": {Disposition: dispCustom, Target: "wordcount", Custom: wordcountFormatter},
		"attr":      {Disposition: dispCustom, Target: "attr", Custom: attrFormatter},

		// none: no TT2 equivalent and no observable effect on rendered output,
		// so the filter application is elided entirely, keeping the operand.
		"safe":   {Disposition: dispNone, Target: "safe", Elide: true},
		"float":  {Disposition: dispNone, Target: "float", Elide: true},
		"list":   {Disposition: dispNone, Target: "list", Elide: true},
		"string": {Disposition: dispNone, Target: "string", Elide: true},
	}
}

// FilterTable is a mutable, overlay-capable view of the filter mapping:
// config-supplied entries take priority over defaultFilterTable, mirroring
// how the teacher's runtime filter registry let callers shadow builtins.
type FilterTable struct {
	overlay map[string]filterMapping
}

// NewFilterTable builds a table with no overlay entries; use Register to
// add or replace entries afterward.
func NewFilterTable() *FilterTable {
	return &FilterTable{overlay: map[string]filterMapping{}}
}

// Register adds or replaces a filter mapping. name must be non-empty.
// The disposition is stored as given and no formatter closure is
// attached, so a dispCustom entry registered here is emitted as a pipe
// filter named target. LoadConfig refuses "custom" entries from YAML
// before they reach Register.
func (ft *FilterTable) Register(name string, disposition filterDisposition, target string) error {
	if name == "" {
		return newEmitError("FILTER_REGISTER_EMPTY_NAME")
	}
	ft.overlay[name] = filterMapping{Disposition: disposition, Target: target}

	return nil
}

// Lookup resolves name against the overlay first, then the builtin table.
func (ft *FilterTable) Lookup(name string) (filterMapping, bool) {
	if ft != nil {
		if m, ok := ft.overlay[name]; ok {
			return m, true
		}
	}
	m, ok := defaultFilterTable[name]

	return m, ok
}
