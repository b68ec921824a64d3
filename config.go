package jinjatt

import (
	"os"

	"github.com/pkg/errors"
	v2 "gopkg.in/yaml.v2"
)

// FilterOverlayEntry is the YAML-facing shape of one FilterTable entry;
// Disposition is decoded by name since filterDisposition has no YAML tag
// support of its own.
type FilterOverlayEntry struct {
	Name        string `yaml:"name"`
	Disposition string `yaml:"disposition"`
	Target      string `yaml:"target"`
}

// ConfigFile is the on-disk YAML shape loaded by LoadConfig, kept separate
// from Config so the YAML schema can evolve without disturbing the
// in-memory FilterTable representation.
type ConfigFile struct {
	VarStart     string               `yaml:"var_start"`
	VarEnd       string               `yaml:"var_end"`
	StmtStart    string               `yaml:"stmt_start"`
	StmtEnd      string               `yaml:"stmt_end"`
	CommentStart string               `yaml:"comment_start"`
	CommentEnd   string               `yaml:"comment_end"`
	Debug        bool                 `yaml:"debug"`
	Filters      []FilterOverlayEntry `yaml:"filters"`
}

// Config holds everything that customizes one Transpiler: the Source
// delimiters the tokenizer honors, the filter overlay the emitter
// consults ahead of defaultFilterTable, and a debug flag the CLI uses to
// decide whether to dump the intermediate token stream and AST.
type Config struct {
	Delimiters Delimiters
	Debug      bool
	Filters    *FilterTable
}

// DefaultConfig returns a Config with Jinja2-style delimiters, debug
// logging off, and an empty filter overlay.
func DefaultConfig() *Config {
	return &Config{
		Delimiters: DefaultDelimiters(),
		Filters:    NewFilterTable(),
	}
}

var dispositionNames = map[string]filterDisposition{
	"vmethod": dispVMethod,
	"filter":  dispFilter,
	"custom":  dispCustom,
	"none":    dispNone,
}

// LoadConfig reads a YAML config file at path and merges it onto
// DefaultConfig: delimiters default to Jinja2's when the file omits them,
// and filter overlay entries are registered in file order.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}

	var cf ConfigFile
	if err := v2.Unmarshal(data, &cf); err != nil {
		return nil, errors.Wrapf(err, "parsing config %q", path)
	}

	cfg := DefaultConfig()
	cfg.Debug = cf.Debug

	if cf.VarStart != "" {
		cfg.Delimiters.VarStart = cf.VarStart
	}
	if cf.VarEnd != "" {
		cfg.Delimiters.VarEnd = cf.VarEnd
	}
	if cf.StmtStart != "" {
		cfg.Delimiters.StmtStart = cf.StmtStart
	}
	if cf.StmtEnd != "" {
		cfg.Delimiters.StmtEnd = cf.StmtEnd
	}
	if cf.CommentStart != "" {
		cfg.Delimiters.CommentStart = cf.CommentStart
	}
	if cf.CommentEnd != "" {
		cfg.Delimiters.CommentEnd = cf.CommentEnd
	}

	for _, entry := range cf.Filters {
		d, ok := dispositionNames[entry.Disposition]
		if !ok {
			return nil, errors.Errorf("config %q: unknown filter disposition %q for %q", path, entry.Disposition, entry.Name)
		}
		if d == dispCustom {
			return nil, errors.Errorf("config %q: filter %q: disposition \"custom\" requires a Go formatter closure and cannot be supplied from YAML", path, entry.Name)
		}
		if err := cfg.Filters.Register(entry.Name, d, entry.Target); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
