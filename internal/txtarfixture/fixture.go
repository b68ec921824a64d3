// Package txtarfixture loads Source/Target golden test pairs from txtar
// archives under testdata/golden, so a new scenario is one file addition
// rather than a new Go literal.
package txtarfixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/tools/txtar"
)

// Case is one golden scenario: a Source template and the Target text the
// emitter is expected to produce for it, plus an optional free-form
// comment carried in the archive's leading text.
type Case struct {
	Name    string
	Comment string
	Source  string
	Target  string
}

// Load parses every `*.txtar` file in dir into a Case. Each archive must
// contain exactly two files named `source` and `target`; anything else is
// a fixture-authoring error and fails loudly rather than skipping.
func Load(dir string) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture dir %q", dir)
	}

	var cases []Case
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txtar" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		archive, err := txtar.ParseFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing fixture %q", path)
		}

		c := Case{
			Name:    strippedExt(entry.Name()),
			Comment: string(archive.Comment),
		}
		var haveSource, haveTarget bool
		for _, f := range archive.Files {
			switch f.Name {
			case "source":
				c.Source = string(f.Data)
				haveSource = true
			case "target":
				c.Target = string(f.Data)
				haveTarget = true
			default:
				return nil, fmt.Errorf("fixture %q: unexpected section %q", path, f.Name)
			}
		}
		if !haveSource || !haveTarget {
			return nil, fmt.Errorf("fixture %q: must contain both a %q and a %q section", path, "source", "target")
		}
		cases = append(cases, c)
	}

	return cases, nil
}

func strippedExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
