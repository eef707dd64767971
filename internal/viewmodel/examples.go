package viewmodel

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed examples.toml
var builtinExamples string

// tablePlaceholder is replaced with the record table in example SQL.
const tablePlaceholder = "{table}"

// ExampleQuery is a named SQL statement.
type ExampleQuery struct {
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description" json:"description,omitempty"`
	SQL         string `toml:"sql" json:"sql"`
}

type exampleFile struct {
	Query []ExampleQuery `toml:"query"`
}

// Catalog is an ordered set of example queries.
type Catalog struct {
	queries []ExampleQuery
	index   map[string]int
}

// DefaultCatalog returns the built-in examples rendered for table.
func DefaultCatalog(table string) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int)}
	if err := c.decode(builtinExamples, "built-in examples"); err != nil {
		return nil, err
	}
	c.render(table)
	return c, nil
}

// LoadCatalog returns the built-in examples merged with the TOML file at
// path. Entries in the file replace built-ins of the same name and new
// names are appended. A missing file is not an error.
func LoadCatalog(path, table string) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int)}
	if err := c.decode(builtinExamples, "built-in examples"); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := c.decode(string(data), path); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read examples: %w", err)
		}
	}

	c.render(table)
	return c, nil
}

func (c *Catalog) decode(data, source string) error {
	var file exampleFile
	md, err := toml.Decode(data, &file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("failed to parse %s: unknown key %s", source, undecoded[0])
	}

	for _, q := range file.Query {
		q.Name = strings.TrimSpace(q.Name)
		if q.Name == "" || strings.TrimSpace(q.SQL) == "" {
			return fmt.Errorf("failed to parse %s: example queries need a name and sql", source)
		}
		if i, ok := c.index[q.Name]; ok {
			c.queries[i] = q
			continue
		}
		c.index[q.Name] = len(c.queries)
		c.queries = append(c.queries, q)
	}
	return nil
}

func (c *Catalog) render(table string) {
	if table == "" {
		table = "test_table"
	}
	for i := range c.queries {
		c.queries[i].SQL = strings.ReplaceAll(c.queries[i].SQL, tablePlaceholder, table)
	}
}

// Get returns the example called name.
func (c *Catalog) Get(name string) (ExampleQuery, bool) {
	i, ok := c.index[name]
	if !ok {
		return ExampleQuery{}, false
	}
	return c.queries[i], true
}

// All returns the examples in catalogue order.
func (c *Catalog) All() []ExampleQuery {
	out := make([]ExampleQuery, len(c.queries))
	copy(out, c.queries)
	return out
}

// Names returns the example names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.queries))
	for _, q := range c.queries {
		names = append(names, q.Name)
	}
	sort.Strings(names)
	return names
}
