package command

import (
	"github.com/coregx/qbuild/internal/reference"
)

// Table is a row source owned by a From or Join node.
type Table struct {
	Ref     reference.Reference
	Alias   string
	Columns map[string]Column
	sql     string
}

// NewTable parses "[database.]table[ [AS] alias]".
func NewTable(raw string) (*Table, error) {
	name, alias := reference.SplitAlias(raw)
	ref, err := reference.ResolveTable(name)
	if err != nil {
		return nil, err
	}

	t := &Table{Ref: ref, Columns: make(map[string]Column), sql: ref.String()}
	if alias != "" {
		quoted, err := reference.Alias(alias)
		if err != nil {
			return nil, err
		}
		t.Alias = reference.Clean(alias)
		t.sql += " AS " + quoted
	}
	return t, nil
}

// Name is the name columns use to qualify this table: the alias if set.
func (t *Table) Name() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Ref.Table
}

// Owns reports whether c is qualified with this table's name or alias.
func (t *Table) Owns(c Column) bool {
	if c.Ref.Table == "" {
		return false
	}
	if c.Ref.Database != "" && t.Ref.Database != "" && c.Ref.Database != t.Ref.Database {
		return false
	}
	return c.Ref.Table == t.Name() || c.Ref.Table == t.Ref.Table
}

// AddColumn registers c under its alias, or its column name.
func (t *Table) AddColumn(c Column) {
	t.Columns[c.Key()] = c
}

func (t *Table) String() string {
	return t.sql
}

// From renders one source table.
type From struct {
	base
	Table *Table
}

// NewFrom builds a FROM node for raw, see NewTable for the accepted forms.
func NewFrom(raw string) (*From, error) {
	t, err := NewTable(raw)
	if err != nil {
		return nil, clauseError(TagFrom, raw, err)
	}
	return &From{base: base{tag: TagFrom, fragments: []string{t.String()}}, Table: t}, nil
}
