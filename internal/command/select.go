package command

import (
	"regexp"
	"sort"

	"github.com/ecodeclub/ekit/slice"

	"github.com/coregx/qbuild/internal/operand"
	"github.com/coregx/qbuild/internal/reference"
)

var selectAlias = regexp.MustCompile(`(?i)^(.+?)\s+AS\s+(.+)$`)

// Column is one projection entry.
type Column struct {
	Ref   reference.Reference
	Name  string
	Alias string
	sql   string
}

// NewColumn resolves raw (a reference or an aggregate call) and an optional alias.
func NewColumn(raw, alias string) (Column, error) {
	rendered, err := operand.Column(raw)
	if err != nil {
		return Column{}, err
	}
	ref, _ := reference.Resolve(raw)

	c := Column{Ref: ref, Name: reference.Clean(raw), sql: rendered}
	if alias != "" {
		quoted, err := reference.Alias(alias)
		if err != nil {
			return Column{}, err
		}
		c.Alias = reference.Clean(alias)
		c.sql += " AS " + quoted
	}
	return c, nil
}

// Key is the name the column is known by in a result row.
func (c Column) Key() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Ref.Column
}

func (c Column) String() string {
	return c.sql
}

// Select renders the projection list.
type Select struct {
	base
	Columns []Column
}

// NewSelect builds a projection from a list of entries. No entries, or only
// "*" and empty entries, select everything. Entries may hold several
// comma-separated columns and "<ref> AS <alias>" pairs.
func NewSelect(distinct bool, entries ...string) (*Select, error) {
	pairs := make([][2]string, 0, len(entries))
	for _, entry := range splitList(entries) {
		if m := selectAlias.FindStringSubmatch(entry); m != nil {
			pairs = append(pairs, [2]string{m[1], m[2]})
			continue
		}
		pairs = append(pairs, [2]string{entry, ""})
	}
	return newSelect(distinct, pairs)
}

// NewSelectMap builds a projection from reference -> alias pairs. An empty
// alias selects the reference as is. Keys are emitted in sorted order so the
// generated SQL is deterministic.
func NewSelectMap(distinct bool, columns map[string]string) (*Select, error) {
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := slice.Map(keys, func(_ int, k string) [2]string {
		return [2]string{k, columns[k]}
	})
	return newSelect(distinct, pairs)
}

func newSelect(distinct bool, pairs [][2]string) (*Select, error) {
	tag := TagSelect
	if distinct {
		tag = TagSelectDistinct
	}

	s := &Select{base: base{tag: tag}}
	for _, p := range pairs {
		col, err := NewColumn(p[0], p[1])
		if err != nil {
			return nil, clauseError(tag, p[0], err)
		}
		s.Columns = append(s.Columns, col)
	}

	if len(s.Columns) == 0 {
		s.Columns = []Column{{Ref: reference.Reference{Column: reference.Wildcard}, sql: reference.Wildcard}}
	}
	s.fragments = slice.Map(s.Columns, func(_ int, c Column) string { return c.String() })
	return s, nil
}

// Distinct reports whether the projection removes duplicate rows.
func (s *Select) Distinct() bool {
	return s.tag == TagSelectDistinct
}
