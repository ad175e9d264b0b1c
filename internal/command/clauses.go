package command

import (
	"strconv"
	"strings"

	"github.com/ecodeclub/ekit/slice"

	"github.com/coregx/qbuild/internal/operand"
)

// GroupBy renders a GROUP BY column list.
type GroupBy struct {
	base
}

// NewGroupBy resolves every column; entries may hold comma-separated lists.
func NewGroupBy(cols ...string) (*GroupBy, error) {
	g := &GroupBy{base: base{tag: TagGroupBy}}
	for _, col := range splitList(cols) {
		rendered, err := operand.Column(col)
		if err != nil {
			return nil, clauseError(TagGroupBy, col, err)
		}
		g.fragments = append(g.fragments, rendered)
	}
	if len(g.fragments) == 0 {
		return nil, clauseError(TagGroupBy, nil, ErrInvalidReference)
	}
	return g, nil
}

// Direction is an ORDER BY direction.
type Direction string

// Directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderTerm is one ORDER BY entry. An empty Direction leaves the database default.
type OrderTerm struct {
	Column    string
	Direction Direction
}

func (t OrderTerm) String() string {
	if t.Direction == "" {
		return t.Column
	}
	return t.Column + " " + string(t.Direction)
}

// OrderBy renders ORDER BY terms.
type OrderBy struct {
	base
	Terms []OrderTerm
}

// NewOrderBy parses entries of the form "col", "col ASC" or "col DESC";
// entries may hold comma-separated lists.
func NewOrderBy(cols ...string) (*OrderBy, error) {
	o := &OrderBy{base: base{tag: TagOrderBy}}
	for _, entry := range splitList(cols) {
		term, err := parseOrderTerm(entry)
		if err != nil {
			return nil, clauseError(TagOrderBy, entry, err)
		}
		o.Terms = append(o.Terms, term)
	}
	if len(o.Terms) == 0 {
		return nil, clauseError(TagOrderBy, nil, ErrInvalidReference)
	}
	o.fragments = slice.Map(o.Terms, func(_ int, t OrderTerm) string { return t.String() })
	return o, nil
}

func parseOrderTerm(entry string) (OrderTerm, error) {
	fields := strings.Fields(entry)
	var dir Direction
	switch len(fields) {
	case 1:
	case 2:
		switch d := Direction(strings.ToUpper(fields[1])); d {
		case Asc, Desc:
			dir = d
		default:
			return OrderTerm{}, ErrInvalidDirection
		}
	default:
		return OrderTerm{}, ErrInvalidDirection
	}

	col, err := operand.Column(fields[0])
	if err != nil {
		return OrderTerm{}, err
	}
	return OrderTerm{Column: col, Direction: dir}, nil
}

// Limit renders LIMIT n.
type Limit struct {
	base
	N int
}

// NewLimit rejects negative n.
func NewLimit(n int) (*Limit, error) {
	if n < 0 {
		return nil, clauseError(TagLimit, n, ErrInvalidLimit)
	}
	return &Limit{base: base{tag: TagLimit, fragments: []string{strconv.Itoa(n)}}, N: n}, nil
}

// Offset renders OFFSET n.
type Offset struct {
	base
	N int
}

// NewOffset rejects negative n.
func NewOffset(n int) (*Offset, error) {
	if n < 0 {
		return nil, clauseError(TagOffset, n, ErrInvalidLimit)
	}
	return &Offset{base: base{tag: TagOffset, fragments: []string{strconv.Itoa(n)}}, N: n}, nil
}
