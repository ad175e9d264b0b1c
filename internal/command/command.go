// Package command holds the clause nodes a query is assembled from. Every
// node validates its input when it is created and keeps its rendered SQL
// fragments together with the bindings those fragments reference, in order.
package command

import (
	"strings"
)

// Clause tags.
const (
	TagSelect         = "SELECT"
	TagSelectDistinct = "SELECT DISTINCT"
	TagFrom           = "FROM"
	TagInnerJoin      = "INNER JOIN"
	TagLeftJoin       = "LEFT JOIN"
	TagRightJoin      = "RIGHT JOIN"
	TagWhere          = "WHERE"
	TagGroupBy        = "GROUP BY"
	TagHaving         = "HAVING"
	TagOrderBy        = "ORDER BY"
	TagLimit          = "LIMIT"
	TagOffset         = "OFFSET"
)

// Command is one node of a query.
type Command interface {
	// Tag names the clause the node belongs to.
	Tag() string
	// Fragments returns the rendered SQL pieces of the node.
	Fragments() []string
	// Bindings returns the values referenced by placeholders in Fragments,
	// left to right.
	Bindings() []any
}

// Connected is a Command joined to its predecessor by AND or OR.
type Connected interface {
	Command
	Connector() string
}

// base carries the rendered state shared by all nodes.
type base struct {
	tag       string
	fragments []string
	args      []any
}

func (b *base) Tag() string         { return b.tag }
func (b *base) Fragments() []string { return b.fragments }
func (b *base) Bindings() []any     { return b.args }

// operators is the comparison allow-list, keyed by normalized spelling.
var operators = map[string]struct{}{
	"=":          {},
	"!=":         {},
	"<>":         {},
	"<":          {},
	"<=":         {},
	">":          {},
	">=":         {},
	"LIKE":       {},
	"NOT LIKE":   {},
	"BETWEEN":    {},
	"REGEXP":     {},
	"NOT REGEXP": {},
}

// joinOperators restricts ON comparisons to column-to-column operators.
var joinOperators = map[string]struct{}{
	"=":  {},
	"!=": {},
	"<>": {},
	"<":  {},
	"<=": {},
	">":  {},
	">=": {},
}

func normalizeOperator(op string) string {
	return strings.ToUpper(strings.Join(strings.Fields(op), " "))
}

// splitList explodes comma separated entries, keeping their order and
// dropping empty ones.
func splitList(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
