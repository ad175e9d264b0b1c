// Copyright (c) 2025 COREGX. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package command

import (
	"fmt"
	"strings"

	"github.com/coregx/qbuild/internal/operand"
)

// GroupType says how a top-level condition group attaches to the groups
// before it.
type GroupType string

// Group types.
const (
	GroupWhere GroupType = "where"
	GroupAnd   GroupType = "and"
	GroupOr    GroupType = "or"
)

// ParseGroupType validates s case-insensitively. The empty string means GroupWhere.
func ParseGroupType(s string) (GroupType, error) {
	switch g := GroupType(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupWhere, nil
	case GroupWhere, GroupAnd, GroupOr:
		return g, nil
	}
	return "", clauseError(TagWhere, s, ErrInvalidGroupType)
}

// Connector returns the keyword joining a group of this type to the previous one.
func (g GroupType) Connector() string {
	if g == GroupOr {
		return "OR"
	}
	return "AND"
}

// Predicates for empty IN and NOT IN lists. They are parenthesized so an
// OR chain never contains a bare tautology.
const (
	matchNone = "(0=1)"
	matchAll  = "(1=1)"
)

type condPart struct {
	conj string
	sql  string
	args []any
}

// Cond is a boolean group of predicates. The first predicate opens the
// group; every later predicate or nested group is chained with AND or OR.
//
//	NewCond("name", "=", "David").And("age", ">", 21)
//	    -> `name` = ? AND `age` > ?
//	NewCond("a", "=", 1).AndGroup(NewCond("b", "=", 2).Or("c", "=", 3))
//	    -> `a` = ? AND (`b` = ? OR `c` = ?)
//
// The first invalid predicate is kept in Err and the rest of the chain is ignored.
type Cond struct {
	parts []condPart
	err   error
}

// NewCond opens a group with "<op1> <operator> <op2>". op1 is a column; op2
// is classified by operand.Classify.
func NewCond(op1 any, operator string, op2 any) *Cond {
	return (&Cond{}).add("", compare, op1, operator, op2)
}

// NewInCond opens a group with "<col> IN (...)".
func NewInCond(col any, values ...any) *Cond {
	return (&Cond{}).addIn("", col, false, values)
}

// NewNotInCond opens a group with "<col> NOT IN (...)".
func NewNotInCond(col any, values ...any) *Cond {
	return (&Cond{}).addIn("", col, true, values)
}

// NewNullCond opens a group with "<col> IS NULL".
func NewNullCond(col any) *Cond {
	return (&Cond{}).addNull("", col, false)
}

// NewNotNullCond opens a group with "<col> IS NOT NULL".
func NewNotNullCond(col any) *Cond {
	return (&Cond{}).addNull("", col, true)
}

// And chains "AND <op1> <operator> <op2>".
func (c *Cond) And(op1 any, operator string, op2 any) *Cond {
	return c.add("AND", compare, op1, operator, op2)
}

// Or chains "OR <op1> <operator> <op2>".
func (c *Cond) Or(op1 any, operator string, op2 any) *Cond {
	return c.add("OR", compare, op1, operator, op2)
}

// AndIn chains "AND <col> IN (...)".
func (c *Cond) AndIn(col any, values ...any) *Cond { return c.addIn("AND", col, false, values) }

// OrIn chains "OR <col> IN (...)".
func (c *Cond) OrIn(col any, values ...any) *Cond { return c.addIn("OR", col, false, values) }

// AndNotIn chains "AND <col> NOT IN (...)".
func (c *Cond) AndNotIn(col any, values ...any) *Cond { return c.addIn("AND", col, true, values) }

// OrNotIn chains "OR <col> NOT IN (...)".
func (c *Cond) OrNotIn(col any, values ...any) *Cond { return c.addIn("OR", col, true, values) }

// AndNull chains "AND <col> IS NULL".
func (c *Cond) AndNull(col any) *Cond { return c.addNull("AND", col, false) }

// OrNull chains "OR <col> IS NULL".
func (c *Cond) OrNull(col any) *Cond { return c.addNull("OR", col, false) }

// AndNotNull chains "AND <col> IS NOT NULL".
func (c *Cond) AndNotNull(col any) *Cond { return c.addNull("AND", col, true) }

// OrNotNull chains "OR <col> IS NOT NULL".
func (c *Cond) OrNotNull(col any) *Cond { return c.addNull("OR", col, true) }

// AndGroup chains "AND (<sub>)".
func (c *Cond) AndGroup(sub *Cond) *Cond { return c.addGroup("AND", sub) }

// OrGroup chains "OR (<sub>)".
func (c *Cond) OrGroup(sub *Cond) *Cond { return c.addGroup("OR", sub) }

// Err returns the first error recorded while building the group.
func (c *Cond) Err() error {
	return c.err
}

// clone returns a copy of c that later chaining on c does not affect.
func (c *Cond) clone() *Cond {
	parts := make([]condPart, len(c.parts))
	for i, p := range c.parts {
		p.args = append([]any(nil), p.args...)
		parts[i] = p
	}
	return &Cond{parts: parts, err: c.err}
}

// Len returns the number of predicates and nested groups directly in c.
func (c *Cond) Len() int {
	return len(c.parts)
}

// Render returns the group body, without surrounding parentheses, and its bindings.
func (c *Cond) Render() (string, []any) {
	var sb strings.Builder
	var args []any
	for i, p := range c.parts {
		if i > 0 {
			sb.WriteString(" " + p.conj + " ")
		}
		sb.WriteString(p.sql)
		args = append(args, p.args...)
	}
	return sb.String(), args
}

type predicateFunc func(op1 any, operator string, op2 any) (string, []any, error)

func (c *Cond) add(conj string, build predicateFunc, op1 any, operator string, op2 any) *Cond {
	if c.err != nil {
		return c
	}
	sql, args, err := build(op1, operator, op2)
	if err != nil {
		c.err = err
		return c
	}
	c.parts = append(c.parts, condPart{conj: conj, sql: sql, args: args})
	return c
}

func (c *Cond) addIn(conj string, col any, not bool, values []any) *Cond {
	return c.add(conj, func(op1 any, _ string, _ any) (string, []any, error) {
		return inPredicate(op1, not, values)
	}, col, "", nil)
}

func (c *Cond) addNull(conj string, col any, not bool) *Cond {
	return c.add(conj, func(op1 any, _ string, _ any) (string, []any, error) {
		left, args, err := leftOperand(op1)
		if err != nil {
			return "", nil, clauseError(TagWhere, op1, err)
		}
		if not {
			return left + " IS NOT NULL", args, nil
		}
		return left + " IS NULL", args, nil
	}, col, "", nil)
}

func (c *Cond) addGroup(conj string, sub *Cond) *Cond {
	if c.err != nil {
		return c
	}
	if sub == nil || sub.Len() == 0 {
		if sub != nil && sub.err != nil {
			c.err = sub.err
		}
		return c
	}
	if sub.err != nil {
		c.err = sub.err
		return c
	}
	sql, args := sub.Render()
	if sub.Len() > 1 {
		sql = "(" + sql + ")"
	}
	c.parts = append(c.parts, condPart{conj: conj, sql: sql, args: args})
	return c
}

// leftOperand renders the column side of a predicate. Strings are always
// columns here; explicit operands keep their tag.
func leftOperand(op1 any) (string, []any, error) {
	var op operand.Operand
	switch v := op1.(type) {
	case string:
		op = operand.Col(v)
	case operand.Operand:
		op = v
	default:
		op = operand.Val(v)
	}
	return op.Render()
}

func compare(op1 any, operator string, op2 any) (string, []any, error) {
	op := normalizeOperator(operator)
	if _, ok := operators[op]; !ok {
		return "", nil, clauseError(TagWhere, operator, ErrInvalidOperator)
	}

	left, args, err := leftOperand(op1)
	if err != nil {
		return "", nil, clauseError(TagWhere, op1, err)
	}

	right, err := operand.Classify(op2)
	if err != nil {
		return "", nil, clauseError(TagWhere, op2, err)
	}

	if op == "BETWEEN" {
		if right.Kind() != operand.KindList || right.Len() != 2 {
			return "", nil, clauseError(TagWhere, op2, fmt.Errorf("%w: BETWEEN needs exactly two values", ErrInvalidBinding))
		}
		parts, rightArgs, err := right.RenderItems()
		if err != nil {
			return "", nil, clauseError(TagWhere, op2, err)
		}
		return left + " BETWEEN " + parts[0] + " AND " + parts[1], append(args, rightArgs...), nil
	}

	if right.Kind() == operand.KindList {
		return "", nil, clauseError(TagWhere, op2, fmt.Errorf("%w: list operand needs IN", ErrInvalidBinding))
	}

	// A NULL literal never compares equal; rewrite to the IS form.
	if right.Kind() == operand.KindLiteral && right.Value() == nil {
		switch op {
		case "=":
			return left + " IS NULL", args, nil
		case "!=", "<>":
			return left + " IS NOT NULL", args, nil
		}
	}

	rendered, rightArgs, err := right.Render()
	if err != nil {
		return "", nil, clauseError(TagWhere, op2, err)
	}
	return left + " " + op + " " + rendered, append(args, rightArgs...), nil
}

func inPredicate(col any, not bool, values []any) (string, []any, error) {
	left, args, err := leftOperand(col)
	if err != nil {
		return "", nil, clauseError(TagWhere, col, err)
	}

	var list operand.Operand
	if len(values) == 1 {
		if single, err := operand.Classify(values[0]); err == nil && single.Kind() == operand.KindList {
			list = single
		}
	}
	if list.Kind() != operand.KindList {
		if list, err = operand.Classify(values); err != nil {
			return "", nil, clauseError(TagWhere, values, err)
		}
	}

	if list.Len() == 0 {
		if not {
			return matchAll, nil, nil
		}
		return matchNone, nil, nil
	}

	rendered, listArgs, err := list.Render()
	if err != nil {
		return "", nil, clauseError(TagWhere, values, err)
	}
	keyword := " IN "
	if not {
		keyword = " NOT IN "
	}
	return left + keyword + rendered, append(args, listArgs...), nil
}

// Where is a top-level condition group. It renders as one parenthesized
// fragment; the serializer prefixes the first group with the clause keyword
// and later ones with their connector. Having nodes share this type.
//
// Cond is a snapshot taken when the node was built.
type Where struct {
	base
	Group GroupType
	Cond  *Cond
}

// NewWhere wraps c as a WHERE group.
func NewWhere(group GroupType, c *Cond) (*Where, error) {
	return newGroupNode(TagWhere, group, c)
}

// NewHaving wraps c as a HAVING group.
func NewHaving(group GroupType, c *Cond) (*Where, error) {
	return newGroupNode(TagHaving, group, c)
}

func newGroupNode(tag string, group GroupType, c *Cond) (*Where, error) {
	g, err := ParseGroupType(string(group))
	if err != nil {
		return nil, clauseError(tag, group, ErrInvalidGroupType)
	}
	if c == nil {
		return nil, clauseError(tag, nil, fmt.Errorf("%w: empty condition", ErrInvalidOperator))
	}
	if c.err != nil {
		return nil, relabel(tag, c.err)
	}
	if c.Len() == 0 {
		return nil, clauseError(tag, nil, fmt.Errorf("%w: empty condition", ErrInvalidOperator))
	}

	snapshot := c.clone()
	sql, args := snapshot.Render()
	if sql != matchNone && sql != matchAll {
		sql = "(" + sql + ")"
	}
	return &Where{
		base:  base{tag: tag, fragments: []string{sql}, args: args},
		Group: g,
		Cond:  snapshot,
	}, nil
}

// Connector returns AND or OR.
func (w *Where) Connector() string {
	return w.Group.Connector()
}

func relabel(tag string, err error) error {
	if ce, ok := err.(*ClauseError); ok && ce.Clause != tag {
		return &ClauseError{Clause: tag, Input: ce.Input, Err: ce.Err}
	}
	return err
}
