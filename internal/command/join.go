package command

import (
	"strings"

	"github.com/coregx/qbuild/internal/operand"
)

// JoinType selects the join keyword.
type JoinType string

// Supported join types.
const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
)

var joinTags = map[JoinType]string{
	JoinInner: TagInnerJoin,
	JoinLeft:  TagLeftJoin,
	JoinRight: TagRightJoin,
}

// ParseJoinType validates s case-insensitively. The empty string means JoinInner.
func ParseJoinType(s string) (JoinType, error) {
	jt := JoinType(strings.ToLower(strings.TrimSpace(s)))
	if jt == "" {
		return JoinInner, nil
	}
	if _, ok := joinTags[jt]; !ok {
		return "", clauseError("JOIN", s, ErrInvalidJoinType)
	}
	return jt, nil
}

// JoinCond collects the ON predicates of a join. On compares two columns and
// never binds; Where behaves like a top-level WHERE scoped to the join.
//
//	On("orders.user_id", "=", "users.id").Where("users.active", "=", true)
//	    -> `orders`.`user_id` = `users`.`id` AND `users`.`active` = ?
type JoinCond struct {
	cond Cond
}

// On opens a join condition comparing two columns.
func On(first, operator, second string) *JoinCond {
	return (&JoinCond{}).On(first, operator, second)
}

// On chains "AND <first> <operator> <second>" comparing two columns.
func (j *JoinCond) On(first, operator, second string) *JoinCond {
	j.cond.add(j.conj("AND"), columnCompare, first, operator, second)
	return j
}

// OrOn chains "OR <first> <operator> <second>" comparing two columns.
func (j *JoinCond) OrOn(first, operator, second string) *JoinCond {
	j.cond.add(j.conj("OR"), columnCompare, first, operator, second)
	return j
}

// Where chains "AND <op1> <operator> <op2>" with op2 classified like in a WHERE.
func (j *JoinCond) Where(op1 any, operator string, op2 any) *JoinCond {
	j.cond.add(j.conj("AND"), compare, op1, operator, op2)
	return j
}

// OrWhere chains "OR <op1> <operator> <op2>".
func (j *JoinCond) OrWhere(op1 any, operator string, op2 any) *JoinCond {
	j.cond.add(j.conj("OR"), compare, op1, operator, op2)
	return j
}

// WhereCond chains "AND (<c>)".
func (j *JoinCond) WhereCond(c *Cond) *JoinCond {
	j.cond.addGroup(j.conj("AND"), c)
	return j
}

// OrWhereCond chains "OR (<c>)".
func (j *JoinCond) OrWhereCond(c *Cond) *JoinCond {
	j.cond.addGroup(j.conj("OR"), c)
	return j
}

// Err returns the first error recorded while building the condition.
func (j *JoinCond) Err() error {
	return j.cond.err
}

func (j *JoinCond) conj(c string) string {
	if j.cond.Len() == 0 {
		return ""
	}
	return c
}

func columnCompare(op1 any, operator string, op2 any) (string, []any, error) {
	op := normalizeOperator(operator)
	if _, ok := joinOperators[op]; !ok {
		return "", nil, clauseError("ON", operator, ErrInvalidOperator)
	}

	first, err := operand.Column(op1.(string))
	if err != nil {
		return "", nil, clauseError("ON", op1, err)
	}
	second, err := operand.Column(op2.(string))
	if err != nil {
		return "", nil, clauseError("ON", op2, err)
	}
	return first + " " + op + " " + second, nil, nil
}

// Join renders one joined table and its ON condition.
type Join struct {
	base
	Type  JoinType
	Table *Table
}

// NewJoin validates kind, parses table like NewTable and renders on.
// A nil or empty on produces a join without an ON clause.
func NewJoin(kind JoinType, table string, on *JoinCond) (*Join, error) {
	jt, err := ParseJoinType(string(kind))
	if err != nil {
		return nil, err
	}
	tag := joinTags[jt]

	t, err := NewTable(table)
	if err != nil {
		return nil, clauseError(tag, table, err)
	}

	j := &Join{base: base{tag: tag}, Type: jt, Table: t}
	fragment := t.String()
	if on != nil {
		if on.Err() != nil {
			return nil, relabel(tag, on.Err())
		}
		if on.cond.Len() > 0 {
			sql, args := on.cond.Render()
			fragment += " ON " + sql
			j.args = args
		}
	}
	j.fragments = []string{fragment}
	return j, nil
}
