// Copyright (c) 2025 COREGX. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package operand decides whether a clause operand is a column reference or a
// literal, and renders literals as positional placeholders with their bindings.
package operand

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/coregx/qbuild/internal/reference"
)

// ErrInvalidBinding is returned for literal values a prepared statement cannot bind.
var ErrInvalidBinding = errors.New("invalid binding")

// Placeholder is the positional placeholder emitted for every literal.
const Placeholder = "?"

// Kind tags an Operand.
type Kind int

// Operand kinds.
const (
	KindReference Kind = iota + 1
	KindLiteral
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindLiteral:
		return "literal"
	case KindList:
		return "list"
	}
	return "unknown"
}

var (
	identifierSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)
	aggregateCall     = regexp.MustCompile(`(?i)^\s*(COUNT|SUM|AVG|MIN|MAX)\s*\(\s*(DISTINCT\s+)?([^()]+?)\s*\)\s*$`)
)

// Operand is either a column reference, a literal scalar or a list of operands.
type Operand struct {
	kind  Kind
	raw   string
	value any
	items []Operand
}

// Col marks raw as a column reference regardless of its shape.
func Col(raw string) Operand {
	return Operand{kind: KindReference, raw: raw}
}

// Val marks v as a literal regardless of its shape.
func Val(v any) Operand {
	return Operand{kind: KindLiteral, value: v}
}

// List builds a multi-value operand from already classified items.
func List(items ...Operand) Operand {
	return Operand{kind: KindList, items: items}
}

// Kind returns the operand tag.
func (o Operand) Kind() Kind {
	return o.kind
}

// Len returns the number of items of a list operand, or 1 otherwise.
func (o Operand) Len() int {
	if o.kind == KindList {
		return len(o.items)
	}
	return 1
}

// Items returns the elements of a list operand.
func (o Operand) Items() []Operand {
	return o.items
}

// Value returns the literal value.
func (o Operand) Value() any {
	return o.value
}

// Classify tags v. Explicit Operands pass through untouched; strings go
// through IsReference; slices and arrays become lists whose elements are
// classified one by one; every other value is a literal.
func Classify(v any) (Operand, error) {
	switch val := v.(type) {
	case Operand:
		return val, nil
	case string:
		if IsReference(val) {
			return Col(val), nil
		}
		return Val(val), nil
	case []byte, driver.Valuer, time.Time, nil:
		return Val(val), nil
	case []any:
		return classifyList(val)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return classifyList(items)
	}
	return Val(v), nil
}

func classifyList(values []any) (Operand, error) {
	items := make([]Operand, 0, len(values))
	for _, v := range values {
		item, err := Classify(v)
		if err != nil {
			return Operand{}, err
		}
		if item.kind == KindList {
			return Operand{}, fmt.Errorf("%w: nested list %v", ErrInvalidBinding, v)
		}
		items = append(items, item)
	}
	return List(items...), nil
}

// IsReference is the string heuristic: a value is a column reference when it
// is backtick-wrapped, or when it is dotted and every segment is an identifier
// with a non-empty trailing segment. Everything else binds as a literal, so
// "3.14", "a.b@c.com" and "John" are values while "user.id" is a column.
func IsReference(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "`") && strings.HasSuffix(trimmed, "`") {
		return true
	}
	if !strings.Contains(trimmed, ".") {
		return false
	}

	segments := strings.Split(trimmed, ".")
	if len(segments) > 3 {
		return false
	}
	last := len(segments) - 1
	for i, seg := range segments {
		if i == last && seg == reference.Wildcard {
			continue
		}
		if !identifierSegment.MatchString(seg) {
			return false
		}
	}
	return segments[last] != ""
}

// Render emits the SQL fragment for o and the values it binds.
// A list renders parenthesized: "(?, `t`.`c`, ?)".
func (o Operand) Render() (string, []any, error) {
	switch o.kind {
	case KindReference:
		col, err := Column(o.raw)
		return col, nil, err
	case KindLiteral:
		return Bind(o.value)
	case KindList:
		parts, args, err := o.RenderItems()
		if err != nil {
			return "", nil, err
		}
		return "(" + strings.Join(parts, ", ") + ")", args, nil
	}
	return "", nil, fmt.Errorf("%w: unclassified operand", ErrInvalidBinding)
}

// RenderItems renders every element of a list operand separately, keeping
// bindings in element order.
func (o Operand) RenderItems() ([]string, []any, error) {
	if o.kind != KindList {
		sql, args, err := o.Render()
		if err != nil {
			return nil, nil, err
		}
		return []string{sql}, args, nil
	}

	parts := make([]string, 0, len(o.items))
	var args []any
	for _, item := range o.items {
		sql, itemArgs, err := item.Render()
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, sql)
		args = append(args, itemArgs...)
	}
	return parts, args, nil
}

// Column renders raw in column position. Besides plain references it accepts
// the aggregate calls COUNT, SUM, AVG, MIN and MAX around a reference or *.
func Column(raw string) (string, error) {
	if m := aggregateCall.FindStringSubmatch(raw); m != nil {
		inner, err := reference.Resolve(m[3])
		if err != nil {
			return "", err
		}
		distinct := ""
		if m[2] != "" {
			distinct = "DISTINCT "
		}
		return strings.ToUpper(m[1]) + "(" + distinct + inner.String() + ")", nil
	}

	ref, err := reference.Resolve(raw)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

// Bind returns the placeholder for v together with v as its only binding.
func Bind(v any) (string, []any, error) {
	if !IsScalar(v) {
		return "", nil, fmt.Errorf("%w: %T", ErrInvalidBinding, v)
	}
	return Placeholder, []any{v}, nil
}

// IsScalar reports whether v can be bound to a single placeholder.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, []byte, time.Time, driver.Valuer:
		return true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool, reflect.String:
		return true
	}
	return false
}
