// Package reference parses dotted, optionally backticked identifiers into
// database/table/column triplets and renders them back with MySQL quoting.
package reference

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned when an identifier cleans down to nothing
// usable, or has more segments than database.table.column.
var ErrInvalidReference = errors.New("invalid reference")

// Wildcard is the column name that renders unquoted.
const Wildcard = "*"

var (
	// identifierChars matches the allow-listed identifier characters.
	// The first contiguous run wins; anything after it is discarded.
	identifierChars = regexp.MustCompile(`[A-Za-z0-9_\-.]+`)

	// aliasSplit matches "<ref> AS <alias>" and "<ref> <alias>".
	aliasSplit = regexp.MustCompile(`(?i)^\s*(\S+)\s+(?:AS\s+)?(\S+)\s*$`)
)

// Reference is a parsed column reference.
type Reference struct {
	Database string
	Table    string
	Column   string
}

// Clean strips backticks and whitespace and keeps the first contiguous run of
// allowed characters. Cleaning a clean identifier returns it unchanged.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "`", "")
	s = strings.TrimSpace(s)
	return identifierChars.FindString(s)
}

// Resolve parses raw into a Reference.
//
//	"id"            -> column
//	"user.id"       -> table.column
//	"app.user.id"   -> database.table.column
//	"user.*"        -> table.*
func Resolve(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "`", ""))
	if trimmed == Wildcard {
		return Reference{Column: Wildcard}, nil
	}

	if prefix, ok := strings.CutSuffix(trimmed, "."+Wildcard); ok {
		table, err := ResolveTable(prefix)
		if err != nil {
			return Reference{}, err
		}
		return Reference{Database: table.Database, Table: table.Table, Column: Wildcard}, nil
	}

	segments, err := split(trimmed)
	if err != nil {
		return Reference{}, err
	}

	switch len(segments) {
	case 1:
		return Reference{Column: segments[0]}, nil
	case 2:
		return Reference{Table: segments[0], Column: segments[1]}, nil
	case 3:
		return Reference{Database: segments[0], Table: segments[1], Column: segments[2]}, nil
	}
	return Reference{}, invalid(raw)
}

// ResolveTable parses raw as a table reference: "table" or "database.table".
// The returned Reference carries the table name in Table and an empty Column.
func ResolveTable(raw string) (Reference, error) {
	segments, err := split(raw)
	if err != nil {
		return Reference{}, err
	}

	switch len(segments) {
	case 1:
		return Reference{Table: segments[0]}, nil
	case 2:
		return Reference{Database: segments[0], Table: segments[1]}, nil
	}
	return Reference{}, invalid(raw)
}

// SplitAlias separates "users AS u" or "users u" into ("users", "u").
// Input without an alias comes back unchanged with an empty alias.
func SplitAlias(raw string) (ref, alias string) {
	m := aliasSplit.FindStringSubmatch(raw)
	if m == nil {
		return strings.TrimSpace(raw), ""
	}
	return m[1], m[2]
}

// Alias cleans an alias down to a single quoted segment.
func Alias(raw string) (string, error) {
	s := Clean(raw)
	if s == "" || strings.Contains(s, ".") {
		return "", invalid(raw)
	}
	return Quote(s), nil
}

// Quote wraps one identifier segment in backticks.
func Quote(segment string) string {
	if segment == Wildcard {
		return segment
	}
	return "`" + segment + "`"
}

// IsTable reports whether the reference names a table rather than a column.
func (r Reference) IsTable() bool {
	return r.Column == "" && r.Table != ""
}

// String renders the reference with every present segment quoted.
func (r Reference) String() string {
	parts := make([]string, 0, 3)
	if r.Database != "" {
		parts = append(parts, Quote(r.Database))
	}
	if r.Table != "" {
		parts = append(parts, Quote(r.Table))
	}
	if r.Column != "" {
		parts = append(parts, Quote(r.Column))
	}
	return strings.Join(parts, ".")
}

func split(raw string) ([]string, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return nil, invalid(raw)
	}

	segments := strings.Split(cleaned, ".")
	for _, s := range segments {
		if s == "" {
			return nil, invalid(raw)
		}
	}
	return segments, nil
}

func invalid(raw string) error {
	return &Error{Input: raw}
}

// Error describes an identifier that could not be resolved.
type Error struct {
	Input string
}

func (e *Error) Error() string {
	return "invalid reference " + strconv.Quote(e.Input)
}

// Unwrap lets errors.Is match ErrInvalidReference.
func (e *Error) Unwrap() error {
	return ErrInvalidReference
}
