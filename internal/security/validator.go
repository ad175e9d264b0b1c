// Package security screens statements before they reach the database and
// writes an audit trail of executed ones.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnsafeQuery is returned when statement text matches an injection pattern.
	ErrUnsafeQuery = errors.New("unsafe query")
	// ErrUnsafeParam is returned when a string binding looks like an injection attempt.
	ErrUnsafeParam = errors.New("unsafe parameter")
)

// Validator rejects statements and bindings matching known injection shapes.
type Validator struct {
	patterns []*regexp.Regexp
	strict   bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithStrict adds the strict pattern set. Strict mode assumes statements come
// from the builder, which quotes identifiers with backticks and binds every
// value, so any quote, semicolon or comment in the text is rejected.
func WithStrict(strict bool) ValidatorOption {
	return func(v *Validator) {
		v.strict = strict
	}
}

// NewValidator returns a Validator with the default patterns.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{patterns: compilePatterns(dangerousPatterns)}
	for _, opt := range opts {
		opt(v)
	}
	if v.strict {
		v.patterns = append(v.patterns, compilePatterns(strictPatterns)...)
	}
	return v
}

// Strict reports whether the strict pattern set is active.
func (v *Validator) Strict() bool {
	return v.strict
}

var dangerousPatterns = []string{
	// comments
	`--\s`,
	`/\*.*\*/`,
	`#\s`,

	// stacked statements
	`;\s*DROP\s+`,
	`;\s*DELETE\s+`,
	`;\s*TRUNCATE\s+`,
	`;\s*ALTER\s+`,
	`;\s*CREATE\s+`,
	`;\s*INSERT\s+`,
	`;\s*UPDATE\s+`,

	`UNION\s+(?:ALL\s+)?SELECT`,

	// MySQL file and timing primitives
	`\bLOAD_FILE\s*\(`,
	`\bINTO\s+(?:OUT|DUMP)FILE\b`,
	`\bSLEEP\s*\(`,
	`\bBENCHMARK\s*\(`,
	`INFORMATION_SCHEMA`,

	// tautologies outside the builder's own (1=1) / (0=1) groups
	`\s+OR\s+1\s*=\s*1\b`,
	`\s+OR\s+'1'\s*=\s*'1'`,
	`\s+AND\s+1\s*=\s*0\b`,
}

var strictPatterns = []string{
	`'`,
	`"`,
	`;`,
	`--`,
	`/\*`,
	`#`,
}

// ValidateQuery returns an error wrapping ErrUnsafeQuery when sql matches a pattern.
func (v *Validator) ValidateQuery(sql string) error {
	normalized := strings.ToUpper(sql)
	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return fmt.Errorf("%w: matches %s", ErrUnsafeQuery, pattern)
		}
	}
	return nil
}

// ValidateParams returns an error wrapping ErrUnsafeParam for the first
// string binding that carries an injection indicator. Bound values cannot
// break out of their placeholder, but such values usually mean something
// upstream concatenated SQL.
func (v *Validator) ValidateParams(params []any) error {
	for i, param := range params {
		var str string
		switch p := param.(type) {
		case string:
			str = p
		case []byte:
			str = string(p)
		default:
			continue
		}
		if containsInjection(str) {
			return fmt.Errorf("%w: binding %d", ErrUnsafeParam, i)
		}
	}
	return nil
}

// Validate checks the statement text and then its bindings.
func (v *Validator) Validate(sql string, params []any) error {
	if err := v.ValidateQuery(sql); err != nil {
		return err
	}
	return v.ValidateParams(params)
}

var injectionIndicators = []string{
	"'--",
	"';",
	"' OR ",
	"' AND ",
	"/*",
	"*/",
	"' UNION ",
	"' DROP ",
	"XP_",
}

func containsInjection(value string) bool {
	upper := strings.ToUpper(value)
	for _, indicator := range injectionIndicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}
