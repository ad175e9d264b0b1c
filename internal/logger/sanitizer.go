package logger

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSensitiveFields are the column names whose bindings are masked when
// no explicit list is configured.
var DefaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey", "api_token",
	"secret", "auth", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "social_security",
	"private_key", "priv_key",
}

// MaskValue replaces masked bindings.
const MaskValue = "***REDACTED***"

// Sanitizer masks bindings that belong to sensitive columns before they are logged.
//
// Placeholders are attributed to the text between the previous placeholder
// and themselves, so in
//
//	WHERE (`email` = ? AND `password` = ?)
//
// only the second binding is masked. A list such as `token` IN (?, ?) masks
// every element, and so does `pin` BETWEEN ? AND ?.
type Sanitizer struct {
	patterns []*regexp.Regexp
}

// NewSanitizer builds a sanitizer for the given column names, or for
// DefaultSensitiveFields when none are given.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = DefaultSensitiveFields
	}

	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(field)+`\b`))
	}
	return &Sanitizer{patterns: patterns}
}

// MaskParams returns a copy of params with sensitive bindings replaced by
// MaskValue. params is not modified.
func (s *Sanitizer) MaskParams(sql string, params []any) []any {
	if len(params) == 0 {
		return params
	}

	segments := placeholderContexts(sql)
	masked := make([]any, len(params))
	for i, p := range params {
		masked[i] = p
		if i < len(segments) && s.sensitive(segments[i]) {
			masked[i] = MaskValue
		}
	}
	return masked
}

// placeholderContexts returns, for each "?" in sql, the text leading up to
// it. Inside a parenthesized list the context sticks to the text before the
// list so every element inherits the column on its left. The upper bound of
// a BETWEEN inherits the context of the lower one.
func placeholderContexts(sql string) []string {
	var contexts []string
	start := 0
	listContext := ""
	inList := false
	betweenContext := ""

	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '(':
			if strings.HasSuffix(strings.TrimRight(sql[start:i], " "), "IN") {
				listContext = sql[start:i]
				inList = true
			}
		case ')':
			inList = false
		case '?':
			ctx := sql[start:i]
			switch {
			case inList:
				ctx = listContext
			case betweenContext != "" && strings.EqualFold(strings.TrimSpace(ctx), "AND"):
				ctx = betweenContext
			}
			betweenContext = ""
			if endsWithWord(ctx, "BETWEEN") {
				betweenContext = ctx
			}
			contexts = append(contexts, ctx)
			start = i + 1
		}
	}
	return contexts
}

func endsWithWord(text, word string) bool {
	text = strings.TrimRight(text, " ")
	return len(text) >= len(word) && strings.EqualFold(text[len(text)-len(word):], word)
}

func (s *Sanitizer) sensitive(text string) bool {
	for _, p := range s.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// FormatParams renders params for a log line. NULL for nil, long values truncated.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	str := fmt.Sprintf("%v", v)
	const maxLen = 100
	if utf8.RuneCountInString(str) > maxLen {
		return string([]rune(str)[:maxLen]) + "..."
	}
	return str
}
