package wizard

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

func trimmed(s string) string { return strings.TrimSpace(s) }

// Rule checks one field. It returns the error text, or "" when the field
// passes.
type Rule func(value string) string

// Required fails on a blank value.
func Required(text string) Rule {
	return func(v string) string {
		if trimmed(v) == "" {
			return text
		}
		return ""
	}
}

// MaxLength fails on values longer than n characters.
func MaxLength(n int, text string) Rule {
	return func(v string) string {
		if utf8.RuneCountInString(trimmed(v)) > n {
			return text
		}
		return ""
	}
}

// OneOf fails on non-blank values outside options.
func OneOf(options []string, text string) Rule {
	return func(v string) string {
		if v = trimmed(v); v != "" && !slices.Contains(options, v) {
			return text
		}
		return ""
	}
}

// Matches fails when fn rejects a non-blank value.
func Matches(fn func(string) bool, text string) Rule {
	return func(v string) string {
		if v = trimmed(v); v != "" && !fn(v) {
			return text
		}
		return ""
	}
}

// Checks accumulates field errors in the order fields are checked. Only the
// first failing rule of a field is reported.
type Checks struct {
	errs []FieldError
}

// Field runs rules against value in order.
func (c *Checks) Field(name, value string, rules ...Rule) {
	for _, r := range rules {
		if text := r(value); text != "" {
			c.errs = append(c.errs, FieldError{Name: name, Text: text})
			return
		}
	}
}

// Fail adds an error directly.
func (c *Checks) Fail(name, text string) {
	c.errs = append(c.errs, FieldError{Name: name, Text: text})
}

// Has reports whether name already failed.
func (c *Checks) Has(name string) bool {
	return slices.ContainsFunc(c.errs, func(e FieldError) bool { return e.Name == name })
}

func (c *Checks) Errors() []FieldError { return c.errs }

// TooLong is the standard length message.
func TooLong(what string, n int) string {
	return fmt.Sprintf("%s must have fewer than %d characters", what, n+1)
}
