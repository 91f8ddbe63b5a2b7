// Package validation is a small composable rule engine. A Validator runs
// every rule of a set against a candidate value and aggregates all failures
// as field-scoped messages; it never mutates the candidate and never touches
// storage.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	e "github.com/gartstein/shopper/internal/shopper/errors"
)

// FieldError is one failed rule.
type FieldError struct {
	// Field is the path of the offending field, e.g. "addresses[1].city.name".
	Field string `json:"field"`
	// Message is human readable and includes the item position for
	// per-item rules.
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError carries every failure of one validation run, in rule order.
type ValidationError struct {
	Errors []FieldError
}

func (v *ValidationError) Error() string {
	msgs := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		msgs[i] = fe.String()
	}
	return fmt.Sprintf("%v: %s", e.ErrValidationFailed, strings.Join(msgs, "; "))
}

func (v *ValidationError) Unwrap() error {
	return e.ErrValidationFailed
}

// Rule checks one aspect of T and reports zero or more failures.
type Rule[T any] func(v T) []FieldError

// Validator is a stateless, reentrant set of rules.
type Validator[T any] struct {
	rules []Rule[T]
}

func New[T any](rules ...Rule[T]) *Validator[T] {
	return &Validator[T]{rules: rules}
}

// Validate returns nil or a *ValidationError listing every failure.
func (v *Validator[T]) Validate(value T) error {
	var errs []FieldError
	for _, rule := range v.rules {
		errs = append(errs, rule(value)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// Check tests a string and returns a message when it fails.
type Check func(s string) (msg string, ok bool)

// Required fails on empty or blank strings.
func Required(msg string) Check {
	return func(s string) (string, bool) {
		return msg, strings.TrimSpace(s) != ""
	}
}

// MaxLen fails when s has more than n characters.
func MaxLen(n int, msg string) Check {
	return func(s string) (string, bool) {
		return msg, utf8.RuneCountInString(s) <= n
	}
}

// Matches fails when s does not match re.
func Matches(re *regexp.Regexp, msg string) Check {
	return func(s string) (string, bool) {
		return msg, re.MatchString(s)
	}
}

// String applies checks to a string field. Checks stop at the first failure
// so a blank value reports once.
func String[T any](field string, get func(T) string, checks ...Check) Rule[T] {
	return func(v T) []FieldError {
		s := get(v)
		for _, check := range checks {
			if msg, ok := check(s); !ok {
				return []FieldError{{Field: field, Message: msg}}
			}
		}
		return nil
	}
}

// OptionalString applies checks only when the field is present and not blank.
func OptionalString[T any](field string, get func(T) *string, checks ...Check) Rule[T] {
	return func(v T) []FieldError {
		s := get(v)
		if s == nil || strings.TrimSpace(*s) == "" {
			return nil
		}
		for _, check := range checks {
			if msg, ok := check(*s); !ok {
				return []FieldError{{Field: field, Message: msg}}
			}
		}
		return nil
	}
}

// Must fails with msg when pred is false.
func Must[T any](field string, pred func(T) bool, msg string) Rule[T] {
	return func(v T) []FieldError {
		if pred(v) {
			return nil
		}
		return []FieldError{{Field: field, Message: msg}}
	}
}

// When runs rules only if cond holds. Use it for rules that depend on a
// precondition checked elsewhere.
func When[T any](cond func(T) bool, rules ...Rule[T]) Rule[T] {
	return func(v T) []FieldError {
		if !cond(v) {
			return nil
		}
		var errs []FieldError
		for _, rule := range rules {
			errs = append(errs, rule(v)...)
		}
		return errs
	}
}

// Unique fails once when two items of a collection share a key. The verdict
// does not depend on the order of the items.
func Unique[T, I any, K comparable](field string, items func(T) []I, key func(I) K, msg string) Rule[T] {
	return func(v T) []FieldError {
		seen := make(map[K]struct{})
		for _, item := range items(v) {
			k := key(item)
			if _, dup := seen[k]; dup {
				return []FieldError{{Field: field, Message: msg}}
			}
			seen[k] = struct{}{}
		}
		return nil
	}
}

// Each runs item rules against every element. Failures are re-scoped to
// "field[i].sub" and their message gets the zero-based position appended.
func Each[T, I any](field string, items func(T) []I, rules ...Rule[I]) Rule[T] {
	return func(v T) []FieldError {
		var errs []FieldError
		for i, item := range items(v) {
			for _, rule := range rules {
				for _, fe := range rule(item) {
					path := fmt.Sprintf("%s[%d]", field, i)
					if fe.Field != "" {
						path += "." + fe.Field
					}
					errs = append(errs, FieldError{
						Field:   path,
						Message: fmt.Sprintf("%s (position %d)", fe.Message, i),
					})
				}
			}
		}
		return errs
	}
}
