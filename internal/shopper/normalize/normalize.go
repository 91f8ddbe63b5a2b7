// Package normalize canonicalizes the text of entities before they are
// validated and persisted: every text field is trimmed and upper-cased.
package normalize

import "strings"

// TextFielder enumerates the text fields of an entity. Optional fields that
// are absent must not be returned.
type TextFielder interface {
	TextFields() []*string
}

// Text returns the canonical form of s.
func Text(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Upper normalizes the text fields of every item in place. Nil items are
// skipped; nested entities are only touched when passed explicitly.
func Upper(items ...TextFielder) {
	for _, item := range items {
		if item == nil {
			continue
		}
		for _, field := range item.TextFields() {
			if field != nil {
				*field = Text(*field)
			}
		}
	}
}

// UpperEach normalizes every element of a collection in place.
func UpperEach[T any, PT interface {
	*T
	TextFielder
}](items []T) {
	for i := range items {
		Upper(PT(&items[i]))
	}
}

// Trim only trims the text fields of every item, preserving case.
func Trim(items ...TextFielder) {
	for _, item := range items {
		if item == nil {
			continue
		}
		for _, field := range item.TextFields() {
			if field != nil {
				*field = strings.TrimSpace(*field)
			}
		}
	}
}

// TrimEach trims every element of a collection in place.
func TrimEach[T any, PT interface {
	*T
	TextFielder
}](items []T) {
	for i := range items {
		Trim(PT(&items[i]))
	}
}
