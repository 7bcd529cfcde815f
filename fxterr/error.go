// Package fxterr defines the tagged {category, local_code} error used
// throughout the Foxtail core instead of exceptions or bare strings.
//
// The absence of an error is a nil *Error, matching ordinary Go error
// handling (if err != nil); there is no separate SUCCESS sentinel value.
package fxterr

import "fmt"

// Category groups local error codes by the subsystem that defines them.
type Category string

const (
	CategoryPoint        Category = "point"
	CategoryBank         Category = "bank"
	CategoryCard         Category = "card"
	CategoryScanner      Category = "scanner"
	CategoryExecutionSet Category = "execution_set"
	CategoryChassis      Category = "chassis"
	CategoryComponent    Category = "component"
	CategoryLogicChain   Category = "logic_chain"
	CategoryNode         Category = "node"
	CategoryIO           Category = "io"
	CategorySystem       Category = "system"
)

// Error is the tagged value every subsystem latches on failure. Two Errors
// compare equal (via Is) when Category and Code match, regardless of Cause —
// this lets call sites use errors.Is against a package-level sentinel while
// still carrying a wrapped, context-specific Cause for logs.
type Error struct {
	Category Category
	Code     int
	Name     string
	Cause    error
}

// Code constructs a sentinel Error for a local code. Subsystems declare one
// package-level var per local code using this constructor.
func Code(category Category, code int, name string) *Error {
	return &Error{Category: category, Code: code, Name: name}
}

// With returns a copy of the sentinel carrying cause as additional context.
// The returned Error still satisfies errors.Is against the original sentinel.
func (e *Error) With(cause error) *Error {
	return &Error{Category: e.Category, Code: e.Code, Name: e.Name, Cause: cause}
}

// Withf is With for a formatted detail message.
func (e *Error) Withf(format string, args ...any) *Error {
	return e.With(fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil fxterr.Error>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %v", e.Category, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s/%s", e.Category, e.Name)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Category and Code,
// independent of Cause, so errors.Is(err, point.ErrDuplicateID) works even
// when the returned error has been wrapped with extra detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}
