package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryNotFound Category = "not_found"
	CategoryDispatch Category = "dispatch"
	CategoryCLI      Category = "cli"
)

// categoryError is the sentinel every Error of a category matches.
type categoryError struct {
	category Category
}

func (c *categoryError) Error() string {
	return "fluxe: " + strings.ReplaceAll(string(c.category), "_", " ") + " error"
}

var sentinels = map[Category]error{
	CategoryConfig:   &categoryError{CategoryConfig},
	CategoryNotFound: &categoryError{CategoryNotFound},
	CategoryDispatch: &categoryError{CategoryDispatch},
	CategoryCLI:      &categoryError{CategoryCLI},
}

// Sentinel returns the error that every Error of category matches with
// errors.Is.
func Sentinel(category Category) error {
	return sentinels[category]
}

// Error is a structured error with a registered code, the store it
// concerns, and a hint on how to fix it.
type Error struct {
	// Code is a unique error identifier (e.g., "F001").
	Code string

	// Category is the error type (config, not_found, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// StoreID names the store involved, if any.
	StoreID string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.StoreID != "" {
		b.WriteString(": ")
		b.WriteString(strconv.Quote(e.StoreID))
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches the sentinel of the error's category.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Category]
	return ok && target == s
}

// WithStore records the store the error concerns.
func (e *Error) WithStore(id string) *Error {
	e.StoreID = id
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		Example:    template.Example,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return fe
	}
	return New(code).Wrap(err)
}
