// Package errors provides structured, actionable error messages for fluxe.
//
// Every error fluxe raises for a misconfigured store or a failed lookup is
// an *Error carrying a registered code. The code maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A hint, and sometimes an example, showing the fix
//
// # Error Categories
//
// Errors are organized into categories, each with a sentinel that
// errors.Is matches:
//   - config: store registration errors (missing id, duplicate id, bad event map)
//   - not_found: lookups of stores that were never registered
//   - dispatch: nested dispatch and failing handlers
//   - cli: configuration file errors in the fluxe command
//
// # Usage
//
//	err := errors.New(errors.CodeDuplicateID).WithStore("todos")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR F002: Duplicate store identifier
//	//
//	//   Store: todos
//	//
//	//   A store with this identifier is already registered. ...
//	//
//	//   Hint: Register each store once, or give the second store a different identifier.
package errors
