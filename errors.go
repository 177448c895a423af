package fluxe

import (
	ferrors "github.com/vango-dev/fluxe/internal/errors"
	"github.com/vango-dev/fluxe/pkg/dispatcher"
)

// Error is the structured error returned for registration failures,
// failed lookups and failing handlers. Use errors.As to read its Code and
// StoreID.
type Error = ferrors.Error

var (
	// ErrConfiguration matches every store registration failure: missing
	// identifier, duplicate identifier, empty or invalid event map.
	ErrConfiguration = ferrors.Sentinel(ferrors.CategoryConfig)

	// ErrNotFound matches lookups of stores that were never registered.
	ErrNotFound = ferrors.Sentinel(ferrors.CategoryNotFound)

	// ErrHandler matches errors returned by a store's event handler.
	ErrHandler = ferrors.Sentinel(ferrors.CategoryDispatch)

	// ErrReentrant is returned when an action is invoked while a broadcast
	// is in progress, typically from inside a store handler.
	ErrReentrant = dispatcher.ErrReentrant
)

func notFound(id string) *Error {
	return ferrors.New(ferrors.CodeStoreNotFound).WithStore(id)
}
