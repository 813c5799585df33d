package wine

import "errors"

// ErrNotFound is returned by catalog implementations when a row keyed by
// ID is absent.
var ErrNotFound = errors.New("wine not found")

// ErrUnparseablePage is returned when a fetched page lacks the mandatory
// name and external identifier pair.
var ErrUnparseablePage = errors.New("page is missing wine name or external id")
