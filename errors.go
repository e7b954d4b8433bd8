package lofty

import "github.com/BSteffaniak/lofty-go/internal/types"

// Error is the concrete error type returned by every parse and write
// operation. Use errors.As to recover it and Kind() to branch on the
// failure category.
type Error = types.Error

// ErrorKind classifies the failure modes a parse or write can produce.
type ErrorKind = types.ErrorKind

// Error kinds, re-exported from internal/types.
const (
	ErrUnknownFormat     = types.ErrUnknownFormat
	ErrUnsupportedFormat = types.ErrUnsupportedFormat
	ErrUnsupportedTag    = types.ErrUnsupportedTag
	ErrSizeMismatch      = types.ErrSizeMismatch
	ErrTooMuchData       = types.ErrTooMuchData
	ErrBadAtom           = types.ErrBadAtom
	ErrBadPictureFormat  = types.ErrBadPictureFormat
	ErrFakeData          = types.ErrFakeData
	ErrIO                = types.ErrIO
)

// OutOfBoundsError is returned when a read would reach past the end of
// the underlying file or buffer.
type OutOfBoundsError = types.OutOfBoundsError

// Warning represents a non-fatal issue recorded during parsing. Warnings
// never stop a parse in BestAttempt mode; in Strict mode the first one
// becomes an error.
type Warning = types.Warning
