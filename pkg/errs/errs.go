// Package errs defines the sentinel error kinds shared across LibEtude's
// core packages (kernel registry, tensor/memory pool, graph engine, LEF
// reader/writer).
//
// Errors that the core packages detect themselves wrap one of these
// sentinels with fmt.Errorf("%w", ...), so callers can recover the kind with
// errors.Is even after the message has been annotated with call-site context.
// Errors passed up from the OS, io or a third-party codec or store are
// wrapped as they come and carry no sentinel; pkg/config's Validate errors
// carry none either.
package errs

import "errors"

// Common errors returned across the runtime. Each one corresponds to an
// error kind named in the design: InvalidArgument, OutOfMemory,
// NotInitialized, AlreadyInitialized, NotFound, InvalidState, Io,
// FormatError, IntegrityError, Unsupported.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrNotInitialized   = errors.New("not initialized")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrIO               = errors.New("io error")
	ErrFormat           = errors.New("format error")
	ErrIntegrity        = errors.New("integrity error")
	ErrUnsupported      = errors.New("unsupported")
)
