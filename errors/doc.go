// Package errors provides structured error types for the rcell library.
//
// Errors are categorized by Phase (which layer raised it) and Kind (error category).
// The Error type includes context: operation path, Go type name, offending value
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHandle, errors.KindReleased).
//		Path("Clone").
//		GoType("int").
//		Detail("handle already released").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Released("Clone", "int")
//	err := errors.DoubleFree(blockID)
//
// Most rcell failures are contract violations and surface as panics carrying an
// *Error; the resource package returns them as ordinary errors.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
