// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Validation failures raised while loading a compatibility matrix carry one of
// the matrix codes (MISSING_PARAMETER, INVALID_MATRIX_TYPE, INVALID_VERSION,
// INVALID_RANGE) along with the offending raw value in Context.
//
// Example usage:
//
//	err := errors.NewWithContext(
//	    errors.ErrCodeInvalidVersion,
//	    fmt.Sprintf("%q is not a valid semantic version number", raw),
//	    map[string]any{"version": raw},
//	)
//
//	if errors.IsCode(err, errors.ErrCodeInvalidVersion) {
//	    // reject input
//	}
package errors
