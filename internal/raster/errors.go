package raster

import "errors"

// Error kinds reported by the codec and analysis packages. Callers should test
// for them with errors.Is; call sites wrap them with context.
var (
	// ErrInvalidFormat reports a bad magic number or a malformed header token.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrTruncatedData reports a pixel section shorter than the header promises.
	ErrTruncatedData = errors.New("truncated data")

	// ErrInvalidParameter reports an argument outside its valid domain, such as an
	// even kernel size or a zero dimension.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDegenerateGeometry reports a contour or mask that cannot produce a ratio,
	// such as a zero perimeter or an empty foreground.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)
