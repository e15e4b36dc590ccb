package segtree

import "errors"

// Sentinel errors returned by the engine and its components.
var (
	// ErrInvalidInput indicates a degenerate coordinate set.
	ErrInvalidInput = errors.New("invalid coordinate set")
	// ErrInvalidRange indicates a malformed leaf index range.
	ErrInvalidRange = errors.New("invalid index range")
	// ErrInvalidInterval indicates a malformed interval (NaN endpoint, start > end).
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrOutOfDomain indicates an interval that lies entirely outside the coordinate span.
	ErrOutOfDomain = errors.New("interval outside coordinate span")
	// ErrUnknownSegment indicates a removal of a segment that was never added.
	ErrUnknownSegment = errors.New("unknown segment")
)
