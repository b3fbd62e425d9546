package pricing

import (
	"errors"

	"github.com/Simplici0/printquote/internal/geometry"
)

var (
	// ErrInvalidParameter reports a non-positive density, usage factor,
	// throughput or weight, or an otherwise unusable setting.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnavailable reports a value that cannot be computed because an
	// upstream value is missing.
	ErrUnavailable = errors.New("estimate unavailable")
)

// Kind tags an estimation failure for callers that present it.
type Kind string

const (
	KindMalformedMesh    Kind = "malformed_mesh"
	KindEmptyMesh        Kind = "empty_mesh"
	KindInvalidParameter Kind = "invalid_parameter"
	KindUnavailable      Kind = "unavailable"
	KindInternal         Kind = "internal"
)

// KindOf classifies err. A nil error has an empty kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, geometry.ErrMalformedMesh):
		return KindMalformedMesh
	case errors.Is(err, geometry.ErrEmptyMesh):
		return KindEmptyMesh
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}
