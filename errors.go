package hemesh

import "github.com/pkg/errors"

// Errors returned by mesh operations.
var (
	// ErrInvalidHandle indicates a nil or out-of-range handle.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrStaleHandle indicates a handle whose slot was freed (and maybe reused).
	ErrStaleHandle = errors.New("stale handle")

	// ErrPrecondition indicates arguments that violate an operator precondition.
	ErrPrecondition = errors.New("precondition violated")

	// ErrNotImplemented indicates a feature that is deliberately unavailable.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidMesh indicates the mesh failed structural validation.
	ErrInvalidMesh = errors.New("invalid mesh")

	// ErrBadSignature indicates the binary stream is not a hemesh stream.
	ErrBadSignature = errors.New("bad mesh signature")
)

func precondition(format string, args ...interface{}) error {
	return errors.Wrapf(ErrPrecondition, format, args...)
}
