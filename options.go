package hemesh

import (
	"sync"

	"github.com/go-playground/validator"
	"github.com/pkg/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidateOptions checks the `validate` tags of an option or command struct.
func ValidateOptions(opts interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(opts); err != nil {
		return errors.Wrapf(ErrPrecondition, "invalid options: %v", err)
	}
	return nil
}

// SelectionMode tells which element kind a Selection holds.
type SelectionMode int

const (
	SelectVertex SelectionMode = iota
	SelectEdge
	SelectFace
)

// Selection is a set of elements picked by the caller. Only the slice
// matching Mode is read.
type Selection struct {
	Mode     SelectionMode
	Vertices []VID
	Edges    []HEID
	Faces    []FID
}

// SelectionOptions controls how a selection expands into vertices to edit.
type SelectionOptions struct {
	ExpandCoincident bool
	PositionEps      float32 `validate:"gte=0"`
	Mirror           bool
	MirrorAxis       int     `validate:"gte=0,lte=2"`
	WeldEps          float32 `validate:"gte=0"`
}

func DefaultSelectionOptions() SelectionOptions {
	return SelectionOptions{PositionEps: 1e-5, WeldEps: 1e-4}
}

// RelaxOptions controls RelaxIslands.
type RelaxOptions struct {
	Iterations  int     `validate:"gte=0"`
	Epsilon     float32 `validate:"gte=0"`
	PinBoundary bool
	// Faces limits relaxation to these faces; empty means every face.
	Faces []FID
}

func DefaultRelaxOptions() RelaxOptions {
	return RelaxOptions{Iterations: 10, Epsilon: 1e-5, PinBoundary: true}
}

// WeldOptions controls WeldCoincident.
type WeldOptions struct {
	Epsilon float32 `validate:"gte=0"`
}
