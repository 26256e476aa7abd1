package hemesh

import "fmt"

// VID is a vertex handle. The low 32 bits hold the arena slot, the high
// 32 bits the slot generation. The zero value is NoVertex.
type VID uint64

// HEID is a half-edge handle, packed like VID.
type HEID uint64

// FID is a face handle, packed like VID.
type FID uint64

const (
	NoVertex   VID  = 0
	NoHalfEdge HEID = 0
	NoFace     FID  = 0
)

func pack(idx int, gen uint32) uint64 {
	return uint64(gen)<<32 | uint64(uint32(idx))
}

func (v VID) Index() int     { return int(uint32(v)) }
func (v VID) Gen() uint32    { return uint32(uint64(v) >> 32) }
func (v VID) IsNil() bool    { return v == NoVertex }
func (v VID) String() string { return fmt.Sprintf("v%d@%d", v.Index(), v.Gen()) }

func (h HEID) Index() int     { return int(uint32(h)) }
func (h HEID) Gen() uint32    { return uint32(uint64(h) >> 32) }
func (h HEID) IsNil() bool    { return h == NoHalfEdge }
func (h HEID) String() string { return fmt.Sprintf("he%d@%d", h.Index(), h.Gen()) }

func (f FID) Index() int     { return int(uint32(f)) }
func (f FID) Gen() uint32    { return uint32(uint64(f) >> 32) }
func (f FID) IsNil() bool    { return f == NoFace }
func (f FID) String() string { return fmt.Sprintf("f%d@%d", f.Index(), f.Gen()) }
