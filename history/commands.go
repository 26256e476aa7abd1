package history

import (
	"fmt"

	"github.com/flywave/go3d/vec3"

	hemesh "github.com/flywave/go-hemesh"
)

// Command is one mesh edit the history can run and take back. The set of
// commands is closed; results are written back into the command value.
type Command interface {
	Description() string
	command()
}

// Translate moves a vertex set by Delta. Consecutive translates of the same
// vertex set inside one transaction accumulate into a single command.
type Translate struct {
	Verts []hemesh.VID
	Delta vec3.T
}

type SplitEdge struct {
	Edge hemesh.HEID
	T    float32

	Vertex hemesh.VID
}

type SplitFace struct {
	Face   hemesh.FID
	VA, VB hemesh.VID

	Result *hemesh.SplitFaceResult
}

type CollapseEdge struct {
	Edge hemesh.HEID
	Mode hemesh.CollapseMode `validate:"gte=0,lte=2"`

	Kept hemesh.VID
}

type MergeVertices struct {
	Keep, Drop hemesh.VID

	Kept hemesh.VID
}

type DeleteFaces struct {
	Faces []hemesh.FID

	Deleted int
}

type Bridge struct {
	LoopA []hemesh.HEID `validate:"min=1"`
	LoopB []hemesh.HEID `validate:"min=1"`

	Faces []hemesh.FID
}

type Inset struct {
	Faces []hemesh.FID
	Scale float32 `validate:"gte=0"`

	Created []hemesh.FID
}

type Extrude struct {
	Faces  []hemesh.FID `validate:"min=1"`
	Offset float32

	Result *hemesh.ExtrudeResult
}

type LoopCut struct {
	Edge hemesh.HEID
	T    float32 `validate:"gt=0,lt=1"`

	Result *hemesh.LoopCutResult
}

type Knife struct {
	Face   hemesh.FID
	EdgeA  hemesh.HEID
	TA     float32 `validate:"gte=0,lte=1"`
	EdgeB  hemesh.HEID
	TB     float32 `validate:"gte=0,lte=1"`
	Result *hemesh.SplitFaceResult
}

type Subdivide struct {
	Faces  []hemesh.FID
	Levels int `validate:"gte=0,lte=8"`

	Created []hemesh.FID
}

type Relax struct {
	Options hemesh.RelaxOptions

	Corners int
}

type Weld struct {
	Options hemesh.WeldOptions

	Merged int
}

func (*Translate) command()     {}
func (*SplitEdge) command()     {}
func (*SplitFace) command()     {}
func (*CollapseEdge) command()  {}
func (*MergeVertices) command() {}
func (*DeleteFaces) command()   {}
func (*Bridge) command()        {}
func (*Inset) command()         {}
func (*Extrude) command()       {}
func (*LoopCut) command()       {}
func (*Knife) command()         {}
func (*Subdivide) command()     {}
func (*Relax) command()         {}
func (*Weld) command()          {}

func (c *Translate) Description() string {
	return fmt.Sprintf("Translate %d vertices", len(c.Verts))
}
func (c *SplitEdge) Description() string     { return "Split edge " + c.Edge.String() }
func (c *SplitFace) Description() string     { return "Split face " + c.Face.String() }
func (c *CollapseEdge) Description() string  { return "Collapse edge " + c.Edge.String() }
func (c *MergeVertices) Description() string { return "Merge vertices" }
func (c *DeleteFaces) Description() string {
	return fmt.Sprintf("Delete %d faces", len(c.Faces))
}
func (c *Bridge) Description() string { return fmt.Sprintf("Bridge %d edges", len(c.LoopA)) }
func (c *Inset) Description() string  { return fmt.Sprintf("Inset %d faces", len(c.Faces)) }
func (c *Extrude) Description() string {
	return fmt.Sprintf("Extrude %d faces", len(c.Faces))
}
func (c *LoopCut) Description() string { return "Loop cut" }
func (c *Knife) Description() string   { return "Knife " + c.Face.String() }
func (c *Subdivide) Description() string {
	return fmt.Sprintf("Subdivide %d faces x%d", len(c.Faces), c.Levels)
}
func (c *Relax) Description() string { return "Relax UVs" }
func (c *Weld) Description() string  { return "Weld coincident vertices" }

// apply runs cmd against m and stores its result in cmd.
func apply(m *hemesh.Mesh, cmd Command) error {
	if err := hemesh.ValidateOptions(cmd); err != nil {
		return err
	}
	var err error
	switch c := cmd.(type) {
	case *Translate:
		translate(m, c.Verts, c.Delta)
	case *SplitEdge:
		c.Vertex, err = m.SplitEdge(c.Edge, c.T)
	case *SplitFace:
		c.Result, err = m.SplitFace(c.Face, c.VA, c.VB)
	case *CollapseEdge:
		c.Kept, err = m.CollapseEdge(c.Edge, c.Mode)
	case *MergeVertices:
		c.Kept, err = m.MergeVertices(c.Keep, c.Drop)
	case *DeleteFaces:
		c.Deleted = m.DeleteFaces(c.Faces)
	case *Bridge:
		c.Faces, err = m.BridgeEdges(c.LoopA, c.LoopB)
	case *Inset:
		c.Created = m.InsetFaces(c.Faces, c.Scale)
	case *Extrude:
		c.Result, err = m.ExtrudeFaces(c.Faces, c.Offset)
	case *LoopCut:
		c.Result, err = m.LoopCutQuadRing(c.Edge, c.T)
	case *Knife:
		c.Result, err = m.KnifeAcrossFace(c.Face, c.EdgeA, c.TA, c.EdgeB, c.TB)
	case *Subdivide:
		c.Created, err = m.SubdivideFaces(c.Faces, c.Levels)
	case *Relax:
		c.Corners, err = m.RelaxIslands(c.Options)
	case *Weld:
		c.Merged, err = m.WeldCoincident(c.Options)
	default:
		err = fmt.Errorf("unknown command %T", cmd)
	}
	return err
}

func translate(m *hemesh.Mesh, verts []hemesh.VID, d vec3.T) {
	for _, v := range verts {
		if !m.IsVertex(v) {
			continue
		}
		p := m.Position(v)
		m.SetPosition(v, vec3.Add(&p, &d))
	}
}

func sameVerts(a, b []hemesh.VID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
