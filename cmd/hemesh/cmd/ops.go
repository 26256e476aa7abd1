package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	hemesh "github.com/flywave/go-hemesh"
	"github.com/flywave/go-hemesh/history"
)

type ioOpts struct {
	in       string
	out      string
	material int
}

// operator describes one editing subcommand: its flags are bound to viper
// under name, and build turns the loaded mesh plus selected faces into a
// history command.
type operator struct {
	name  string
	short string
	flags func(fs *pflag.FlagSet)
	build func(m *hemesh.Mesh, faces []hemesh.FID) history.Command
}

var operators = []operator{
	{
		name:  "inset",
		short: "inset every selected face",
		flags: func(fs *pflag.FlagSet) {
			fs.Float32("scale", 0.8, "inner face scale around the centroid")
		},
		build: func(m *hemesh.Mesh, faces []hemesh.FID) history.Command {
			return &history.Inset{Faces: faces, Scale: float32(viper.GetFloat64("inset.scale"))}
		},
	},
	{
		name:  "extrude",
		short: "extrude the selected faces as one region",
		flags: func(fs *pflag.FlagSet) {
			fs.Float32("offset", 1, "distance along the region normal")
		},
		build: func(m *hemesh.Mesh, faces []hemesh.FID) history.Command {
			return &history.Extrude{Faces: faces, Offset: float32(viper.GetFloat64("extrude.offset"))}
		},
	},
	{
		name:  "subdivide",
		short: "fan-subdivide the selected faces around their centroids",
		flags: func(fs *pflag.FlagSet) {
			fs.Int("levels", 1, "number of subdivision passes")
		},
		build: func(m *hemesh.Mesh, faces []hemesh.FID) history.Command {
			return &history.Subdivide{Faces: faces, Levels: viper.GetInt("subdivide.levels")}
		},
	},
	{
		name:  "relax",
		short: "relax corner UVs of the selected faces",
		flags: func(fs *pflag.FlagSet) {
			fs.Int("iterations", 10, "Jacobi iterations")
			fs.Float32("epsilon", 1e-5, "UV tolerance for seam detection")
			fs.Bool("pin-boundary", true, "keep chart border corners fixed")
		},
		build: func(m *hemesh.Mesh, faces []hemesh.FID) history.Command {
			return &history.Relax{Options: hemesh.RelaxOptions{
				Iterations:  viper.GetInt("relax.iterations"),
				Epsilon:     float32(viper.GetFloat64("relax.epsilon")),
				PinBoundary: viper.GetBool("relax.pin-boundary"),
				Faces:       faces,
			}}
		},
	},
	{
		name:  "weld",
		short: "merge vertices closer than epsilon",
		flags: func(fs *pflag.FlagSet) {
			fs.Float32("epsilon", 1e-5, "merge distance")
		},
		build: func(m *hemesh.Mesh, faces []hemesh.FID) history.Command {
			return &history.Weld{Options: hemesh.WeldOptions{Epsilon: float32(viper.GetFloat64("weld.epsilon"))}}
		},
	},
}

// NewOperatorCmds returns one subcommand per mesh operator.
func NewOperatorCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(operators))
	for _, op := range operators {
		cmds = append(cmds, newOperatorCmd(op))
	}
	return cmds
}

func newOperatorCmd(op operator) *cobra.Command {
	opts := &ioOpts{}
	c := &cobra.Command{
		Use:   op.name,
		Short: op.short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Name == "in" || f.Name == "out" || f.Name == "material" {
					return
				}
				if e := viper.BindPFlag(op.name+"."+f.Name, f); e != nil && err == nil {
					err = e
				}
			})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperator(op, opts)
		},
	}
	flags := c.Flags()
	flags.StringVarP(&opts.in, "in", "i", "", "input mesh (.glb, .gltf or .hem)")
	flags.StringVarP(&opts.out, "out", "o", "", "output mesh (.glb, .gltf or .hem)")
	flags.IntVar(&opts.material, "material", -1, "only edit faces with this material id; -1 selects every face")
	op.flags(flags)
	_ = c.MarkFlagRequired("in")
	_ = c.MarkFlagRequired("out")
	return c
}

func selectFaces(m *hemesh.Mesh, material int) []hemesh.FID {
	faces := m.Faces()
	if material < 0 {
		return faces
	}
	out := faces[:0]
	for _, f := range faces {
		if m.Material(f) == int32(material) {
			out = append(out, f)
		}
	}
	return out
}

func runOperator(op operator, opts *ioOpts) error {
	m, err := hemesh.ReadFile(opts.in)
	if err != nil {
		return errors.Wrapf(err, "read %s", opts.in)
	}
	faces := selectFaces(m, opts.material)
	if len(faces) == 0 {
		return errors.Errorf("no faces selected in %s", opts.in)
	}
	h, err := history.New(m, history.Options{Validate: true})
	if err != nil {
		return err
	}
	cmd := op.build(m, faces)
	if err := h.Run(cmd); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"operator": op.name,
		"faces":    m.FaceCount(),
		"vertices": m.VertexCount(),
	}).Info(cmd.Description())
	return hemesh.WriteFile(opts.out, m)
}
