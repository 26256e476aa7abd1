package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	hemesh "github.com/flywave/go-hemesh"
)

const maxStatGoroutineNum = 4

// MeshStats summarises one mesh file.
type MeshStats struct {
	File          string     `yaml:"file"`
	Vertices      int        `yaml:"vertices"`
	HalfEdges     int        `yaml:"halfEdges"`
	Faces         int        `yaml:"faces"`
	BoundaryEdges int        `yaml:"boundaryEdges"`
	BoundaryLoops int        `yaml:"boundaryLoops"`
	Materials     int        `yaml:"materials"`
	Min           [3]float32 `yaml:"min,flow"`
	Max           [3]float32 `yaml:"max,flow"`
	Valid         bool       `yaml:"valid"`
	Problem       string     `yaml:"problem,omitempty"`
}

func collectStats(path string, m *hemesh.Mesh) MeshStats {
	s := MeshStats{
		File:      path,
		Vertices:  m.VertexCount(),
		HalfEdges: m.HalfEdgeCount(),
		Faces:     m.FaceCount(),
		Materials: len(m.Materials),
		Valid:     true,
	}
	for _, h := range m.HalfEdges() {
		if m.IsBoundary(h) {
			s.BoundaryEdges++
		}
	}
	s.BoundaryLoops = len(m.BoundaryLoops(m.Faces()))
	if s.Vertices > 0 {
		box := m.Bounds()
		s.Min, s.Max = box.Min, box.Max
	}
	if err := m.Validate(); err != nil {
		s.Valid = false
		s.Problem = err.Error()
	}
	return s
}

// statFiles loads and measures every file concurrently; results keep the
// order of paths.
func statFiles(ctx context.Context, paths []string) ([]MeshStats, error) {
	out := make([]MeshStats, len(paths))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(maxStatGoroutineNum)
	for i, p := range paths {
		i, p := i, p
		eg.Go(func() error {
			m, err := hemesh.ReadFile(p)
			if err != nil {
				return errors.Wrapf(err, "read %s", p)
			}
			out[i] = collectStats(p, m)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func renderStats(w io.Writer, stats []MeshStats, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"file", "vertices", "half-edges", "faces", "boundary", "loops", "valid"})
		for _, s := range stats {
			table.Append([]string{
				s.File,
				strconv.Itoa(s.Vertices),
				strconv.Itoa(s.HalfEdges),
				strconv.Itoa(s.Faces),
				strconv.Itoa(s.BoundaryEdges),
				strconv.Itoa(s.BoundaryLoops),
				strconv.FormatBool(s.Valid),
			})
		}
		table.Render()
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

var exampleForStatsCmd = `hemesh stats model.glb
hemesh stats --format yaml a.hem b.glb
`

func NewStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:     "stats FILE...",
		Short:   "print element counts, bounds and validity of mesh files",
		Example: exampleForStatsCmd,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := statFiles(cmd.Context(), args)
			if err != nil {
				return err
			}
			return renderStats(os.Stdout, stats, viper.GetString("stats.format"))
		},
	}
	flags := statsCmd.Flags()
	flags.StringP("format", "o", "table", "output format: table or yaml")
	_ = viper.BindPFlag("stats.format", flags.Lookup("format"))
	return statsCmd
}

func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "check the structural invariants of a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := hemesh.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s: ok (%d vertices, %d faces)\n", args[0], m.VertexCount(), m.FaceCount())
			return nil
		},
	}
}
