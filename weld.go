package hemesh

import "github.com/sirupsen/logrus"

// WeldCoincident merges every group of vertices lying within Epsilon of
// each other into the lowest-slot vertex of the group. It returns the
// number of vertices removed.
func (m *Mesh) WeldCoincident(opts WeldOptions) (int, error) {
	if err := ValidateOptions(opts); err != nil {
		return 0, err
	}
	g := newPointGrid(m, opts.Epsilon)
	merged := 0
	for _, v := range m.Vertices() {
		if !m.vertexOK(v) {
			continue
		}
		for _, n := range keys(toSet(g.near(m, m.Position(v), opts.Epsilon))) {
			if n == v || !m.vertexOK(n) || n.Index() < v.Index() {
				continue
			}
			if _, err := m.MergeVertices(v, n); err != nil {
				return merged, err
			}
			merged++
		}
	}
	Logger().WithFields(logrus.Fields{
		"merged":   merged,
		"epsilon":  opts.Epsilon,
		"vertices": m.VertexCount(),
	}).Info("weld coincident vertices")
	return merged, nil
}

func toSet(vs []VID) map[VID]bool {
	s := make(map[VID]bool, len(vs))
	for _, v := range vs {
		s[v] = true
	}
	return s
}
