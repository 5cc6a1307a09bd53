package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"golang.org/x/image/math/f32"
)

// Triangle holds three node indices. The winding matches the face
// orientation: the triangle normal (b-a)×(c-a) points out of the material.
type Triangle [3]int

// Triangulation is the exported, immutable mesh of one face.
//
// Triangulations are shared through the cache between callers; they must
// not be modified after the mesher returns them.
type Triangulation struct {
	// Nodes holds the 3D positions.
	Nodes []r3.Vector

	// UVNodes holds the surface parameters of each node, parallel to Nodes.
	UVNodes []r2.Point

	// Normals holds unit normals parallel to Nodes, or nil.
	Normals []r3.Vector

	// Triangles indexes into Nodes.
	Triangles []Triangle

	// Deflection is the largest facet-to-surface deviation measured when
	// the mesh was finalized.
	Deflection float64
}

// NbNodes returns the number of nodes.
func (t *Triangulation) NbNodes() int { return len(t.Nodes) }

// NbTriangles returns the number of triangles.
func (t *Triangulation) NbTriangles() int { return len(t.Triangles) }

// TriangleNormal returns the non-normalized normal of triangle i; its
// length is twice the triangle area.
func (t *Triangulation) TriangleNormal(i int) r3.Vector {
	tr := t.Triangles[i]
	a, b, c := t.Nodes[tr[0]], t.Nodes[tr[1]], t.Nodes[tr[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// Area returns the total surface area.
func (t *Triangulation) Area() float64 {
	var area float64
	for i := range t.Triangles {
		area += t.TriangleNormal(i).Norm() / 2
	}
	return area
}

// Vertices32 converts the node positions to float32 triples, the layout
// GPU vertex buffers expect.
func (t *Triangulation) Vertices32() []f32.Vec3 {
	out := make([]f32.Vec3, len(t.Nodes))
	for i, p := range t.Nodes {
		out[i] = f32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	}
	return out
}

// binaryMagic prefixes the binary encoding.
var binaryMagic = [4]byte{'S', 'M', 'T', '1'}

// ErrBadEncoding is returned when decoding malformed data.
var ErrBadEncoding = errors.New("mesh: malformed triangulation encoding")

// triangulationHeader is the fixed-size part of the binary encoding.
type triangulationHeader struct {
	Magic      [4]byte
	Nodes      uint32
	Triangles  uint32
	HasUV      uint8
	HasNormals uint8
	_          [2]byte
	Deflection float64
}

// MarshalBinary encodes the triangulation in little-endian order. The
// encoding is stable: equal triangulations encode to equal bytes.
func (t *Triangulation) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	h := triangulationHeader{
		Magic:      binaryMagic,
		Nodes:      uint32(len(t.Nodes)),
		Triangles:  uint32(len(t.Triangles)),
		Deflection: t.Deflection,
	}
	if t.UVNodes != nil {
		h.HasUV = 1
	}
	if t.Normals != nil {
		h.HasNormals = 1
	}
	w := func(v any) error { return binary.Write(&buf, binary.LittleEndian, v) }
	if err := w(h); err != nil {
		return nil, err
	}
	for _, p := range t.Nodes {
		if err := w([3]float64{p.X, p.Y, p.Z}); err != nil {
			return nil, err
		}
	}
	for _, p := range t.UVNodes {
		if err := w([2]float64{p.X, p.Y}); err != nil {
			return nil, err
		}
	}
	for _, n := range t.Normals {
		if err := w([3]float64{n.X, n.Y, n.Z}); err != nil {
			return nil, err
		}
	}
	for _, tr := range t.Triangles {
		if err := w([3]uint32{uint32(tr[0]), uint32(tr[1]), uint32(tr[2])}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// payloadSize returns the byte length of the data following h.
func (h *triangulationHeader) payloadSize() uint64 {
	perNode := uint64(24)
	if h.HasUV != 0 {
		perNode += 16
	}
	if h.HasNormals != 0 {
		perNode += 24
	}
	return uint64(h.Nodes)*perNode + uint64(h.Triangles)*12
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (t *Triangulation) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	rd := func(v any) error { return binary.Read(r, binary.LittleEndian, v) }

	var h triangulationHeader
	if err := rd(&h); err != nil || h.Magic != binaryMagic {
		return ErrBadEncoding
	}
	if uint64(r.Len()) != h.payloadSize() {
		return ErrBadEncoding
	}
	*t = Triangulation{Deflection: h.Deflection}

	t.Nodes = make([]r3.Vector, h.Nodes)
	for i := range t.Nodes {
		var p [3]float64
		if err := rd(&p); err != nil {
			return ErrBadEncoding
		}
		t.Nodes[i] = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}
	if h.HasUV != 0 {
		t.UVNodes = make([]r2.Point, h.Nodes)
		for i := range t.UVNodes {
			var p [2]float64
			if err := rd(&p); err != nil {
				return ErrBadEncoding
			}
			t.UVNodes[i] = r2.Point{X: p[0], Y: p[1]}
		}
	}
	if h.HasNormals != 0 {
		t.Normals = make([]r3.Vector, h.Nodes)
		for i := range t.Normals {
			var n [3]float64
			if err := rd(&n); err != nil {
				return ErrBadEncoding
			}
			t.Normals[i] = r3.Vector{X: n[0], Y: n[1], Z: n[2]}
		}
	}
	t.Triangles = make([]Triangle, h.Triangles)
	for i := range t.Triangles {
		var tr [3]uint32
		if err := rd(&tr); err != nil {
			return ErrBadEncoding
		}
		for k := range tr {
			if tr[k] >= h.Nodes {
				return ErrBadEncoding
			}
			t.Triangles[i][k] = int(tr[k])
		}
	}
	if r.Len() != 0 {
		return ErrBadEncoding
	}
	return nil
}
