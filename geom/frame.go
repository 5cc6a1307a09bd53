package geom

import "github.com/golang/geo/r3"

// Frame is a right-handed orthonormal coordinate system.
type Frame struct {
	Origin r3.Vector
	X, Y   r3.Vector
	Z      r3.Vector
}

// StandardFrame returns the world frame at the origin.
func StandardFrame() Frame {
	return Frame{
		X: r3.Vector{X: 1},
		Y: r3.Vector{Y: 1},
		Z: r3.Vector{Z: 1},
	}
}

// NewFrame builds a frame from an origin, a main direction z and a
// reference direction x. x is projected onto the plane normal to z; if it
// is parallel to z an arbitrary perpendicular is used.
func NewFrame(origin, z, x r3.Vector) Frame {
	z = z.Normalize()
	x = x.Sub(z.Mul(x.Dot(z)))
	if x.Norm2() < 1e-24 {
		x = z.Ortho()
	}
	x = x.Normalize()
	return Frame{Origin: origin, X: x, Y: z.Cross(x), Z: z}
}

// Point returns origin + x*X + y*Y + z*Z.
func (f Frame) Point(x, y, z float64) r3.Vector {
	return f.Origin.Add(f.X.Mul(x)).Add(f.Y.Mul(y)).Add(f.Z.Mul(z))
}
