package surfmesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/surfmesh/internal/discret"
	"github.com/gogpu/surfmesh/internal/refine"
	"github.com/gogpu/surfmesh/internal/split"
)

// ErrInvalidParameters is returned by Validate and the loaders.
var ErrInvalidParameters = errors.New("surfmesh: invalid parameters")

// DeflectionMetric selects how the sampled deviations of a triangle are
// combined when checking the deflection bound.
type DeflectionMetric string

// Deflection metrics.
const (
	MetricMax DeflectionMetric = "max"
	MetricRMS DeflectionMetric = "rms"
)

func (m DeflectionMetric) metric() (refine.Metric, bool) {
	switch m {
	case "", MetricMax:
		return refine.Max, true
	case MetricRMS:
		return refine.RMS, true
	}
	return 0, false
}

// Parameters control the tessellation. Angles are in radians, lengths in
// model units. The zero value is not valid; start from DefaultParameters.
type Parameters struct {
	// LinearDeflection bounds the chordal deviation of boundary curves and,
	// unless DeflectionInterior is set, of the surface.
	LinearDeflection float64 `yaml:"linear_deflection"`

	// AngularDeflection bounds the turn between consecutive boundary
	// segments and, unless AngleInterior is set, the angle between facet
	// and surface normals along the boundary.
	AngularDeflection float64 `yaml:"angular_deflection"`

	// DeflectionInterior overrides LinearDeflection inside faces when > 0.
	DeflectionInterior float64 `yaml:"deflection_interior"`

	// AngleInterior overrides AngularDeflection inside faces when > 0.
	AngleInterior float64 `yaml:"angle_interior"`

	// MinSize is the shortest edge the mesher creates on purpose.
	MinSize float64 `yaml:"min_size"`

	// Relative makes the deflections fractions of the edge or face size.
	Relative bool `yaml:"relative"`

	// MaxIterations caps surface refinement. Zero selects the default.
	MaxIterations int `yaml:"max_iterations"`

	// ControlSurfaceDeflection enables surface refinement.
	ControlSurfaceDeflection bool `yaml:"control_surface_deflection"`

	// PlanarSubdivision adds interior nodes to planar faces.
	PlanarSubdivision bool `yaml:"planar_subdivision"`

	DeflectionMetric DeflectionMetric `yaml:"deflection_metric"`

	// InParallel meshes faces concurrently on Workers goroutines.
	InParallel bool `yaml:"in_parallel"`

	// Workers bounds the goroutines of a parallel run. Zero means
	// GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultParameters returns the parameters used when nothing is specified.
func DefaultParameters() Parameters {
	return Parameters{
		LinearDeflection:         0.01,
		AngularDeflection:        0.5,
		MaxIterations:            refine.DefaultMaxIterations,
		ControlSurfaceDeflection: true,
		DeflectionMetric:         MetricMax,
	}
}

// Validate reports the first invalid field.
func (p Parameters) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParameters, name, v)
		}
		return nil
	}
	nonNegative := func(name string, v float64) error {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidParameters, name, v)
		}
		return nil
	}
	if err := positive("linear_deflection", p.LinearDeflection); err != nil {
		return err
	}
	if err := positive("angular_deflection", p.AngularDeflection); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"deflection_interior", p.DeflectionInterior},
		{"angle_interior", p.AngleInterior},
		{"min_size", p.MinSize},
	} {
		if err := nonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("%w: max_iterations must not be negative, got %d", ErrInvalidParameters, p.MaxIterations)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidParameters, p.Workers)
	}
	if _, ok := p.DeflectionMetric.metric(); !ok {
		return fmt.Errorf("%w: unknown deflection_metric %q", ErrInvalidParameters, p.DeflectionMetric)
	}
	return nil
}

// ParseParameters decodes YAML over DefaultParameters and validates the
// result. Unknown keys are rejected.
func ParseParameters(data []byte) (Parameters, error) {
	p := DefaultParameters()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// LoadParameters reads a YAML parameter file.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("surfmesh: load parameters: %w", err)
	}
	p, err := ParseParameters(data)
	if err != nil {
		return Parameters{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (p Parameters) interiorDeflection() float64 {
	if p.DeflectionInterior > 0 {
		return p.DeflectionInterior
	}
	return p.LinearDeflection
}

func (p Parameters) interiorAngle() float64 {
	if p.AngleInterior > 0 {
		return p.AngleInterior
	}
	return p.AngularDeflection
}

func (p Parameters) discretParams() discret.Params {
	return discret.Params{
		Deflection: p.LinearDeflection,
		Angle:      p.AngularDeflection,
		MinSize:    p.MinSize,
		Relative:   p.Relative,
	}
}

// splitParams returns the node spacing tolerances for a face of the given size.
func (p Parameters) splitParams(size float64) split.Params {
	return split.Params{
		Deflection: p.scaled(p.interiorDeflection(), size),
		Angle:      p.interiorAngle(),
		MinSize:    p.MinSize,
	}
}

func (p Parameters) refineParams(size float64) refine.Params {
	metric, _ := p.DeflectionMetric.metric()
	return refine.Params{
		Deflection:    p.scaled(p.interiorDeflection(), size),
		Angle:         p.interiorAngle(),
		MinSize:       p.MinSize,
		MaxIterations: p.MaxIterations,
		Metric:        metric,
	}
}

func (p Parameters) scaled(d, size float64) float64 {
	if p.Relative && size > 0 {
		return d * size
	}
	return d
}

// fingerprint hashes the fields that change the produced mesh.
func (p Parameters) fingerprint() uint64 {
	metric, _ := p.DeflectionMetric.metric()
	var flags byte
	for i, b := range []bool{p.Relative, p.ControlSurfaceDeflection, p.PlanarSubdivision} {
		if b {
			flags |= 1 << i
		}
	}
	buf := make([]byte, 0, 5*8+8+2)
	for _, v := range []float64{p.LinearDeflection, p.AngularDeflection, p.DeflectionInterior, p.AngleInterior, p.MinSize} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.MaxIterations))
	buf = append(buf, flags, byte(metric))

	h := fnv.New64a()
	_, _ = h.Write(buf) // fnv.Write never returns an error
	return h.Sum64()
}
