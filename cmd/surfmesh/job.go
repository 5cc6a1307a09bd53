package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/surfmesh"
	"github.com/gogpu/surfmesh/brep"
	"github.com/gogpu/surfmesh/geom"
)

var errBadJob = errors.New("invalid job")

// job is a meshing request read from YAML:
//
//	parameters:
//	  linear_deflection: 0.01
//	shapes:
//	  - kind: sphere
//	    radius: 1
//	  - kind: cylinder
//	    radius: 1
//	    height: 2
//	    origin: [3, 0, 0]
type job struct {
	Parameters surfmesh.Parameters `yaml:"parameters"`
	Shapes     []shapeSpec         `yaml:"shapes"`
}

type shapeSpec struct {
	Kind      string       `yaml:"kind"`
	Origin    [3]float64   `yaml:"origin"`
	Radius    float64      `yaml:"radius"`
	Height    float64      `yaml:"height"`
	Width     float64      `yaml:"width"`
	Major     float64      `yaml:"major"`
	Minor     float64      `yaml:"minor"`
	SemiAngle float64      `yaml:"semi_angle"`
	V0        float64      `yaml:"v0"`
	V1        float64      `yaml:"v1"`
	Points    [][2]float64 `yaml:"points"`
}

func parseJob(data []byte) (*job, error) {
	j := &job{Parameters: surfmesh.DefaultParameters()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(j); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", errBadJob, err)
	}
	if err := j.Parameters.Validate(); err != nil {
		return nil, err
	}
	if len(j.Shapes) == 0 {
		return nil, fmt.Errorf("%w: no shapes", errBadJob)
	}
	return j, nil
}

// build assembles the shapes of the job into one compound.
func (j *job) build() (*brep.Shape, error) {
	children := make([]*brep.Shape, 0, len(j.Shapes))
	for i, s := range j.Shapes {
		sh, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		children = append(children, sh)
	}
	return brep.Compound(children...), nil
}

func (s shapeSpec) build() (*brep.Shape, error) {
	frame := geom.StandardFrame()
	frame.Origin = r3.Vector{X: s.Origin[0], Y: s.Origin[1], Z: s.Origin[2]}

	positive := func(name string, v float64) error {
		if !(v > 0) {
			return fmt.Errorf("%w: %s %s must be positive", errBadJob, s.Kind, name)
		}
		return nil
	}
	switch s.Kind {
	case "sphere":
		if err := positive("radius", s.Radius); err != nil {
			return nil, err
		}
		return brep.Single(brep.NewSphereFace(frame, s.Radius)), nil
	case "cylinder":
		if err := errors.Join(positive("radius", s.Radius), positive("height", s.Height)); err != nil {
			return nil, err
		}
		return brep.NewCylinder(frame, s.Radius, s.Height), nil
	case "cone":
		if err := positive("radius", s.Radius); err != nil {
			return nil, err
		}
		if !(s.V1 > s.V0) {
			return nil, fmt.Errorf("%w: cone needs v0 < v1", errBadJob)
		}
		return brep.Single(brep.NewConeFace(frame, s.Radius, s.SemiAngle, s.V0, s.V1)), nil
	case "torus":
		if err := errors.Join(positive("major", s.Major), positive("minor", s.Minor)); err != nil {
			return nil, err
		}
		if s.Minor >= s.Major {
			return nil, fmt.Errorf("%w: torus minor radius must be below major", errBadJob)
		}
		return brep.Single(brep.NewTorusFace(frame, s.Major, s.Minor)), nil
	case "disc":
		if err := positive("radius", s.Radius); err != nil {
			return nil, err
		}
		return brep.Single(brep.NewDisc(frame, s.Radius)), nil
	case "rectangle":
		if err := errors.Join(positive("width", s.Width), positive("height", s.Height)); err != nil {
			return nil, err
		}
		return brep.Single(brep.NewRectangle(frame, s.Width, s.Height)), nil
	case "polygon":
		if len(s.Points) < 3 {
			return nil, fmt.Errorf("%w: polygon needs at least 3 points", errBadJob)
		}
		pts := make([]r2.Point, len(s.Points))
		for i, p := range s.Points {
			pts[i] = r2.Point{X: p[0], Y: p[1]}
		}
		return brep.Single(brep.NewPolygon(frame, pts)), nil
	}
	return nil, fmt.Errorf("%w: unknown shape kind %q", errBadJob, s.Kind)
}
