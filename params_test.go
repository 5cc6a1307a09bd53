package surfmesh

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/surfmesh/internal/refine"
)

func TestDefaultParametersValid(t *testing.T) {
	p := DefaultParameters()
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultParameters().Validate() = %v", err)
	}
	if p.MaxIterations != refine.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", p.MaxIterations, refine.DefaultMaxIterations)
	}
	if p.DeflectionMetric != MetricMax {
		t.Errorf("DeflectionMetric = %q, want %q", p.DeflectionMetric, MetricMax)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Parameters)
		ok     bool
	}{
		{"defaults", func(*Parameters) {}, true},
		{"zero linear deflection", func(p *Parameters) { p.LinearDeflection = 0 }, false},
		{"negative linear deflection", func(p *Parameters) { p.LinearDeflection = -1 }, false},
		{"NaN linear deflection", func(p *Parameters) { p.LinearDeflection = math.NaN() }, false},
		{"infinite linear deflection", func(p *Parameters) { p.LinearDeflection = math.Inf(1) }, false},
		{"zero angular deflection", func(p *Parameters) { p.AngularDeflection = 0 }, false},
		{"negative min size", func(p *Parameters) { p.MinSize = -0.1 }, false},
		{"negative interior deflection", func(p *Parameters) { p.DeflectionInterior = -1 }, false},
		{"negative iterations", func(p *Parameters) { p.MaxIterations = -1 }, false},
		{"negative workers", func(p *Parameters) { p.Workers = -2 }, false},
		{"unknown metric", func(p *Parameters) { p.DeflectionMetric = "mean" }, false},
		{"empty metric", func(p *Parameters) { p.DeflectionMetric = "" }, true},
		{"rms metric", func(p *Parameters) { p.DeflectionMetric = MetricRMS }, true},
		{"interior overrides", func(p *Parameters) { p.DeflectionInterior, p.AngleInterior = 0.1, 0.2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.modify(&p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Validate() = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestParseParameters(t *testing.T) {
	p, err := ParseParameters([]byte(`
linear_deflection: 0.05
angular_deflection: 0.25
min_size: 0.001
relative: true
deflection_metric: rms
in_parallel: true
workers: 3
`))
	if err != nil {
		t.Fatalf("ParseParameters() = %v", err)
	}
	if p.LinearDeflection != 0.05 || p.AngularDeflection != 0.25 || p.MinSize != 0.001 {
		t.Errorf("tolerances = %v %v %v", p.LinearDeflection, p.AngularDeflection, p.MinSize)
	}
	if !p.Relative || !p.InParallel || p.Workers != 3 || p.DeflectionMetric != MetricRMS {
		t.Errorf("flags not decoded: %+v", p)
	}
	// Keys absent from the document keep their defaults.
	if !p.ControlSurfaceDeflection || p.MaxIterations != refine.DefaultMaxIterations {
		t.Errorf("defaults lost: %+v", p)
	}
}

func TestParseParametersEmpty(t *testing.T) {
	p, err := ParseParameters(nil)
	if err != nil {
		t.Fatalf("ParseParameters(nil) = %v", err)
	}
	if p != DefaultParameters() {
		t.Errorf("ParseParameters(nil) = %+v, want defaults", p)
	}
}

func TestParseParametersRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":   "linear_deflection: 0.1\nlinear_deflektion: 0.2\n",
		"invalid value": "linear_deflection: -1\n",
		"wrong type":    "max_iterations: many\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseParameters([]byte(doc)); !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("ParseParameters() = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestLoadParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte("linear_deflection: 0.2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := LoadParameters(path)
	if err != nil {
		t.Fatalf("LoadParameters() = %v", err)
	}
	if p.LinearDeflection != 0.2 {
		t.Errorf("LinearDeflection = %v, want 0.2", p.LinearDeflection)
	}

	if _, err := LoadParameters(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadParameters(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestInteriorFallbacks(t *testing.T) {
	p := DefaultParameters()
	rp := p.refineParams(10)
	if rp.Deflection != p.LinearDeflection || rp.Angle != p.AngularDeflection {
		t.Errorf("refineParams = %+v, want boundary tolerances", rp)
	}

	p.DeflectionInterior, p.AngleInterior = 0.3, 0.4
	rp = p.refineParams(10)
	if rp.Deflection != 0.3 || rp.Angle != 0.4 {
		t.Errorf("refineParams = %+v, want interior overrides", rp)
	}

	p.Relative = true
	if got := p.splitParams(10).Deflection; math.Abs(got-3) > 1e-12 {
		t.Errorf("relative deflection = %v, want 3", got)
	}
}

func TestFingerprint(t *testing.T) {
	base := DefaultParameters()
	if base.fingerprint() != DefaultParameters().fingerprint() {
		t.Fatal("fingerprint is not deterministic")
	}

	// Scheduling does not change the mesh.
	sched := base
	sched.InParallel, sched.Workers = true, 8
	if sched.fingerprint() != base.fingerprint() {
		t.Error("InParallel/Workers must not change the fingerprint")
	}

	for name, modify := range map[string]func(*Parameters){
		"deflection": func(p *Parameters) { p.LinearDeflection *= 2 },
		"angle":      func(p *Parameters) { p.AngularDeflection /= 2 },
		"min size":   func(p *Parameters) { p.MinSize = 0.5 },
		"relative":   func(p *Parameters) { p.Relative = true },
		"planar":     func(p *Parameters) { p.PlanarSubdivision = true },
		"metric":     func(p *Parameters) { p.DeflectionMetric = MetricRMS },
		"iterations": func(p *Parameters) { p.MaxIterations = 3 },
	} {
		p := base
		modify(&p)
		if p.fingerprint() == base.fingerprint() {
			t.Errorf("%s: fingerprint unchanged", name)
		}
	}
}
