package surfmesh

import (
	"bytes"
	"errors"
	"log/slog"
	"runtime"
	"testing"

	"github.com/gogpu/surfmesh/cache"
)

func TestNewMesherDefaults(t *testing.T) {
	m, err := NewMesher(DefaultParameters())
	if err != nil {
		t.Fatalf("NewMesher() = %v", err)
	}
	if m.cache != nil {
		t.Error("cache should be nil by default")
	}
	if m.log != Logger() {
		t.Error("mesher should use the package logger by default")
	}
	if m.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("workers = %d, want GOMAXPROCS", m.workers)
	}
	if m.Parameters() != DefaultParameters() {
		t.Error("Parameters() does not return the construction parameters")
	}
}

func TestNewMesherRejectsInvalid(t *testing.T) {
	p := DefaultParameters()
	p.LinearDeflection = 0
	if _, err := NewMesher(p); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("NewMesher() = %v, want ErrInvalidParameters", err)
	}
}

func TestWithOptions(t *testing.T) {
	c := cache.New(4)
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	p := DefaultParameters()
	p.Workers = 2
	m, err := NewMesher(p, WithCache(c), WithLogger(l))
	if err != nil {
		t.Fatalf("NewMesher() = %v", err)
	}
	if m.cache != c {
		t.Error("WithCache not applied")
	}
	if m.log != l {
		t.Error("WithLogger not applied")
	}
	if m.workers != 2 {
		t.Errorf("workers = %d, want Parameters.Workers", m.workers)
	}

	m, err = NewMesher(p, WithWorkers(5))
	if err != nil {
		t.Fatalf("NewMesher() = %v", err)
	}
	if m.workers != 5 {
		t.Errorf("workers = %d, want 5 from WithWorkers", m.workers)
	}
}
