package surfmesh

import (
	"log/slog"

	"github.com/gogpu/surfmesh/cache"
)

// Option configures a Mesher during creation.
//
// Example:
//
//	// Sequential, silent, uncached
//	m, err := surfmesh.NewMesher(surfmesh.DefaultParameters())
//
//	// Shared cache across meshers, debug logging
//	c := cache.New(0)
//	m, err := surfmesh.NewMesher(params, surfmesh.WithCache(c), surfmesh.WithLogger(log))
type Option func(*mesherOptions)

type mesherOptions struct {
	cache   *cache.MeshCache
	logger  *slog.Logger
	workers int
}

// WithCache makes the mesher look faces up in c before meshing them and
// store finished faces in it. The cache may be shared between meshers.
func WithCache(c *cache.MeshCache) Option {
	return func(o *mesherOptions) {
		o.cache = c
	}
}

// WithLogger sets the logger of the mesher. Without it the package logger
// (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *mesherOptions) {
		o.logger = l
	}
}

// WithWorkers overrides Parameters.Workers for parallel runs.
func WithWorkers(n int) Option {
	return func(o *mesherOptions) {
		o.workers = n
	}
}
