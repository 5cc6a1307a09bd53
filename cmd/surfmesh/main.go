// Command surfmesh meshes the shapes described by a YAML job file and
// prints a per-face report.
//
// Usage:
//
//	surfmesh -job job.yaml [-parallel] [-workers n] [-repeat n] [-dump dir] [-v]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/gogpu/surfmesh"
	"github.com/gogpu/surfmesh/cache"
)

func main() {
	var (
		jobPath  = flag.String("job", "", "YAML job file")
		parallel = flag.Bool("parallel", false, "mesh faces concurrently")
		workers  = flag.Int("workers", 0, "worker goroutines (0 = job setting, else GOMAXPROCS)")
		repeat   = flag.Int("repeat", 1, "mesh the job n times through a shared cache")
		dump     = flag.String("dump", "", "directory receiving one binary triangulation per face")
		verbose  = flag.Bool("v", false, "debug logging to stderr")
	)
	flag.Parse()

	if *jobPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	surfmesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *jobPath, *parallel, *workers, *repeat, *dump, os.Stdout); err != nil {
		log.Fatalf("surfmesh: %v", err)
	}
}

func run(ctx context.Context, jobPath string, parallel bool, workers, repeat int, dump string, w io.Writer) error {
	data, err := os.ReadFile(jobPath)
	if err != nil {
		return err
	}
	j, err := parseJob(data)
	if err != nil {
		return fmt.Errorf("%s: %w", jobPath, err)
	}
	shape, err := j.build()
	if err != nil {
		return fmt.Errorf("%s: %w", jobPath, err)
	}

	c := cache.New(0)
	m, err := newMesher(j, parallel, workers, c)
	if err != nil {
		return err
	}

	var res *surfmesh.Result
	for range max(repeat, 1) {
		if res, err = m.Perform(ctx, shape); err != nil {
			report(w, res)
			return err
		}
	}
	report(w, res)

	st := c.Stats()
	fmt.Fprintf(w, "cache: %d entries, %d hits, %d misses, %d shared\n", st.Len, st.Hits, st.Misses, st.Shared)

	if dump != "" {
		return dumpMeshes(dump, res)
	}
	return nil
}

// newMesher applies the command-line overrides to the job parameters. A
// zero workers flag keeps the job's own setting.
func newMesher(j *job, parallel bool, workers int, c *cache.MeshCache) (*surfmesh.Mesher, error) {
	p := j.Parameters
	if parallel {
		p.InParallel = true
	}
	opts := []surfmesh.Option{surfmesh.WithCache(c)}
	if workers > 0 {
		opts = append(opts, surfmesh.WithWorkers(workers))
	}
	return surfmesh.NewMesher(p, opts...)
}

func report(w io.Writer, res *surfmesh.Result) {
	if res == nil {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACE\tSURFACE\tNODES\tTRIANGLES\tDEFLECTION\tSTATUS")
	for i, fr := range res.Faces {
		kind := "-"
		if fr.Face.Surface != nil {
			kind = fr.Face.Surface.Kind().String()
		}
		if fr.Mesh == nil {
			fmt.Fprintf(tw, "%d\t%s\t-\t-\t-\t%v\n", i, kind, fr.Status)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.3g\t%v\n",
			i, kind, fr.Mesh.NbNodes(), fr.Mesh.NbTriangles(), fr.Mesh.Deflection, fr.Status)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "run %s: %d faces, %d nodes, %d triangles, status %v\n",
		res.RunID, len(res.Faces), res.NbNodes(), res.NbTriangles(), res.Status)
}

func dumpMeshes(dir string, res *surfmesh.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, fr := range res.Faces {
		if fr.Mesh == nil {
			continue
		}
		data, err := fr.Mesh.MarshalBinary()
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("face_%03d.smt", i)), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
