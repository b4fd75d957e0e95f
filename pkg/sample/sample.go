// Package sample sweeps the evaluation lattice and fills a density grid.
//
// For a voxel count n the lattice covers every integer index x, y, z in
// [-n, n). Each cell is evaluated at the normalized coordinate
// (x/n, y/n, z/n) with a freshly reset evaluator cache, and once the sweep
// is done the grid gets a uniform 1/n scale so index space lines up with
// the coordinates the graph saw.
package sample

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/shadevol/pkg/eval"
	"github.com/chazu/shadevol/pkg/grid"
	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/progress"
)

// MaxVoxelCount is the largest voxel count the grid index range can hold.
const MaxVoxelCount = -grid.MinIndex

// ErrVoxelCount is returned for a voxel count outside [1, MaxVoxelCount].
var ErrVoxelCount = errors.New("voxel count out of range")

// Config controls one sweep.
type Config struct {
	VoxelCount    int  // half extent of the lattice
	ClampNegative bool // store max(0, density) instead of density
	Workers       int  // x-slabs evaluated concurrently; <= 1 sweeps sequentially
}

// Stats summarizes a finished sweep.
type Stats struct {
	Cells     int           // lattice cells written
	Evaluated uint64        // operation invocations; 0 for constant density
	Elapsed   time.Duration // wall time of the sweep
}

// Volume is the grid a sweep writes into.
type Volume interface {
	Accessor() *grid.Accessor
	Scale(sx, sy, sz float64)
}

// Run sweeps the lattice for g and writes every cell into vol. A nil
// reporter is allowed. The sweep stops early when ctx is cancelled.
func Run(ctx context.Context, g *ir.Graph, cfg Config, vol Volume, rep progress.Reporter) (Stats, error) {
	n := cfg.VoxelCount
	if n < 1 || n > MaxVoxelCount {
		return Stats{}, fmt.Errorf("%w: %d", ErrVoxelCount, n)
	}
	if rep == nil {
		rep = progress.Nop{}
	}

	start := time.Now()
	s := &sweep{n: n, side: 2 * n, clamp: cfg.ClampNegative, acc: vol.Accessor(), rep: rep}
	s.total = s.side * s.side * s.side

	var err error
	switch v, constant := g.Constant(); {
	case constant:
		err = s.fill(ctx, v.Float())
	case cfg.Workers > 1:
		err = s.parallel(ctx, g, cfg.Workers)
	default:
		err = s.sequential(ctx, g)
	}

	stats := Stats{Cells: s.done, Evaluated: s.calls.Load(), Elapsed: time.Since(start)}
	if err != nil {
		return stats, err
	}

	inv := 1 / float64(n)
	vol.Scale(inv, inv, inv)
	return stats, nil
}

type sweep struct {
	n, side, total int
	clamp          bool
	acc            *grid.Accessor
	rep            progress.Reporter
	done           int
	calls          atomic.Uint64
}

func (s *sweep) coord(x, y, z int) ir.Coord {
	n := float64(s.n)
	return ir.Coord{float64(x) / n, float64(y) / n, float64(z) / n}
}

func (s *sweep) density(v float64) float32 {
	if s.clamp && v < 0 {
		return 0
	}
	return float32(v)
}

// writeRow stores one z-row of finished values for (x, y).
func (s *sweep) writeRow(x, y int, row []float32) error {
	for i, v := range row {
		if err := s.acc.SetValue(x, y, i-s.n, v); err != nil {
			return err
		}
	}
	s.done += len(row)
	s.rep.Report(s.done, s.total)
	return nil
}

// fill writes a constant density everywhere without touching the graph.
func (s *sweep) fill(ctx context.Context, v float64) error {
	row := make([]float32, s.side)
	for i := range row {
		row[i] = s.density(v)
	}
	for x := -s.n; x < s.n; x++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for y := -s.n; y < s.n; y++ {
			if err := s.writeRow(x, y, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sweep) sequential(ctx context.Context, g *ir.Graph) error {
	e := eval.New(g)
	row := make([]float32, s.side)
	defer func() { s.calls.Add(e.Calls()) }()

	for x := -s.n; x < s.n; x++ {
		for y := -s.n; y < s.n; y++ {
			if err := s.evalRow(ctx, e, x, y, row); err != nil {
				return err
			}
			if err := s.writeRow(x, y, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalRow evaluates the cells (x, y, -n..n-1) into row, checking for
// cancellation between cells.
func (s *sweep) evalRow(ctx context.Context, e *eval.Evaluator, x, y int, row []float32) error {
	done := ctx.Done()
	for i := range row {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		e.Reset()
		v, err := e.Density(s.coord(x, y, i-s.n))
		if err != nil {
			return fmt.Errorf("cell (%d, %d, %d): %w", x, y, i-s.n, err)
		}
		row[i] = s.density(v)
	}
	return nil
}

// slab holds the evaluated values of one x plane, y-major.
type slab struct {
	x      int
	values []float32
}

// parallel evaluates x-slabs on a bounded pool. Each worker owns its own
// evaluator; only this goroutine touches the grid accessor.
func (s *sweep) parallel(ctx context.Context, g *ir.Graph, workers int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	slabs := make(chan slab, workers)
	waited := make(chan error, 1)

	go func() {
		for x := -s.n; x < s.n; x++ {
			eg.Go(func() error {
				return s.evalSlab(ctx, g, x, slabs)
			})
		}
		waited <- eg.Wait()
		close(slabs)
	}()

	var writeErr error
	for sl := range slabs {
		if writeErr != nil {
			continue // drain so workers never block
		}
		for y := -s.n; y < s.n; y++ {
			i := (y + s.n) * s.side
			if writeErr = s.writeRow(sl.x, y, sl.values[i:i+s.side]); writeErr != nil {
				cancel()
				break
			}
		}
	}
	err := <-waited
	if writeErr != nil {
		return writeErr
	}
	return err
}

func (s *sweep) evalSlab(ctx context.Context, g *ir.Graph, x int, out chan<- slab) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := eval.New(g)
	defer func() { s.calls.Add(e.Calls()) }()

	values := make([]float32, s.side*s.side)
	for y := -s.n; y < s.n; y++ {
		i := (y + s.n) * s.side
		if err := s.evalRow(ctx, e, x, y, values[i:i+s.side]); err != nil {
			return err
		}
	}

	select {
	case out <- slab{x: x, values: values}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
