// Package export turns a shader node tree into a density grid and writes
// it to disk. It locates the material output, follows its volume link to
// the shader, builds the IR once from the shader's density input and
// sweeps the lattice.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/shadevol/pkg/config"
	"github.com/chazu/shadevol/pkg/ctxlog"
	"github.com/chazu/shadevol/pkg/grid"
	"github.com/chazu/shadevol/pkg/gridio"
	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/nodetree"
	"github.com/chazu/shadevol/pkg/progress"
	"github.com/chazu/shadevol/pkg/sample"
)

var (
	// ErrNoOutputNode is returned when the tree has no material output.
	ErrNoOutputNode = errors.New("node tree has no material output")
	// ErrNoVolume is returned when the material output's volume input is
	// not linked to a volume shader.
	ErrNoVolume = errors.New("material output has no volume shader")
)

// Options configures one export.
type Options struct {
	Config config.Export
	// Reporter receives sweep progress. Nil discards it.
	Reporter progress.Reporter
	// Writer stores the grid. Nil picks one from Config.Output.
	Writer gridio.Writer
}

// Result describes a finished export.
type Result struct {
	Grid    *grid.FloatGrid
	Graph   *ir.Graph
	Shader  *nodetree.Node // volume shader the density came from
	Stats   sample.Stats
	Output  string // empty when nothing was written
	Elapsed time.Duration
}

// DensitySource returns the volume shader linked into the tree's material
// output and its density socket.
func DensitySource(t *nodetree.Tree) (*nodetree.Node, *nodetree.Socket, error) {
	out := t.MaterialOutput()
	if out == nil {
		return nil, nil, ErrNoOutputNode
	}
	vol := out.Input("Volume")
	if vol == nil || vol.Link == nil {
		return nil, nil, fmt.Errorf("%w: %q has no volume link", ErrNoVolume, out.Name)
	}
	shader := vol.Link.From
	density := shader.Input(nodetree.DensityInput)
	if !nodetree.IsVolumeShader(shader.Type) || density == nil {
		return nil, nil, fmt.Errorf("%w: %q is a %s node", ErrNoVolume, shader.Name, shader.Type)
	}
	return shader, density, nil
}

// Run exports t. The grid is written only when Config.Output is set or a
// Writer is given; a Writer without an output path is an error.
func Run(ctx context.Context, t *nodetree.Tree, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := opts.Writer
	if w != nil && cfg.Output == "" {
		return nil, fmt.Errorf("%w: a writer needs an output path", config.ErrInvalid)
	}
	if w == nil && cfg.Output != "" {
		var err error
		if w, err = gridio.ForPath(cfg.Output, gridio.Options{Iso: cfg.Iso}); err != nil {
			return nil, err
		}
	}

	shader, density, err := DensitySource(t)
	if err != nil {
		return nil, err
	}
	g, err := ir.Build(density)
	if err != nil {
		return nil, fmt.Errorf("building graph from %q: %w", shader.Name, err)
	}
	logger.Debug("Built density graph.", "shader", shader.Name, "nodes", len(g.Nodes))

	vol := grid.New(cfg.GridName, 0)
	stats, err := sample.Run(ctx, g, cfg.SampleConfig(), vol, opts.Reporter)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}
	logger.Debug("Sampled lattice.",
		"cells", stats.Cells,
		"evaluated", stats.Evaluated,
		"elapsed", stats.Elapsed,
	)

	res := &Result{Grid: vol, Graph: g, Shader: shader, Stats: stats}
	if w != nil {
		if err := w.Write(ctx, cfg.Output, vol); err != nil {
			return nil, fmt.Errorf("writing %s: %w", cfg.Output, err)
		}
		res.Output = cfg.Output
	}

	res.Elapsed = time.Since(start)
	logger.Info("Finished in", "seconds", fmt.Sprintf("%.2f", res.Elapsed.Seconds()), "output", res.Output)
	return res, nil
}
