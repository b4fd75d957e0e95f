package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chazu/shadevol/pkg/config"
	"github.com/chazu/shadevol/pkg/ctxlog"
	"github.com/chazu/shadevol/pkg/export"
	"github.com/chazu/shadevol/pkg/grid"
	"github.com/chazu/shadevol/pkg/gridio"
	"github.com/chazu/shadevol/pkg/hclload"
	"github.com/chazu/shadevol/pkg/ir"
	"github.com/chazu/shadevol/pkg/nodetree"
	"github.com/chazu/shadevol/pkg/ops"
	"github.com/chazu/shadevol/pkg/progress"
)

// Exit codes.
const (
	exitFailure   = 1   // I/O and other runtime failures
	exitUsage     = 2   // bad flags, arguments, configuration or source
	exitTree      = 3   // the node tree cannot be exported
	exitCancelled = 130 // interrupted
)

// ExitError is an error with a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitError assigns an exit code to err.
func exitError(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var srcErr *SourceError
	code := exitFailure
	switch {
	case errors.Is(err, context.Canceled):
		code = exitCancelled
	case errors.As(err, &srcErr),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, hclload.ErrInvalid),
		errors.Is(err, ErrUnknownSource),
		errors.Is(err, gridio.ErrUnknownFormat),
		errors.Is(err, gridio.ErrWriteOnly),
		strings.HasPrefix(err.Error(), "unknown command"):
		code = exitUsage
	case errors.Is(err, export.ErrNoOutputNode),
		errors.Is(err, export.ErrNoVolume),
		errors.Is(err, ir.ErrUnsupportedOperation),
		errors.Is(err, ir.ErrCyclicGraph),
		errors.Is(err, ir.ErrMissingDefault),
		errors.Is(err, ir.ErrBadLink):
		code = exitTree
	}
	return &ExitError{Code: code, Message: err.Error()}
}

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Message: err.Error()}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func newRootCmd(app *App, stdout, stderr io.Writer) *cobra.Command {
	var logLevel, logFormat string
	root := &cobra.Command{
		Use:           "shadevol",
		Short:         "Export shader node trees as volumetric density grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, logFormat, stderr)
			if err != nil {
				return usageError(err)
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format: text or json.")

	root.AddCommand(
		newExportCmd(app, stdout, stderr),
		newValidateCmd(app, stdout),
		newInspectCmd(app, stdout),
		newOpsCmd(stdout),
	)
	return root
}

func newExportCmd(app *App, stdout, stderr io.Writer) *cobra.Command {
	var (
		f            config.Export
		preset       string
		savePreset   string
		progressMode string
	)
	cmd := &cobra.Command{
		Use:   "export TREE",
		Short: "Sample a node tree's volume density into a grid file",
		Long: `Sample the density input of the volume shader linked to the tree's
material output over a (2n)^3 lattice and write the grid.

TREE is a .lisp/.zy program or an .hcl node file. The output extension
selects the format: .db/.sqlite for a SQLite voxel store, .vxg for a
msgpack grid stream, .stl for an iso surface.

Flags override the fields of a --preset they are explicitly set for.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := ctxlog.FromContext(ctx)

			cfg, err := resolveConfig(cmd, preset, f)
			if err != nil {
				return err
			}
			if savePreset != "" {
				if err := config.SavePreset(savePreset, cfg); err != nil {
					return err
				}
				logger.Info("Saved preset.", "path", savePreset)
			}
			if cfg.Output == "" {
				return usageError(errors.New("export: no output path; pass --output or set output in the preset"))
			}
			rep, err := progressFor(progressMode, stderr, logger)
			if err != nil {
				return err
			}

			res, err := app.Export(ctx, args[0], export.Options{Config: cfg, Reporter: rep})
			if err != nil {
				return err
			}
			printSummary(stdout, res)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.Output, "output", "o", "", "Output grid path.")
	flags.IntVarP(&f.VoxelCount, "voxel-count", "n", config.DefaultVoxelCount, "Lattice half extent; the grid has (2n)^3 cells.")
	flags.BoolVar(&f.ClampNegative, "clamp-negative", false, "Store negative densities as 0.")
	flags.IntVarP(&f.Workers, "workers", "j", 1, "Concurrent x-slab evaluators.")
	flags.StringVar(&f.GridName, "grid-name", config.DefaultGridName, "Name of the grid in the output file.")
	flags.Float64Var(&f.Iso, "iso", config.DefaultIso, "Density level of the STL surface.")
	flags.StringVar(&preset, "preset", "", "YAML preset to start from.")
	flags.StringVar(&savePreset, "save-preset", "", "Write the resolved parameters to this YAML preset.")
	flags.StringVar(&progressMode, "progress", "auto", "Progress display: auto, bar, log or none.")
	return cmd
}

// resolveConfig starts from the preset, or the defaults without one, and
// applies the flags the user set.
func resolveConfig(cmd *cobra.Command, preset string, f config.Export) (config.Export, error) {
	cfg := config.Default()
	if preset != "" {
		var err error
		if cfg, err = config.LoadPreset(preset); err != nil {
			return config.Export{}, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output = f.Output
	}
	if changed("voxel-count") {
		cfg.VoxelCount = f.VoxelCount
	}
	if changed("clamp-negative") {
		cfg.ClampNegative = f.ClampNegative
	}
	if changed("workers") {
		cfg.Workers = f.Workers
	}
	if changed("grid-name") {
		cfg.GridName = f.GridName
	}
	if changed("iso") {
		cfg.Iso = f.Iso
	}
	if err := cfg.Validate(); err != nil {
		return config.Export{}, err
	}
	return cfg, nil
}

func progressFor(mode string, w io.Writer, logger *slog.Logger) (progress.Reporter, error) {
	switch mode {
	case "auto":
		if isTerminal(w) {
			return progress.NewBar(w, "Exporting"), nil
		}
		return progress.NewLog(logger, "Exporting."), nil
	case "bar":
		return progress.NewBar(w, "Exporting"), nil
	case "log":
		return progress.NewLog(logger, "Exporting."), nil
	case "none":
		return progress.Nop{}, nil
	}
	return nil, usageError(fmt.Errorf("invalid progress %q: must be 'auto', 'bar', 'log' or 'none'", mode))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printSummary(w io.Writer, res *export.Result) {
	size := "unknown size"
	if st, err := os.Stat(res.Output); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	fmt.Fprintf(w, "Wrote %s (%s): grid %q, %s active voxels, %s evaluations in %s\n",
		res.Output, size, res.Grid.Name(),
		humanize.Comma(int64(res.Grid.ActiveVoxelCount())),
		humanize.Comma(int64(res.Stats.Evaluated)),
		res.Elapsed.Round(time.Millisecond),
	)
}

func newValidateCmd(app *App, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate TREE",
		Short: "Check that a node tree can be exported",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := app.LoadTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// Structural errors first; the graph is only built for a tree
			// that passes them.
			findings := nodetree.Validate(tree)
			if !nodetree.HasErrors(findings) {
				if shader, density, err := export.DensitySource(tree); err != nil {
					findings = append(findings, nodetree.Finding{Message: err.Error(), Severity: nodetree.SeverityError})
				} else if _, err := ir.Build(density); err != nil {
					findings = append(findings, nodetree.Finding{Node: shader.Name, Message: err.Error(), Severity: nodetree.SeverityError})
				}
			}

			errs, warnings := 0, 0
			for _, f := range findings {
				fmt.Fprintln(stdout, f.Error())
				if f.Severity == nodetree.SeverityError {
					errs++
				} else {
					warnings++
				}
			}
			if errs > 0 {
				return &ExitError{Code: exitTree, Message: fmt.Sprintf("%s: %d error(s)", args[0], errs)}
			}
			fmt.Fprintf(stdout, "%s: ok, %d nodes, %d warning(s)\n", args[0], tree.NodeCount(), warnings)
			return nil
		},
	}
}

func newInspectCmd(app *App, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Describe a grid file or the density graph of a node tree",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			if f, err := gridio.FormatOf(path); err == nil && f != gridio.FormatSTL {
				grids, err := gridio.Read(ctx, path)
				if err != nil {
					return err
				}
				for _, g := range grids {
					describeGrid(stdout, g)
				}
				return nil
			}

			tree, err := app.LoadTree(ctx, path)
			if err != nil {
				return err
			}
			shader, density, err := export.DensitySource(tree)
			if err != nil {
				return err
			}
			g, err := ir.Build(density)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "shader %q (%s), %d graph nodes\n", shader.Name, shader.Type, len(g.Nodes))
			fmt.Fprint(stdout, g.String())
			return nil
		},
	}
}

func describeGrid(w io.Writer, g *grid.FloatGrid) {
	fmt.Fprintf(w, "grid %q: %s active voxels in %s leaves, voxel size %g\n",
		g.Name(),
		humanize.Comma(int64(g.ActiveVoxelCount())),
		humanize.Comma(int64(g.LeafCount())),
		g.VoxelSize(),
	)
	lo, hi, ok := g.Bounds()
	if !ok {
		return
	}
	vmin, vmax := math.Inf(1), math.Inf(-1)
	_ = g.ForEachActive(func(_ grid.Coord, v float32) error {
		vmin = math.Min(vmin, float64(v))
		vmax = math.Max(vmax, float64(v))
		return nil
	})
	fmt.Fprintf(w, "  index bounds %s .. %s\n", lo, hi)
	fmt.Fprintf(w, "  values %g .. %g\n", vmin, vmax)
}

func newOpsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "ops [PREFIX]",
		Short: "List the supported operation identifiers",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = strings.ToUpper(args[0])
			}
			for _, k := range ops.Kinds() {
				if strings.HasPrefix(k, prefix) {
					fmt.Fprintln(stdout, k)
				}
			}
			return nil
		},
	}
}
