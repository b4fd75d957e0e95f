package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/shadevol/pkg/ctxlog"
	"github.com/chazu/shadevol/pkg/engine"
	"github.com/chazu/shadevol/pkg/export"
	"github.com/chazu/shadevol/pkg/gridio"
	"github.com/chazu/shadevol/pkg/hclload"
	"github.com/chazu/shadevol/pkg/kernel"
	"github.com/chazu/shadevol/pkg/kernel/sdfx"
	"github.com/chazu/shadevol/pkg/nodetree"
)

// ErrUnknownSource is returned for a node tree file with an unrecognised
// extension.
var ErrUnknownSource = errors.New("unknown node tree source")

// SourceError carries the user errors of a Lisp source that failed to
// evaluate.
type SourceError struct {
	Path   string
	Errors []engine.EvalError
}

func (e *SourceError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Path, ee.Error())
	}
	return strings.Join(msgs, "\n")
}

// App loads node trees and exports them. It holds the Lisp engine and the
// kernel used for STL surfaces.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// NewApp creates an App with a fresh engine and the sdfx kernel.
func NewApp(opts ...engine.Option) *App {
	return &App{
		engine: engine.NewEngine(opts...),
		kernel: sdfx.New(),
	}
}

// LoadTree reads the node tree at path. .lisp and .zy files are evaluated
// by the Lisp engine, .hcl files are decoded as node blocks.
func (a *App) LoadTree(ctx context.Context, path string) (*nodetree.Tree, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".lisp", ".zy":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading node tree: %w", err)
		}
		return a.Evaluate(ctx, path, string(src))
	case ".hcl":
		return hclload.Load(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, ext)
	}
}

// Evaluate runs Lisp source through the engine. name labels errors.
func (a *App) Evaluate(ctx context.Context, name, source string) (*nodetree.Tree, error) {
	tree, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", name, err)
	}
	if len(evalErrs) > 0 {
		return nil, &SourceError{Path: name, Errors: evalErrs}
	}
	ctxlog.FromContext(ctx).Debug("Evaluated Lisp node tree.", "source", name, "nodes", tree.NodeCount())
	return tree, nil
}

// Export loads the tree at path and exports it with opts. Without an
// explicit writer, STL output uses the App's kernel.
func (a *App) Export(ctx context.Context, path string, opts export.Options) (*export.Result, error) {
	tree, err := a.LoadTree(ctx, path)
	if err != nil {
		return nil, err
	}
	if opts.Writer == nil && opts.Config.Output != "" {
		w, err := gridio.ForPath(opts.Config.Output, gridio.Options{Iso: opts.Config.Iso, Kernel: a.kernel})
		if err != nil {
			return nil, err
		}
		opts.Writer = w
	}
	return export.Run(ctx, tree, opts)
}
