package gridio

import (
	"context"
	"fmt"

	"github.com/chazu/shadevol/pkg/grid"
	"github.com/chazu/shadevol/pkg/kernel"
)

// STLWriter writes the iso surface of a grid as an STL mesh.
type STLWriter struct {
	Kernel kernel.Kernel
	Iso    float64

	// Triangles is the triangle count of the last write.
	Triangles int
}

// Write extracts the surface of g at w.Iso and saves it to path.
func (w *STLWriter) Write(ctx context.Context, path string, g *grid.FloatGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := w.Kernel.SaveSTL(path, g, w.Iso)
	if err != nil {
		return fmt.Errorf("stl %s: %w", g.Name(), err)
	}
	w.Triangles = n
	return nil
}
