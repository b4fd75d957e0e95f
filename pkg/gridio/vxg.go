package gridio

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chazu/shadevol/pkg/grid"
)

const vxgMagic = "VXG1"

type vxgFile struct {
	Magic string    `msgpack:"magic"`
	Grids []vxgGrid `msgpack:"grids"`
}

// vxgGrid stores the active mask in roaring's portable format and the
// voxel values in mask order.
type vxgGrid struct {
	Name       string    `msgpack:"name"`
	Background float32   `msgpack:"background"`
	Scale      []float64 `msgpack:"scale"`
	Mask       []byte    `msgpack:"mask"`
	Values     []float32 `msgpack:"values"`
}

// VXGWriter writes grids as a msgpack document.
type VXGWriter struct{}

// Write replaces the file at path with one holding g.
func (VXGWriter) Write(ctx context.Context, path string, g *grid.FloatGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mask, err := g.ActiveMask().MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode mask: %w", err)
	}
	scale := g.Transform().Scale
	doc := vxgFile{
		Magic: vxgMagic,
		Grids: []vxgGrid{{
			Name:       g.Name(),
			Background: g.Background(),
			Scale:      scale[:],
			Mask:       mask,
			Values:     g.Values(),
		}},
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := msgpack.NewEncoder(bw).Encode(&doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadVXG loads every grid in the file at path.
func ReadVXG(path string) ([]*grid.FloatGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var doc vxgFile
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Magic != vxgMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, doc.Magic)
	}

	out := make([]*grid.FloatGrid, 0, len(doc.Grids))
	for _, vg := range doc.Grids {
		if len(vg.Scale) != 3 {
			return nil, fmt.Errorf("%w: grid %s has %d scale components", ErrCorrupt, vg.Name, len(vg.Scale))
		}
		mask := roaring.New()
		if err := mask.UnmarshalBinary(vg.Mask); err != nil {
			return nil, fmt.Errorf("%w: grid %s mask: %v", ErrCorrupt, vg.Name, err)
		}
		g, err := grid.FromMask(vg.Name, vg.Background, mask, vg.Values)
		if err != nil {
			return nil, fmt.Errorf("%w: grid %s: %v", ErrCorrupt, vg.Name, err)
		}
		g.SetTransform(grid.Transform{Scale: [3]float64{vg.Scale[0], vg.Scale[1], vg.Scale[2]}})
		out = append(out, g)
	}
	return out, nil
}
