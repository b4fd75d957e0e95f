// Package gridio writes density grids to disk and reads them back.
//
// The output path's extension selects the format:
//
//	.db, .sqlite  SQLite voxel store, one row per active voxel
//	.vxg          msgpack stream of grids with roaring active masks
//	.stl          iso surface extracted by a kernel.Kernel (write only)
package gridio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/shadevol/pkg/grid"
	"github.com/chazu/shadevol/pkg/kernel"
	"github.com/chazu/shadevol/pkg/kernel/sdfx"
)

var (
	// ErrUnknownFormat is returned for an unrecognised file extension.
	ErrUnknownFormat = errors.New("unknown grid file format")
	// ErrWriteOnly is returned when reading a format that only stores a
	// derived surface.
	ErrWriteOnly = errors.New("format cannot be read back")
	// ErrCorrupt is returned when a file does not decode to a valid grid.
	ErrCorrupt = errors.New("corrupt grid file")
)

// Format names a file format.
type Format string

// Supported formats.
const (
	FormatSQLite Format = "sqlite"
	FormatVXG    Format = "vxg"
	FormatSTL    Format = "stl"
)

// FormatOf returns the format for path's extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".vxg":
		return FormatVXG, nil
	case ".stl":
		return FormatSTL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Writer stores a grid at path, replacing any existing file.
type Writer interface {
	Write(ctx context.Context, path string, g *grid.FloatGrid) error
}

// Options configures the writers ForPath returns.
type Options struct {
	// Iso is the density level of the STL surface.
	Iso float64
	// Kernel extracts the STL surface. Nil uses the sdfx kernel.
	Kernel kernel.Kernel
	// BatchSize is the number of voxel rows per SQLite transaction. Zero
	// uses the default.
	BatchSize int
}

// ForPath returns the writer for path's extension.
func ForPath(path string, opts Options) (Writer, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatSQLite:
		return &SQLiteWriter{BatchSize: opts.BatchSize}, nil
	case FormatVXG:
		return VXGWriter{}, nil
	default:
		k := opts.Kernel
		if k == nil {
			k = sdfx.New()
		}
		return &STLWriter{Kernel: k, Iso: opts.Iso}, nil
	}
}

// Read loads every grid stored at path.
func Read(ctx context.Context, path string) ([]*grid.FloatGrid, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatSQLite:
		return ReadSQLite(ctx, path)
	case FormatVXG:
		return ReadVXG(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrWriteOnly, f)
	}
}
