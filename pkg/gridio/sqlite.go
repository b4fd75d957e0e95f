package gridio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring"
	_ "modernc.org/sqlite"

	"github.com/chazu/shadevol/pkg/grid"
)

const defaultBatchSize = 10000

const sqliteSchema = `
CREATE TABLE grids (
	name TEXT PRIMARY KEY,
	background REAL NOT NULL,
	scale_x REAL NOT NULL,
	scale_y REAL NOT NULL,
	scale_z REAL NOT NULL,
	active_count INTEGER NOT NULL,
	mask BLOB NOT NULL
);

CREATE TABLE voxels (
	grid TEXT NOT NULL,
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	z INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (grid, x, y, z)
) WITHOUT ROWID;
`

// SQLiteWriter stores a grid as a table of active voxels.
type SQLiteWriter struct {
	// BatchSize is the number of voxel rows per transaction.
	BatchSize int

	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

// Write replaces the database at path with one holding g.
func (w *SQLiteWriter) Write(ctx context.Context, path string, g *grid.FloatGrid) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()
	w.db = db

	// Bulk insert tuning; the file is rebuilt from scratch on failure.
	w.tx, w.stmt = nil, nil
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = OFF"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	mask, err := g.ActiveMask().MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode mask: %w", err)
	}
	scale := g.Transform().Scale
	if _, err := db.ExecContext(ctx,
		`INSERT INTO grids (name, background, scale_x, scale_y, scale_z, active_count, mask) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Name(), float64(g.Background()), scale[0], scale[1], scale[2], int64(g.ActiveVoxelCount()), mask,
	); err != nil {
		return fmt.Errorf("insert grid %s: %w", g.Name(), err)
	}

	if err := w.beginTx(ctx); err != nil {
		return err
	}
	err = g.ForEachActive(func(c grid.Coord, v float32) error {
		return w.addVoxel(ctx, g.Name(), c, v)
	})
	if err != nil {
		w.abort()
		return err
	}
	return w.commitTx()
}

func (w *SQLiteWriter) batchSize() int {
	if w.BatchSize > 0 {
		return w.BatchSize
	}
	return defaultBatchSize
}

func (w *SQLiteWriter) beginTx(ctx context.Context) error {
	var err error
	w.stmt = nil
	w.tx, err = w.db.BeginTx(ctx, nil)
	if err != nil {
		w.tx = nil
		return err
	}
	w.stmt, err = w.tx.PrepareContext(ctx, `INSERT INTO voxels (grid, x, y, z, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = w.tx.Rollback()
	}
	w.count = 0
	return err
}

func (w *SQLiteWriter) abort() {
	if w.stmt != nil {
		_ = w.stmt.Close()
	}
	if w.tx != nil {
		_ = w.tx.Rollback()
	}
}

func (w *SQLiteWriter) commitTx() error {
	if w.stmt != nil {
		_ = w.stmt.Close()
	}
	return w.tx.Commit()
}

func (w *SQLiteWriter) addVoxel(ctx context.Context, name string, c grid.Coord, v float32) error {
	if _, err := w.stmt.ExecContext(ctx, name, c.X, c.Y, c.Z, float64(v)); err != nil {
		return fmt.Errorf("insert voxel %s: %w", c, err)
	}
	w.count++
	if w.count < w.batchSize() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.commitTx(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return w.beginTx(ctx)
}

type sqliteGrid struct {
	name       string
	background float64
	scale      [3]float64
	count      int64
	mask       []byte
}

// ReadSQLite loads every grid in the database at path.
func ReadSQLite(ctx context.Context, path string) ([]*grid.FloatGrid, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	headers, err := readGridHeaders(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]*grid.FloatGrid, 0, len(headers))
	for _, h := range headers {
		g, err := readVoxels(ctx, db, h)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func readGridHeaders(ctx context.Context, db *sql.DB) ([]sqliteGrid, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, background, scale_x, scale_y, scale_z, active_count, mask FROM grids ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	var out []sqliteGrid
	for rows.Next() {
		var h sqliteGrid
		if err := rows.Scan(&h.name, &h.background, &h.scale[0], &h.scale[1], &h.scale[2], &h.count, &h.mask); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func readVoxels(ctx context.Context, db *sql.DB, h sqliteGrid) (*grid.FloatGrid, error) {
	g := grid.New(h.name, float32(h.background))
	g.SetTransform(grid.Transform{Scale: h.scale})

	rows, err := db.QueryContext(ctx, `SELECT x, y, z, value FROM voxels WHERE grid = ? ORDER BY x, y, z`, h.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	acc := g.Accessor()
	for rows.Next() {
		var x, y, z int
		var v float64
		if err := rows.Scan(&x, &y, &z, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if err := acc.SetValue(x, y, z, float32(v)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mask := roaring.New()
	if err := mask.UnmarshalBinary(h.mask); err != nil {
		return nil, fmt.Errorf("%w: grid %s mask: %v", ErrCorrupt, h.name, err)
	}
	if int64(g.ActiveVoxelCount()) != h.count || !mask.Equals(g.ActiveMask()) {
		return nil, fmt.Errorf("%w: grid %s voxels do not match its mask", ErrCorrupt, h.name)
	}
	return g, nil
}
