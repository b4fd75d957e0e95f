package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/shadevol/pkg/config"
	"github.com/chazu/shadevol/pkg/export"
	"github.com/chazu/shadevol/pkg/gridio"
	"github.com/chazu/shadevol/pkg/ir"
)

// runCLI executes the CLI and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, args)
	if err == nil {
		return stdout.String(), stderr.String(), 0
	}
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected an *ExitError, got %T", err)
	return stdout.String(), stderr.String() + exitErr.Message, exitErr.Code
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCLIExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sphere.vxg")
	stdout, _, code := runCLI(t, "export", "examples/sphere.lisp", "-o", out, "-n", "3", "--progress", "none")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Wrote "+out)
	assert.Contains(t, stdout, `grid "density", 216 active voxels`)

	grids, err := gridio.Read(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, uint64(216), grids[0].ActiveVoxelCount())
}

func TestCLIPresetAndOverrides(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "from-preset.vxg")
	preset := writeFile(t, "coarse.yaml", "voxel_count: 3\ngrid_name: smoke\noutput: "+out+"\n")
	saved := filepath.Join(dir, "saved.yaml")

	_, _, code := runCLI(t, "export", "examples/sphere.hcl",
		"--preset", preset, "--voxel-count", "2", "--save-preset", saved, "--progress", "none")
	require.Equal(t, 0, code)

	grids, err := gridio.Read(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, "smoke", grids[0].Name(), "preset field kept")
	assert.Equal(t, uint64(64), grids[0].ActiveVoxelCount(), "flag overrides preset")

	cfg, err := config.LoadPreset(saved)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.VoxelCount)
	assert.Equal(t, "smoke", cfg.GridName)
	assert.Equal(t, out, cfg.Output)
}

func TestCLIProgressLog(t *testing.T) {
	out := filepath.Join(t.TempDir(), "s.db")
	_, stderr, code := runCLI(t, "export", "examples/sphere.lisp", "-o", out, "-n", "2", "--progress", "log")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "msg=Exporting.")
	assert.Contains(t, stderr, "done=64 total=64 percent=100.0")
	assert.Contains(t, stderr, `msg="Finished in"`)
}

func TestCLIProgressBar(t *testing.T) {
	out := filepath.Join(t.TempDir(), "s.db")
	_, stderr, code := runCLI(t, "export", "examples/sphere.lisp", "-o", out, "-n", "2", "--progress", "bar", "--log-level", "warn")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "DONE")
	assert.NotContains(t, stderr, "Finished in", "info lines are filtered at warn")
}

func TestCLIJSONLogs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "s.vxg")
	_, stderr, code := runCLI(t, "export", "examples/sphere.lisp", "-o", out, "-n", "2", "--progress", "none", "--log-format", "json")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, `"msg":"Finished in"`)
}

func TestCLIValidate(t *testing.T) {
	stdout, _, code := runCLI(t, "validate", "examples/cloud.lisp")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "examples/cloud.lisp: ok")

	noVolume := writeFile(t, "novolume.lisp", `(material-output)`)
	stdout, msg, code := runCLI(t, "validate", noVolume)
	assert.Equal(t, exitTree, code)
	assert.Contains(t, stdout, "[error]")
	assert.Contains(t, msg, "error(s)")
}

func TestCLIInspect(t *testing.T) {
	stdout, _, code := runCLI(t, "inspect", "examples/sphere.hcl")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `shader "vol" (PRINCIPLED_VOLUME), 3 graph nodes`)
	assert.Contains(t, stdout, "MATHSUBTRACT")
	assert.Contains(t, stdout, "root ")

	out := filepath.Join(t.TempDir(), "s.db")
	_, _, code = runCLI(t, "export", "examples/sphere.hcl", "-o", out, "-n", "2", "--progress", "none")
	require.Equal(t, 0, code)
	stdout, _, code = runCLI(t, "inspect", out)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `grid "density": 64 active voxels`)
	assert.Contains(t, stdout, "index bounds (-2, -2, -2) .. (1, 1, 1)")
	assert.Contains(t, stdout, "voxel size 0.5")
}

func TestCLIOps(t *testing.T) {
	stdout, _, code := runCLI(t, "ops")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "MATHADD\n")
	assert.Contains(t, stdout, "MAP_RANGESMOOTHSTEP\n")

	stdout, _, code = runCLI(t, "ops", "vect_math")
	require.Equal(t, 0, code)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		assert.True(t, strings.HasPrefix(line, "VECT_MATH"), line)
	}
}

func TestCLIExitCodes(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.vxg")
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown flag", []string{"export", "--bogus"}, exitUsage},
		{"missing argument", []string{"export"}, exitUsage},
		{"unknown command", []string{"frobnicate"}, exitUsage},
		{"bad log format", []string{"--log-format", "xml", "ops"}, exitUsage},
		{"bad log level", []string{"--log-level", "loud", "ops"}, exitUsage},
		{"no output", []string{"export", "examples/sphere.lisp"}, exitUsage},
		{"bad voxel count", []string{"export", "examples/sphere.lisp", "-o", out, "-n", "0"}, exitUsage},
		{"bad progress", []string{"export", "examples/sphere.lisp", "-o", out, "--progress", "loud"}, exitUsage},
		{"unknown output format", []string{"export", "examples/sphere.lisp", "-o", filepath.Join(dir, "x.vdb")}, exitUsage},
		{"unknown source", []string{"export", "tree.json", "-o", out}, exitUsage},
		{"missing source", []string{"export", filepath.Join(dir, "missing.lisp"), "-o", out}, exitFailure},
		{"missing preset", []string{"export", "examples/sphere.lisp", "--preset", filepath.Join(dir, "nope.yaml")}, exitFailure},
		{"lisp error", []string{"export", writeFile(t, "bad.lisp", `(math :op :frobnicate)`), "-o", out}, exitUsage},
		{"no material output", []string{"export", writeFile(t, "empty.lisp", ""), "-o", out}, exitTree},
		{"stl is write only", []string{"inspect", filepath.Join(dir, "x.stl")}, exitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, msg, code := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code, msg)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestExitErrorClassification(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&ExitError{Code: 7, Message: "x"}, 7},
		{context.Canceled, exitCancelled},
		{config.ErrInvalid, exitUsage},
		{&SourceError{Path: "a.lisp"}, exitUsage},
		{export.ErrNoVolume, exitTree},
		{ir.ErrCyclicGraph, exitTree},
		{os.ErrPermission, exitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, exitError(tt.err).Code, tt.err.Error())
	}
}
