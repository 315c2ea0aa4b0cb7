package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cyclone-catalog/internal/source"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	f, err := source.GenerateFixtures(source.FixtureSpec{
		Storm: "beryl",
		Start: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Hours: 36,
	})
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, f.WriteTo(context.Background(), source.NewDirStore(dir)))
	return dir
}

func TestRun_GeneratedFixturesPass(t *testing.T) {
	dir := writeFixtures(t)
	var out bytes.Buffer

	code := run(&out, dir, filepath.Join(dir, "manifest.yaml"), "2024-06-29T06:00:00Z")

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "cyclone-beryl")
	assert.Contains(t, out.String(), "beryl/goes-02-ir (1): goes-02-ir-cyclone-beryl-20240629T0600")
}

func TestRun_MissingCollection(t *testing.T) {
	dir := writeFixtures(t)
	require.NoError(t, os.Remove(filepath.Join(dir, source.ItemsKey("public.path_line_cyclone_beryl"))))

	var out bytes.Buffer
	code := run(&out, dir, filepath.Join(dir, "manifest.yaml"), "")

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: load fixtures")
}

func TestRun_BadQueryTime(t *testing.T) {
	dir := writeFixtures(t)
	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, dir, filepath.Join(dir, "manifest.yaml"), "tomorrow"))
}
