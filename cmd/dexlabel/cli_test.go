package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/dexlabel/internal/config"
	"github.com/youruser/dexlabel/internal/dex/dextest"
	"github.com/youruser/dexlabel/internal/lookup"
)

type result struct {
	out, errOut string
	err         error
}

// setupCLI writes a config pointing at a fake data service and returns it
// with an output directory.
func setupCLI(t *testing.T) (cfgPath, outDir string) {
	t.Helper()
	srv := dextest.NewServer(t, dextest.Pikachu(), dextest.Charizard())
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "dexlabel.toml")
	outDir = filepath.Join(dir, "labels")
	content := fmt.Sprintf("[api]\nbase_url = %q\nretries = 0\n\n[log]\nlevel = \"error\"\n", srv.BaseURL())
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath, outDir
}

func execute(stdin string, args ...string) result {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func TestRenderOne(t *testing.T) {
	cfg, out := setupCLI(t)
	res := execute("", "render", "Pikachu", "-c", cfg, "-o", out)
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "#25 PIKACHU")
	assert.FileExists(t, filepath.Join(out, "front.png"))
	assert.FileExists(t, filepath.Join(out, "back.png"))
}

func TestRenderErrors(t *testing.T) {
	cfg, out := setupCLI(t)

	res := execute("", "render", "missingno", "-c", cfg, "-o", out)
	require.Error(t, res.err)
	assert.Equal(t, "Pokémon not found", res.err.Error())

	res = execute("", "render", "  ", "-c", cfg, "-o", out)
	assert.ErrorIs(t, res.err, lookup.ErrEmptyQuery)
	assert.NoDirExists(t, out, "validation failures write nothing")
}

func TestRenderMany(t *testing.T) {
	cfg, out := setupCLI(t)
	res := execute("", "render", "pikachu", "missingno", "6", "-c", cfg, "-o", out)
	require.EqualError(t, res.err, "1 of 3 renders failed")
	assert.Contains(t, res.errOut, "error: Pokémon not found")
	assert.FileExists(t, filepath.Join(out, "pikachu", "front.png"))
	assert.FileExists(t, filepath.Join(out, "6", "back.png"))
}

func TestBatch(t *testing.T) {
	cfg, out := setupCLI(t)
	list := filepath.Join(t.TempDir(), "list.csv")
	require.NoError(t, os.WriteFile(list, []byte("query\npikachu\ncharizard\nPIKACHU\n"), 0o644))

	res := execute("", "batch", list, "-c", cfg, "-o", out, "--workers", "2")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "2 rendered, 0 failed, 1 skipped")
	assert.FileExists(t, filepath.Join(out, "charizard", "front.png"))

	manifest, err := os.ReadFile(filepath.Join(out, "manifest.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(manifest), "# dexlabel batch: 2 ok, 0 failed, 1 skipped\n"))
}

func TestWatch(t *testing.T) {
	cfg, out := setupCLI(t)
	res := execute("\npikachu\n", "watch", "-c", cfg, "-o", out)
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "#25 PIKACHU")
	assert.FileExists(t, filepath.Join(out, "front.png"))
}

func TestWatchNewestQueryWins(t *testing.T) {
	cfg, out := setupCLI(t)
	ref := filepath.Join(t.TempDir(), "ref")
	res := execute("", "render", "charizard", "-c", cfg, "-o", ref)
	require.NoError(t, res.err, res.errOut)
	want, err := os.ReadFile(filepath.Join(ref, "front.png"))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		res := execute("pikachu\n\ncharizard\n", "watch", "-c", cfg, "-o", out)
		require.NoError(t, res.err, res.errOut)
		assert.Contains(t, res.out, "#6 CHARIZARD")

		got, err := os.ReadFile(filepath.Join(out, "front.png"))
		require.NoError(t, err)
		require.True(t, bytes.Equal(want, got), "run %d: front.png is not the newest query's label", i)
		assert.FileExists(t, filepath.Join(out, "back.png"))
	}
}

func TestWatchReportsBadLinesAndContinues(t *testing.T) {
	cfg, out := setupCLI(t)
	res := execute("missingno\n...\npikachu\n", "watch", "-c", cfg, "-o", out)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "error: Please enter a Pokémon name or ID.")
	assert.Contains(t, res.out, "#25 PIKACHU")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dexlabel.toml")

	res := execute("", "config", "init", "-c", path)
	require.NoError(t, res.err)
	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), loaded)

	res = execute("", "config", "init", "-c", path)
	assert.ErrorContains(t, res.err, "already exists")
	res = execute("", "config", "init", "-c", path, "--force")
	assert.NoError(t, res.err)

	res = execute("", "config", "show", "-c", path, "--log-level", "debug")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `level = "debug"`)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dexlabel.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 0\n"), 0o644))
	res := execute("", "render", "pikachu", "-c", path)
	assert.ErrorContains(t, res.err, "server.port")
}
