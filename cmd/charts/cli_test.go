package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/giftcharts/internal/charts"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// testEnv runs the charts command tree in-process against temporary
// config and data directories.
type testEnv struct {
	t         *testing.T
	ConfigDir string
	DataDir   string
}

type result struct {
	Stdout string
	Stderr string
	Err    error
}

const testConfigYAML = `backend: sqlite
search_debounce: 5ms
log_level: error
`

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		t:         t,
		ConfigDir: filepath.Join(dir, "config"),
		DataDir:   filepath.Join(dir, "data"),
	}
	require.NoError(t, os.MkdirAll(env.ConfigDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.ConfigDir, "config.yaml"), []byte(testConfigYAML), 0o644))
	return env
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))
	err := rootCmd.Execute()
	return result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	require.NoError(e.t, r.Err, "charts %v\nstderr: %s", args, r.Stderr)
	return r
}

// resetFlags restores every flag of the tree to its default so runs do not
// leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

// editableTable duplicates the template as user u1 and returns the copy.
func (e *testEnv) editableTable() types.Table {
	e.t.Helper()
	r := e.mustRun("--user", "u1", "--json", "table", "duplicate", "--name", "Our wedding")
	return parseJSON[types.Table](e.t, r.Stdout)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	r := env.mustRun("version")
	assert.Contains(t, r.Stdout, "charts v"+version)
	assert.Contains(t, r.Stdout, modulePath)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	env := &testEnv{t: t, ConfigDir: filepath.Join(dir, "config"), DataDir: filepath.Join(dir, "data")}

	r := env.mustRun("init")
	assert.Contains(t, r.Stdout, "charts initialized successfully")
	assert.FileExists(t, filepath.Join(env.ConfigDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.DataDir, "chart_tables.jsonl"))

	tables := parseJSON[[]types.Table](t, env.mustRun("--json", "tables").Stdout)
	require.Len(t, tables, 1)
	assert.True(t, tables[0].Default)
}

func TestDuplicateRequiresUser(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("table", "duplicate")
	require.ErrorIs(t, r.Err, types.ErrPermissionDenied)
	assert.Equal(t, exitUserError, exitCode(r.Err))
	assert.Contains(t, r.Stderr, "You need to sign in")
}

func TestTemplateIsReadOnly(t *testing.T) {
	env := newTestEnv(t)

	r := env.run("--user", "u1", "product", "add", "--name", "Cake")
	require.ErrorIs(t, r.Err, types.ErrReadOnlyTable)
	assert.Contains(t, r.Stderr, "shared template")
}

func TestDuplicateSelectsCopy(t *testing.T) {
	env := newTestEnv(t)
	copyTable := env.editableTable()
	assert.False(t, copyTable.Default)
	assert.Equal(t, "Our wedding", copyTable.Name)

	r := env.mustRun("--json", "table", "show")
	view := parseJSON[tableView](t, r.Stdout)
	assert.Equal(t, copyTable.ID, view.ID)
}

func TestProductLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.editableTable()

	r := env.mustRun("--user", "u1", "--json", "product", "add",
		"--name", "Photo booth", "--planned", "300", "--price", "280", "--group", "Party")
	p := parseJSON[types.Product](t, r.Stdout)
	assert.Equal(t, "Photo booth", p.Name)
	assert.Equal(t, 280.0, p.Price)
	assert.Equal(t, "Party", p.Group)

	r = env.mustRun("--user", "u1", "--json", "product", "edit", p.ID, "--paid-by", "Parents")
	edited := parseJSON[types.Product](t, r.Stdout)
	assert.Equal(t, "Parents", edited.PaidBy)
	assert.Equal(t, 280.0, edited.Price)

	env.mustRun("--user", "u1", "product", "final", p.ID)
	r = env.mustRun("--user", "u1", "product", "remove", p.ID)
	assert.Contains(t, r.Stdout, "Nothing removed")

	env.mustRun("--user", "u1", "product", "optional", p.ID)
	r = env.mustRun("--user", "u1", "product", "remove", p.ID)
	assert.Contains(t, r.Stdout, "Removed "+p.ID)

	r = env.run("--user", "u1", "product", "add", "--name", "Veil", "--price=-5")
	require.ErrorIs(t, r.Err, types.ErrNegativeAmount)
}

func TestProductBindsCatalogMatch(t *testing.T) {
	env := newTestEnv(t)
	env.editableTable()
	env.mustRun("owner", "add", "--id", "u9", "--name", "Sweet Bakery", "--email", "hello@sweet.example")
	env.mustRun("catalog", "add", "--id", "c1", "--name", "Wedding cake", "--price", "120", "--type", "food", "--seller", "u9")

	r := env.mustRun("--user", "u1", "--json", "product", "add", "--name", "Wedding cake", "--match", "c1")
	p := parseJSON[types.Product](t, r.Stdout)
	assert.Equal(t, "c1", p.PID)
	assert.Equal(t, "Sweet Bakery", p.Vendor)
	assert.Equal(t, 120.0, p.Price)

	r = env.run("--user", "u1", "product", "edit", p.ID, "--price", "99")
	require.ErrorIs(t, r.Err, types.ErrFieldLocked)

	r = env.mustRun("product", "contact", p.ID)
	assert.Equal(t, "hello@sweet.example\n", r.Stdout)
}

func TestTableShowFilter(t *testing.T) {
	env := newTestEnv(t)
	env.editableTable()
	env.mustRun("--user", "u1", "product", "add", "--name", "Rings", "--vendor", "Goldsmith")

	r := env.mustRun("--json", "table", "show", "--filter-field", "vendor", "--filter", "gold")
	view := parseJSON[tableView](t, r.Stdout)
	var names []string
	for _, s := range view.Sections {
		for _, row := range s.Rows {
			names = append(names, row.Product.Name)
		}
	}
	assert.Equal(t, []string{"Rings"}, names)

	r = env.run("table", "show", "--filter-field", "note", "--filter", "x")
	assert.Equal(t, exitUserError, exitCode(r.Err))
}

func TestRenameAndDelete(t *testing.T) {
	env := newTestEnv(t)
	copyTable := env.editableTable()

	r := env.mustRun("--user", "u1", "table", "rename", "Budget")
	assert.Contains(t, r.Stdout, `to "Budget"`)

	env.mustRun("--user", "u1", "table", "delete")
	tables := parseJSON[[]types.Table](t, env.mustRun("--json", "tables").Stdout)
	for _, tbl := range tables {
		assert.NotEqual(t, copyTable.ID, tbl.ID)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.editableTable()
	env.mustRun("--user", "u1", "product", "add", "--name", "Dress", "--price", "300")

	d := parseJSON[charts.Dashboard](t, env.mustRun("--json", "dashboard").Stdout)
	assert.Equal(t, 300.0, d.Overall)
	require.Len(t, d.Lines, 2)
}

func TestMarketSearch(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("owner", "add", "--id", "u9", "--name", "Sweet Bakery")
	env.mustRun("catalog", "add", "--id", "c1", "--name", "Wedding cake", "--price", "120", "--type", "food", "--seller", "u9")
	env.mustRun("catalog", "add", "--id", "c2", "--name", "Cake for charity", "--type", "charity", "--seller", "u9")

	r := env.mustRun("market", "search", "cake")
	assert.Contains(t, r.Stdout, "1 results")
	assert.Contains(t, r.Stdout, "Sweet Bakery")
	assert.NotContains(t, r.Stdout, "charity")

	r = env.run("market", "search", "cake", "--page", "0")
	assert.Equal(t, exitUserError, exitCode(r.Err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(types.ErrReadOnlyTable))
	assert.Equal(t, exitUserError, exitCode(errUsage))
	assert.Equal(t, exitSysError, exitCode(errors.New("disk full")))
}
