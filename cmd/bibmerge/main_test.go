package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBib(t *testing.T, dir, name, content string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(reset)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

const older = `% exported from an old library
@article{smith2020,
  author = {Smith, John},
  title  = {{Deep} Learning},
  doi    = {10.1/x},
  year   = 2019,
}
`

const newer = `@article{smith20,
  author = {Smith, John},
  title  = {Deep Learning},
  doi    = {10.1/x},
  year   = 2020,
}
@misc{other, title = {Other}}
`

func TestMergeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := writeBib(t, dir, "a.bib", older, t0)
	b := writeBib(t, dir, "b.bib", newer, t0.Add(time.Hour))
	out := filepath.Join(dir, "out.bib")
	db := filepath.Join(dir, "index.db")

	_, stderr, err := execute(t, "merge", "--index", db, "--stats", a, b, out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Aliases:        1")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	want := "@misc{other,\n title = {Other}\n}\n\n" +
		"@article{smith2020,\n" +
		" author = {Smith, John},\n" +
		" doi = {10.1/x},\n" +
		" ids = {smith20},\n" +
		" title = {Deep Learning},\n" +
		" year = {2020}\n" +
		"}\n\n"
	assert.Equal(t, want, string(data))

	stdout, _, err := execute(t, "resolve", "--index", db, "smith20", "smith2020")
	require.NoError(t, err)
	assert.Equal(t, "smith20 -> smith2020\nsmith2020\n", stdout)

	_, _, err = execute(t, "resolve", "--index", db, "nobody")
	require.Error(t, err)

	stdout, _, err = execute(t, "export", "--index", db, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"id": "smith2020"`)
}

func TestMergeNeedsOutput(t *testing.T) {
	_, _, err := execute(t, "merge", "only.bib")
	require.Error(t, err)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	a := writeBib(t, dir, "a.bib", older, time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))

	stdout, _, err := execute(t, "info", a)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Bibs: 1")
	assert.Contains(t, stdout, "a.bib: 1 entries")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bibmerge dev\n", stdout)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("BIBMERGE_MATCH_NORMALIZE_AUTHOR_TITLE", "true")
	t.Setenv("BIBMERGE_LOG_FORMAT", "json")
	t.Setenv("BIBMERGE_INDEX_PATH", "env.db")

	resetFlags()
	initConfig()
	cfg, err := loadConfig(infoCmd)
	require.NoError(t, err)
	assert.True(t, cfg.Match.NormalizeAuthorTitle)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "env.db", cfg.Index.Path)
}

func TestMergeSourceInfoOnlyWithFlags(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := writeBib(t, dir, "a.bib", older, t0)
	out := filepath.Join(dir, "out.bib")

	t.Setenv("BIBMERGE_LOG_LEVEL", "info")
	stdout, _, err := execute(t, "merge", a, out)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Bibs:")

	stdout, _, err = execute(t, "merge", "--verbose", a, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Bibs: 1")
}
