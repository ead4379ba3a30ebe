package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.IndexConfig{Path: filepath.Join(t.TempDir(), "index", "bibmerge.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func rec(id, typ string, kv ...string) types.Record {
	r := types.Record{ID: id, Type: typ}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Fields = append(r.Fields, types.Field{Name: kv[i], Value: kv[i+1]})
	}
	return r
}

func sampleSources() []types.Source {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []types.Source{
		{Name: "a.bib", ModTime: t0, Entries: []types.Record{
			rec("smith2020", "article",
				"author", "Smith, John and Jane Doe",
				"title", "{Deep} Learning",
				"journal", "J. Bib",
				"year", "2020",
				"month", "mar",
				"pages", "1--10",
				"doi", "10.1/x"),
			rec("solo", "misc", "title", "Alone"),
		}},
		{Name: "b.bib", ModTime: t0.Add(time.Hour), Entries: []types.Record{
			rec("smith20", "article",
				"author", "Smith, John and Jane Doe",
				"title", "Deep Learning",
				"journal", "J. Bib",
				"year", "2020",
				"doi", "10.1/x"),
		}},
	}
}

func saveSample(t *testing.T, store *Store) *merge.Collection {
	t.Helper()
	sources := sampleSources()
	c, err := merge.Merge(sources, merge.Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), c, sources))
	return c
}

// --- schema ---

func TestOpenCreatesSchema(t *testing.T) {
	store := testStore(t)
	for _, table := range []string{"records", "aliases", "runs"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

// --- save and resolve ---

func TestSaveAndResolve(t *testing.T) {
	store := testStore(t)
	saveSample(t, store)
	ctx := context.Background()

	res, err := store.Resolve(ctx, "smith20")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Key: "smith20", Primary: "smith2020", Alias: true}, res)

	res, err = store.Resolve(ctx, "smith2020")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Key: "smith2020", Primary: "smith2020"}, res)

	_, err = store.Resolve(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordsRoundTrip(t *testing.T) {
	store := testStore(t)
	c := saveSample(t, store)

	stored, err := store.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)

	want := c.Records()
	for i := range want {
		assert.Equal(t, want[i], stored[i].Record)
	}
	assert.Equal(t, []string{"smith20"}, stored[0].Aliases)
	assert.Empty(t, stored[1].Aliases)
	assert.Equal(t, time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC), stored[0].SourceTime)
}

func TestSaveReplacesPreviousRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	saveSample(t, store)

	only := []types.Source{{Name: "c.bib", ModTime: time.Now(), Entries: []types.Record{rec("fresh", "misc")}}}
	c, err := merge.Merge(only, merge.Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, c, only))

	stored, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "fresh", stored[0].ID)

	_, err = store.Resolve(ctx, "smith20")
	assert.True(t, errors.Is(err, ErrNotFound))

	runs, err := store.RunCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, runs)
}

// --- export ---

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	saveSample(t, store)

	var buf bytes.Buffer
	require.NoError(t, store.Export(context.Background(), &buf, types.OutputYAML))

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "smith2020", entries[0].ID)
	assert.Equal(t, []string{"smith20"}, entries[0].Aliases)
	assert.Equal(t, "smith20", entries[0].Fields["ids"])
	assert.Equal(t, "Deep Learning", entries[0].Fields["title"])
}

func TestExportJSON(t *testing.T) {
	store := testStore(t)
	saveSample(t, store)

	var buf bytes.Buffer
	require.NoError(t, store.Export(context.Background(), &buf, types.OutputJSON))

	var entries []ExportEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "solo", entries[1].ID)
	assert.Equal(t, "misc", entries[1].Type)
}

func TestExportCSL(t *testing.T) {
	store := testStore(t)
	saveSample(t, store)

	var buf bytes.Buffer
	require.NoError(t, store.Export(context.Background(), &buf, types.OutputCSL))
	out := buf.String()
	assert.Contains(t, out, "id: smith2020")
	assert.Contains(t, out, "type: article-journal")
	assert.Contains(t, out, "DOI: 10.1/x")
}

func TestExportUnsupportedFormat(t *testing.T) {
	store := testStore(t)
	err := store.Export(context.Background(), &bytes.Buffer{}, "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported format"))
}

// --- CSL conversion ---

func TestToCSLItem(t *testing.T) {
	r := rec("smith2020", "article",
		"author", "Smith, John and Jane {van} Doe and Plato",
		"title", "{Deep}\n  Learning",
		"journal", "J. Bib",
		"year", "2020",
		"month", "mar",
		"pages", "1--10",
		"doi", "10.1/x")

	item := ToCSLItem(r)
	assert.Equal(t, "smith2020", item.ID)
	assert.Equal(t, "article-journal", item.Type)
	assert.Equal(t, "Deep Learning", item.Title)
	assert.Equal(t, "J. Bib", item.ContainerTitle)
	assert.Equal(t, "1-10", item.Page)
	assert.Equal(t, "10.1/x", item.DOI)
	require.NotNil(t, item.Issued)
	assert.Equal(t, [][]int{{2020, 3}}, item.Issued.DateParts)
	assert.Equal(t, []CSLName{
		{Family: "Smith", Given: "John"},
		{Given: "Jane van", Family: "Doe"},
		{Literal: "Plato"},
	}, item.Author)
}

func TestToCSLItemUnknownType(t *testing.T) {
	item := ToCSLItem(rec("x", "nonstandard", "year", "n.d."))
	assert.Equal(t, "document", item.Type)
	assert.Nil(t, item.Issued)
	assert.Nil(t, item.Author)
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"jan", 1},
		{"December", 12},
		{"{Sep}", 9},
		{"7", 7},
		{"13", 0},
		{"", 0},
		{"xx", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMonth(tt.in))
		})
	}
}
