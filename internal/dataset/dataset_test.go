package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `name,age,salary,city
Alice,30,55000.50,Berlin
Bob,25,48000,Paris
Carol,41,72000.25,Madrid
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	ds, err := Load(writeSample(t, sampleCSV))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if ds.FileName != "people.csv" {
		t.Errorf("unexpected file name: %s", ds.FileName)
	}
	if len(ds.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(ds.Columns))
	}
	if ds.RowCount() != 3 {
		t.Errorf("expected 3 rows, got %d", ds.RowCount())
	}

	wantTypes := map[string]ColumnType{
		"name":   TypeObject,
		"age":    TypeInt,
		"salary": TypeFloat,
		"city":   TypeObject,
	}
	for col, want := range wantTypes {
		if got := ds.Types[col]; got != want {
			t.Errorf("column %s: type = %s, want %s", col, got, want)
		}
	}
}

func TestParse_EmptyValuesAndRaggedRows(t *testing.T) {
	csvData := "a,b\n1,\n2,x\n3\n"
	ds, err := Parse(strings.NewReader(csvData), "odd.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ds.Types["a"] != TypeInt {
		t.Errorf("column a should stay numeric, got %s", ds.Types["a"])
	}
	if ds.Types["b"] != TypeObject {
		t.Errorf("column b should be object, got %s", ds.Types["b"])
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), "empty.csv"); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestColumnSplits(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV), "people.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	num := ds.NumericalColumns()
	if len(num) != 2 || num[0] != "age" || num[1] != "salary" {
		t.Errorf("unexpected numerical columns: %v", num)
	}
	cat := ds.CategoricalColumns()
	if len(cat) != 2 || cat[0] != "name" || cat[1] != "city" {
		t.Errorf("unexpected categorical columns: %v", cat)
	}
}

func TestBuildContext(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV), "people.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ctx := BuildContext(ds)
	if ctx.Columns != "['name', 'age', 'salary', 'city']" {
		t.Errorf("unexpected columns: %s", ctx.Columns)
	}
	if ctx.NumericalColumns != "['age', 'salary']" {
		t.Errorf("unexpected numerical columns: %s", ctx.NumericalColumns)
	}
	if ctx.CategoricalColumns != "['name', 'city']" {
		t.Errorf("unexpected categorical columns: %s", ctx.CategoricalColumns)
	}
	if !strings.Contains(ctx.DTypes, "'age': dtype('int64')") {
		t.Errorf("unexpected dtypes: %s", ctx.DTypes)
	}
	if !strings.Contains(ctx.DTypes, "'name': dtype('O')") {
		t.Errorf("object columns should render as dtype('O'): %s", ctx.DTypes)
	}
}

func TestCache(t *testing.T) {
	path := writeSample(t, sampleCSV)
	cache := NewCache()

	ctx1, err := cache.Context(path)
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	ctx2, err := cache.Context(path)
	if err != nil {
		t.Fatalf("Context() second call error = %v", err)
	}
	if ctx1 != ctx2 {
		t.Error("unchanged file should hit the cache")
	}

	// Rewriting the file with new content invalidates the entry.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("x,y\n1,2\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite sample: %v", err)
	}
	ctx3, err := cache.Context(path)
	if err != nil {
		t.Fatalf("Context() after rewrite error = %v", err)
	}
	if ctx3.Columns != "['x', 'y']" {
		t.Errorf("stale cache entry served: %s", ctx3.Columns)
	}
}

func TestCache_MissingFile(t *testing.T) {
	cache := NewCache()
	if _, err := cache.Context(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
