package dataset

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Context is the dataset summary interpolated into analysis prompts. The
// list fields are rendered as single-quoted bracketed lists so prompts read
// the same as a pandas `.tolist()` dump.
type Context struct {
	FileName           string `json:"file_name"`
	Columns            string `json:"columns"`
	NumericalColumns   string `json:"numerical_columns"`
	CategoricalColumns string `json:"categorical_columns"`
	DTypes             string `json:"dtypes"`
}

// BuildContext derives the prompt context from a parsed dataset.
func BuildContext(d *Dataset) Context {
	return Context{
		FileName:           d.FileName,
		Columns:            formatList(d.Columns),
		NumericalColumns:   formatList(d.NumericalColumns()),
		CategoricalColumns: formatList(d.CategoricalColumns()),
		DTypes:             formatDTypes(d),
	}
}

// formatList renders ['a', 'b', 'c'].
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// formatDTypes renders {'col': dtype('int64'), ...} in header order.
func formatDTypes(d *Dataset) string {
	parts := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		t := d.Types[c]
		name := string(t)
		if t == TypeObject {
			name = "O"
		}
		parts[i] = fmt.Sprintf("'%s': dtype('%s')", c, name)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// cacheKey identifies one version of a file on disk.
type cacheKey struct {
	path  string
	size  int64
	mtime int64
}

// Cache memoizes dataset contexts keyed by file identity, so repeated turns
// against the same upload skip re-parsing.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]Context
}

// NewCache creates an empty context cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]Context)}
}

// Context returns the cached context for the file at path, loading and
// parsing it on a miss. A changed size or mtime invalidates the entry.
func (c *Cache) Context(path string) (Context, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Context{}, fmt.Errorf("failed to stat dataset: %w", err)
	}
	key := cacheKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	ds, err := Load(path)
	if err != nil {
		return Context{}, err
	}
	ctx := BuildContext(ds)

	c.mu.Lock()
	// Evict stale versions of the same path.
	for k := range c.entries {
		if k.path == path {
			delete(c.entries, k)
		}
	}
	c.entries[key] = ctx
	c.mu.Unlock()

	return ctx, nil
}
