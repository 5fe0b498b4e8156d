package calllog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Store reads call records back out of the JSONL log directory.
type Store struct {
	dir string
}

// NewStore creates a store over the call log directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	App       string
	SessionID string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
}

// List retrieves calls matching the filter, newest first.
func (s *Store) List(filter QueryFilter) ([]Call, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading call log dir: %w", err)
	}

	var calls []Call
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, "calls_") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		fileCalls, err := readFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		for _, c := range fileCalls {
			if filter.matches(c) {
				calls = append(calls, c)
			}
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].Timestamp.After(calls[j].Timestamp)
	})
	if filter.Limit > 0 && len(calls) > filter.Limit {
		calls = calls[:filter.Limit]
	}
	return calls, nil
}

// CountByPromptKey returns call counts grouped by prompt key.
func (s *Store) CountByPromptKey() (map[string]int, error) {
	calls, err := s.List(QueryFilter{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.PromptKey]++
	}
	return counts, nil
}

func (f QueryFilter) matches(c Call) bool {
	if f.App != "" && c.App != f.App {
		return false
	}
	if f.SessionID != "" && c.SessionID != f.SessionID {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}

func readFile(path string) ([]Call, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening call log %s: %w", path, err)
	}
	defer f.Close()

	var calls []Call
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c Call
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			// A torn final line from an interrupted write is not fatal.
			continue
		}
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning call log %s: %w", path, err)
	}
	return calls, nil
}
