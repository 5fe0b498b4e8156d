// Package extract parses structured values out of free-text model replies.
//
// Both extractors degrade silently: a reply with no recognizable structure
// yields an empty result, never an error. Degradations are logged so they
// stay observable.
package extract

import (
	"log/slog"
	"regexp"
	"sync/atomic"
)

// listPattern matches a bracketed, comma-separated sequence of
// single-quoted strings, e.g. ['What is the average age?', 'How many products?'].
var listPattern = regexp.MustCompile(`\[(?:'[^']*'(?:,\s*)?)*\]`)

// quotedItemPattern pulls the individual quoted items out of a list match.
var quotedItemPattern = regexp.MustCompile(`'([^']*)'`)

// codeFencePattern matches the first python-tagged fenced code block.
var codeFencePattern = regexp.MustCompile("(?s)```python\\s*\n(.*?)```")

// Stats counts extraction outcomes for observability.
type Stats struct {
	ListHits     atomic.Int64
	ListMisses   atomic.Int64
	FenceHits    atomic.Int64
	FenceMisses  atomic.Int64
}

// Extractor parses model replies. The zero value is usable; Logger defaults
// to slog.Default.
type Extractor struct {
	Logger *slog.Logger
	Stats  Stats
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// QuestionList returns the strings from the leftmost bracketed single-quoted
// list in text. No match, or a match with no items, returns an empty slice.
func (e *Extractor) QuestionList(text string) []string {
	match := listPattern.FindString(text)
	if match == "" {
		e.Stats.ListMisses.Add(1)
		e.logger().Warn("no question list found in model reply", "reply_len", len(text))
		return []string{}
	}

	items := quotedItemPattern.FindAllStringSubmatch(match, -1)
	if len(items) == 0 {
		e.Stats.ListMisses.Add(1)
		e.logger().Warn("question list matched but contained no items")
		return []string{}
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		questions = append(questions, item[1])
	}
	e.Stats.ListHits.Add(1)
	return questions
}

// CodeFence returns the body of the first python-tagged fenced block in text
// and whether one was found. A reply with no fence is not an error; the
// textual answer stands on its own.
func (e *Extractor) CodeFence(text string) (string, bool) {
	match := codeFencePattern.FindStringSubmatch(text)
	if match == nil {
		e.Stats.FenceMisses.Add(1)
		e.logger().Debug("no code fence in model reply", "reply_len", len(text))
		return "", false
	}
	e.Stats.FenceHits.Add(1)
	return match[1], true
}
