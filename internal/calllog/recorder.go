package calllog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nchauhan/lmdesk/internal/providers"
)

// recorderQueueSize bounds how many records can be pending before drops.
const recorderQueueSize = 256

// Recorder handles fire-and-forget LLM call recording. Writes are queued
// to a background goroutine so the request path never blocks on disk.
type Recorder struct {
	dir    string
	logger *slog.Logger

	queue  chan *Call
	wg     sync.WaitGroup
	closed sync.Once
}

// NewRecorder creates a recorder writing JSONL files under dir.
func NewRecorder(dir string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating call log dir: %w", err)
	}

	r := &Recorder{
		dir:    dir,
		logger: logger,
		queue:  make(chan *Call, recorderQueueSize),
	}
	r.wg.Add(1)
	go r.drain()
	return r, nil
}

// Record captures an LLM call asynchronously.
// This is non-blocking - a full queue drops the record with a warning.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	r.RecordCall(FromChatResult(result, opts))
}

// RecordCall captures an already-constructed Call asynchronously.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}
	select {
	case r.queue <- call:
	default:
		r.logger.Warn("call log queue full, dropping record", "prompt_key", call.PromptKey)
	}
}

// Close stops the recorder after flushing queued records.
func (r *Recorder) Close() {
	r.closed.Do(func() {
		close(r.queue)
		r.wg.Wait()
	})
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for call := range r.queue {
		if err := r.append(call); err != nil {
			r.logger.Warn("failed to write call record", "error", err)
		}
	}
}

func (r *Recorder) append(call *Call) error {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("encoding call record: %w", err)
	}

	path := filepath.Join(r.dir, fileNameFor(call.Timestamp))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening call log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending call record: %w", err)
	}
	return nil
}

func fileNameFor(ts time.Time) string {
	return fmt.Sprintf("calls_%s.jsonl", ts.Format("20060102"))
}
