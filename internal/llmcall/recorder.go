package llmcall

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/daixun-ai/papercutter-vl/internal/providers"
)

const recorderQueueSize = 256

// Recorder handles fire-and-forget LLM call recording to a JSONL log.
// Writes are queued and flushed by a background goroutine so callers
// never block on disk IO.
type Recorder struct {
	path   string
	queue  chan *Call
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger
}

// NewRecorder creates a recorder that appends calls to calls.jsonl in dir.
// A nil return is safe to use when dir is empty: recording is skipped.
func NewRecorder(dir string, logger *slog.Logger) *Recorder {
	if dir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		path:   filepath.Join(dir, "calls.jsonl"),
		queue:  make(chan *Call, recorderQueueSize),
		logger: logger,
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Record captures an LLM call asynchronously.
// This is non-blocking. If the queue is full the call is dropped with a warning.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	if r == nil {
		return
	}
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
		r.logger.Warn("llm call log queue full, dropping record", "id", call.ID)
	}
}

// Close flushes pending records and stops the background writer.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() { close(r.queue) })
	r.wg.Wait()
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for call := range r.queue {
		if err := r.append(call); err != nil {
			r.logger.Warn("failed to write llm call record", "id", call.ID, "error", err)
		}
	}
}

func (r *Recorder) append(call *Call) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(call)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}
