package storage

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/room"
)

// RunWriter persists a run. *Store satisfies it.
type RunWriter interface {
	SaveRun(run Run) (int64, error)
}

// Recorder queues room results and writes them from a background goroutine,
// so rooms never wait on the database.
type Recorder struct {
	writer RunWriter
	log    *log.Logger

	mu      sync.RWMutex
	queue   chan room.Result
	closed  bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

var _ room.ResultSaver = (*Recorder)(nil)

// NewRecorder creates a recorder and starts its writer goroutine.
func NewRecorder(writer RunWriter, queueSize int, logger *log.Logger) *Recorder {
	if queueSize < 1 {
		queueSize = 128
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Recorder{
		writer: writer,
		log:    logger,
		queue:  make(chan room.Result, queueSize),
	}

	r.wg.Add(1)
	go r.loop()
	return r
}

// SaveResult queues a result. It never blocks; when the queue is full the
// result is dropped.
func (r *Recorder) SaveResult(res room.Result) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	select {
	case r.queue <- res:
	default:
		r.dropped.Add(1)
		r.log.Warn("run history queue full, dropping result", "room", res.RoomID, "client", res.Client)
	}
}

// Dropped returns how many results were discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting results and waits until the queue is written out.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Recorder) loop() {
	defer r.wg.Done()

	for res := range r.queue {
		if _, err := r.writer.SaveRun(RunFromResult(res)); err != nil {
			r.log.Error("cannot save run", "room", res.RoomID, "client", res.Client, "error", err)
		}
	}
}
