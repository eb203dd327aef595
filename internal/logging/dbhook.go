package logging

import (
	"context"
	"sync"
	"time"

	"sc2monitor/ingestion/internal/models"
	"sc2monitor/ingestion/internal/repository"

	"github.com/rs/zerolog"
)

// DBHook mirrors warning-and-above log events into the logs table, so
// operational problems are visible from the database without shell access.
// Events are queued and written by a background goroutine; when the queue is
// full the event is dropped rather than blocking the logging call site.
type DBHook struct {
	logs *repository.LogRepository

	// mu guards closed against the queue being closed mid-send. The hook can
	// outlive its owner on the global logger, so events arriving after Close
	// are dropped instead of panicking.
	mu     sync.RWMutex
	closed bool

	queue chan *models.LogEntry
	done  chan struct{}
}

// NewDBHook creates the hook and starts its background writer.
func NewDBHook(logs *repository.LogRepository) *DBHook {
	h := &DBHook{
		logs:  logs,
		queue: make(chan *models.LogEntry, 256),
		done:  make(chan struct{}),
	}
	go h.writeLoop()
	return h
}

// Run implements zerolog.Hook.
func (h *DBHook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if level < zerolog.WarnLevel || message == "" {
		return
	}

	entry := &models.LogEntry{
		Logger:  "sc2monitor",
		Level:   level.String(),
		Message: message,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	select {
	case h.queue <- entry:
	default:
		// Queue full; dropping beats blocking the caller.
	}
}

func (h *DBHook) writeLoop() {
	for entry := range h.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Failures here are swallowed: logging the failure would loop back
		// into this hook.
		_ = h.logs.Insert(ctx, entry)
		cancel()
	}
	close(h.done)
}

// Close flushes queued entries and stops the background writer. Events logged
// after Close are dropped. Safe to call more than once.
func (h *DBHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()

	<-h.done
}
