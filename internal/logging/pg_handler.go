package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
)

const (
	batchSize     = 50
	flushInterval = 5 * time.Second
)

// Sink persists a batch of log rows.
type Sink interface {
	Write(ctx context.Context, batch []models.SystemLog) error
}

type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Write(ctx context.Context, batch []models.SystemLog) error {
	return s.db.WithContext(ctx).CreateInBatches(batch, batchSize).Error
}

// PGHandler is an slog.Handler that batches ERROR+ records into
// system_logs. Records are flushed every few seconds, when a batch fills up
// and on Stop.
type PGHandler struct {
	core  *pgCore
	attrs []slog.Attr
}

type pgCore struct {
	sink     Sink
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	full     chan struct{}
	done     chan struct{}
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPGHandler(sink Sink) *PGHandler {
	core := &pgCore{
		sink:   sink,
		buffer: make([]models.SystemLog, 0, batchSize),
		ticker: time.NewTicker(flushInterval),
		full:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	core.wg.Add(1)
	go core.flushLoop()
	return &PGHandler{core: core}
}

func (c *pgCore) flushLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ticker.C:
			c.flush()
		case <-c.full:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *pgCore) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]models.SystemLog, 0, batchSize)
	c.mu.Unlock()

	if err := c.write(batch); err != nil {
		// Warn stays below this handler's level and cannot loop back here.
		slog.Warn("failed to flush system logs", "count", len(batch), "reason", err.Error())
	}
}

func (c *pgCore) write(batch []models.SystemLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), flushInterval)
	defer cancel()
	return c.sink.Write(ctx, batch)
}

// Stop flushes whatever is buffered and waits for the write to finish.
// Records handled after Stop are written one at a time.
func (h *PGHandler) Stop() {
	h.core.stopOnce.Do(func() {
		h.core.mu.Lock()
		h.core.stopped = true
		h.core.mu.Unlock()
		h.core.ticker.Stop()
		close(h.core.done)
	})
	h.core.wg.Wait()
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "method":
			entry.Method = a.Value.String()
		case "path":
			entry.Path = a.Value.String()
		case "field":
			entry.Field = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	c := h.core
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		if err := c.write([]models.SystemLog{entry}); err != nil {
			fmt.Fprintf(os.Stderr, "system log dropped after shutdown: %s: %v\n", entry.Message, err)
		}
		return nil
	}
	c.buffer = append(c.buffer, entry)
	needFlush := len(c.buffer) >= batchSize
	c.mu.Unlock()

	if needFlush {
		select {
		case c.full <- struct{}{}:
		default:
		}
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{core: h.core, attrs: merged}
}

// WithGroup is a no-op; system_logs columns are flat.
func (h *PGHandler) WithGroup(string) slog.Handler {
	return h
}
