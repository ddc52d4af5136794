package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/udyam-backend/internal/models"
)

type recordingSink struct {
	mu   sync.Mutex
	rows []models.SystemLog
	err  error
}

func (s *recordingSink) Write(_ context.Context, batch []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, batch...)
	return s.err
}

func (s *recordingSink) all() []models.SystemLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SystemLog(nil), s.rows...)
}

func TestPGHandlerMapsAttributes(t *testing.T) {
	sink := &recordingSink{}
	h := NewPGHandler(sink)
	logger := slog.New(h).With("request_id", "req-1")

	logger.Info("ignored below error")
	logger.Error("failed to save registration",
		"method", "POST",
		"path", "/api/registrations",
		"field", "pan",
		"error", "connection reset",
		"attempt", 3,
	)
	h.Stop()

	rows := sink.all()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "ERROR", row.Level)
	assert.Equal(t, "failed to save registration", row.Message)
	assert.Equal(t, "req-1", row.RequestID)
	assert.Equal(t, "POST", row.Method)
	assert.Equal(t, "/api/registrations", row.Path)
	assert.Equal(t, "pan", row.Field)
	assert.Equal(t, "connection reset", row.Error)

	var extra map[string]any
	require.NoError(t, json.Unmarshal(row.Extra, &extra))
	assert.EqualValues(t, 3, extra["attempt"])
}

func TestPGHandlerWritesDirectlyAfterStop(t *testing.T) {
	sink := &recordingSink{}
	h := NewPGHandler(sink)
	logger := slog.New(h)

	h.Stop()
	logger.Error("database close error", "error", "conn busy")

	rows := sink.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "database close error", rows[0].Message)
	assert.Equal(t, "conn busy", rows[0].Error)

	sink.err = errors.New("closed")
	assert.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "late", 0)))
}

func TestPGHandlerFlushesFullBatch(t *testing.T) {
	sink := &recordingSink{}
	h := NewPGHandler(sink)
	logger := slog.New(h)

	for i := 0; i < batchSize+5; i++ {
		logger.Error("boom")
	}
	h.Stop()
	h.Stop()

	assert.Len(t, sink.all(), batchSize+5)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandler(t *testing.T) {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	sink := &recordingSink{}
	pg := NewPGHandler(sink)

	logger := slog.New(NewMultiHandler(jsonHandler, pg)).With("request_id", "req-2")
	logger.Info("registration created", "id", 1)
	logger.Error("failed to fetch registration", "error", "timeout")
	pg.Stop()

	assert.Contains(t, buf.String(), `"msg":"registration created"`)
	assert.Contains(t, buf.String(), `"request_id":"req-2"`)
	rows := sink.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "req-2", rows[0].RequestID)

	t.Run("keeps going past a failing handler", func(t *testing.T) {
		buf.Reset()
		m := NewMultiHandler(failingHandler{jsonHandler}, jsonHandler)
		err := slog.New(m).Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "hello", 0))
		assert.Error(t, err)
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})
}
