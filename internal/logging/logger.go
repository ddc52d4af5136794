package logging

import (
	"log/slog"
	"os"

	"gorm.io/gorm"
)

// Setup installs a JSON logger on stdout and returns its handler so later
// sinks can be layered on top. Development logs at debug level.
func Setup(appEnv string) slog.Handler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return handler
}

// WithDatabase fans base out to the system_logs table and installs the
// combined handler as the default. Stop the returned handler on shutdown.
func WithDatabase(base slog.Handler, db *gorm.DB) *PGHandler {
	pg := NewPGHandler(NewGormSink(db))
	slog.SetDefault(slog.New(NewMultiHandler(base, pg)))
	return pg
}
