package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sentinel-agent/internal/application/port/output"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

// LoggerAdapter writes JSON lines to a per-session file under dir.
type LoggerAdapter struct {
	file   *os.File
	fields map[string]any
}

// NewLoggerAdapter creates a log file named by the session start time,
// e.g. log/2026-08-31_14-02-11_sentinel.log.
func NewLoggerAdapter(dir string) (*LoggerAdapter, error) {
	if dir == "" {
		dir = "log"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := fmt.Sprintf("%s_sentinel.log", time.Now().Format("2006-01-02_15-04-05"))
	file, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &LoggerAdapter{
		file:   file,
		fields: make(map[string]any),
	}, nil
}

func (l *LoggerAdapter) log(level, msg string, args ...any) {
	entry := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"level":     level,
		"message":   msg,
	}

	for k, v := range l.fields {
		entry[k] = v
	}

	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			entry[key] = args[i+1]
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.file, `{"timestamp":"%s","level":"ERROR","message":"marshal error: %v"}`+"\n",
			time.Now().Format(time.RFC3339), err)
		return
	}

	l.file.Write(data)
	l.file.WriteString("\n")
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.log("DEBUG", msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.log("INFO", msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.log("WARN", msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.log("ERROR", msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	newFields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &LoggerAdapter{
		file:   l.file,
		fields: newFields,
	}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &LoggerAdapter{
		file:   l.file,
		fields: newFields,
	}
}

func (l *LoggerAdapter) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
