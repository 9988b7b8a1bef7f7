package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Fields are passed as alternating
// key/value pairs, like slog.
type Logger struct {
	service string

	mu  sync.Mutex
	out io.Writer
}

func New(service string) *Logger {
	return &Logger{service: service, out: os.Stdout}
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(service string, out io.Writer) *Logger {
	return &Logger{service: service, out: out}
}

func (l *Logger) log(level, msg string, err error, kv []any) {
	entry := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"service":   l.service,
		"message":   msg,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		entry[key] = kv[i+1]
	}
	if err != nil {
		entry["error"] = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = json.NewEncoder(l.out).Encode(entry)
}

func (l *Logger) Info(msg string, kv ...any)             { l.log("INFO", msg, nil, kv) }
func (l *Logger) Warn(msg string, kv ...any)             { l.log("WARN", msg, nil, kv) }
func (l *Logger) Error(msg string, err error, kv ...any) { l.log("ERROR", msg, err, kv) }
