package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"

	"heist.gg/internal/sim/world"
)

// JSONLZstdWriter appends JSON lines to hourly zstd files named
// <prefix>-YYYY-MM-DD-HH.jsonl.zst under baseDir.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// asyncSink moves file IO off the world goroutine. Records that do not fit
// the buffer are dropped and counted.
type asyncSink struct {
	w       *JSONLZstdWriter
	ch      chan any
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
	errLog  func(error)
}

func newAsyncSink(w *JSONLZstdWriter, buf int, errLog func(error)) *asyncSink {
	if buf <= 0 {
		buf = 4096
	}
	s := &asyncSink{w: w, ch: make(chan any, buf), done: make(chan struct{}), errLog: errLog}
	go s.loop()
	return s
}

func (s *asyncSink) loop() {
	defer close(s.done)
	for v := range s.ch {
		if err := s.w.Write(v); err != nil && s.errLog != nil {
			s.errLog(err)
		}
	}
}

func (s *asyncSink) enqueue(v any) error {
	select {
	case s.ch <- v:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *asyncSink) close() error {
	s.once.Do(func() { close(s.ch) })
	<-s.done
	return s.w.Close()
}

// EventLogger writes one JSONL entry per gameplay event (compressed).
type EventLogger struct{ s *asyncSink }

func NewEventLogger(dataDir string, errLog func(error)) *EventLogger {
	w := NewJSONLZstdWriter(filepath.Join(dataDir, "events"), "events")
	return &EventLogger{s: newAsyncSink(w, 0, errLog)}
}

func (l *EventLogger) WriteEvent(e world.GameEvent) error { return l.s.enqueue(e) }
func (l *EventLogger) Dropped() uint64                    { return l.s.dropped.Load() }
func (l *EventLogger) Close() error                       { return l.s.close() }

// RoundLogger writes one JSONL entry per finished round (compressed).
type RoundLogger struct{ s *asyncSink }

func NewRoundLogger(dataDir string, errLog func(error)) *RoundLogger {
	w := NewJSONLZstdWriter(filepath.Join(dataDir, "rounds"), "rounds")
	return &RoundLogger{s: newAsyncSink(w, 256, errLog)}
}

func (l *RoundLogger) WriteRound(s world.RoundSummary) error { return l.s.enqueue(s) }
func (l *RoundLogger) Dropped() uint64                       { return l.s.dropped.Load() }
func (l *RoundLogger) Close() error                          { return l.s.close() }
