package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination for the process logger.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or a file path
	TimeFormat string
}

// Logger wraps zerolog with typed fields. An optional Collector mirrors
// warn/error records for aggregated shipping.
type Logger struct {
	zl        zerolog.Logger
	collector *Collector
}

// New builds the process logger. The level applies globally so libraries
// logging through zerolog honor it too.
func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	out, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(out).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

func openSink(name string) (io.Writer, error) {
	switch name {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return f, nil
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), "", msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), "", msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), "warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), "error", msg, fields) }

func (l *Logger) emit(ev *zerolog.Event, collectAs, msg string, fields []Field) {
	for _, f := range fields {
		f.apply(ev)
	}
	ev.Msg(msg)

	if collectAs != "" && l.collector != nil {
		l.collector.Record(collectAs, msg, fieldMap(fields), callSite())
	}
}

// AttachCollector starts mirroring warn/error records into a Collector.
// A previously attached collector is flushed and closed first.
func (l *Logger) AttachCollector(cfg *CollectorConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewCollector(cfg)
}

// DetachCollector flushes and stops the collector, if any.
func (l *Logger) DetachCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// callSite reports file:line of the logging call, trimmed to the last two
// path elements. Frames skipped: callSite, emit, the level method.
func callSite() string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	short := filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file))
	return fmt.Sprintf("%s:%d", short, line)
}

func fieldMap(fields []Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.key] = f.value()
	}
	return m
}

type fieldKind int

const (
	kindStr fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindErr
	kindAny
)

// Field is one typed key/value pair on a log record.
type Field struct {
	key  string
	kind fieldKind
	str  string
	num  int64
	fnum float64
	flag bool
	err  error
	any  interface{}
}

func (f Field) apply(ev *zerolog.Event) {
	switch f.kind {
	case kindStr:
		ev.Str(f.key, f.str)
	case kindInt:
		ev.Int64(f.key, f.num)
	case kindFloat:
		ev.Float64(f.key, f.fnum)
	case kindBool:
		ev.Bool(f.key, f.flag)
	case kindErr:
		ev.Err(f.err)
	case kindAny:
		ev.Interface(f.key, f.any)
	}
}

func (f Field) value() interface{} {
	switch f.kind {
	case kindStr:
		return f.str
	case kindInt:
		return f.num
	case kindFloat:
		return f.fnum
	case kindBool:
		return f.flag
	case kindErr:
		if f.err != nil {
			return f.err.Error()
		}
		return nil
	default:
		return f.any
	}
}

func String(key, v string) Field { return Field{key: key, kind: kindStr, str: v} }
func Int(key string, v int) Field {
	return Field{key: key, kind: kindInt, num: int64(v)}
}
func Int64(key string, v int64) Field     { return Field{key: key, kind: kindInt, num: v} }
func Float64(key string, v float64) Field { return Field{key: key, kind: kindFloat, fnum: v} }
func Bool(key string, v bool) Field       { return Field{key: key, kind: kindBool, flag: v} }
func Error(err error) Field               { return Field{key: "error", kind: kindErr, err: err} }
func Any(key string, v interface{}) Field { return Field{key: key, kind: kindAny, any: v} }

// Duration logs in whole milliseconds.
func Duration(key string, v time.Duration) Field {
	return Field{key: key, kind: kindInt, num: v.Milliseconds()}
}

func Strings(key string, v []string) Field {
	return Field{key: key, kind: kindStr, str: strings.Join(v, ",")}
}
