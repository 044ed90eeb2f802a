package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zerolog wrapper whose error (and optionally warn) lines can
// also be folded into a LogCollector.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or a file path rotated by lumberjack
	TimeFormat string
	MaxSizeMB  int
	MaxBackups int
}

// callerSkip points zerolog past write and the level method.
const callerSkip = 4

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	zerolog.DurationFieldUnit = time.Millisecond

	out := openOutput(cfg)
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(callerSkip).
		Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(cfg *Config) io.Writer {
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	size := cfg.MaxSizeMB
	if size <= 0 {
		size = 100
	}
	return &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    size,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.write(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(l.zl.Warn(), msg, fields)
	if l.collector != nil && l.collector.collectsWarn() {
		l.collect("warn", msg, fields)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(l.zl.Error(), msg, fields)
	if l.collector != nil {
		l.collect("error", msg, fields)
	}
}

func (l *Logger) write(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		f.apply(ev)
	}
	ev.Msg(msg)
}

// collect runs two frames below the caller of Warn/Error.
func (l *Logger) collect(level, msg string, fields []Field) {
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s:%d", shortPath(file), line)
	}
	var kv map[string]interface{}
	if len(fields) > 0 {
		kv = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			kv[f.key] = f.value()
		}
	}
	l.collector.AddLog(level, msg, kv, caller)
}

// shortPath keeps the last two path elements: "usecase/cycle_runner.go".
func shortPath(file string) string {
	idx := strings.LastIndexByte(file, '/')
	if idx <= 0 {
		return file
	}
	if prev := strings.LastIndexByte(file[:idx], '/'); prev >= 0 {
		return file[prev+1:]
	}
	return file
}

// AddCollector starts aggregating error lines, replacing any previous collector.
func (l *Logger) AddCollector(cfg *CollectionConfig) {
	l.RemoveCollector()
	l.collector = NewLogCollector(cfg)
}

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	if l.collector == nil {
		return
	}
	l.collector.Close()
	l.collector = nil
}

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindError
	kindAny
)

// Field is one structured key/value pair.
type Field struct {
	key  string
	kind fieldKind
	s    string
	i    int64
	f    float64
	v    interface{}
}

func (f Field) apply(ev *zerolog.Event) {
	switch f.kind {
	case kindString:
		ev.Str(f.key, f.s)
	case kindInt:
		ev.Int64(f.key, f.i)
	case kindFloat:
		ev.Float64(f.key, f.f)
	case kindBool:
		ev.Bool(f.key, f.i != 0)
	case kindDuration:
		ev.Dur(f.key, time.Duration(f.i))
	case kindError:
		if err, _ := f.v.(error); err != nil {
			ev.AnErr(f.key, err)
		}
	default:
		ev.Interface(f.key, f.v)
	}
}

// value is what the collector hashes and ships.
func (f Field) value() interface{} {
	switch f.kind {
	case kindString:
		return f.s
	case kindInt:
		return f.i
	case kindFloat:
		return f.f
	case kindBool:
		return f.i != 0
	case kindDuration:
		return time.Duration(f.i).String()
	case kindError:
		if err, _ := f.v.(error); err != nil {
			return err.Error()
		}
		return nil
	}
	return f.v
}

func String(key, value string) Field { return Field{key: key, kind: kindString, s: value} }

func Strings(key string, values []string) Field {
	return String(key, strings.Join(values, ","))
}

func Int(key string, value int) Field { return Int64(key, int64(value)) }

func Int64(key string, value int64) Field { return Field{key: key, kind: kindInt, i: value} }

func Float64(key string, value float64) Field { return Field{key: key, kind: kindFloat, f: value} }

func Bool(key string, value bool) Field {
	f := Field{key: key, kind: kindBool}
	if value {
		f.i = 1
	}
	return f
}

// Duration is logged in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{key: key, kind: kindDuration, i: int64(value)}
}

func Time(key string, value time.Time) Field {
	return String(key, value.UTC().Format(time.RFC3339Nano))
}

func Error(err error) Field { return Field{key: zerolog.ErrorFieldName, kind: kindError, v: err} }

func Any(key string, value interface{}) Field { return Field{key: key, kind: kindAny, v: value} }
