package log

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
	DPanicLevel
	PanicLevel
	FatalLevel
)

// ParseLevel accepts the zap level names, case-insensitive.
func ParseLevel(text string) (Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(text)))); err != nil {
		return InfoLevel, errors.WithMessagef(err, "unknown log level %q", text)
	}
	return Level(l), nil
}

type OutputEncoder func(config zapcore.EncoderConfig) zapcore.Encoder

var (
	JsonOutputEncoder    OutputEncoder = zapcore.NewJSONEncoder
	ConsoleOutputEncoder OutputEncoder = zapcore.NewConsoleEncoder
)

// ParseOutputEncoder maps "json" and "console" to their encoders.
func ParseOutputEncoder(text string) (OutputEncoder, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "json":
		return JsonOutputEncoder, nil
	case "console":
		return ConsoleOutputEncoder, nil
	default:
		return nil, errors.Errorf("unknown log encoder %q", text)
	}
}

type CallerEncoder func(caller zapcore.EntryCaller, encoder zapcore.PrimitiveArrayEncoder)

var (
	ShortCallerEncoder CallerEncoder = zapcore.ShortCallerEncoder
	FullCallerEncoder  CallerEncoder = zapcore.FullCallerEncoder
)

type LevelEncoder func(level zapcore.Level, encoder zapcore.PrimitiveArrayEncoder)

var (
	CapitalLevelEncoder LevelEncoder = zapcore.CapitalLevelEncoder
	BracketLevelEncoder LevelEncoder = func(level zapcore.Level, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString("[" + level.CapitalString() + "]")
	}
)
