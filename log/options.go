package log

import (
	"io"

	"go.uber.org/zap/zapcore"
)

const defaultTimeLayout = "02/Jan/2006:15:04:05 -0700"

// Options describes a logger built by New or Setup. Start from DefaultOptions
// and chain the With methods.
type Options struct {
	level         Level
	encoder       OutputEncoder
	levelEncoder  LevelEncoder
	callerEncoder CallerEncoder // nil: no caller field
	stacktrace    bool          // attach stack traces to warn and above
	timeLayout    string
	name          string
	sink          zapcore.WriteSyncer // nil: stdout below warn, stderr from warn
}

func DefaultOptions() *Options {
	return &Options{
		level:        InfoLevel,
		encoder:      JsonOutputEncoder,
		levelEncoder: BracketLevelEncoder,
		timeLayout:   defaultTimeLayout,
	}
}

func (o *Options) WithLevel(level Level) *Options {
	o.level = level
	return o
}

func (o *Options) WithOutputEncoder(encoder OutputEncoder) *Options {
	o.encoder = encoder
	return o
}

func (o *Options) WithLevelEncoder(encoder LevelEncoder) *Options {
	o.levelEncoder = encoder
	return o
}

func (o *Options) WithCaller(encoder CallerEncoder) *Options {
	o.callerEncoder = encoder
	return o
}

func (o *Options) WithStacktrace(stacktrace bool) *Options {
	o.stacktrace = stacktrace
	return o
}

func (o *Options) WithName(name string) *Options {
	o.name = name
	return o
}

// WithWriter sends every record to writer.
func (o *Options) WithWriter(writer io.Writer) *Options {
	o.sink = zapcore.AddSync(writer)
	return o
}

func (o *Options) outputs() (zapcore.WriteSyncer, zapcore.WriteSyncer) {
	if o.sink != nil {
		return o.sink, o.sink
	}
	return zapcore.Lock(zapcore.AddSync(stdout)), zapcore.Lock(zapcore.AddSync(stderr))
}
