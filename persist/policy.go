package persist

import (
	"bytes"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/store"
	"github.com/RuiFG/statesync/value"
	exprlang "github.com/expr-lang/expr"
	"github.com/pkg/errors"
)

// DistinctPolicy reports whether two consecutive snapshots are the same,
// in which case the later one is not persisted.
type DistinctPolicy func(previous, current state.State) bool

// DefaultCAS allows a write unless key and value are both unchanged.
func DefaultCAS(prev, cand store.Entry) bool {
	return !(bytes.Equal(prev.Key, cand.Key) && value.Equal(prev.Value, cand.Value))
}

// DefaultDistinct compares snapshots structurally.
func DefaultDistinct(previous, current state.State) bool {
	return value.Equal(value.Object(previous), value.Object(current))
}

func entryEnv(entry store.Entry) map[string]any {
	return map[string]any{
		"key":   string(entry.Key),
		"value": value.ToAny(entry.Value),
		"seq":   entry.Seq,
	}
}

func snapshotEnv(snapshot state.State) map[string]any {
	env := make(map[string]any, len(snapshot))
	for key, v := range snapshot {
		env[key] = value.ToAny(v)
	}
	return env
}

func equalFunction(params ...any) (any, error) {
	if len(params) != 2 {
		return nil, errors.WithMessagef(value.ErrMisuse, "equal takes two arguments, got %d", len(params))
	}
	return equalValues(params[0], params[1])
}

// Engine names the expression language a policy is written in.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	EngineJS   Engine = "js"
)

// predicate evaluates a compiled policy expression against its variables.
type predicate func(vars map[string]any) (bool, error)

func compile(engine Engine, expression string, names ...string) (predicate, error) {
	if expression == "" {
		return nil, errors.WithMessage(ErrMisuse, "expression must not be empty")
	}
	var (
		p   predicate
		err error
	)
	switch engine {
	case EngineExpr, "":
		p, err = compileExpr(expression, names)
	case EngineCEL:
		p, err = compileCEL(expression, names)
	case EngineJS:
		p, err = compileJS(expression)
	default:
		return nil, errors.WithMessagef(ErrMisuse, "unknown policy engine %q", engine)
	}
	if err != nil {
		return nil, errors.WithMessagef(ErrMisuse, "invalid %s expression %q: %v", engine, expression, err)
	}
	return p, nil
}

func compileExpr(expression string, names []string) (predicate, error) {
	env := make(map[string]any, len(names))
	for _, name := range names {
		env[name] = map[string]any{}
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(env),
		exprlang.AsBool(),
		exprlang.Function("equal", equalFunction, new(func(any, any) bool)),
	)
	if err != nil {
		return nil, err
	}
	return func(vars map[string]any) (bool, error) {
		result, err := exprlang.Run(program, vars)
		if err != nil {
			return false, err
		}
		return asBool(result)
	}, nil
}

func asBool(result any) (bool, error) {
	b, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("expression returned %T, not bool", result)
	}
	return b, nil
}

// CompileCAS compiles expression into a CAS policy. The expression sees prev
// and cand as {key, value, seq} and allows the write when it returns true. An
// evaluation error allows the write.
func CompileCAS(engine Engine, expression string, logger log.Logger) (store.CASPolicy, error) {
	allows, err := compile(engine, expression, "prev", "cand")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	return func(prev, cand store.Entry) bool {
		allowed, err := allows(map[string]any{"prev": entryEnv(prev), "cand": entryEnv(cand)})
		if err != nil {
			logger.Warnw("cas expression failed, allowing write", "expression", expression, "key", string(cand.Key), "err", err)
			return true
		}
		return allowed
	}, nil
}

// CompileDistinct compiles expression into a distinct policy. The expression
// sees the prev and curr snapshots and returns true when they are the same.
// An evaluation error counts as a change.
func CompileDistinct(engine Engine, expression string, logger log.Logger) (DistinctPolicy, error) {
	same, err := compile(engine, expression, "prev", "curr")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	return func(previous, current state.State) bool {
		unchanged, err := same(map[string]any{"prev": snapshotEnv(previous), "curr": snapshotEnv(current)})
		if err != nil {
			logger.Warnw("distinct expression failed, treating snapshot as changed", "expression", expression, "err", err)
			return false
		}
		return unchanged
	}, nil
}

// ExprCAS is CompileCAS for expr-lang expressions, which also get an
// equal(a, b) function for structural comparison.
func ExprCAS(expression string, logger log.Logger) (store.CASPolicy, error) {
	return CompileCAS(EngineExpr, expression, logger)
}

func ExprDistinct(expression string, logger log.Logger) (DistinctPolicy, error) {
	return CompileDistinct(EngineExpr, expression, logger)
}

// CELCAS is CompileCAS for CEL expressions. CEL compares maps and lists
// structurally with ==.
func CELCAS(expression string, logger log.Logger) (store.CASPolicy, error) {
	return CompileCAS(EngineCEL, expression, logger)
}

func CELDistinct(expression string, logger log.Logger) (DistinctPolicy, error) {
	return CompileDistinct(EngineCEL, expression, logger)
}

// JSCAS is CompileCAS for JavaScript expressions. Objects compare by
// reference in JavaScript, so use equal(a, b) for structural comparison.
func JSCAS(expression string, logger log.Logger) (store.CASPolicy, error) {
	return CompileCAS(EngineJS, expression, logger)
}

func JSDistinct(expression string, logger log.Logger) (DistinctPolicy, error) {
	return CompileDistinct(EngineJS, expression, logger)
}
