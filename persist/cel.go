package persist

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

func compileCEL(expression string, names []string) (predicate, error) {
	options := make([]celgo.EnvOption, 0, len(names))
	for _, name := range names {
		options = append(options, celgo.Variable(name, celgo.MapType(celgo.StringType, celgo.DynType)))
	}
	env, err := celgo.NewEnv(options...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if output := ast.OutputType(); !output.IsExactType(celgo.BoolType) && !output.IsExactType(celgo.DynType) {
		return nil, errors.Errorf("expression returns %s, not bool", output)
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return func(vars map[string]any) (bool, error) {
		out, _, err := program.Eval(vars)
		if err != nil {
			return false, err
		}
		return asBool(out.Value())
	}, nil
}
