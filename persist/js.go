package persist

import (
	"fmt"

	"github.com/RuiFG/statesync/value"
	"github.com/dop251/goja"
)

// compileJS wraps expression in a function body. A goja.Runtime is not safe
// for concurrent use, so each evaluation builds its own.
func compileJS(expression string) (predicate, error) {
	program, err := goja.Compile("policy", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	if err != nil {
		return nil, err
	}
	return func(vars map[string]any) (bool, error) {
		vm := goja.New()
		for name, v := range vars {
			if err := vm.Set(name, v); err != nil {
				return false, err
			}
		}
		if err := vm.Set("equal", func(a, b any) (bool, error) {
			return equalValues(a, b)
		}); err != nil {
			return false, err
		}
		result, err := vm.RunProgram(program)
		if err != nil {
			return false, err
		}
		return asBool(result.Export())
	}, nil
}

func equalValues(a, b any) (bool, error) {
	x, err := value.FromAny(a)
	if err != nil {
		return false, err
	}
	y, err := value.FromAny(b)
	if err != nil {
		return false, err
	}
	return value.Equal(x, y), nil
}
