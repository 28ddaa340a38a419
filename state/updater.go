package state

import "github.com/RuiFG/statesync/value"

// Set merges a single key.
func Set(key string, v value.Value) Updater {
	return func(current State) State {
		next := clone(current)
		next[key] = v
		return next
	}
}

// SetAll merges every key of s.
func SetAll(s State) Updater {
	return func(current State) State {
		next := clone(current)
		for key, v := range s {
			next[key] = v
		}
		return next
	}
}

func Delete(keys ...string) Updater {
	return func(current State) State {
		next := clone(current)
		for _, key := range keys {
			delete(next, key)
		}
		return next
	}
}

// Replace discards the current state.
func Replace(s State) Updater {
	return func(State) State {
		return clone(s)
	}
}
