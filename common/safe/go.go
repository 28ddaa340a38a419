package safe

import (
	"github.com/pkg/errors"
)

//be safe, don't panic

// Run calls fn and turns a panic into an error.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case error:
				err = errors.WithMessage(x, "recovered from panic")
			default:
				err = errors.Errorf("recovered from panic: %v", x)
			}
		}
	}()
	err = fn()
	return err
}

// Go runs fn in a new goroutine, the returned channel yields its result once and is then closed.
func Go(fn func() error) <-chan error {
	c := make(chan error, 1)
	go func() {
		c <- Run(fn)
		close(c)
	}()
	return c
}

func GoWithMessage(fn func() error, message string) <-chan error {
	return Go(func() error {
		return errors.WithMessage(fn(), message)
	})
}
