package store

import "fmt"

// ReadError is a failed scan or point read.
type ReadError struct {
	Op  string
	Key []byte
	Err error
}

func (e *ReadError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is a failed put. A CAS rejection is not a WriteError.
type WriteError struct {
	Key []byte
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store put %q failed: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
