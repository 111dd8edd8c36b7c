package env

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// The recorded data can not be replayed in the current context
	ErrCannotRestore = errors.New("env: cannot restore value")
	// A conditional generator exhausted its retries
	ErrCannotSatisfy = errors.New("env: cannot satisfy condition")
	// An environment was used while a nested one was active
	ErrWrongEnvironment = errors.New("env: operation invoked on an environment that is not the active one, confusing nested closure arguments?")
)

func errRestoringSerialized() error {
	return errors.Wrap(ErrCannotRestore, "error restoring from serialized rechecking data, possible cause: either the test or the environment it depends on has changed")
}

// Generator code has no error returns, so failures travel as panics until the entry points recover them
func raise(err error) {
	panic(err)
}

// Run fn and convert a panic into an error
func capture(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = AsError(r)
		}
	}()
	fn()
	return nil
}

// Convert a recovered panic value into an error
func AsError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprintf("panic: %v", r))
}
