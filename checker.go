package propcheck

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

const (
	failureReasonChanged = "Failure reason has changed during shrinking, see initial failing example below"
	notReproducible      = "The failure is not reproducible on re-run!!! Possible cause: side effects in the test."
	traceSeparator       = "\n=========================="
)

// The terminal report of a falsified property.
// Unwrap returns the cause of the minimal counter-example.
type PropertyFalsified struct {
	failure any
	value   any
	cause   error
	message string
}

func newPropertyFalsified[T any](f *PropertyFailure[T]) *PropertyFalsified {
	return &PropertyFalsified{
		failure: f,
		value:   f.shrunk.value,
		cause:   f.shrunk.cause,
		message: f.report(),
	}
}

func (e *PropertyFalsified) Error() string {
	return e.message
}

func (e *PropertyFalsified) Unwrap() error {
	return e.cause
}

// The minimal value falsifying the property
func (e *PropertyFalsified) BreakingValue() any {
	return e.value
}

// Extract the failure of a check on values of type T from the error returned by the check
func FailureOf[T any](err error) (*PropertyFailure[T], bool) {
	var falsified *PropertyFalsified
	if !errors.As(err, &falsified) {
		return nil, false
	}
	f, ok := falsified.failure.(*PropertyFailure[T])
	return f, ok
}

// Generating a value failed with an error not caused by the property
type GeneratorError struct {
	Cause         error
	IterationSeed int64
	GlobalSeed    int64
	SizeHint      int
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("Exception while generating data, use `propcheck.RecheckingIteration(%d, %d)` or `propcheck.WithSeed(%d)` to reproduce: %v",
		e.IterationSeed, e.SizeHint, e.GlobalSeed, e.Cause)
}

func (e *GeneratorError) Unwrap() error {
	return e.Cause
}

func (f *PropertyFailure[T]) report() string {
	trace := &strings.Builder{}
	minimal := f.shrunk

	example := formatValue(minimal.value)
	var msg string
	if minimal.cause != nil {
		msg = fmt.Sprintf("Failed with %v\nOn %v", rootCause(minimal.cause), example)
	} else {
		msg = "Falsified on " + example
	}

	if !f.reproducible {
		msg += "\n\n" + notReproducible
	}

	msg += "\n" + f.shrinkingStats() + "\n" + f.iteration.printToReproduce(minimal.SerializedData()) + "\n"

	if minimal.cause != nil {
		prefix := "Property failure reason: "
		if rootCause(minimal.cause) != minimal.cause {
			prefix = "Property failure reason, innermost error (see full trace below): "
		}
		appendTrace(trace, prefix, minimal.cause)
	}

	if f.stoppingReason != nil {
		msg += "\n Shrinking stopped prematurely, see the reason below."
		appendTrace(trace, "An unexpected error happened during shrinking: ", f.stoppingReason)
	}

	first := f.initial.cause
	if causesDiffer(first, minimal.cause) {
		msg += "\n " + failureReasonChanged
		fmt.Fprintf(trace, "\n Initial value: %v", formatValue(f.initial.value))
		if first == nil {
			trace.WriteString("\n Initially property was falsified without errors")
		} else {
			appendTrace(trace, "Initially failed because of ", first)
		}
	}
	return msg + trace.String()
}

func (f *PropertyFailure[T]) shrinkingStats() string {
	examples := plural(f.totalSteps, "example")
	if f.totalSteps == 0 {
		return ""
	}
	if f.successfulSteps == 0 {
		return fmt.Sprintf("Couldn't shrink, tried %v\n", examples)
	}
	return fmt.Sprintf("Shrunk in %v, by trying %v\n", plural(f.successfulSteps, "stage"), examples)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %v", n, noun)
	}
	return fmt.Sprintf("%d %vs", n, noun)
}

// Includes the stack trace for errors created with github.com/pkg/errors
func appendTrace(b *strings.Builder, prefix string, err error) {
	fmt.Fprintf(b, "\n %v%+v%v", prefix, err, traceSeparator)
}

// Print a value, surviving a panicking String method
func formatValue(value any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<can't format value: %v>", r)
		}
	}()
	return fmt.Sprintf("%v", value)
}

// The innermost error of a wrapping chain
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// Two failure causes differ if their innermost errors have different types or messages
func causesDiffer(a, b error) bool {
	if a == nil && b == nil {
		return false
	}
	if (a == nil) != (b == nil) {
		return true
	}
	ra, rb := rootCause(a), rootCause(b)
	if reflect.TypeOf(ra) != reflect.TypeOf(rb) {
		return true
	}
	return ra.Error() != rb.Error()
}
