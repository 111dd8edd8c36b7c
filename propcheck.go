// Package propcheck checks that properties hold for generated values.
//
// A check runs a generator on random data for a number of iterations and evaluates the property on every value.
// When the property is falsified, the recording of the generation is minimized to find a smaller value that
// still falsifies it. The minimal counter-example is reported together with serialized data that reproduces it.
package propcheck

import (
	"testing"

	"propcheck/env"
	"propcheck/scenario"

	"github.com/google/uuid"
)

// Check that prop returns true for all generated values.
//
// Returns nil if the property holds on every iteration, a *PropertyFalsified if it was falsified,
// a *GeneratorError if generation failed and an error matching ErrInvalidConfig if the options are invalid.
// A panic in prop is treated as a failure of the property.
func Check[T any](g *env.Generator[T], prop func(T) bool, opts ...Option) error {
	return check(g, func(value T) (bool, error) {
		return prop(value), nil
	}, opts)
}

// Like Check, with a property that returns an error when it does not hold.
// The error becomes the cause of the counter-example.
func CheckErr[T any](g *env.Generator[T], prop func(T) error, opts ...Option) error {
	return check(g, func(value T) (bool, error) {
		err := prop(value)
		return err == nil, err
	}, opts)
}

// Check the property within a test, failing the test with the report of the check
func ForAll[T any](t testing.TB, g *env.Generator[T], prop func(T) bool, opts ...Option) {
	t.Helper()
	if err := Check(g, prop, opts...); err != nil {
		t.Fatal(err)
	}
}

// Check that every scenario built from the commands returned by supplier runs without failures.
// The supplier should not have side effects.
func CheckScenarios(supplier func() scenario.Command, opts ...Option) error {
	params, err := newParameters(opts)
	if err != nil {
		return err
	}
	id := uuid.New()
	n := newNotifier(params, id.String())
	g := scenario.Scenarios(supplier, n.logEntry)
	prop := func(s *scenario.Scenario) (bool, error) {
		err := s.EnsureSuccessful()
		return err == nil, err
	}
	return newSession(g, prop, params, n, id).run()
}

func check[T any](g *env.Generator[T], prop property[T], opts []Option) error {
	params, err := newParameters(opts)
	if err != nil {
		return err
	}
	id := uuid.New()
	return newSession(g, prop, params, newNotifier(params, id.String()), id).run()
}
