// Package env defines the generation environment that generators draw their data from,
// together with its two interpreters: a generative one that draws fresh random integers and records
// them in a tree, and a replaying one that reproduces a value from an existing recording.
package env

import (
	"sync/atomic"

	"propcheck/distribution"
	"propcheck/tree"

	"github.com/cespare/xxhash/v2"
)

// Number of attempts made by GenerateConditional before giving up
const MaxConditionAttempts = 100

// The environment a generator runs in.
//
// Every nested generation gets its own environment and only the innermost active one may be used.
// Using an enclosing environment while a nested one is active panics with ErrWrongEnvironment.
type Env interface {
	// Produce or replay an integer that is valid for the distribution
	DrawInt(d distribution.Distribution) int
	// The scale of the structures to generate. It decreases with the nesting depth.
	SizeHint() int
	// Tag the structure currently being generated
	ChangeKind(kind tree.Kind)
	// Panics with ErrWrongEnvironment if the environment is not the active one
	EnsureActive()

	generate(hash uint64, nonShrinkable bool, fn func(Env))
	generateConditional(hash uint64, fn func(Env), cond func() bool)
}

var generatorCount atomic.Uint64

// Named generators are kept apart from the counter-based ones by the high bit
const namedHashBit = 1 << 63

// A function producing values of type T from an environment.
//
// The hash identifies the generator in recordings, so that nodes produced by the same generator can
// stand in for each other when shrinking.
type Generator[T any] struct {
	hash uint64
	fn   func(Env) T
}

func NewGenerator[T any](fn func(Env) T) *Generator[T] {
	return &Generator[T]{
		hash: generatorCount.Add(1),
		fn:   fn,
	}
}

// Create a generator whose hash is derived from its name.
// Generators created anew for every use but meant to be equivalent should share a name.
func NewNamedGenerator[T any](name string, fn func(Env) T) *Generator[T] {
	return &Generator[T]{
		hash: xxhash.Sum64String(name) | namedHashBit,
		fn:   fn,
	}
}

func (g *Generator[T]) Hash() uint64 {
	return g.hash
}

// Run the generator function directly in e, without a nested structure
func (g *Generator[T]) Apply(e Env) T {
	return g.fn(e)
}

// Run the generator in a nested environment of e
func Generate[T any](e Env, g *Generator[T]) T {
	var value T
	e.generate(g.hash, false, func(sub Env) {
		value = g.fn(sub)
	})
	return value
}

// Like Generate, but the resulting structure is never shrunk
func GenerateNonShrinkable[T any](e Env, g *Generator[T]) T {
	var value T
	e.generate(g.hash, true, func(sub Env) {
		value = g.fn(sub)
	})
	return value
}

// Generate values until one satisfies cond.
//
// Panics with ErrCannotSatisfy after MaxConditionAttempts attempts. When replaying, the recorded
// attempt is the only one available, so a value that does not satisfy cond panics with ErrCannotRestore.
func GenerateConditional[T any](e Env, g *Generator[T], cond func(T) bool) T {
	var value T
	e.generateConditional(g.hash, func(sub Env) {
		value = g.fn(sub)
	}, func() bool {
		return cond(value)
	})
	return value
}

func childSizeHint(sizeHint int) int {
	return max(0, sizeHint-1)
}

// Tracks the environment that is currently allowed to be used
type scope struct {
	current Env
}

func (s *scope) check(e Env) {
	if s.current != e {
		raise(ErrWrongEnvironment)
	}
}

func (s *scope) run(parent, child Env, fn func(Env)) {
	s.check(parent)
	s.current = child
	defer func() {
		s.current = parent
	}()
	fn(child)
}
