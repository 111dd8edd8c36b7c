// Package gen contains the common generators built on top of the generation environment.
package gen

import (
	"propcheck/distribution"
	"propcheck/env"
	"propcheck/tree"
)

// Integers from the whole supported range
func Integers() *env.Generator[int] {
	return IntRange(distribution.MinValue, distribution.MaxValue)
}

// Integers in the inclusive range [min, max]
func IntRange(min, max int) *env.Generator[int] {
	d := distribution.Uniform(min, max)
	return env.NewGenerator(func(e env.Env) int {
		return e.DrawInt(d)
	})
}

// Non-negative integers
func Naturals() *env.Generator[int] {
	return IntRange(0, distribution.MaxValue)
}

// Integers drawn from the provided distribution
func IntsFrom(d distribution.Distribution) *env.Generator[int] {
	return env.NewGenerator(func(e env.Env) int {
		return e.DrawInt(d)
	})
}

func Booleans() *env.Generator[bool] {
	d := distribution.Uniform(0, 1)
	return env.NewGenerator(func(e env.Env) bool {
		return e.DrawInt(d) == 1
	})
}

// Always produces value
func Constant[T any](value T) *env.Generator[T] {
	return env.NewGenerator(func(env.Env) T {
		return value
	})
}

// One of the provided values. Shrinks toward the first.
func SampledFrom[T any](values ...T) *env.Generator[T] {
	if len(values) == 0 {
		panic("gen: SampledFrom requires at least one value")
	}
	d := distribution.Uniform(0, len(values)-1)
	return env.NewGenerator(func(e env.Env) T {
		return values[e.DrawInt(d)]
	})
}

// Lists with a length between 0 and the current size hint
func Lists[T any](item *env.Generator[T]) *env.Generator[[]T] {
	return env.NewGenerator(func(e env.Env) []T {
		return generateList(e, distribution.Uniform(0, e.SizeHint()), item)
	})
}

// Lists with at least one item and at most max(1, size hint) items
func NonEmptyLists[T any](item *env.Generator[T]) *env.Generator[[]T] {
	return env.NewGenerator(func(e env.Env) []T {
		return generateList(e, distribution.Uniform(1, max(1, e.SizeHint())), item)
	})
}

// Lists whose length is drawn from length
func ListsOf[T any](length distribution.Distribution, item *env.Generator[T]) *env.Generator[[]T] {
	return env.NewGenerator(func(e env.Env) []T {
		return generateList(e, length, item)
	})
}

// The length is the first child of the list node, so that the shrinker can remove items by decreasing it
func generateList[T any](e env.Env, length distribution.Distribution, item *env.Generator[T]) []T {
	e.ChangeKind(tree.List)
	size := e.DrawInt(length)
	result := make([]T, 0, size)
	for i := 0; i < size; i++ {
		result = append(result, env.Generate(e, item))
	}
	return result
}

// Strings made of characters from chars, with a length between 0 and the current size hint
func StringsOf(chars *env.Generator[rune]) *env.Generator[string] {
	return Map(Lists(chars), func(runes []rune) string {
		return string(runes)
	})
}

// Characters in the inclusive range [from, to]
func Runes(from, to rune) *env.Generator[rune] {
	return Map(IntRange(int(from), int(to)), func(v int) rune {
		return rune(v)
	})
}

func AsciiLetters() *env.Generator[rune] {
	return AnyOf(Runes('a', 'z'), Runes('A', 'Z'))
}

// Transform the values of g. The function runs in the same structure as g.
func Map[T, U any](g *env.Generator[T], f func(T) U) *env.Generator[U] {
	return env.NewGenerator(func(e env.Env) U {
		return f(g.Apply(e))
	})
}

// Generate a value and use it to pick the generator of the result
func FlatMap[T, U any](g *env.Generator[T], f func(T) *env.Generator[U]) *env.Generator[U] {
	return env.NewGenerator(func(e env.Env) U {
		value := env.Generate(e, g)
		return env.Generate(e, f(value))
	})
}

// Only the values of g satisfying cond. Generation fails when cond is too rarely satisfied.
func SuchThat[T any](g *env.Generator[T], cond func(T) bool) *env.Generator[T] {
	return env.NewGenerator(func(e env.Env) T {
		return env.GenerateConditional(e, g, cond)
	})
}

// The values of g, never shrunk
func NoShrink[T any](g *env.Generator[T]) *env.Generator[T] {
	return env.NewGenerator(func(e env.Env) T {
		return env.GenerateNonShrinkable(e, g)
	})
}

// An alternative of a Frequency generator
type Weighted[T any] struct {
	Weight int
	Gen    *env.Generator[T]
}

// Choose an alternative with a probability proportional to its weight.
// The shrinker keeps the chosen alternative and shrinks its value.
func Frequency[T any](alternatives ...Weighted[T]) *env.Generator[T] {
	if len(alternatives) == 0 {
		panic("gen: Frequency requires at least one alternative")
	}
	weights := make([]int, len(alternatives))
	for i, a := range alternatives {
		weights[i] = a.Weight
	}
	d := distribution.Frequency(weights...)
	return env.NewGenerator(func(e env.Env) T {
		e.ChangeKind(tree.Choice)
		return env.Generate(e, alternatives[e.DrawInt(d)].Gen)
	})
}

// Choose one of the generators with equal probability
func AnyOf[T any](gens ...*env.Generator[T]) *env.Generator[T] {
	alternatives := make([]Weighted[T], len(gens))
	for i, g := range gens {
		alternatives[i] = Weighted[T]{Weight: 1, Gen: g}
	}
	return Frequency(alternatives...)
}

// Build a generator that refers to itself.
//
// Nested values generated by self share its hash, so a failing value can be shrunk by
// replacing it with one of its nested values.
func Recursive[T any](build func(self *env.Generator[T]) *env.Generator[T]) *env.Generator[T] {
	var inner *env.Generator[T]
	self := env.NewGenerator(func(e env.Env) T {
		if inner == nil {
			panic("gen: recursive generator used before it was built")
		}
		return inner.Apply(e)
	})
	inner = build(self)
	return self
}
