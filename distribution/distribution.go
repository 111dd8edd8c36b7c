package distribution

import (
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/exp/slices"
)

// Drawn values are limited to the signed 32-bit range so that they survive the serialized record format.
const (
	MinValue = math.MinInt32
	MaxValue = math.MaxInt32
)

// Describes the set of legal values for a single integer draw.
type Distribution interface {
	// Draw a value from the distribution using the provided random source
	Generate(r *rand.Rand) int
	// Returns true if the value could have been produced by the distribution
	IsValid(value int) bool
}

// A distribution with known inclusive bounds.
//
// The bounds are used when shrinking, to avoid proposing values outside the range,
// and when replaying a recording in a context where the range has changed.
type Bounded interface {
	Distribution
	Min() int
	Max() int
}

type uniform struct {
	min, max int
}

// Create a distribution where all values in [min, max] are equally likely.
//
// Panics if min > max or if the bounds are outside the 32-bit range.
func Uniform(min, max int) Bounded {
	if min > max {
		panic(fmt.Sprintf("distribution: min (%d) should not be greater than max (%d)", min, max))
	}
	if min < MinValue || max > MaxValue {
		panic(fmt.Sprintf("distribution: bounds [%d, %d] exceed the 32-bit range", min, max))
	}
	return uniform{min: min, max: max}
}

func (u uniform) Generate(r *rand.Rand) int {
	if u.min == u.max {
		return u.min
	}
	return u.min + int(r.Int63n(int64(u.max)-int64(u.min)+1))
}

func (u uniform) IsValid(value int) bool {
	return value >= u.min && value <= u.max
}

func (u uniform) Min() int { return u.min }

func (u uniform) Max() int { return u.max }

func (u uniform) String() string {
	return fmt.Sprintf("uniform[%d, %d]", u.min, u.max)
}

type geometric struct {
	mean int
}

// Create a geometric distribution of non-negative values with the given mean.
// Small values are much more likely than large ones, which makes it a good fit for lengths and counts.
func Geometric(mean int) Distribution {
	if mean < 0 {
		panic(fmt.Sprintf("distribution: mean should be non-negative, got %d", mean))
	}
	return geometric{mean: mean}
}

func (g geometric) Generate(r *rand.Rand) int {
	if g.mean == 0 {
		return 0
	}
	p := 1 / (float64(g.mean) + 1)
	v := math.Floor(math.Log(1-r.Float64()) / math.Log(1-p))
	if v > MaxValue {
		return MaxValue
	}
	return int(v)
}

func (g geometric) IsValid(value int) bool {
	return value >= 0 && value <= MaxValue
}

func (g geometric) String() string {
	return fmt.Sprintf("geometric(%d)", g.mean)
}

type frequency struct {
	weights []int
	total   int
}

// Create a distribution over the indices of weights, where index i is drawn with probability weights[i]/sum(weights).
// Indices with zero weight are never produced and are not valid.
func Frequency(weights ...int) Bounded {
	total := 0
	for _, w := range weights {
		if w < 0 {
			panic(fmt.Sprintf("distribution: negative weight %d", w))
		}
		total += w
	}
	if total == 0 {
		panic("distribution: at least one weight should be positive")
	}
	return frequency{weights: slices.Clone(weights), total: total}
}

func (f frequency) Generate(r *rand.Rand) int {
	point := r.Intn(f.total)
	for i, w := range f.weights {
		if point < w {
			return i
		}
		point -= w
	}
	panic("distribution: unreachable")
}

func (f frequency) IsValid(value int) bool {
	return value >= 0 && value < len(f.weights) && f.weights[value] > 0
}

func (f frequency) Min() int { return 0 }

func (f frequency) Max() int { return len(f.weights) - 1 }

func (f frequency) String() string {
	return fmt.Sprintf("frequency%v", f.weights)
}
