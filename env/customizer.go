package env

import (
	"propcheck/distribution"
	"propcheck/tree"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Past this many nested decisions the combinatorial customizer only keeps the clamped original value
const maxDecisionDepth = 3

// Decides which integer a replay produces for a recorded leaf
type Customizer interface {
	SuggestInt(data *tree.IntData, current distribution.Distribution) int
}

type CustomizerFunc func(data *tree.IntData, current distribution.Distribution) int

func (f CustomizerFunc) SuggestInt(data *tree.IntData, current distribution.Distribution) int {
	return f(data, current)
}

// Returns the recorded value, panicking with ErrCannotRestore if current does not accept it
func CheckValidInt(data *tree.IntData, current distribution.Distribution) int {
	if !current.IsValid(data.Value()) {
		raise(errors.Wrapf(ErrCannotRestore, "recorded value %d is not valid for %v", data.Value(), current))
	}
	return data.Value()
}

// Replays the recording as is
var Verbatim Customizer = CustomizerFunc(CheckValidInt)

// A node of the decision tree explored by Combinatorial
type decision struct {
	parent   *decision
	depth    int
	choice   *tree.IntData
	expanded bool
	branches []*decision
}

func (d *decision) delete() {
	if d.parent == nil {
		return
	}
	d.parent.branches = slices.DeleteFunc(d.parent.branches, func(b *decision) bool {
		return b == d
	})
	if len(d.parent.branches) == 0 {
		d.parent.delete()
	}
}

// A customizer for recordings whose integer ranges changed after shrinking.
//
// When a bounded draw is replayed under different bounds, the recorded value is remapped to up to three
// candidates: the same distance from the start of the range, the same distance from its end, and the
// value clamped into the range. Several candidates open a branch in a decision tree. Every attempt
// follows the first untried branch at each decision; NextAttempt moves on to the next combination.
type Combinatorial struct {
	root    *decision
	current *decision
}

func NewCombinatorial() *Combinatorial {
	root := &decision{depth: 1}
	return &Combinatorial{root: root, current: root}
}

func (c *Combinatorial) SuggestInt(data *tree.IntData, current distribution.Distribution) int {
	original, ok := data.Distribution().(distribution.Bounded)
	if bounded, isBounded := current.(distribution.Bounded); ok && isBounded {
		if value, ok := c.suggestVariant(data, bounded, original); ok {
			return value
		}
	}
	return CheckValidInt(data, current)
}

func (c *Combinatorial) suggestVariant(data *tree.IntData, current, original distribution.Bounded) (int, bool) {
	if original.Min() == current.Min() && original.Max() == current.Max() {
		return 0, false
	}
	values := c.possibleValues(data, current, original)
	switch len(values) {
	case 0:
		return 0, false
	case 1:
		return values[0], true
	}
	if !c.current.expanded {
		c.current.expanded = true
		for _, v := range values {
			c.current.branches = append(c.current.branches, &decision{
				parent: c.current,
				depth:  c.current.depth + 1,
				choice: tree.NewIntData(data.ID(), v, current),
			})
		}
	}
	c.current = c.current.branches[0]
	return c.current.choice.Value(), true
}

func (c *Combinatorial) possibleValues(data *tree.IntData, current, original distribution.Bounded) []int {
	fromStart := data.Value() - original.Min()
	fromEnd := original.Max() - data.Value()
	sameDistanceFromStart := current.Min() + fromStart
	sameDistanceFromEnd := current.Max() - fromEnd

	candidates := []int{}
	if c.current.depth <= maxDecisionDepth {
		if fromStart < fromEnd {
			candidates = append(candidates, sameDistanceFromStart, sameDistanceFromEnd)
		} else {
			candidates = append(candidates, sameDistanceFromEnd, sameDistanceFromStart)
		}
	}
	candidates = append(candidates, data.Value())

	values := []int{}
	for _, v := range candidates {
		v = max(current.Min(), min(v, current.Max()))
		if current.IsValid(v) && !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	return values
}

// Discard the combination of the last attempt.
// Returns a customizer for the next untried combination or nil when all have been tried.
func (c *Combinatorial) NextAttempt() *Combinatorial {
	c.current.delete()
	if len(c.root.branches) == 0 {
		return nil
	}
	return &Combinatorial{root: c.root, current: c.root}
}

// Write the choices of the last attempt into the recording
func (c *Combinatorial) WriteChanges(node *tree.Node) *tree.Node {
	result := node
	for d := c.current; d != nil; d = d.parent {
		if d.choice != nil {
			result = tree.ReplaceIn(result, d.choice.ID(), d.choice)
		}
	}
	return result
}

// The number of combinations represented by the path of the last attempt.
// Customizers with fewer variants are explored first.
func (c *Combinatorial) CountVariants() int {
	result := 1
	for d := c.current; d != nil; d = d.parent {
		result *= max(1, len(d.branches))
	}
	return result
}
