package tree

import (
	"testing"

	"propcheck/distribution"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slices"
	"pgregory.net/rapid"
)

// Walk the step chain once, accepting every candidate for which fails returns true
func minimize(root *Node, fails func(*Node) bool) (*Node, []*Node) {
	accepted := []*Node{root}
	step := root.Shrink()
	for step != nil {
		candidate := step.Apply(root)
		if candidate != nil && fails(candidate) {
			root = candidate
			accepted = append(accepted, root)
			step = step.OnSuccess(root)
		} else {
			step = step.OnFailure()
		}
	}
	return root, accepted
}

func singleInt(value int, dist distribution.Distribution) *Node {
	alloc := NewIDAllocator()
	root := NewNode(alloc.Next(0))
	root.AddChild(NewIntData(alloc.Next(0), value, dist))
	return root
}

var intShrinkTest = []struct {
	value    int
	dist     distribution.Distribution
	fails    func(int) bool
	expected int
}{
	{-500, distribution.Uniform(-1000, 10), func(v int) bool { return v < 0 }, -1},
	{700, distribution.Uniform(0, 1000), func(v int) bool { return v >= 100 }, 100},
	{8, distribution.Uniform(5, 10), func(int) bool { return true }, 5},
	{-8, distribution.Uniform(-10, -3), func(int) bool { return true }, -3},
	{-40, distribution.Uniform(-100, 100), func(v int) bool { return v*v >= 100 }, 10},
	{123456, distribution.Geometric(10), func(v int) bool { return v > 7 }, 8},
	{0, distribution.Uniform(-5, 5), func(int) bool { return true }, 0},
}

func TestIntShrink(t *testing.T) {
	for i, test := range intShrinkTest {
		root := singleInt(test.value, test.dist)
		result, _ := minimize(root, func(n *Node) bool {
			return test.fails(n.Leaves()[0])
		})
		if got := result.Leaves()[0]; got != test.expected {
			t.Errorf("Test %v: Shrunk %d to %d. Expected %d", i, test.value, got, test.expected)
		}
	}
}

func TestZeroDoesNotShrink(t *testing.T) {
	assert.Nil(t, NewIntData(NewIDAllocator().Next(0), 0, anyInt).Shrink())
}

func TestNegationIsTriedFirst(t *testing.T) {
	root := singleInt(-7, anyInt)
	step := root.Shrink()
	assert.Equal(t, []int{0}, step.Apply(root).Leaves())
	step = step.OnFailure()
	assert.Equal(t, []int{7}, step.Apply(root).Leaves())
}

// [len, (item), (item), ...]
func intList(lengthDist distribution.Distribution, items ...int) *Node {
	alloc := NewIDAllocator()
	list := NewNode(alloc.Next(0))
	list.SetKind(List)
	list.AddChild(NewIntData(alloc.Next(0), len(items), lengthDist))
	for _, v := range items {
		item := NewNode(alloc.Next(0))
		item.AddChild(NewIntData(alloc.Next(0), v, distribution.Uniform(0, 100)))
		list.AddChild(item)
	}
	return list
}

func TestListShrink(t *testing.T) {
	list := intList(distribution.Uniform(0, 10), 3, 42, 7, 42, 9)
	result, _ := minimize(list, func(n *Node) bool {
		return slices.Contains(n.Leaves()[1:], 42)
	})
	if diff := cmp.Diff([]int{1, 42}, result.Leaves()); diff != "" {
		t.Errorf("Unexpected minimal list (-want +got):\n%v", diff)
	}
}

func TestListRespectsLengthDistribution(t *testing.T) {
	// Lists of at least two items can not be emptied
	list := intList(distribution.Uniform(2, 10), 1, 2, 3, 4)
	result, _ := minimize(list, func(*Node) bool { return true })
	assert.Equal(t, []int{2, 0, 0}, result.Leaves())
}

func TestShrinkProhibited(t *testing.T) {
	root := singleInt(10, anyInt)
	root.ProhibitShrinking()
	assert.Nil(t, root.Shrink())
}

func TestShrinkByRecursion(t *testing.T) {
	alloc := NewIDAllocator()
	root := NewNode(alloc.Next(7))
	root.AddChild(NewIntData(alloc.Next(0), 0, anyInt))
	nested := NewNode(alloc.Next(7))
	nested.AddChild(NewIntData(alloc.Next(0), 0, anyInt))
	root.AddChild(nested)

	step := root.Shrink()
	if assert.NotNil(t, step) {
		candidate := step.Apply(root)
		assert.Same(t, nested, candidate)
	}

	result, _ := minimize(root, func(*Node) bool { return true })
	assert.Equal(t, "(0)", result.String())
}

func TestStepEquality(t *testing.T) {
	root := singleInt(100, anyInt)
	first := root.Shrink()
	again := root.Shrink()
	assert.True(t, first.Equal(again))
	assert.False(t, first.Equal(first.OnFailure()))
	assert.False(t, first.Equal(nil))
}

func TestShrinkNeverGrowsTree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOfN(rapid.IntRange(0, 100), 0, 20).Draw(t, "items")
		threshold := rapid.IntRange(0, 300).Draw(t, "threshold")
		sum := func(n *Node) int {
			total := 0
			for _, v := range n.Leaves()[1:] {
				total += v
			}
			return total
		}

		list := intList(distribution.Uniform(0, 20), items...)
		if sum(list) <= threshold {
			return
		}
		result, accepted := minimize(list, func(n *Node) bool { return sum(n) > threshold })
		for i := 1; i < len(accepted); i++ {
			if accepted[i].Len() > accepted[i-1].Len() {
				t.Fatalf("step %d grew the tree from %v to %v", i, accepted[i-1], accepted[i])
			}
		}
		if sum(result) <= threshold {
			t.Fatalf("minimal tree %v does not fail", result)
		}
	})
}
