package tree

import (
	"fmt"

	"propcheck/distribution"
)

// A lazy position in the search for a smaller recording.
//
// Apply produces the candidate for the current position. The caller replays the candidate and,
// depending on whether it still fails, continues with OnSuccess (rebased on the accepted tree) or
// OnFailure. Both return nil once the search below this position is exhausted.
type Step interface {
	// Returns the candidate tree or nil if the step has nothing to offer for this root.
	// A nil candidate is treated like a rejected one.
	Apply(root *Node) *Node
	OnSuccess(smallerRoot *Node) Step
	OnFailure() Step
	// Two equal steps denote the same position of the search
	Equal(other Step) bool
	fmt.Stringer
}

// Wrappers delegate equality to the step they wrap
func unwrap(s Step) Step {
	for {
		c, ok := s.(*childStep)
		if !ok {
			return s
		}
		s = c.inner
	}
}

func (n *Node) Shrink() Step {
	if n.shrinkProhibited {
		return nil
	}
	if n.kind == List && len(n.children) > 1 {
		return removeRangeFromEnd(n)
	}
	return n.shrinkChild(len(n.children) - 1)
}

// Find the first child, searching backwards from index, that can be shrunk.
// The length or selector stored in the first child of lists and choices is not shrunk directly.
func (n *Node) shrinkChild(index int) Step {
	minIndex := 0
	if n.kind != Generic {
		minIndex = 1
	}
	for ; index >= minIndex; index-- {
		if step := n.children[index].Shrink(); step != nil {
			return n.wrapChildShrink(index, step)
		}
	}
	return n.shrinkRecursion()
}

func (n *Node) wrapChildShrink(index int, step Step) Step {
	if step == nil {
		return n.shrinkChild(index - 1)
	}
	return &childStep{
		parent: n,
		index:  index,
		child:  n.children[index].ID(),
		inner:  step,
	}
}

// Shrinks one child of parent and moves on to earlier children when that child is exhausted
type childStep struct {
	parent *Node
	index  int
	child  ID
	inner  Step
}

func (s *childStep) Apply(root *Node) *Node {
	return s.inner.Apply(root)
}

func (s *childStep) OnSuccess(smallerRoot *Node) Step {
	inheritor, ok := smallerRoot.FindByID(s.parent.id).(*Node)
	if !ok {
		return nil
	}
	next := min(s.index, len(inheritor.children)-1)
	if next < 0 || inheritor.children[next].ID() != s.child {
		return inheritor.Shrink()
	}
	return inheritor.wrapChildShrink(next, s.inner.OnSuccess(smallerRoot))
}

func (s *childStep) OnFailure() Step {
	return s.parent.wrapChildShrink(s.index, s.inner.OnFailure())
}

func (s *childStep) Equal(other Step) bool {
	if other == nil {
		return false
	}
	return unwrap(s).Equal(unwrap(other))
}

func (s *childStep) String() string {
	return "-" + s.inner.String()
}

// Search for a node elsewhere in the subtree produced by the same generator.
// Such a node is a candidate replacement for n, as recursive generators usually nest smaller values.
func (n *Node) shrinkRecursion() Step {
	hash, ok := n.id.GeneratorHash()
	if !ok {
		return nil
	}
	candidates := []*Node{}
	n.findChildrenWithGenerator(hash, &candidates)
	return tryReplacing(n.id, candidates, 0)
}

func (n *Node) findChildrenWithGenerator(hash uint64, result *[]*Node) {
	for _, child := range n.children {
		node, ok := child.(*Node)
		if !ok {
			continue
		}
		if childHash, ok := node.id.GeneratorHash(); ok && childHash == hash {
			*result = append(*result, node)
		} else {
			node.findChildrenWithGenerator(hash, result)
		}
	}
}

func tryReplacing(target ID, candidates []*Node, index int) Step {
	if index >= len(candidates) {
		return nil
	}
	return &recursionStep{
		target:     target,
		candidates: candidates,
		index:      index,
	}
}

// Replaces a node with one of its descendants produced by the same generator
type recursionStep struct {
	target     ID
	candidates []*Node
	index      int
}

func (s *recursionStep) Apply(root *Node) *Node {
	return ReplaceIn(root, s.target, s.candidates[s.index])
}

func (s *recursionStep) OnSuccess(*Node) Step {
	return s.candidates[s.index].Shrink()
}

func (s *recursionStep) OnFailure() Step {
	return tryReplacing(s.target, s.candidates, s.index+1)
}

func (s *recursionStep) Equal(other Step) bool {
	o, ok := unwrap(other).(*recursionStep)
	return ok && o.target == s.target && o.candidates[o.index].id == s.candidates[s.index].id
}

func (s *recursionStep) String() string {
	return fmt.Sprintf("replace %v with %v", s.target, s.candidates[s.index].id)
}

type intPhase int

const (
	phaseTarget intPhase = iota
	phaseNegation
	phaseDescent
)

// Shrinking of a single integer.
//
// The value is first replaced with its target (zero clamped into the distribution's bounds),
// then negative values try their positive counterpart, and finally a binary search runs between
// the closest rejected value (lo) and the current value (cur).
type intStep struct {
	leaf      *IntData
	phase     intPhase
	candidate int
	lo, cur   int
}

func (d *IntData) Shrink() Step {
	if d.value == 0 {
		return nil
	}
	target := shrinkTarget(d.dist)
	if target != d.value && d.dist.IsValid(target) {
		return &intStep{leaf: d, phase: phaseTarget, candidate: target, lo: target, cur: d.value}
	}
	return d.afterTarget(target)
}

func shrinkTarget(dist distribution.Distribution) int {
	bounded, ok := dist.(distribution.Bounded)
	if !ok {
		return 0
	}
	return max(bounded.Min(), min(0, bounded.Max()))
}

func (d *IntData) afterTarget(target int) Step {
	if d.value < 0 && -d.value != target && d.dist.IsValid(-d.value) {
		return &intStep{leaf: d, phase: phaseNegation, candidate: -d.value, lo: target, cur: d.value}
	}
	return d.descend(target, d.value)
}

// Returns the step trying the midpoint between lo and cur, skipping values the distribution rejects
func (d *IntData) descend(lo, cur int) Step {
	for {
		mid := lo + (cur-lo)/2
		if mid == lo || mid == cur {
			return nil
		}
		if d.dist.IsValid(mid) {
			return &intStep{leaf: d, phase: phaseDescent, candidate: mid, lo: lo, cur: cur}
		}
		lo = mid
	}
}

func (s *intStep) Apply(root *Node) *Node {
	return ReplaceIn(root, s.leaf.id, NewIntData(s.leaf.id, s.candidate, s.leaf.dist))
}

func (s *intStep) OnSuccess(*Node) Step {
	if s.phase == phaseTarget {
		return nil
	}
	return s.leaf.descend(s.lo, s.candidate)
}

func (s *intStep) OnFailure() Step {
	switch s.phase {
	case phaseTarget:
		return s.leaf.afterTarget(s.candidate)
	case phaseNegation:
		return s.leaf.descend(s.lo, s.cur)
	default:
		return s.leaf.descend(s.candidate, s.cur)
	}
}

func (s *intStep) Equal(other Step) bool {
	o, ok := unwrap(other).(*intStep)
	return ok && o.leaf.id == s.leaf.id && o.candidate == s.candidate
}

func (s *intStep) String() string {
	return fmt.Sprintf("%v: %d -> %d", s.leaf.id, s.cur, s.candidate)
}
