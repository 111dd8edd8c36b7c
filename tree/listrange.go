package tree

import "fmt"

// Removes a contiguous range of list items, together with the matching decrease of the recorded length.
//
// The window [max(1, end-size), end) starts as all items. Rejected windows slide towards the head of
// the list; once the head is reached the window size is halved and the search starts again at the
// tail. When single items cannot be removed the items themselves are shrunk.
type removeRangeStep struct {
	node *Node
	size int
	end  int
}

func removeRangeFromEnd(n *Node) Step {
	return &removeRangeStep{
		node: n,
		size: len(n.children) - 1,
		end:  len(n.children),
	}
}

func (s *removeRangeStep) start() int {
	return max(1, s.end-s.size)
}

func (s *removeRangeStep) Apply(root *Node) *Node {
	if s.node.IsIncompleteList() {
		return nil
	}
	length, ok := s.node.children[0].(*IntData)
	if !ok {
		return nil
	}
	start := s.start()
	newLength := length.value - (s.end - start)
	if !length.dist.IsValid(newLength) {
		return nil
	}
	children := make([]Element, 0, len(s.node.children)-(s.end-start))
	children = append(children, NewIntData(length.id, newLength, length.dist))
	children = append(children, s.node.children[1:start]...)
	children = append(children, s.node.children[s.end:]...)
	return ReplaceIn(root, s.node.id, s.node.copyWithChildren(children))
}

func (s *removeRangeStep) OnSuccess(smallerRoot *Node) Step {
	inheritor, ok := smallerRoot.FindByID(s.node.id).(*Node)
	if !ok {
		return nil
	}
	if len(inheritor.children) <= 1 {
		return inheritor.Shrink()
	}
	if start := s.start(); start > 1 {
		return &removeRangeStep{node: inheritor, size: s.size, end: start}
	}
	return &removeRangeStep{
		node: inheritor,
		size: min(s.size, len(inheritor.children)-1),
		end:  len(inheritor.children),
	}
}

func (s *removeRangeStep) OnFailure() Step {
	if start := s.start(); start > 1 {
		return &removeRangeStep{node: s.node, size: s.size, end: start}
	}
	if s.size > 1 {
		return &removeRangeStep{node: s.node, size: s.size / 2, end: len(s.node.children)}
	}
	return s.node.shrinkChild(len(s.node.children) - 1)
}

func (s *removeRangeStep) Equal(other Step) bool {
	o, ok := unwrap(other).(*removeRangeStep)
	return ok && o.node.id == s.node.id && o.size == s.size && o.end == s.end &&
		len(o.node.children) == len(s.node.children)
}

func (s *removeRangeStep) String() string {
	return fmt.Sprintf("%v: remove [%d, %d)", s.node.id, s.start(), s.end)
}
