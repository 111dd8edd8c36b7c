package tree

import (
	"fmt"
	"strconv"
	"strings"

	"propcheck/codec"
	"propcheck/distribution"

	"golang.org/x/exp/slices"
)

// The structural role of a node. It decides how the node is shrunk.
type Kind int

const (
	Generic Kind = iota
	// The first child is the length of the list, the remaining children are the items
	List
	// The first child selects the alternative that was generated
	Choice
)

func (k Kind) String() string {
	switch k {
	case List:
		return "LIST"
	case Choice:
		return "CHOICE"
	default:
		return "GENERIC"
	}
}

// An element of a recording tree.
//
// Elements are immutable once the recording is complete.
// Replace and RemoveUnneeded return new trees that share every unchanged subtree with the receiver.
type Element interface {
	ID() ID
	// Returns the first shrink step offered by this element or nil if it cannot be shrunk
	Shrink() Step
	// Returns a tree where the element with the given id is swapped for the replacement.
	// The receiver is returned unchanged if it does not contain the id.
	Replace(id ID, replacement Element) Element
	// Returns the element with the given id or nil if it is not part of this tree
	FindByID(id ID) Element
	// Write the integer leaves in generation order
	Serialize(w *codec.Writer)
	// Drop the elements in the set together with all of their later siblings
	RemoveUnneeded(unneeded IDSet) Element
	fmt.Stringer
}

// An interior node of the recording. Children are kept in generation order.
type Node struct {
	id               ID
	children         []Element
	kind             Kind
	shrinkProhibited bool
}

func NewNode(id ID) *Node {
	return &Node{
		id:       id,
		children: []Element{},
		kind:     Generic,
	}
}

func (n *Node) copyWithChildren(children []Element) *Node {
	return &Node{
		id:               n.id,
		children:         children,
		kind:             n.kind,
		shrinkProhibited: n.shrinkProhibited,
	}
}

func (n *Node) ID() ID {
	return n.id
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) SetKind(kind Kind) {
	n.kind = kind
}

func (n *Node) ShrinkProhibited() bool {
	return n.shrinkProhibited
}

func (n *Node) ProhibitShrinking() {
	n.shrinkProhibited = true
}

// The children of the node. The slice must not be modified.
func (n *Node) Children() []Element {
	return n.children
}

// Adds a child. Only used while the recording is being built.
func (n *Node) AddChild(child Element) {
	n.children = append(n.children, child)
}

// Removes the last child, which must be the provided node.
// Used to forget an abandoned attempt while the recording is being built.
func (n *Node) RemoveLastChild(child *Node) {
	if len(n.children) == 0 || n.children[len(n.children)-1] != Element(child) {
		panic("tree: last sub-structure changed")
	}
	n.children = n.children[:len(n.children)-1]
}

// Returns the total number of elements in the tree
func (n *Node) Len() int {
	length := 1
	for _, child := range n.children {
		if node, ok := child.(*Node); ok {
			length += node.Len()
		} else {
			length++
		}
	}
	return length
}

// Returns the values of all integer leaves in generation order
func (n *Node) Leaves() []int {
	leaves := []int{}
	for _, child := range n.children {
		switch c := child.(type) {
		case *IntData:
			leaves = append(leaves, c.value)
		case *Node:
			leaves = append(leaves, c.Leaves()...)
		}
	}
	return leaves
}

// Returns true if the length recorded for a list is larger than the number of recorded items.
// This happens when trailing items were pruned because nothing read them.
func (n *Node) IsIncompleteList() bool {
	if len(n.children) == 0 {
		return false
	}
	length, ok := n.children[0].(*IntData)
	return ok && length.value > len(n.children)-1
}

func (n *Node) Replace(id ID, replacement Element) Element {
	if id == n.id {
		return replacement
	}
	index := n.indexOfChildContaining(id)
	if index < 0 {
		return n
	}
	oldChild := n.children[index]
	newChild := oldChild.Replace(id, replacement)
	if newChild == oldChild {
		return n
	}
	children := slices.Clone(n.children)
	children[index] = newChild
	return n.copyWithChildren(children)
}

func (n *Node) FindByID(id ID) Element {
	if id == n.id {
		return n
	}
	index := n.indexOfChildContaining(id)
	if index < 0 {
		return nil
	}
	return n.children[index].FindByID(id)
}

// Children are sorted by sequence number and every descendant has a larger sequence number than its ancestors.
// The child containing id is therefore the last child whose sequence number is not larger than the one of id.
func (n *Node) indexOfChildContaining(id ID) int {
	pos, found := slices.BinarySearchFunc(n.children, id.seq, func(e Element, seq int) int {
		return e.ID().seq - seq
	})
	if found {
		return pos
	}
	return pos - 1
}

func (n *Node) Serialize(w *codec.Writer) {
	for _, child := range n.children {
		child.Serialize(w)
	}
}

func (n *Node) RemoveUnneeded(unneeded IDSet) Element {
	return n.RemoveUnneededNodes(unneeded)
}

// Same as RemoveUnneeded, typed for callers holding a root node
func (n *Node) RemoveUnneededNodes(unneeded IDSet) *Node {
	kept := make([]Element, 0, len(n.children))
	changed := false
	for _, child := range n.children {
		if unneeded.Contains(child.ID()) {
			return n.copyWithChildren(kept)
		}
		pruned := child.RemoveUnneeded(unneeded)
		if pruned != child {
			changed = true
		}
		kept = append(kept, pruned)
	}
	if !changed {
		return n
	}
	return n.copyWithChildren(kept)
}

func (n *Node) String() string {
	inner := make([]string, 0, len(n.children))
	for _, child := range n.children {
		inner = append(inner, child.String())
	}
	joined := strings.Join(inner, ", ")
	switch n.kind {
	case List:
		return "[" + joined + "]"
	case Choice:
		return "?(" + joined + ")"
	default:
		return "(" + joined + ")"
	}
}

// A single drawn integer together with the distribution it was drawn from
type IntData struct {
	id    ID
	value int
	dist  distribution.Distribution
}

func NewIntData(id ID, value int, dist distribution.Distribution) *IntData {
	return &IntData{
		id:    id,
		value: value,
		dist:  dist,
	}
}

func (d *IntData) ID() ID {
	return d.id
}

func (d *IntData) Value() int {
	return d.value
}

func (d *IntData) Distribution() distribution.Distribution {
	return d.dist
}

func (d *IntData) Replace(id ID, replacement Element) Element {
	if id == d.id {
		return replacement
	}
	return d
}

func (d *IntData) FindByID(id ID) Element {
	if id == d.id {
		return d
	}
	return nil
}

func (d *IntData) Serialize(w *codec.Writer) {
	w.WriteInt(d.value)
}

func (d *IntData) RemoveUnneeded(IDSet) Element {
	return d
}

func (d *IntData) String() string {
	return strconv.Itoa(d.value)
}

// Replace the element with the given id in a tree rooted at root.
// Only nodes may replace the root itself.
func ReplaceIn(root *Node, id ID, replacement Element) *Node {
	return root.Replace(id, replacement).(*Node)
}
