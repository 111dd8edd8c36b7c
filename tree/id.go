package tree

import "fmt"

// Identifies an element of a recording.
//
// Sequence numbers are handed out by one IDAllocator per recording, in generation order, so two ids
// of the same recording are equal exactly when they denote the same element. The ids survive
// structural replacement, which is how an element is found again in a newer version of the tree.
type ID struct {
	seq       int
	generator uint64
}

// The position of the element in generation order
func (id ID) Seq() int {
	return id.seq
}

// The hash of the generator that produced the node, if any. Leaves carry no generator.
func (id ID) GeneratorHash() (uint64, bool) {
	return id.generator, id.generator != 0
}

func (id ID) String() string {
	if id.generator == 0 {
		return fmt.Sprintf("#%d", id.seq)
	}
	return fmt.Sprintf("#%d(%x)", id.seq, id.generator)
}

// Hands out strictly increasing ids for a single recording
type IDAllocator struct {
	next int
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Allocate the next id. A generator hash of 0 means that the element is not tied to a generator.
func (a *IDAllocator) Next(generatorHash uint64) ID {
	id := ID{seq: a.next, generator: generatorHash}
	a.next++
	return id
}

// A set of ids
type IDSet map[ID]struct{}

func (s IDSet) Add(id ID) {
	s[id] = struct{}{}
}

func (s IDSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}
