package tree

import (
	"testing"

	"propcheck/codec"
	"propcheck/distribution"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anyInt = distribution.Uniform(distribution.MinValue, distribution.MaxValue)

// (5, (7), 9)
func sampleTree() (*Node, []ID) {
	alloc := NewIDAllocator()
	root := NewNode(alloc.Next(1))
	first := NewIntData(alloc.Next(0), 5, anyInt)
	nested := NewNode(alloc.Next(2))
	inner := NewIntData(alloc.Next(0), 7, anyInt)
	last := NewIntData(alloc.Next(0), 9, anyInt)
	nested.AddChild(inner)
	root.AddChild(first)
	root.AddChild(nested)
	root.AddChild(last)
	return root, []ID{root.ID(), first.ID(), nested.ID(), inner.ID(), last.ID()}
}

func TestReplaceSharesUnchangedSubtrees(t *testing.T) {
	root, ids := sampleTree()

	replaced := ReplaceIn(root, ids[3], NewIntData(ids[3], 1, anyInt))

	if diff := cmp.Diff([]int{5, 1, 9}, replaced.Leaves()); diff != "" {
		t.Errorf("Unexpected leaves after replace (-want +got):\n%v", diff)
	}
	if diff := cmp.Diff([]int{5, 7, 9}, root.Leaves()); diff != "" {
		t.Errorf("Original tree was modified (-want +got):\n%v", diff)
	}
	assert.Same(t, root.Children()[0], replaced.Children()[0])
	assert.Same(t, root.Children()[2], replaced.Children()[2])
	assert.NotSame(t, root.Children()[1], replaced.Children()[1])
	assert.Equal(t, ids[0], replaced.ID())
}

func TestReplaceUnknownID(t *testing.T) {
	root, _ := sampleTree()
	other := NewIDAllocator()
	for i := 0; i < 10; i++ {
		other.Next(0)
	}
	missing := other.Next(0)
	assert.Same(t, root, ReplaceIn(root, missing, NewIntData(missing, 0, anyInt)))
	assert.Nil(t, root.FindByID(missing))
}

func TestFindByID(t *testing.T) {
	root, ids := sampleTree()
	for i, id := range ids {
		found := root.FindByID(id)
		if found == nil {
			t.Errorf("Test %v: Did not find %v", i, id)
			continue
		}
		if found.ID() != id {
			t.Errorf("Test %v: Found %v. Expected %v", i, found.ID(), id)
		}
	}
}

func TestRemoveUnneeded(t *testing.T) {
	root, ids := sampleTree()

	pruned := root.RemoveUnneededNodes(IDSet{ids[3]: {}})
	assert.Equal(t, "(5, (), 9)", pruned.String())
	assert.Equal(t, "(5, (7), 9)", root.String())

	// Later siblings are dropped together with the unneeded element
	pruned = root.RemoveUnneededNodes(IDSet{ids[2]: {}})
	assert.Equal(t, "(5)", pruned.String())

	assert.Same(t, root, root.RemoveUnneededNodes(IDSet{}))
}

func TestSerialize(t *testing.T) {
	root, _ := sampleTree()
	w := codec.NewWriter()
	root.Serialize(w)
	values, err := codec.ReadAll(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7, 9}, values)
}

func TestString(t *testing.T) {
	alloc := NewIDAllocator()
	list := NewNode(alloc.Next(0))
	list.SetKind(List)
	list.AddChild(NewIntData(alloc.Next(0), 1, anyInt))
	choice := NewNode(alloc.Next(0))
	choice.SetKind(Choice)
	choice.AddChild(NewIntData(alloc.Next(0), 0, anyInt))
	list.AddChild(choice)
	assert.Equal(t, "[1, ?(0)]", list.String())
	assert.Equal(t, 4, list.Len())
}

func TestRemoveLastChild(t *testing.T) {
	alloc := NewIDAllocator()
	root := NewNode(alloc.Next(0))
	first := NewNode(alloc.Next(0))
	second := NewNode(alloc.Next(0))
	root.AddChild(first)
	root.AddChild(second)

	assert.Panics(t, func() { root.RemoveLastChild(first) })
	root.RemoveLastChild(second)
	assert.Len(t, root.Children(), 1)
}

func TestIncompleteList(t *testing.T) {
	alloc := NewIDAllocator()
	list := NewNode(alloc.Next(0))
	list.SetKind(List)
	list.AddChild(NewIntData(alloc.Next(0), 2, anyInt))
	list.AddChild(NewIntData(alloc.Next(0), 1, anyInt))
	assert.True(t, list.IsIncompleteList())
	list.AddChild(NewIntData(alloc.Next(0), 1, anyInt))
	assert.False(t, list.IsIncompleteList())
}
