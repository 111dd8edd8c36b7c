package env

import (
	"math/rand"

	"propcheck/codec"
	"propcheck/distribution"
	"propcheck/tree"

	"github.com/pkg/errors"
)

// Supplies the integers of a generative run
type IntSource interface {
	DrawInt(d distribution.Distribution) int
}

// Draws integers from a pseudo-random generator
type RandomSource struct {
	rand *rand.Rand
}

func NewRandomSource(r *rand.Rand) *RandomSource {
	return &RandomSource{rand: r}
}

func (s *RandomSource) DrawInt(d distribution.Distribution) int {
	return d.Generate(s.rand)
}

// Reads integers from the body of a serialized record
type SerializedSource struct {
	reader *codec.Reader
}

func NewSerializedSource(reader *codec.Reader) *SerializedSource {
	return &SerializedSource{reader: reader}
}

// Panics with codec.ErrEndOfData when the record is exhausted,
// and with ErrCannotRestore when the stored value is not valid for d
func (s *SerializedSource) DrawInt(d distribution.Distribution) int {
	value, err := s.reader.ReadInt()
	if err != nil {
		raise(err)
	}
	if !d.IsValid(value) {
		raise(errRestoringSerialized())
	}
	return value
}

// The interpreter producing fresh values.
// Every draw is appended to the node of the environment, every nested generation adds a child node.
type generative struct {
	scope    *scope
	source   IntSource
	alloc    *tree.IDAllocator
	node     *tree.Node
	sizeHint int
}

// Run the generator on fresh data from source and return the value together with its recording.
// The root of the recording carries the generator's hash.
func RunGenerative[T any](g *Generator[T], source IntSource, sizeHint int) (T, *tree.Node, error) {
	alloc := tree.NewIDAllocator()
	root := &generative{
		scope:    &scope{},
		source:   source,
		alloc:    alloc,
		node:     tree.NewNode(alloc.Next(g.hash)),
		sizeHint: sizeHint,
	}
	root.scope.current = root

	var value T
	err := capture(func() {
		value = g.fn(root)
	})
	return value, root.node, err
}

func (g *generative) DrawInt(d distribution.Distribution) int {
	g.EnsureActive()
	value := g.source.DrawInt(d)
	g.node.AddChild(tree.NewIntData(g.alloc.Next(0), value, d))
	return value
}

func (g *generative) SizeHint() int {
	return g.sizeHint
}

func (g *generative) EnsureActive() {
	g.scope.check(g)
}

func (g *generative) ChangeKind(kind tree.Kind) {
	g.EnsureActive()
	if current := g.node.Kind(); current != tree.Generic && current != kind {
		raise(errors.Errorf("env: attempt to use an incompatible generator on a structure which is already %v", current))
	}
	g.node.SetKind(kind)
}

func (g *generative) subStructure(hash uint64, sizeHint int) *generative {
	node := tree.NewNode(g.alloc.Next(hash))
	g.node.AddChild(node)
	return &generative{
		scope:    g.scope,
		source:   g.source,
		alloc:    g.alloc,
		node:     node,
		sizeHint: sizeHint,
	}
}

func (g *generative) generate(hash uint64, nonShrinkable bool, fn func(Env)) {
	g.EnsureActive()
	hint := childSizeHint(g.sizeHint)
	if nonShrinkable {
		hint = g.sizeHint
	}
	child := g.subStructure(hash, hint)
	if nonShrinkable {
		child.node.ProhibitShrinking()
	}
	g.scope.run(g, child, fn)
}

func (g *generative) generateConditional(hash uint64, fn func(Env), cond func() bool) {
	g.EnsureActive()
	for i := 0; i < MaxConditionAttempts; i++ {
		child := g.subStructure(hash, childSizeHint(g.sizeHint))
		g.scope.run(g, child, fn)
		if cond() {
			return
		}
		// A serialized record only contains the attempt that succeeded
		if _, ok := g.source.(*SerializedSource); ok {
			raise(errRestoringSerialized())
		}
		g.node.RemoveLastChild(child.node)
	}
	raise(errors.Wrapf(ErrCannotSatisfy, "gave up after %d attempts", MaxConditionAttempts))
}
