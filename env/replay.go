package env

import (
	"propcheck/distribution"
	"propcheck/tree"

	"github.com/pkg/errors"
)

// The interpreter reproducing a value from a recording.
//
// Children of the node are consumed in order. Nothing is ever drawn fresh: running out of recorded
// data, finding an element of the wrong shape or a kind mismatch panics with ErrCannotRestore.
type replay struct {
	scope      *scope
	node       *tree.Node
	cursor     int
	sizeHint   int
	customizer Customizer
	// Collects the first unread child of every nested node, so that the caller can prune data nothing reads anymore
	unneeded tree.IDSet
}

// Replay the generator on the recording rooted at root.
// Integers pass through the customizer, which may substitute them.
func RunReplay[T any](g *Generator[T], root *tree.Node, sizeHint int, customizer Customizer, unneeded tree.IDSet) (T, error) {
	r := &replay{
		scope:      &scope{},
		node:       root,
		sizeHint:   sizeHint,
		customizer: customizer,
		unneeded:   unneeded,
	}
	r.scope.current = r

	var value T
	err := capture(func() {
		value = g.fn(r)
	})
	return value, err
}

func (r *replay) nextChild() tree.Element {
	children := r.node.Children()
	if r.cursor >= len(children) {
		raise(errors.Wrapf(ErrCannotRestore, "no recorded data left in %v", r.node.ID()))
	}
	child := children[r.cursor]
	r.cursor++
	return child
}

func (r *replay) DrawInt(d distribution.Distribution) int {
	r.EnsureActive()
	leaf, ok := r.nextChild().(*tree.IntData)
	if !ok {
		raise(errors.Wrap(ErrCannotRestore, "expected a recorded integer, found a structure"))
	}
	return r.customizer.SuggestInt(leaf, d)
}

func (r *replay) SizeHint() int {
	return r.sizeHint
}

func (r *replay) EnsureActive() {
	r.scope.check(r)
}

func (r *replay) ChangeKind(kind tree.Kind) {
	r.EnsureActive()
	if r.node.Kind() != kind {
		raise(errors.Wrapf(ErrCannotRestore, "recorded %v structure replayed as %v", r.node.Kind(), kind))
	}
}

func (r *replay) generate(hash uint64, nonShrinkable bool, fn func(Env)) {
	r.EnsureActive()
	node, ok := r.nextChild().(*tree.Node)
	if !ok {
		raise(errors.Wrap(ErrCannotRestore, "expected a recorded structure, found an integer"))
	}
	hint := childSizeHint(r.sizeHint)
	if nonShrinkable {
		hint = r.sizeHint
	}
	child := &replay{
		scope:      r.scope,
		node:       node,
		sizeHint:   hint,
		customizer: r.customizer,
		unneeded:   r.unneeded,
	}
	r.scope.run(r, child, fn)
	if children := node.Children(); child.cursor < len(children) {
		r.unneeded.Add(children[child.cursor].ID())
	}
}

func (r *replay) generateConditional(hash uint64, fn func(Env), cond func() bool) {
	r.generate(hash, false, fn)
	if !cond() {
		raise(errors.Wrap(ErrCannotRestore, "replayed value no longer satisfies its condition"))
	}
}
