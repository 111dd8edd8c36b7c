package propcheck

import (
	"propcheck/codec"
	"propcheck/env"
	"propcheck/metrics"
	"propcheck/tree"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// A falsified property together with the minimization of its counter-example
type PropertyFailure[T any] struct {
	initial   *CounterExample[T]
	shrunk    *CounterExample[T]
	iteration *iteration[T]

	totalSteps      int
	successfulSteps int
	stoppingReason  error
	reproducible    bool
}

// Minimize the counter-example if it is reproducible.
// A counter-example restored from a Rechecking record counts as reproducible.
func newFailure[T any](initial *CounterExample[T], it *iteration[T]) *PropertyFailure[T] {
	f := &PropertyFailure[T]{
		initial:   initial,
		shrunk:    initial,
		iteration: it,
	}
	f.reproducible = it.session.params.serialized != nil || initial.tryReproducing()
	if f.reproducible {
		f.stoppingReason = f.shrink()
	}
	return f
}

// The counter-example found first, before minimization
func (f *PropertyFailure[T]) FirstCounterExample() *CounterExample[T] {
	return f.initial
}

// The smallest counter-example found
func (f *PropertyFailure[T]) MinimalCounterExample() *CounterExample[T] {
	return f.shrunk
}

// The unexpected error that interrupted minimization, if any
func (f *PropertyFailure[T]) StoppingReason() error {
	return f.stoppingReason
}

// The number of candidates tried while minimizing
func (f *PropertyFailure[T]) TotalShrinkingExampleCount() int {
	return f.totalSteps
}

// The number of candidates that still falsified the property
func (f *PropertyFailure[T]) ShrinkingStageCount() int {
	return f.successfulSteps
}

func (f *PropertyFailure[T]) Reproducible() bool {
	return f.reproducible
}

func (f *PropertyFailure[T]) IterationNumber() int {
	return f.iteration.number
}

func (f *PropertyFailure[T]) IterationSeed() int64 {
	return f.iteration.seed
}

func (f *PropertyFailure[T]) GlobalSeed() int64 {
	return f.iteration.session.params.globalSeed
}

func (f *PropertyFailure[T]) SizeHint() int {
	return f.iteration.sizeHint
}

func (f *PropertyFailure[T]) minimalValue() string {
	return formatValue(f.shrunk.value)
}

func (f *PropertyFailure[T]) minimalCause() error {
	return f.shrunk.cause
}

// Run shrink rounds until one makes no progress.
// Every round stops at the step that succeeded last in the previous round.
func (f *PropertyFailure[T]) shrink() error {
	var limit tree.Step
	for {
		last, err := f.shrinkIteration(limit)
		if err != nil {
			return err
		}
		if last == nil {
			return nil
		}
		limit = last
	}
}

func (f *PropertyFailure[T]) shrinkIteration(limit tree.Step) (tree.Step, error) {
	var lastSuccessful tree.Step
	step := f.shrunk.data.Shrink()
	for step != nil {
		found, err := f.findSuccessfulShrink(step, limit)
		if err != nil {
			return nil, err
		}
		if found == nil {
			break
		}
		lastSuccessful = found
		step = found.OnSuccess(f.shrunk.data)
	}
	return lastSuccessful, nil
}

// A shrink candidate to replay again with the remaining combinations of its customizer
type delayedCombination struct {
	customizer *env.Combinatorial
	step       tree.Step
}

func (f *PropertyFailure[T]) findSuccessfulShrink(step tree.Step, limit tree.Step) (tree.Step, error) {
	delayed := []delayedCombination{}

	for step != nil && (limit == nil || !step.Equal(limit)) {
		node := step.Apply(f.shrunk.data)
		if node != nil && f.iteration.session.addGeneratedNode(node) {
			customizer := env.NewCombinatorial()
			ok, err := f.tryStep(node, customizer)
			if err != nil {
				return nil, err
			}
			if ok {
				return step, nil
			}
			if next := customizer.NextAttempt(); next != nil {
				delayed = append(delayed, delayedCombination{customizer: next, step: step})
			}
		}
		step = step.OnFailure()
	}
	return f.processDelayedCombinations(delayed)
}

// Try the remaining combinations, those with fewer variants first
func (f *PropertyFailure[T]) processDelayedCombinations(delayed []delayedCombination) (tree.Step, error) {
	slices.SortStableFunc(delayed, func(a, b delayedCombination) int {
		return a.customizer.CountVariants() - b.customizer.CountVariants()
	})

	for _, d := range delayed {
		for customizer := d.customizer; customizer != nil; customizer = customizer.NextAttempt() {
			node := d.step.Apply(f.shrunk.data)
			if node == nil {
				break
			}
			ok, err := f.tryStep(node, customizer)
			if err != nil {
				return nil, err
			}
			if ok {
				return d.step, nil
			}
		}
	}
	return nil, nil
}

// Replay the candidate and check the property on the result.
// Candidates that can not be replayed are skipped, any other replay error stops minimization.
func (f *PropertyFailure[T]) tryStep(node *tree.Node, customizer *env.Combinatorial) (bool, error) {
	s := f.iteration.session
	s.notifier.shrinkAttempt(f, f.iteration.printSeeds(), node)
	f.totalSteps++

	unneeded := tree.IDSet{}
	value, err := f.iteration.generateValue(node, customizer, unneeded)
	if err != nil {
		s.notifier.replayFailed(err)
		if errors.Is(err, env.ErrCannotRestore) || errors.Is(err, codec.ErrEndOfData) {
			s.metrics.ShrinkAttempt(metrics.ShrinkSkipped)
			return false, nil
		}
		return false, err
	}

	example := f.iteration.checkProperty(value, customizer.WriteChanges(node.RemoveUnneededNodes(unneeded)))
	if example == nil {
		s.metrics.ShrinkAttempt(metrics.ShrinkRejected)
		return false, nil
	}
	s.metrics.ShrinkAttempt(metrics.ShrinkAccepted)
	f.shrunk = example
	f.successfulSteps++
	return true, nil
}
