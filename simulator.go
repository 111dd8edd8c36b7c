package propcheck

import (
	"fmt"
	"math/rand"

	"propcheck/codec"
	"propcheck/env"
	"propcheck/metrics"
	"propcheck/tree"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const (
	// Number of recent recordings remembered to skip duplicates
	historySize = 1000

	// Attempts to generate a new value in an iteration before giving up
	maxGenerationAttempts = 100
)

// A property returns false or an error when it does not hold for the value
type property[T any] func(value T) (bool, error)

// The state shared by all iterations of one check
type session[T any] struct {
	id        uuid.UUID
	generator *env.Generator[T]
	property  property[T]
	params    *parameters
	notifier  *notifier
	metrics   *metrics.Recorder

	// Recordings seen recently, keyed by their printed form
	history *lru.Cache[string, struct{}]
}

func newSession[T any](g *env.Generator[T], prop property[T], params *parameters, n *notifier, id uuid.UUID) *session[T] {
	history, err := lru.New[string, struct{}](historySize)
	if err != nil {
		// Only fails for a non-positive size
		panic(err)
	}
	return &session[T]{
		id:        id,
		generator: g,
		property:  prop,
		params:    params,
		notifier:  n,
		metrics:   params.metrics,
		history:   history,
	}
}

// Returns false if an identical recording was seen recently
func (s *session[T]) addGeneratedNode(node *tree.Node) bool {
	found, _ := s.history.ContainsOrAdd(node.String(), struct{}{})
	return !found
}

// Run iterations until the property is falsified, the configured number of iterations has passed or an error occurs
func (s *session[T]) run() error {
	it, err := newIteration(s, s.params.globalSeed, 1)
	for it != nil && err == nil {
		it, err = it.perform()
	}
	return err
}

// Evaluate the property, turning a panic into the failure cause
func (s *session[T]) evaluate(value T) (cause error, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			cause = env.AsError(r)
			failed = true
		}
	}()
	ok, err := s.property(value)
	if err != nil {
		return err, true
	}
	return nil, !ok
}

type iteration[T any] struct {
	session  *session[T]
	seed     int64
	sizeHint int
	number   int
	random   *rand.Rand
}

func newIteration[T any](s *session[T], seed int64, number int) (*iteration[T], error) {
	sizeHint := s.params.sizeHint(number)
	if sizeHint < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "size hint should be non-negative, found %d", sizeHint)
	}
	it := &iteration[T]{
		session:  s,
		sizeHint: sizeHint,
		number:   number,
	}
	it.initSeed(seed)
	return it, nil
}

func (it *iteration[T]) initSeed(seed int64) {
	it.seed = seed
	it.random = rand.New(rand.NewSource(seed))
}

// Check the property on one generated value.
// Returns the next iteration or nil if this was the last one.
func (it *iteration[T]) perform() (*iteration[T], error) {
	s := it.session
	s.notifier.iterationStarted(it.number)
	s.metrics.Iteration()

	example, err := it.findCounterExample()
	if err != nil {
		return nil, err
	}
	if example != nil {
		s.notifier.counterExampleFound(it.printSeeds())
		s.metrics.Failure()
		return nil, newPropertyFalsified(newFailure(example, it))
	}

	if it.number >= s.params.iterationCount {
		return nil, nil
	}
	return newIteration(s, it.random.Int63(), it.number+1)
}

// Generate values until one is new, then check the property on it.
// Returns nil if the property holds.
func (it *iteration[T]) findCounterExample() (*CounterExample[T], error) {
	for i := 0; i < maxGenerationAttempts; i++ {
		if i > 0 {
			it.initSeed(it.random.Int63())
			it.session.metrics.GenerationRetry()
		}
		example, retry, err := it.attempt()
		if err != nil {
			return nil, err
		}
		if !retry {
			return example, nil
		}
	}
	return nil, it.generatorError(errors.Wrap(env.ErrCannotSatisfy, "cannot generate enough sufficiently different values"))
}

func (it *iteration[T]) attempt() (example *CounterExample[T], retry bool, err error) {
	s := it.session
	seeds := it.printSeeds()
	wd := startWatchdog(s.params.clock, s.params.watchdogTimeout, func() {
		s.notifier.longIteration(seeds)
	})
	defer wd.Stop()

	var source env.IntSource = env.NewRandomSource(it.random)
	if s.params.serialized != nil {
		source = env.NewSerializedSource(s.params.serialized.Body)
	}

	value, node, err := env.RunGenerative(s.generator, source, it.sizeHint)
	if err != nil {
		switch {
		case errors.Is(err, env.ErrWrongEnvironment):
			return nil, false, err
		case errors.Is(err, codec.ErrEndOfData):
			s.notifier.endOfData()
			return nil, false, &ConfigError{Err: err}
		case errors.Is(err, env.ErrCannotRestore) && s.params.serialized != nil:
			return nil, false, &ConfigError{Err: err}
		case errors.Is(err, env.ErrCannotSatisfy):
			return nil, true, nil
		default:
			return nil, false, it.generatorError(err)
		}
	}
	if !s.addGeneratedNode(node) {
		return nil, true, nil
	}
	return it.checkProperty(value, node), false, nil
}

// Returns a counter-example if the property does not hold for value
func (it *iteration[T]) checkProperty(value T, node *tree.Node) *CounterExample[T] {
	s := it.session
	s.notifier.beforePropertyCheck(value)
	cause, failed := s.evaluate(value)
	if !failed {
		return nil
	}
	s.notifier.propertyCheckFailed(cause)
	return &CounterExample[T]{
		data:      node,
		value:     value,
		cause:     cause,
		iteration: it,
	}
}

// Replay the recording with the customizer. Elements left unread by nested generators are added to unneeded.
func (it *iteration[T]) generateValue(node *tree.Node, customizer env.Customizer, unneeded tree.IDSet) (T, error) {
	return env.RunReplay(it.session.generator, node, it.sizeHint, customizer, unneeded)
}

func (it *iteration[T]) generatorError(cause error) *GeneratorError {
	return &GeneratorError{
		Cause:         cause,
		IterationSeed: it.seed,
		GlobalSeed:    it.session.params.globalSeed,
		SizeHint:      it.sizeHint,
	}
}

func (it *iteration[T]) suggestRecheckingIteration() string {
	return fmt.Sprintf("`propcheck.RecheckingIteration(%d, %d)`", it.seed, it.sizeHint)
}

func (it *iteration[T]) suggestWithSeed() string {
	return fmt.Sprintf("`propcheck.WithSeed(%d)`", it.session.params.globalSeed)
}

func (it *iteration[T]) printSeeds() string {
	return fmt.Sprintf("use %v or %v to reproduce", it.suggestRecheckingIteration(), it.suggestWithSeed())
}

func (it *iteration[T]) printToReproduce(data string) string {
	return fmt.Sprintf("To re-run the minimal failing case, use\n  propcheck.Rechecking(%q)\n"+
		"To re-run the test with all intermediate shrinking steps, use %v instead for last iteration, or %v for all iterations",
		data, it.suggestRecheckingIteration(), it.suggestWithSeed())
}
