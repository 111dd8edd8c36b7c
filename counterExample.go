package propcheck

import (
	"propcheck/codec"
	"propcheck/env"
	"propcheck/tree"

	"github.com/pkg/errors"
)

// Returned as the cause of a replayed counter-example for which the property now holds
var ErrReplaySucceeded = errors.New("propcheck: replaying failure is unexpectedly successful")

// A value falsifying the property, together with its recording
type CounterExample[T any] struct {
	data      *tree.Node
	value     T
	cause     error
	iteration *iteration[T]
}

func (c *CounterExample[T]) Value() T {
	return c.value
}

// The error returned or raised by the property. nil if the property returned false.
func (c *CounterExample[T]) Cause() error {
	return c.cause
}

// The recording in the form accepted by Rechecking
func (c *CounterExample[T]) SerializedData() string {
	return codec.EncodeRecord(c.iteration.session.params.globalSeed, c.iteration.sizeHint, c.data.Serialize)
}

// Generate the value again from the recording and check the property on it.
// If the property holds now, the returned counter-example has ErrReplaySucceeded as its cause.
func (c *CounterExample[T]) Replay() (*CounterExample[T], error) {
	value, err := c.iteration.generateValue(c.data, env.Verbatim, tree.IDSet{})
	if err != nil {
		return nil, err
	}
	if example := c.iteration.checkProperty(value, c.data); example != nil {
		return example, nil
	}
	return &CounterExample[T]{
		data:      c.data,
		value:     value,
		cause:     ErrReplaySucceeded,
		iteration: c.iteration,
	}, nil
}

func (c *CounterExample[T]) tryReproducing() bool {
	n := c.iteration.session.notifier
	n.beforeReproducing(c.data)
	value, err := c.iteration.generateValue(c.data, env.Verbatim, tree.IDSet{})
	if err != nil {
		n.replayFailed(err)
		return false
	}
	return c.iteration.checkProperty(value, c.data) != nil
}
