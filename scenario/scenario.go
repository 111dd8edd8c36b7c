// Package scenario checks imperative scenarios: sequences of commands whose arguments are generated while they run.
//
// Commands log what they do. The log is the printed form of the scenario, so a minimized failing scenario
// reads as the list of commands leading to the failure.
package scenario

import (
	"fmt"
	"strings"

	"propcheck/codec"
	"propcheck/distribution"
	"propcheck/env"
	"propcheck/gen"

	"github.com/pkg/errors"
)

const commandsHeader = "commands:"

// A step of a scenario. Returning an error fails the scenario.
type Command interface {
	Perform(e *Env) error
}

type CommandFunc func(e *Env) error

func (f CommandFunc) Perform(e *Env) error {
	return f(e)
}

// A scenario generated from a top-level command.
// It records the log of the commands and the first failure among them.
type Scenario struct {
	log         strings.Builder
	failure     error
	logConsumer func(string)
}

// Generate scenarios from the commands returned by supplier.
// Every log entry is also passed to logConsumer if it is not nil.
func Scenarios(supplier func() Command, logConsumer func(string)) *env.Generator[*Scenario] {
	return env.NewGenerator(func(data env.Env) *Scenario {
		return newScenario(supplier(), data, logConsumer)
	})
}

func newScenario(cmd Command, data env.Env, logConsumer func(string)) *Scenario {
	s := &Scenario{logConsumer: logConsumer}
	if err := capture(func() { s.performCommand(cmd, data, "") }); err != nil {
		if errors.Is(err, codec.ErrEndOfData) {
			panic(err)
		}
		s.addFailure(err)
	}
	// The recording does not fit the scenario anymore, this is not a failure of the commands
	if errors.Is(s.failure, env.ErrCannotRestore) || errors.Is(s.failure, env.ErrWrongEnvironment) {
		panic(s.failure)
	}
	return s
}

func (s *Scenario) addFailure(err error) {
	if s.failure == nil {
		s.failure = err
	}
}

func (s *Scenario) performCommand(cmd Command, data env.Env, indent string) {
	e := &Env{
		scenario: s,
		data:     data,
		indent:   indent,
	}
	if err := cmd.Perform(e); err != nil {
		panic(err)
	}
}

func (s *Scenario) HasEmptyLog() bool {
	return s.log.Len() == 0
}

// Returns the first failure of the commands
func (s *Scenario) EnsureSuccessful() error {
	return s.failure
}

func (s *Scenario) String() string {
	if s.HasEmptyLog() {
		return commandsHeader + "<none>"
	}
	return s.log.String()
}

// The environment of a running command
type Env struct {
	scenario *Scenario
	data     env.Env
	indent   string
}

// Append a message to the scenario log
func (e *Env) LogMessage(message string) {
	e.data.EnsureActive()
	s := e.scenario
	if s.HasEmptyLog() {
		s.log.WriteString(commandsHeader)
		s.consume(commandsHeader)
	}
	entry := e.indent + message
	s.log.WriteString("\n" + entry)
	s.consume(entry)
}

func (s *Scenario) consume(entry string) {
	if s.logConsumer != nil {
		s.logConsumer(entry)
	}
}

// Generate a value for a command. If logFormat is not empty, the value is logged formatted with it.
func GenerateValue[T any](e *Env, g *env.Generator[T], logFormat string) T {
	value := safeGenerate(e.scenario, e.data, g)
	if logFormat != "" {
		e.LogMessage(fmt.Sprintf(logFormat, value))
	}
	return value
}

// Run a non-empty list of generated commands, nested in the log
func (e *Env) ExecuteCommands(commands *env.Generator[Command]) {
	e.innerCommandLists(gen.NonEmptyLists(e.innerCommands(commands)))
}

// Run a list of generated commands whose length is drawn from count
func (e *Env) ExecuteCommandsN(count distribution.Distribution, commands *env.Generator[Command]) {
	e.innerCommandLists(gen.ListsOf(count, e.innerCommands(commands)))
}

// Command lists are created anew by every command, the shared names let the shrinker treat them as one generator
func (e *Env) innerCommandLists(lists *env.Generator[[]struct{}]) {
	env.Generate(e.data, env.NewNamedGenerator("scenario.commandList", func(data env.Env) []struct{} {
		return lists.Apply(data)
	}))
}

func (e *Env) innerCommands(commands *env.Generator[Command]) *env.Generator[struct{}] {
	return env.NewNamedGenerator("scenario.command", func(data env.Env) struct{} {
		cmd := safeGenerate(e.scenario, data, commands)
		e.scenario.performCommand(cmd, data, e.indent+"  ")
		return struct{}{}
	})
}

func safeGenerate[T any](s *Scenario, data env.Env, g *env.Generator[T]) T {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok && errors.Is(err, env.ErrCannotRestore) {
				s.addFailure(err)
			}
			panic(r)
		}
	}()
	return env.Generate(data, g)
}

func capture(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = env.AsError(r)
		}
	}()
	fn()
	return nil
}
