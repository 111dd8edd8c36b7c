package scenario_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"propcheck/distribution"
	"propcheck/env"
	"propcheck/gen"
	"propcheck/scenario"
	"propcheck/tree"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd scenario.Command, logConsumer func(string)) (*scenario.Scenario, *tree.Node) {
	g := scenario.Scenarios(func() scenario.Command { return cmd }, logConsumer)
	s, node, err := env.RunGenerative(g, env.NewRandomSource(rand.New(rand.NewSource(7))), 10)
	require.NoError(t, err)
	return s, node
}

func logged(message string) scenario.Command {
	return scenario.CommandFunc(func(e *scenario.Env) error {
		e.LogMessage(message)
		return nil
	})
}

func TestEmptyScenario(t *testing.T) {
	s, _ := run(t, scenario.CommandFunc(func(*scenario.Env) error { return nil }), nil)
	assert.True(t, s.HasEmptyLog())
	assert.Equal(t, "commands:<none>", s.String())
	assert.NoError(t, s.EnsureSuccessful())
}

func TestNestedLog(t *testing.T) {
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		e.LogMessage("start")
		e.ExecuteCommandsN(distribution.Uniform(2, 2), gen.Constant(logged("step")))
		n := scenario.GenerateValue(e, gen.IntRange(5, 5), "value %d")
		assert.Equal(t, 5, n)
		return nil
	})
	var entries []string
	s, _ := run(t, cmd, func(entry string) { entries = append(entries, entry) })

	assert.Equal(t, "commands:\nstart\n  step\n  step\nvalue 5", s.String())
	assert.Equal(t, []string{"commands:", "start", "  step", "  step", "value 5"}, entries)
}

func TestGenerateValueWithoutLogging(t *testing.T) {
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		scenario.GenerateValue(e, gen.Booleans(), "")
		return nil
	})
	s, node := run(t, cmd, nil)
	assert.True(t, s.HasEmptyLog())
	assert.Len(t, node.Leaves(), 1)
}

func TestExecuteCommands(t *testing.T) {
	counter := 0
	inner := gen.Map(gen.IntRange(0, 9), func(v int) scenario.Command {
		return scenario.CommandFunc(func(e *scenario.Env) error {
			counter++
			e.LogMessage(fmt.Sprintf("item %d", v))
			return nil
		})
	})
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		e.ExecuteCommands(inner)
		return nil
	})
	s, _ := run(t, cmd, nil)

	lines := strings.Split(s.String(), "\n")
	require.Greater(t, counter, 0)
	assert.Len(t, lines, counter+1)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "  item "), "unexpected line %q", line)
	}
}

func TestFailureIsRecorded(t *testing.T) {
	boom := errors.New("boom")
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		e.LogMessage("before")
		e.ExecuteCommandsN(distribution.Uniform(1, 1), gen.Constant[scenario.Command](scenario.CommandFunc(func(*scenario.Env) error {
			return boom
		})))
		e.LogMessage("unreachable")
		return nil
	})
	s, _ := run(t, cmd, nil)
	assert.Equal(t, boom, errors.Cause(s.EnsureSuccessful()))
	assert.Equal(t, "commands:\nbefore", s.String())
}

func TestPanicIsRecorded(t *testing.T) {
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		e.LogMessage("about to panic")
		panic("unexpected state")
	})
	s, _ := run(t, cmd, nil)
	require.Error(t, s.EnsureSuccessful())
	assert.Contains(t, s.EnsureSuccessful().Error(), "unexpected state")
}

func TestOuterEnvironmentInNestedCommand(t *testing.T) {
	cmd := scenario.CommandFunc(func(outer *scenario.Env) error {
		outer.ExecuteCommandsN(distribution.Uniform(1, 1), gen.Constant[scenario.Command](scenario.CommandFunc(func(*scenario.Env) error {
			outer.LogMessage("wrong")
			return nil
		})))
		return nil
	})
	g := scenario.Scenarios(func() scenario.Command { return cmd }, nil)
	_, _, err := env.RunGenerative(g, env.NewRandomSource(rand.New(rand.NewSource(1))), 10)
	assert.True(t, errors.Is(err, env.ErrWrongEnvironment), "got %v", err)
}

func TestReplayReproducesLog(t *testing.T) {
	inner := gen.Map(gen.IntRange(0, 99), func(v int) scenario.Command {
		return logged(fmt.Sprintf("value %d", v))
	})
	cmd := scenario.CommandFunc(func(e *scenario.Env) error {
		e.ExecuteCommands(inner)
		return nil
	})
	g := scenario.Scenarios(func() scenario.Command { return cmd }, nil)

	generated, node, err := env.RunGenerative(g, env.NewRandomSource(rand.New(rand.NewSource(11))), 10)
	require.NoError(t, err)
	replayed, err := env.RunReplay(g, node, 10, env.Verbatim, tree.IDSet{})
	require.NoError(t, err)
	assert.Equal(t, generated.String(), replayed.String())
}
