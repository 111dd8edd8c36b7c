package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"propcheck/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecode(t *testing.T) {
	data := codec.EncodeRecord(-5, 7, func(w *codec.Writer) {
		w.WriteInt(1)
		w.WriteInt(300)
		w.WriteInt(-2)
	})
	out, err := run(t, "decode", data)
	require.NoError(t, err)
	assert.Equal(t, "seed: -5\nsizeHint: 7\nvalues: [1 300 -2]\n", out)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := run(t, "decode", "not base64!")
	assert.Error(t, err)

	_, err = run(t, "decode")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 42\niterations: 10\nwatchdogTimeout: 30s\n"), 0o600))

	out, err := run(t, "config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seed: 42\n")
	assert.Contains(t, out, "iterations: 10\n")
	assert.Contains(t, out, "maxSizeHint: 100\n")
	assert.Contains(t, out, "watchdogTimeout: 30s\n")
}

func TestConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("silent: true\nprintValues: true\n"), 0o600))

	_, err := run(t, "config", path)
	assert.Error(t, err)
}
