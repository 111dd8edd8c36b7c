package propcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
seed: 42
iterations: 10
maxSizeHint: 5
logLevel: debug
watchdogTimeout: 30s
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	opts, err := cfg.Options()
	require.NoError(t, err)

	p, err := newParameters(opts)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.globalSeed)
	assert.Equal(t, 10, p.iterationCount)
	assert.Equal(t, 5, p.sizeHint(5))
	assert.Equal(t, 1, p.sizeHint(6))
	assert.Equal(t, 30*time.Second, p.watchdogTimeout)
	assert.Equal(t, logrus.DebugLevel, p.logger.GetLevel())
}

func TestLogLevelLeavesInjectedLoggerAlone(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	p, err := newParameters([]Option{WithLogger(logger), WithLogLevel(logrus.TraceLevel)})
	require.NoError(t, err)
	assert.Same(t, logger, p.logger)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	p, err = newParameters([]Option{WithLogLevel(logrus.ErrorLevel)})
	require.NoError(t, err)
	assert.Equal(t, logrus.ErrorLevel, p.logger.GetLevel())
}

func TestEmptyConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	opts, err := cfg.Options()
	require.NoError(t, err)

	p, err := newParameters(opts)
	require.NoError(t, err)
	assert.Equal(t, DefaultIterationCount, p.iterationCount)
	assert.Equal(t, DefaultWatchdogTimeout, p.watchdogTimeout)
	assert.Equal(t, 100, p.sizeHint(100))
	assert.Equal(t, 1, p.sizeHint(101))
	assert.Contains(t, cfg.String(), "seed: random\n")
}

var invalidFileConfigTest = []struct {
	content string
}{
	{"unknown: 1\n"},
	{"iterations: -1\n"},
	{"maxSizeHint: -3\n"},
	{"silent: true\nprintValues: true\n"},
	{"logLevel: loud\n"},
	{"recheck: \"%%%\"\n"},
	{"seed: [1, 2]\n"},
}

func TestInvalidFileConfig(t *testing.T) {
	for i, xt := range invalidFileConfigTest {
		_, err := ParseConfig(strings.NewReader(xt.content))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Test %v: expected an invalid configuration error, got %v", i, err)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")
	opts, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Empty(t, opts)

	path := filepath.Join(t.TempDir(), "propcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	t.Setenv(ConfigEnvVar, path)
	opts, err = ConfigFromEnv()
	require.NoError(t, err)
	p, err := newParameters(opts)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.globalSeed)

	t.Setenv(ConfigEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = ConfigFromEnv()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
