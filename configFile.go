package propcheck

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Names the parameter file read by ConfigFromEnv
const ConfigEnvVar = "PROPCHECK_CONFIG"

// Check parameters read from a YAML file. Zero values keep the defaults.
type FileConfig struct {
	Seed            *int64        `yaml:"seed"`
	Iterations      int           `yaml:"iterations"`
	MaxSizeHint     int           `yaml:"maxSizeHint"`
	Recheck         string        `yaml:"recheck"`
	Silent          bool          `yaml:"silent"`
	PrintValues     bool          `yaml:"printValues"`
	PrintRawData    bool          `yaml:"printRawData"`
	LogLevel        string        `yaml:"logLevel"`
	WatchdogTimeout time.Duration `yaml:"watchdogTimeout"`
}

func ParseConfig(r io.Reader) (*FileConfig, error) {
	cfg := &FileConfig{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, &ConfigError{Err: errors.Wrap(err, "parsing parameter file")}
	}
	if _, err := cfg.Options(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Err: errors.Wrap(err, "opening parameter file")}
	}
	defer f.Close()
	return ParseConfig(f)
}

// Load the parameter file named by the PROPCHECK_CONFIG environment variable.
// Returns no options if the variable is not set.
func ConfigFromEnv() ([]Option, error) {
	path, ok := os.LookupEnv(ConfigEnvVar)
	if !ok || path == "" {
		return nil, nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Options()
}

// Convert the parameters into check options
func (c *FileConfig) Options() ([]Option, error) {
	opts := []Option{}
	if c.Iterations < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "iterations should be positive, found %d", c.Iterations)
	}
	if c.MaxSizeHint < 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "maxSizeHint should be non-negative, found %d", c.MaxSizeHint)
	}
	if c.LogLevel != "" {
		level, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			return nil, &ConfigError{Err: err}
		}
		opts = append(opts, WithLogLevel(level))
	}
	if c.Seed != nil {
		opts = append(opts, WithSeed(*c.Seed))
	}
	if c.Iterations > 0 {
		opts = append(opts, WithIterationCount(c.Iterations))
	}
	if c.MaxSizeHint > 0 {
		maxHint := c.MaxSizeHint
		opts = append(opts, WithSizeHint(func(iteration int) int {
			return (iteration-1)%maxHint + 1
		}))
	}
	if c.Recheck != "" {
		opts = append(opts, Rechecking(c.Recheck))
	}
	if c.Silent {
		opts = append(opts, Silent())
	}
	if c.PrintValues {
		opts = append(opts, PrintGeneratedValues())
	}
	if c.PrintRawData {
		opts = append(opts, PrintRawData())
	}
	if c.WatchdogTimeout != 0 {
		opts = append(opts, WithWatchdogTimeout(c.WatchdogTimeout))
	}
	if _, err := newParameters(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// The effective parameters, one per line
func (c *FileConfig) String() string {
	b := &strings.Builder{}
	if c.Seed != nil {
		fmt.Fprintf(b, "seed: %d\n", *c.Seed)
	} else {
		fmt.Fprintf(b, "seed: random\n")
	}
	iterations := c.Iterations
	if iterations == 0 {
		iterations = DefaultIterationCount
	}
	fmt.Fprintf(b, "iterations: %d\n", iterations)
	maxHint := c.MaxSizeHint
	if maxHint == 0 {
		maxHint = DefaultMaxSizeHint
	}
	fmt.Fprintf(b, "maxSizeHint: %d\n", maxHint)
	if c.Recheck != "" {
		fmt.Fprintf(b, "recheck: %v\n", c.Recheck)
	}
	fmt.Fprintf(b, "silent: %v\nprintValues: %v\nprintRawData: %v\n", c.Silent, c.PrintValues, c.PrintRawData)
	level := c.LogLevel
	if level == "" {
		level = logrus.InfoLevel.String()
	}
	fmt.Fprintf(b, "logLevel: %v\n", level)
	timeout := c.WatchdogTimeout
	if timeout == 0 {
		timeout = DefaultWatchdogTimeout
	}
	fmt.Fprintf(b, "watchdogTimeout: %v\n", timeout)
	return b.String()
}
