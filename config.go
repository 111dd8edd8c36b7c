package propcheck

import (
	"math/rand"
	"os"
	"time"

	"propcheck/codec"
	"propcheck/metrics"

	"code.cloudfoundry.org/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultIterationCount  = 100
	DefaultMaxSizeHint     = 100
	DefaultWatchdogTimeout = time.Minute
)

// Returned when a check can not start or continue because of its configuration
var ErrInvalidConfig = errors.New("propcheck: invalid configuration")

// A configuration problem with an underlying cause.
// Matches ErrInvalidConfig and unwraps to the cause.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "propcheck: invalid configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

type Option interface{}

type seedOption struct{ seed int64 }

// Start the check with a fixed global seed.
//
// Useful to reproduce a previous run while debugging. Changes in the test or the generators make the seed obsolete,
// so regression tests should code the failing case explicitly instead.
func WithSeed(seed int64) Option {
	return seedOption{seed: seed}
}

type iterationCountOption struct{ n int }

// Configure the number of iterations.
//
// Default value is 100
func WithIterationCount(n int) Option {
	return iterationCountOption{n: n}
}

type sizeHintOption struct{ f func(iteration int) int }

// Configure the size hint of every iteration.
//
// By default the size hint is 1 in the first iteration, 2 in the second and so on until 100, then starts over at 1.
func WithSizeHint(f func(iteration int) int) Option {
	return sizeHintOption{f: f}
}

type recheckingOption struct{ data string }

// Check a single iteration generated from serialized data, as printed in the report of a failed check.
//
// The record fixes the seed, the size hint and the iteration count. Options setting them are ignored afterwards.
func Rechecking(data string) Option {
	return recheckingOption{data: data}
}

type optionList []Option

// Check a single iteration with the given seed and size hint
func RecheckingIteration(seed int64, sizeHint int) Option {
	return optionList{
		WithSeed(seed),
		WithSizeHint(func(int) int { return sizeHint }),
		WithIterationCount(1),
	}
}

type silentOption struct{}

// Suppress all output during the check and minimization.
// Incompatible with PrintGeneratedValues and PrintRawData.
func Silent() Option {
	return silentOption{}
}

type printValuesOption struct{}

// Log every checked value and every failure of the property
func PrintGeneratedValues() Option {
	return printValuesOption{}
}

type printRawDataOption struct{}

// Log the recordings replayed during minimization
func PrintRawData() Option {
	return printRawDataOption{}
}

type loggerOption struct{ logger *logrus.Logger }

// Use the provided logger for all output.
//
// Default is a logger writing to stderr at the info level
func WithLogger(logger *logrus.Logger) Option {
	return loggerOption{logger: logger}
}

type logLevelOption struct{ level logrus.Level }

// Set the level of the default logger.
// A logger provided with WithLogger keeps its own level.
func WithLogLevel(level logrus.Level) Option {
	return logLevelOption{level: level}
}

type metricsOption struct{ recorder *metrics.Recorder }

// Record check statistics in the provided recorder
func WithMetrics(recorder *metrics.Recorder) Option {
	return metricsOption{recorder: recorder}
}

type clockOption struct{ clock clock.Clock }

// Use the provided clock for the watchdog and the progress output
func WithClock(c clock.Clock) Option {
	return clockOption{clock: c}
}

type watchdogOption struct{ timeout time.Duration }

// Configure how long an iteration may run before a diagnostic is logged.
// The iteration is never interrupted. A non-positive timeout disables the watchdog.
//
// Default value is one minute
func WithWatchdogTimeout(timeout time.Duration) Option {
	return watchdogOption{timeout: timeout}
}

type parameters struct {
	globalSeed int64
	// The record supplied with Rechecking. nil when values are generated from the seed.
	serialized      *codec.Record
	sizeHint        func(iteration int) int
	iterationCount  int
	silent          bool
	printValues     bool
	printRawData    bool
	logger          *logrus.Logger
	logLevel        *logrus.Level
	metrics         *metrics.Recorder
	clock           clock.Clock
	watchdogTimeout time.Duration
}

func defaultSizeHint(iteration int) int {
	return (iteration-1)%DefaultMaxSizeHint + 1
}

func newParameters(opts []Option) (*parameters, error) {
	p := &parameters{
		globalSeed:      rand.Int63(),
		sizeHint:        defaultSizeHint,
		iterationCount:  DefaultIterationCount,
		clock:           clock.NewClock(),
		watchdogTimeout: DefaultWatchdogTimeout,
	}
	// Reported once the logger is known
	ignored := []string{}

	var apply func(opts []Option) error
	apply = func(opts []Option) error {
		for _, opt := range opts {
			switch t := opt.(type) {
			case optionList:
				if err := apply(t); err != nil {
					return err
				}
			case seedOption:
				if p.serialized != nil {
					ignored = append(ignored, "WithSeed")
					continue
				}
				p.globalSeed = t.seed
			case iterationCountOption:
				if p.serialized != nil {
					ignored = append(ignored, "WithIterationCount")
					continue
				}
				if t.n <= 0 {
					return errors.Wrapf(ErrInvalidConfig, "iteration count should be positive, found %d", t.n)
				}
				p.iterationCount = t.n
			case sizeHintOption:
				if p.serialized != nil {
					ignored = append(ignored, "WithSizeHint")
					continue
				}
				p.sizeHint = t.f
			case recheckingOption:
				record, err := codec.DecodeRecord(t.data)
				if err != nil {
					return &ConfigError{Err: errors.Wrap(err, "cannot restore serialized data")}
				}
				sizeHint := record.SizeHint
				p.serialized = record
				p.globalSeed = record.Seed
				p.sizeHint = func(int) int { return sizeHint }
				p.iterationCount = 1
			case silentOption:
				if p.printValues {
					return errors.Wrap(ErrInvalidConfig, "'Silent' is incompatible with 'PrintGeneratedValues'")
				}
				if p.printRawData {
					return errors.Wrap(ErrInvalidConfig, "'Silent' is incompatible with 'PrintRawData'")
				}
				p.silent = true
			case printValuesOption:
				if p.silent {
					return errors.Wrap(ErrInvalidConfig, "'PrintGeneratedValues' is incompatible with 'Silent'")
				}
				p.printValues = true
			case printRawDataOption:
				if p.silent {
					return errors.Wrap(ErrInvalidConfig, "'PrintRawData' is incompatible with 'Silent'")
				}
				p.printRawData = true
			case loggerOption:
				p.logger = t.logger
			case logLevelOption:
				level := t.level
				p.logLevel = &level
			case metricsOption:
				p.metrics = t.recorder
			case clockOption:
				p.clock = t.clock
			case watchdogOption:
				p.watchdogTimeout = t.timeout
			default:
				return errors.Wrapf(ErrInvalidConfig, "unknown option %T", opt)
			}
		}
		return nil
	}
	if err := apply(opts); err != nil {
		return nil, err
	}

	if p.logger == nil {
		p.logger = logrus.New()
		p.logger.SetOutput(os.Stderr)
		if p.logLevel != nil {
			p.logger.SetLevel(*p.logLevel)
		}
	}
	for _, name := range ignored {
		if !p.silent {
			p.logger.Warnf("%v ignored, because 'Rechecking' is used", name)
		}
	}
	return p, nil
}
