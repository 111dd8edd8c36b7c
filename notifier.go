package propcheck

import (
	"fmt"
	"time"

	"propcheck/tree"

	"code.cloudfoundry.org/clock"
	"github.com/sirupsen/logrus"
)

// Minimum time between two progress lines
const progressInterval = 5 * time.Second

// Longer failure reasons are cut in progress output
const maxReasonLength = 1000

// Owns all the output produced while checking a property
type notifier struct {
	params *parameters
	log    *logrus.Entry
	clock  clock.Clock

	currentIteration   int
	lastPrinted        time.Time
	lastReportedStage  int
	lastReportedReason string
}

func newNotifier(params *parameters, session string) *notifier {
	return &notifier{
		params:            params,
		log:               params.logger.WithField("session", session),
		clock:             params.clock,
		lastPrinted:       params.clock.Now(),
		lastReportedStage: -1,
	}
}

func (n *notifier) shouldPrint() bool {
	if n.params.silent {
		return false
	}
	if now := n.clock.Now(); now.Sub(n.lastPrinted) > progressInterval {
		n.lastPrinted = now
		return true
	}
	return false
}

func (n *notifier) iterationStarted(iteration int) {
	n.currentIteration = iteration
	if n.shouldPrint() {
		n.log.Infof("iteration %d of %d...", iteration, n.params.iterationCount)
	}
}

func (n *notifier) counterExampleFound(seeds string) {
	if n.params.silent {
		return
	}
	n.lastPrinted = n.clock.Now()
	n.log.Warnf("failed on iteration %d (%v), shrinking...", n.currentIteration, seeds)
}

// Progress of a long minimization
type shrinkProgress interface {
	ShrinkingStageCount() int
	TotalShrinkingExampleCount() int
	minimalValue() string
	minimalCause() error
}

func (n *notifier) shrinkAttempt(progress shrinkProgress, seeds string, data *tree.Node) {
	if n.shouldPrint() {
		stage := progress.ShrinkingStageCount()
		n.log.Infof("still shrinking (%v). Examples tried: %d, successful minimizations: %d",
			seeds, progress.TotalShrinkingExampleCount(), stage)
		if n.lastReportedStage != stage {
			n.lastReportedStage = stage
			entry := n.log.WithField("value", progress.minimalValue())
			if cause := progress.minimalCause(); cause != nil {
				reason := fmt.Sprintf("%+v", cause)
				if len(reason) > maxReasonLength {
					reason = reason[:maxReasonLength] + "..."
				}
				if reason != n.lastReportedReason {
					n.lastReportedReason = reason
					entry = entry.WithField("reason", reason)
				}
			}
			entry.Info("current minimal example")
		}
	}
	if n.params.printRawData {
		n.log.Infof("generating from shrunk raw data: %v", data)
	}
}

func (n *notifier) endOfData() {
	if n.params.silent {
		return
	}
	n.log.Warn("generator tried to read past the end of serialized data, so it seems the failure isn't reproducible anymore")
}

func (n *notifier) logEntry(entry string) {
	if n.params.printValues {
		n.log.Info(entry)
	}
}

// Values that print their own log while generated
type selfLogging interface {
	HasEmptyLog() bool
}

func (n *notifier) beforePropertyCheck(value any) {
	if !n.params.printValues {
		return
	}
	if s, ok := value.(selfLogging); ok && !s.HasEmptyLog() {
		return
	}
	n.log.Infof("checking %v", formatValue(value))
}

func (n *notifier) propertyCheckFailed(cause error) {
	if !n.params.printValues {
		return
	}
	if cause == nil {
		n.log.Info("  failure")
		return
	}
	n.log.Infof("  failure: %T", rootCause(cause))
}

func (n *notifier) beforeReproducing(data *tree.Node) {
	if n.params.printRawData {
		n.log.Infof("reproducing from raw data %v", data)
	}
}

func (n *notifier) replayFailed(err error) {
	if n.params.printRawData {
		n.log.Infof("  failed: %T", rootCause(err))
	}
}

func (n *notifier) longIteration(seeds string) {
	if n.params.silent {
		return
	}
	n.log.Warnf("an iteration is running for too long, %v", seeds)
}
