package propcheck

import (
	"time"

	"code.cloudfoundry.org/clock"
)

// Calls a function once if it is not stopped before the timeout.
// The watched work is never interrupted.
type watchdog struct {
	stop chan struct{}
	done chan struct{}
}

func startWatchdog(c clock.Clock, timeout time.Duration, onTimeout func()) *watchdog {
	w := &watchdog{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	if timeout <= 0 {
		close(w.done)
		return w
	}
	timer := c.NewTimer(timeout)
	go func() {
		defer close(w.done)
		defer timer.Stop()
		select {
		case <-timer.C():
			onTimeout()
		case <-w.stop:
		}
	}()
	return w
}

// Cancel the watchdog and wait until its goroutine has exited
func (w *watchdog) Stop() {
	close(w.stop)
	<-w.done
}
