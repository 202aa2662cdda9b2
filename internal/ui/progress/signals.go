package progress

import (
	"os"
	"sync"
)

// progressSignals returns a channel on which a single listener receives
// each SIGUSR1 (and SIGINFO where available) sent to the process.
func progressSignals() <-chan os.Signal {
	signals.Once.Do(func() {
		signals.ch = make(chan os.Signal, 1)
		setupSignals()
	})

	return signals.ch
}

var signals struct {
	ch chan os.Signal
	sync.Once
}
