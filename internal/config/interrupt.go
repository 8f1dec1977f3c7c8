package config

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// InterruptContext returns a context cancelled on the first SIGINT or SIGTERM.
// The interactive loops only notice cancellation between items, so the first
// signal logs a hint and restores default handling; a second one terminates
// the process. stop releases the signal handler.
func InterruptContext(entry *log.Entry) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case s := <-sig:
			signal.Stop(sig)
			entry.WithField("signal", s.String()).Info("Interrupt received, finishing after current item (press again to abort)")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}
