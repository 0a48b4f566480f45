package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownContext returns a context canceled by the first SIGINT or SIGTERM.
// A sync in progress then stops issuing requests and a chat stops waiting
// for its reply. A second signal calls exit(1) for a stuck request.
func shutdownContext(parent context.Context, logger *slog.Logger, exit func(int)) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		for count := 0; ; count++ {
			select {
			case sig := <-sigCh:
				if count > 0 {
					logger.Warn("second signal, exiting", slog.String("signal", sig.String()))
					exit(1)

					return
				}

				logger.Info("signal received, canceling", slog.String("signal", sig.String()))
				cancel()

			case <-parent.Done():
				cancel()

				return
			}
		}
	}()

	return ctx
}
