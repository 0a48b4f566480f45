package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	ctx := shutdownContext(context.Background(), slog.Default(), os.Exit)

	executed, err := newRootCmd().ExecuteContextC(ctx)
	err = errors.Join(err, closeCLIContext(executed))

	if err != nil {
		exitOnError(err)
	}
}
