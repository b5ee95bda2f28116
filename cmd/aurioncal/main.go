package main

import (
	"context"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"aurioncal/cmd/aurioncal/commands"
	"aurioncal/internal/components/telemetry"
	"aurioncal/lib/tracing"
	"aurioncal/lib/util/serviceutil"
)

func main() {
	os.Exit(run())
}

// run holds the deferred cleanup, os.Exit would skip it.
func run() int {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	telemetry.InitSlog(os.Stderr, false)

	t, err := tracing.SetupFromEnv(ctx, "aurioncal")
	if err != nil {
		slog.Error("failed to setup tracing", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := t.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to flush traces", "err", err)
		}
	}()

	return commands.ExecuteContext(ctx)
}
