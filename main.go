package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eyestock/app/cmd"
	"eyestock/app/util/mylog"
)

func main() {
	mylog.Preinit()

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(appCtx); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		cancel()
		os.Exit(1)
	}
}
