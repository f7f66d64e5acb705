package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/heyjunin/TurboConvert/pkg/errors"
	"github.com/heyjunin/TurboConvert/pkg/logger"
)

func main() {
	logger.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		logger.Info("Received signal, shutting down", "main", map[string]interface{}{
			"signal": sig.String(),
		})
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(err)
		cancel()
		os.Exit(exitCode(err))
	}
}

func reportError(err error) {
	if se, ok := errors.As(err); ok {
		fmt.Fprintf(os.Stderr, "Error (%s): %s\n", se.Type, se.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}

// exitCode is 2 for bad input, 1 for everything else.
func exitCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ValidationError, errors.UnsupportedFormat:
		return 2
	}
	return 1
}
