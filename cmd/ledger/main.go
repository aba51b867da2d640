// cmd/ledger/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	app "bank-ledger/internal"
)

func main() {
	// Ctrl-C abandons the running operation; its transaction is rolled back.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{out: os.Stdout}
	c.connect = func(ctx context.Context) error {
		application := app.NewApplication()
		// Stdout carries the command's result document.
		application.LogOutput = os.Stderr
		if err := application.Initialize(ctx); err != nil {
			return err
		}
		c.app = application
		c.ledger = application.LedgerService
		return nil
	}

	err := newRootCmd(c).ExecuteContext(ctx)

	if c.app != nil {
		if shutdownErr := c.app.Shutdown(context.Background()); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		cancel()
		os.Exit(1)
	}
}
