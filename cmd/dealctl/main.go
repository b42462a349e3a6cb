// Command dealctl runs deal-analyzer operations from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if _, werr := fmt.Fprintf(os.Stderr, "Error: %v\n", err); werr != nil {
			fmt.Printf("Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
