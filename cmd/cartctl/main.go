// Command cartctl reads and edits a shopper cart kept in a file-backed store.
// Several cartctl processes (or an API started with the file backend) can
// share one directory; `cartctl watch` follows the changes they make.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
