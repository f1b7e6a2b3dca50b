// Command pyscc infers static types for programs in a small subset of Python.
//
// Usage:
//
//	pyscc check FILE...
//	pyscc dump [--format tree|pretty|litter] [--untyped] FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "pyscc:", err)
		}
		os.Exit(1)
	}
}
