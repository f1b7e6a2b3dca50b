package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/smasher164/pyscc/parser"
	"github.com/smasher164/pyscc/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errFailed is returned when at least one file did not check. The
// diagnostics have already been printed.
var errFailed = errors.New("type checking failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Parse and infer the types of each file",
		Long: `check parses and infers every file concurrently, then prints "ok" or a
diagnostic for each one in the order given. The exit status is 1 if any
file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd.Context(), args)
		},
	}
}

type checkResult struct {
	filename string
	src      []byte
	err      error
}

func (a *app) checkFile(filename string) checkResult {
	r := checkResult{filename: filename}
	r.src, r.err = os.ReadFile(filename)
	if r.err != nil {
		return r
	}
	mod, err := parser.Parse(filename, r.src, a.conf.ParseOptions(a.stderr)...)
	if err != nil {
		r.err = err
		return r
	}
	_, r.err = types.Infer(mod, a.conf.InferOptions(a.stderr)...)
	return r
}

func (a *app) check(ctx context.Context, files []string) error {
	results := make([]checkResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	// Traces of concurrently checked files would interleave.
	if a.conf.Trace {
		g.SetLimit(1)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for i, filename := range files {
		i, filename := i, filename
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = a.checkFile(filename)
			a.logger.Debug("checked file", "file", filename, "elapsed", time.Since(start), "ok", results[i].err == nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p := newPalette(a.colored())
	failed := 0
	for _, r := range results {
		if r.err == nil {
			fmt.Fprintf(a.stdout, "%s: ok\n", r.filename)
			continue
		}
		failed++
		fmt.Fprint(a.stderr, formatDiagnostic(diagnose(r.filename, r.err), r.src, p))
	}
	a.logger.Info("check finished", "files", len(files), "failed", failed)
	if failed > 0 {
		return errFailed
	}
	return nil
}

// colored reports whether diagnostics on stderr should be colored.
func (a *app) colored() bool {
	if a.conf.NoColor {
		return false
	}
	f, ok := a.stderr.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
