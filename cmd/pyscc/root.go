package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type app struct {
	conf   Config
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{conf: DefaultConfig(), stdout: stdout, stderr: stderr}
	var envfile string
	root := &cobra.Command{
		Use:   "pyscc",
		Short: "pyscc infers static types for a subset of Python",
		Long: `pyscc parses programs written in a small subset of Python and infers
the type of every expression and binding, reporting the first type error
in each file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := LoadConfig(envfile)
			if err != nil {
				return err
			}
			if err := conf.applyFlags(cmd); err != nil {
				return err
			}
			a.conf = conf
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: conf.LogLevel}))
			a.logger.Debug("configuration loaded", "envfile", envfile, "config", conf)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&envfile, "env-file", ".env", "file of environment variables to load, if present")
	flags.Bool("strict", false, "enable every optional check")
	flags.Bool("strict-conditions", false, "require if conditions to be bool")
	flags.Bool("check-returns", false, "require returned values to match the declared return type")
	flags.Bool("trace", false, "print the parser and inferrer traces to stderr")
	flags.Bool("no-color", false, "disable colored diagnostics")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newCheckCmd(a), newDumpCmd(a))
	return root
}
