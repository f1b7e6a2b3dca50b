package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"github.com/sanity-io/litter"
	"github.com/smasher164/pyscc/ast"
	"github.com/smasher164/pyscc/parser"
	"github.com/smasher164/pyscc/types"
	"github.com/spf13/cobra"
)

type dumpFormat string

const (
	formatTree   dumpFormat = "tree"
	formatPretty dumpFormat = "pretty"
	formatLitter dumpFormat = "litter"
)

func newDumpCmd(a *app) *cobra.Command {
	var format string
	var untyped bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the typed syntax tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch f := dumpFormat(format); f {
			case formatTree, formatPretty, formatLitter:
				return a.dump(args[0], f, untyped)
			}
			return fmt.Errorf("unknown format %q: want tree, pretty or litter", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(formatTree), "output format: tree, pretty or litter")
	cmd.Flags().BoolVar(&untyped, "untyped", false, "print the tree before inference")
	return cmd
}

func (a *app) dump(filename string, format dumpFormat, untyped bool) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		fmt.Fprint(a.stderr, formatDiagnostic(diagnose(filename, err), src, newPalette(a.colored())))
		return errFailed
	}
	mod, err := parser.Parse(filename, src, a.conf.ParseOptions(a.stderr)...)
	if err != nil {
		return fail(err)
	}
	if untyped {
		return writeTree(a.stdout, format, mod, func(w io.Writer) error {
			return ast.Fprint(w, mod)
		})
	}
	typed, err := types.Infer(mod, a.conf.InferOptions(a.stderr)...)
	if err != nil {
		return fail(err)
	}
	return writeTree(a.stdout, format, typed, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, typed.ASTString(0))
		return err
	})
}

// writeTree prints root in the given format; tree writes the indented
// tree form.
func writeTree(w io.Writer, format dumpFormat, root any, tree func(io.Writer) error) error {
	var err error
	switch format {
	case formatTree:
		err = tree(w)
	case formatPretty:
		_, err = pretty.Fprintf(w, "%# v\n", root)
	case formatLitter:
		opts := litter.Options{HidePrivateFields: false, Compact: false}
		_, err = fmt.Fprintln(w, opts.Sdump(root))
	}
	return err
}
