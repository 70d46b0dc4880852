// Command statekit-scaffold generates a starter schema and accessor sources
// for a statekit manager.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-statekit/internal/scaffold"
)

func main() {
	interactive := scaffold.IsTerminal(os.Stdin)
	if err := run(os.Args[1:], os.Stdin, os.Stdout, interactive); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer, interactive bool) error {
	cmd := newCommand(interactive)
	cmd.SetIn(in)
	cmd.SetOut(out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newCommand(interactive bool) *cobra.Command {
	var flags scaffold.Flags
	cmd := &cobra.Command{
		Use:           "statekit-scaffold --root=<path> --name=<identifier> [-Sgsm] [--force] [kind=filename ...]",
		Short:         "Generate a statekit schema and accessor sources",
		Long:          scaffold.Description,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.Options(args)
			if err != nil {
				return err
			}
			if opts.Missing() {
				if !interactive {
					return fmt.Errorf("%w\n\n%s", scaffold.ErrMissingArgs, cmd.UsageString())
				}
				opts, err = scaffold.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
				if err != nil {
					return err
				}
			}
			result, err := scaffold.Generate(opts)
			if err != nil {
				return err
			}
			styles := scaffold.PlainStyles()
			if interactive && scaffold.IsTerminal(os.Stdout) {
				styles = scaffold.DefaultStyles()
			}
			fmt.Fprint(cmd.OutOrStdout(), scaffold.Render(result, styles))
			return nil
		},
	}
	flags.Bind(cmd.Flags())
	return cmd
}
