package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyhive/internal/app"
)

func newMacrosCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macros",
		Short: "Inspect the macro store",
		Long: `Inspect the macro store named in the settings ([macros] store and path).
Filters are regular expressions matched against slot names.`,
	}

	list := &cobra.Command{
		Use:   "list [filter]",
		Short: "List stored macros",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return runMacrosList(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, filter)
		},
	}
	del := &cobra.Command{
		Use:   "delete <filter>",
		Short: "Delete the macros whose slot matches filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacrosDelete(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, args[0])
		},
	}
	cmd.AddCommand(list, del)
	return cmd
}

func runMacrosList(out, logOut io.Writer, g *globalFlags, filter string) (err error) {
	e, closeEngine, err := newEngine(g, logOut, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	slots, err := e.Recorder().Macros(filter)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tKEYS\tRECORDED")
	for _, s := range slots {
		recorded := "-"
		if !s.Recorded.IsZero() {
			recorded = s.Recorded.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Keys, recorded)
	}
	return tw.Flush()
}

func runMacrosDelete(out, logOut io.Writer, g *globalFlags, filter string) (err error) {
	e, closeEngine, err := newEngine(g, logOut, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	n, err := e.Recorder().Delete(filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d macros\n", n)
	return nil
}
