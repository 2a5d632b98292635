package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/keyhive/internal/app"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/mode"
)

type mapsOptions struct {
	modes    string
	fuzzy    string
	hive     string
	userOnly bool
}

func newMapsCmd(g *globalFlags) *cobra.Command {
	var opts mapsOptions
	cmd := &cobra.Command{
		Use:   "maps [keys]",
		Short: "List the mappings bound in a set of modes",
		Long: `List mappings present in every given mode, grouped by hive in priority
order. Mapping files and plugins from the settings are loaded first.

Examples:
  keyhive maps                  # Normal mode
  keyhive maps -m n,v           # Bound in both normal and visual
  keyhive maps --fuzzy macro    # Fuzzy match on keys and descriptions
  keyhive maps --user           # Only user mappings`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			return runMaps(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, filter, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.modes, "modes", "m", "n", "Comma-separated mode names or tags")
	cmd.Flags().StringVar(&opts.fuzzy, "fuzzy", "", "Fuzzy filter on keys and descriptions")
	cmd.Flags().StringVar(&opts.hive, "hive", "", "List only this hive")
	cmd.Flags().BoolVar(&opts.userOnly, "user", false, "List only user mappings")
	return cmd
}

func runMaps(out, logOut io.Writer, g *globalFlags, filter string, opts mapsOptions) (err error) {
	e, closeEngine, err := newEngine(g, logOut, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	var modes []*mode.Mode
	for _, name := range strings.Split(opts.modes, ",") {
		m, err := e.Modes().Lookup(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		modes = append(modes, m)
	}

	list := hive.ListOptions{Filter: filter, UserOnly: opts.userOnly}
	if opts.fuzzy != "" {
		list.Filter = opts.fuzzy
		list.Fuzzy = true
	}
	if opts.hive != "" {
		h := e.Hives().Hive(opts.hive)
		if h == nil {
			return fmt.Errorf("%w: %s", hive.ErrUnknownHive, opts.hive)
		}
		list.Hives = []*hive.Hive{h}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODES\tKEYS\tHIVE\tACTION")
	for _, entry := range e.Hives().List(modes, list) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Modes, strings.Join(entry.Names, " "), entry.Hive, describe(entry))
	}
	return tw.Flush()
}

// describe shows the RHS of a mapping followed by its description.
func describe(entry hive.Entry) string {
	action := entry.RHS
	if action != "" && entry.NoRemap {
		action = "noremap " + action
	}
	if entry.Description != "" {
		if action != "" {
			action += "  "
		}
		action += entry.Description
	}
	return action
}
