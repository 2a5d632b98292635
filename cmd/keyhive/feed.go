package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/keyhive/internal/app"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/key"
)

type feedOptions struct {
	site    string
	noremap bool
	flush   bool
}

func newFeedCmd(g *globalFlags) *cobra.Command {
	var opts feedOptions
	cmd := &cobra.Command{
		Use:   "feed <keys>...",
		Short: "Dispatch keys without a terminal and trace each step",
		Long: `Dispatch keys one at a time, as if typed, and print what happened to
each: accumulated, waiting on the timeout, executed, passed or aborted.
Time does not pass between keys; --flush lets the timeout expire at the end.

Examples:
  keyhive feed 3dw
  keyhive feed 'qa' 'dd' 'q' '@a'
  keyhive feed --flush g`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd.OutOrStdout(), cmd.ErrOrStderr(), g, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.site, "site", "", "Site whose pass keys apply")
	cmd.Flags().BoolVar(&opts.noremap, "noremap", false, "Resolve against builtin mappings only")
	cmd.Flags().BoolVar(&opts.flush, "flush", false, "Let a pending timeout expire after the last key")
	return cmd
}

// traceHost collects what dispatch hands back to the host.
type traceHost struct {
	passed []key.Event
	beeps  int
}

func (h *traceHost) PassKey(ev key.Event) { h.passed = append(h.passed, ev) }
func (h *traceHost) Beep()                { h.beeps++ }

func runFeed(out, logOut io.Writer, g *globalFlags, args []string, opts feedOptions) (err error) {
	host := &traceHost{}
	sched := dispatch.NewManualScheduler()
	e, closeEngine, err := newEngine(g, logOut, app.Options{Host: host, Scheduler: sched})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	proc := e.Processor()
	if opts.site != "" {
		if err := proc.SetSite(opts.site); err != nil {
			return err
		}
	}

	for _, arg := range args {
		for _, ev := range key.ParseKeys(arg) {
			res := proc.ProcessKey(dispatch.Input{Event: ev, NoRemap: opts.noremap})
			printResult(out, ev, res)
		}
	}

	if opts.flush {
		if pending := proc.Pending(); pending != "" {
			_, d := e.Settings().WaitPolicy()
			fmt.Fprintf(out, "%-8s %-12s after %s\n", pending, "timeout", d)
			sched.Advance(d)
		}
	}

	fmt.Fprintf(out, "mode: %s\n", e.Stack().Main().Name())
	if len(host.passed) > 0 {
		fmt.Fprintf(out, "passed: %s\n", key.Stringify(host.passed))
	}
	if host.beeps > 0 {
		fmt.Fprintf(out, "beeps: %d\n", host.beeps)
	}
	return nil
}

func printResult(out io.Writer, ev key.Event, res dispatch.Result) {
	detail := res.Keys
	if res.Binding != nil && res.State == dispatch.StateExecuted {
		if res.Count > 0 {
			detail = fmt.Sprintf("%d%s", res.Count, detail)
		}
		if res.Binding.Description != "" {
			detail += "  " + res.Binding.Description
		}
	}
	if res.Err != nil {
		detail += "  error: " + res.Err.Error()
	}
	fmt.Fprintf(out, "%-8s %-12s %s\n", ev.String(), res.State, detail)
}
