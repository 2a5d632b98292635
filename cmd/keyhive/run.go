package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/keyhive/internal/app"
	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
	"github.com/dshills/keyhive/internal/input/termkey"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var site string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive session in the terminal",
		Long: `Start an interactive session. Keys are dispatched as they are typed and
the status line shows the mode, pending keys and macro recording. Keys no
mapping takes are listed as passed. Press <C-q> to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd.Context(), g, site)
		},
	}
	cmd.Flags().StringVar(&site, "site", "", "Site whose pass keys apply")
	return cmd
}

func runSession(ctx context.Context, g *globalFlags, site string) (err error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := dispatch.NewLoop(0)
	defer loop.Close()

	host := termkey.NewScreenHost(screen, 64)
	status := newStatusLine(screen)

	// Logs would garble the screen unless they go to a file.
	e, closeEngine, err := newEngine(g, io.Discard, app.Options{
		Host:        host,
		Scheduler:   loop,
		OnStatus:    status.setPending,
		OnRecording: status.setRecording,
		OnError:     status.setError,
		Watch:       true,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	e.Commands().Register("quit", func([]string, command.Context) error {
		cancel()
		return nil
	})
	_, err = e.Hives().Builtin().Add([]*mode.Mode{e.Modes().Get(mode.ModeBase)}, []string{"<C-q>"}, "Quit",
		func(*hive.Args) error {
			cancel()
			return nil
		}, hive.WithFlags(hive.FlagNoRepeat))
	if err != nil {
		return err
	}
	if site != "" {
		if err := e.Processor().SetSite(site); err != nil {
			return err
		}
	}

	redraw := func() { status.draw(e.Stack().Main().Name(), host.Passed()) }
	go func() { _ = e.Watch(ctx, loop.Post) }()
	go pollEvents(screen, loop, func(ev key.Event) {
		e.ProcessKey(ev)
		redraw()
	}, redraw)

	loop.Post(redraw)
	if err := loop.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// pollEvents forwards terminal events to the loop until the screen is
// finalized.
func pollEvents(screen tcell.Screen, loop *dispatch.Loop, onKey func(key.Event), onResize func()) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			k, ok := termkey.FromTcell(ev)
			if !ok {
				continue
			}
			if !loop.Post(func() { onKey(k) }) {
				return
			}
		case *tcell.EventResize:
			if !loop.Post(func() {
				screen.Sync()
				onResize()
			}) {
				return
			}
		}
	}
}
