package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/progress"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/screen"
	"github.com/oukeidos/skinscan/internal/submission"
	"github.com/oukeidos/skinscan/internal/tui"
)

// recordingNavigator keeps the last navigation of a plain-terminal session.
type recordingNavigator struct {
	mu  sync.Mutex
	nav tui.Navigation
}

func (n *recordingNavigator) set(nav tui.Navigation) {
	n.mu.Lock()
	n.nav = nav
	n.mu.Unlock()
}

func (n *recordingNavigator) Replace(route reconcile.Route, payload *analysis.Payload) {
	n.set(tui.Navigation{Kind: tui.NavReplace, Route: route, Payload: payload})
}

func (n *recordingNavigator) BackTo(route reconcile.Route) {
	n.set(tui.Navigation{Kind: tui.NavBack, Route: route})
}

func (n *recordingNavigator) ResetTo(route reconcile.Route) {
	n.set(tui.Navigation{Kind: tui.NavReset, Route: route})
}

func (n *recordingNavigator) get() tui.Navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nav
}

// barChooser closes the progress bar line before the dialog is printed.
type barChooser struct {
	bar  *progressbar.ProgressBar
	next screen.Chooser
	out  io.Writer
}

func (c barChooser) Choose(title, message string, choices []reconcile.Choice, pick func(reconcile.Choice)) {
	if c.bar != nil {
		_ = c.bar.Finish()
		fmt.Fprintln(c.out)
	}
	c.next.Choose(title, message, choices, pick)
}

// runPlainScreen drives one loading-screen visit with a progressbar line
// instead of the full-screen TUI.
func runPlainScreen(ctx context.Context, starter screen.Starter, req submission.Request, opts screen.Options, out io.Writer, chooser screen.Chooser, showBar bool) (tui.Navigation, *screen.Session, error) {
	var bar *progressbar.ProgressBar
	if showBar {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetPredictTime(false),
		)
		opts.OnFrame = func(v progress.Fraction, _ progress.Phase) {
			_ = bar.Set(v.Percent())
		}
	}

	nav := &recordingNavigator{}
	session := screen.NewSession(starter, req, nav, barChooser{bar: bar, next: chooser, out: out}, opts)
	session.Mount(ctx)
	defer session.Unmount()

	select {
	case <-session.Done():
	case <-ctx.Done():
		return tui.Navigation{}, session, ctx.Err()
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(out)
	}
	return nav.get(), session, nil
}
