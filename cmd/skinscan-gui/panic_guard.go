package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/reconcile"
)

func withPanicGuard(scope string, onPanic func(any), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic", "scope", scope, "panic", fmt.Sprint(r))
			if onPanic != nil {
				onPanic(r)
			}
		}
	}()
	fn()
}

func safeGo(scope string, fn func()) {
	go func() {
		withPanicGuard(scope, nil, fn)
	}()
}

func (a *guiApp) safeGo(scope string, fn func()) {
	if a == nil {
		safeGo(scope, fn)
		return
	}
	go func() {
		withPanicGuard(scope, func(r any) {
			a.handleRecoveredPanic(scope, r)
		}, fn)
	}()
}

// safeDo runs fn on the UI goroutine.
func (a *guiApp) safeDo(scope string, fn func()) {
	withPanicGuard(scope+".dispatch", func(r any) {
		a.handleRecoveredPanic(scope+".dispatch", r)
	}, func() {
		fyne.Do(func() {
			withPanicGuard(scope, func(r any) {
				a.handleRecoveredPanic(scope, r)
			}, fn)
		})
	})
}

func (a *guiApp) handleRecoveredPanic(scope string, _ any) {
	if a == nil || fyne.CurrentApp() == nil {
		return
	}
	a.leaveLoading("panic recovered: " + scope)

	a.panicNoticeOnce.Do(func() {
		fyne.Do(func() {
			if a.window == nil {
				return
			}
			a.stack = []reconcile.Route{reconcile.RouteHome}
			a.show(reconcile.RouteHome)
			dialog.ShowInformation(
				"Unexpected Error",
				"An internal error occurred and the scan was stopped. Please try again. If this repeats, restart the app.",
				a.window,
			)
		})
	})
}
