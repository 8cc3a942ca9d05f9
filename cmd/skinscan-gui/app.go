package main

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/screen"
)

type guiApp struct {
	window  fyne.Window
	cfg     *config.Config
	content *fyne.Container

	// route history; the top is the visible screen
	stack []reconcile.Route

	homeView    fyne.CanvasObject
	captureView fyne.CanvasObject
	loadingView fyne.CanvasObject
	resultView  fyne.CanvasObject
	keyView     fyne.CanvasObject

	photos      [3]string
	photoLabels [3]*widget.Label
	analyzeBtn  *widget.Button
	progressBar *widget.ProgressBar
	caption     *widget.Label
	resultText  *widget.Label

	sessionKey string

	mu              sync.Mutex
	session         *screen.Session
	activeCancel    context.CancelFunc
	activeCancelID  uint64
	panicNoticeOnce sync.Once
}

func newGUIApp(w fyne.Window, cfg *config.Config) *guiApp {
	a := &guiApp{window: w, cfg: cfg}
	a.setupUI()
	a.show(reconcile.RouteHome)
	a.stack = []reconcile.Route{reconcile.RouteHome}
	return a
}

func (a *guiApp) setupUI() {
	a.homeView = a.createHomeView()
	a.captureView = a.createCaptureView()
	a.loadingView = a.createLoadingView()
	a.resultView = a.createResultView()
	a.keyView = a.createKeyView()
	a.content = container.NewStack(a.homeView, a.captureView, a.loadingView, a.resultView, a.keyView)
	a.window.SetContent(a.content)
}

func (a *guiApp) viewFor(r reconcile.Route) fyne.CanvasObject {
	switch r {
	case reconcile.RouteCapture:
		return a.captureView
	case reconcile.RouteLoading:
		return a.loadingView
	case reconcile.RouteAnalysis:
		return a.resultView
	default:
		return a.homeView
	}
}

// show makes one view visible. Must run on the UI goroutine.
func (a *guiApp) show(r reconcile.Route) {
	for _, v := range []fyne.CanvasObject{a.homeView, a.captureView, a.loadingView, a.resultView, a.keyView} {
		v.Hide()
	}
	a.viewFor(r).Show()
	a.content.Refresh()
}

func (a *guiApp) showKeyView() {
	a.safeDo("app.key_view", func() {
		for _, v := range []fyne.CanvasObject{a.homeView, a.captureView, a.loadingView, a.resultView} {
			v.Hide()
		}
		a.keyView.Show()
		a.content.Refresh()
	})
}

func (a *guiApp) push(r reconcile.Route) {
	a.safeDo("nav.push", func() {
		a.stack = pushRoute(a.stack, r)
		a.show(r)
	})
}

// Replace implements screen.Navigator.
func (a *guiApp) Replace(r reconcile.Route, payload *analysis.Payload) {
	a.safeDo("nav.replace", func() {
		if payload != nil {
			a.resultText.SetText(analysis.Text(payload))
		}
		a.stack = replaceRoute(a.stack, r)
		a.show(r)
		a.endSession()
	})
}

// BackTo implements screen.Navigator.
func (a *guiApp) BackTo(r reconcile.Route) {
	a.safeDo("nav.back", func() {
		a.stack = popToRoute(a.stack, r)
		a.show(r)
		a.endSession()
	})
}

// ResetTo implements screen.Navigator.
func (a *guiApp) ResetTo(r reconcile.Route) {
	a.safeDo("nav.reset", func() {
		a.stack = []reconcile.Route{r}
		a.clearPhotos()
		a.show(r)
		a.endSession()
	})
}

// leaveLoading unmounts the loading screen when the user abandons it.
func (a *guiApp) leaveLoading(reason string) {
	a.mu.Lock()
	s := a.session
	cancel := a.activeCancel
	a.session = nil
	a.activeCancel = nil
	a.mu.Unlock()
	if s != nil {
		s.Unmount()
	}
	if cancel != nil {
		logger.Warn("Cancellation requested", "reason", reason)
		cancel()
	}
}

func (a *guiApp) endSession() {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()
	if s != nil {
		s.Unmount()
	}
}

func (a *guiApp) setActive(s *screen.Session, cancel context.CancelFunc) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeCancel != nil {
		a.activeCancel()
	}
	a.session = s
	a.activeCancel = cancel
	a.activeCancelID++
	return a.activeCancelID
}

func (a *guiApp) clearActiveCancel(id uint64) {
	a.mu.Lock()
	if a.activeCancelID == id {
		a.activeCancel = nil
	}
	a.mu.Unlock()
}

func (a *guiApp) clearPhotos() {
	a.photos = [3]string{}
	for _, l := range a.photoLabels {
		l.SetText(noPhoto)
	}
	a.analyzeBtn.Disable()
}

func pushRoute(stack []reconcile.Route, r reconcile.Route) []reconcile.Route {
	return append(stack, r)
}

// replaceRoute swaps the top of the stack so back skips the old screen.
func replaceRoute(stack []reconcile.Route, r reconcile.Route) []reconcile.Route {
	if len(stack) == 0 {
		return []reconcile.Route{r}
	}
	out := append([]reconcile.Route(nil), stack[:len(stack)-1]...)
	return append(out, r)
}

// popToRoute drops screens above the last occurrence of r. A route that is
// not on the stack replaces the whole stack.
func popToRoute(stack []reconcile.Route, r reconcile.Route) []reconcile.Route {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == r {
			return append([]reconcile.Route(nil), stack[:i+1]...)
		}
	}
	return []reconcile.Route{r}
}
