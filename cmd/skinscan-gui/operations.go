package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2/dialog"
	"github.com/google/uuid"

	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/auth"
	"github.com/oukeidos/skinscan/internal/backend"
	"github.com/oukeidos/skinscan/internal/config"
	"github.com/oukeidos/skinscan/internal/files"
	"github.com/oukeidos/skinscan/internal/gemini"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/progress"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/recovery"
	"github.com/oukeidos/skinscan/internal/screen"
	"github.com/oukeidos/skinscan/internal/submission"
)

var (
	errBackendKeyMissing = errors.New("backend key is required")
	getKey               = auth.GetKey
	readImage            = files.ReadImage
)

// buildRequest reads the chosen photos. Empty paths leave the slot absent.
func buildRequest(sessionID string, paths [3]string) (submission.Request, error) {
	req := submission.Request{SessionID: sessionID}
	for i, p := range paths {
		if p == "" {
			continue
		}
		data, err := readImage(p)
		if err != nil {
			return req, apperrors.New(apperrors.KindInput, fmt.Sprintf("Could not read the %s photo.", submission.Slots[i]), err)
		}
		req.Images[i] = &submission.Image{Name: p, Data: data}
	}
	if req.Present() == 0 {
		return req, apperrors.Input(errors.New("choose at least one photo"))
	}
	return req, nil
}

// keyFor prefers a key typed for this run over the keychain.
func keyFor(svc auth.Service, sessionKey string) string {
	if svc == auth.ServiceBackend && strings.TrimSpace(sessionKey) != "" {
		return strings.TrimSpace(sessionKey)
	}
	key, _ := getKey(svc, false)
	return key
}

type submitterParts struct {
	submitter *submission.Submitter
	closeFn   func() error
}

func buildSubmitter(ctx context.Context, cfg *config.Config, backendKey string) (submitterParts, error) {
	if strings.TrimSpace(backendKey) == "" {
		return submitterParts{}, errBackendKeyMissing
	}
	client, err := backend.NewClient(backend.Config{
		URL:      cfg.Backend.URL,
		Key:      backendKey,
		Bucket:   cfg.Backend.Bucket,
		Function: cfg.Backend.Function,
	})
	if err != nil {
		return submitterParts{}, err
	}

	parts := submitterParts{closeFn: func() error { return nil }}
	var (
		uploader submission.Uploader = client
		analyzer submission.Analyzer = client
	)
	if cfg.Analyzer == config.AnalyzerGemini {
		geminiKey := keyFor(auth.ServiceGemini, "")
		if geminiKey == "" {
			return submitterParts{}, apperrors.Auth(fmt.Errorf("gemini key not found in keychain"))
		}
		gc, err := gemini.NewClient(ctx, geminiKey, cfg.Gemini.Model)
		if err != nil {
			return submitterParts{}, err
		}
		parts.closeFn = gc.Close
		stash := submission.NewStash(client)
		uploader = stash
		analyzer = gemini.NewAnalyzer(gc, stash)
	}

	var saver submission.StateSaver
	dir := cfg.StateDir
	if dir == "" {
		if d, err := recovery.DefaultDir(); err == nil {
			dir = d
		}
	}
	if dir != "" {
		saver = recovery.NewStore(dir)
	}
	parts.submitter = submission.New(uploader, analyzer, saver)
	return parts, nil
}

// startAnalysis mounts a fresh loading screen for the chosen photos.
func (a *guiApp) startAnalysis() {
	id, err := uuid.NewV7()
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	sessionID := id.String()
	req, err := buildRequest(sessionID, a.photos)
	if err != nil {
		dialog.ShowError(errors.New(apperrors.PublicMessage(err)), a.window)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	parts, err := buildSubmitter(ctx, a.cfg, keyFor(auth.ServiceBackend, a.sessionKey))
	if err != nil {
		cancel()
		if errors.Is(err, errBackendKeyMissing) {
			a.showKeyView()
			return
		}
		logger.Error("Submitter not built", "error", apperrors.Detail(err))
		dialog.ShowError(errors.New(apperrors.PublicMessage(err)), a.window)
		return
	}

	a.progressBar.SetValue(0)
	a.caption.SetText(phaseCaption(progress.PhaseIdle))
	session := screen.NewSession(parts.submitter, req, a, a, screen.Options{
		Timing: a.cfg.Timing(),
		OnFrame: func(v progress.Fraction, p progress.Phase) {
			a.safeDo("loading.frame", func() {
				a.progressBar.SetValue(float64(v))
				a.caption.SetText(phaseCaption(p))
			})
		},
	})
	cancelID := a.setActive(session, cancel)
	a.stack = pushRoute(a.stack, reconcile.RouteLoading)
	a.show(reconcile.RouteLoading)
	logger.Info("Scan started", "session_id", sessionID, "images", req.Present(), "analyzer", a.cfg.Analyzer)

	session.Mount(ctx)
	a.safeGo("ops.session_wait", func() {
		defer a.clearActiveCancel(cancelID)
		<-session.Done()
		if err := parts.closeFn(); err != nil {
			logger.Warn("Analyzer close failed", "error", err)
		}
		if res, ok := session.Result(); ok {
			for _, se := range res.FailedSideEffects() {
				logger.Warn("Side effect failed", "name", se.Name, "error", apperrors.Detail(se.Err))
			}
		}
	})
}
