// Package submission performs one scan submission: upload the captured
// photos, invoke the remote analysis once, and report a single outcome.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/recovery"
)

// Submitter wires the remote collaborators. The state saver is optional.
type Submitter struct {
	uploader Uploader
	analyzer Analyzer
	state    StateSaver
	now      func() time.Time
}

// New returns a Submitter. state may be nil to skip recovery persistence.
func New(uploader Uploader, analyzer Analyzer, state StateSaver) *Submitter {
	return &Submitter{
		uploader: uploader,
		analyzer: analyzer,
		state:    state,
		now:      time.Now,
	}
}

// Go runs the attempt in a new goroutine and calls onSettled exactly once
// with its result, even if a collaborator panics.
func (s *Submitter) Go(ctx context.Context, req Request, onSettled func(Result)) {
	go func() {
		onSettled(s.guardedRun(ctx, req))
	}()
}

func (s *Submitter) guardedRun(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered panic", "scope", "submission", "panic", fmt.Sprint(r))
			res = Result{Outcome: Failure(apperrors.Invocation(fmt.Errorf("panic during submission: %v", r)))}
		}
	}()
	return s.Run(ctx, req)
}

// Run performs the attempt synchronously.
//
// Present images are uploaded concurrently and all uploads are awaited even
// when one fails. Any upload failure fails the attempt without invoking the
// analysis. Otherwise the analysis is invoked exactly once with the uploaded
// paths.
func (s *Submitter) Run(ctx context.Context, req Request) Result {
	log := logger.With("session_id", req.SessionID)

	if req.SessionID == "" {
		return Result{Outcome: Failure(apperrors.Input(errors.New("session id is empty")))}
	}
	if req.Present() == 0 {
		log.Warn("Submission rejected: no images captured")
		return Result{Outcome: Failure(apperrors.Input(errors.New("no images captured")))}
	}

	scannedAt := s.now().UTC()
	paths, err := s.uploadAll(ctx, req, scannedAt)
	if err != nil {
		log.Error("Upload failed", "error", apperrors.Detail(err))
		return Result{Outcome: Failure(err)}
	}
	log.Info("Uploads complete", "count", len(paths))

	res := Result{UploadedPaths: paths}
	if s.state != nil {
		res.SideEffects = append(res.SideEffects, s.saveState(req.SessionID, scannedAt, paths))
	}

	payload, err := s.analyzer.Analyze(ctx, req.SessionID, paths)
	if err == nil && payload == nil {
		err = errors.New("analysis returned no payload")
	}
	if err != nil {
		if !apperrors.HasKind(err, apperrors.KindInvocation) {
			err = apperrors.Invocation(err)
		}
		log.Error("Analysis failed", "error", apperrors.Detail(err))
		res.Outcome = Failure(err)
		return res
	}
	if payload.SessionID == "" {
		payload.SessionID = req.SessionID
	}
	log.Info("Analysis complete", "scan_id", payload.ScanID, "skin_type", payload.SkinType)
	res.Outcome = Success(payload)
	return res
}

func (s *Submitter) uploadAll(ctx context.Context, req Request, scannedAt time.Time) ([]string, error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		paths  [3]string
		failed []error
	)
	for i, img := range req.Images {
		if img == nil {
			continue
		}
		slot := Slots[i]
		g.Go(func() error {
			contentType := http.DetectContentType(img.Data)
			objectPath := ObjectPath(req.SessionID, slot, scannedAt, contentType)
			if err := s.uploader.Upload(ctx, objectPath, img.Data, contentType); err != nil {
				logger.Warn("Image upload failed", "session_id", req.SessionID, "slot", slot.String(), "file", img.Name, "error", err)
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", slot, err))
				mu.Unlock()
				return err
			}
			logger.Debug("Image uploaded", "slot", slot.String(), "remote_path", objectPath, "bytes", len(img.Data))
			mu.Lock()
			paths[i] = objectPath
			mu.Unlock()
			return nil
		})
	}
	// Group without a context: a failing upload does not cancel the others.
	if err := g.Wait(); err != nil {
		return nil, apperrors.Upload(errors.Join(failed...))
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Submitter) saveState(sessionID string, scannedAt time.Time, paths []string) SideEffect {
	se := SideEffect{Name: SideEffectRecoveryState}
	loc, err := s.state.Save(recovery.State{
		SessionID:      sessionID,
		ScanTimestamp:  scannedAt,
		ImageFileNames: paths,
	})
	if err != nil {
		se.Err = apperrors.Persistence(err)
		logger.Warn("Recovery state not saved", "session_id", sessionID, "error", err)
		return se
	}
	se.Location = loc
	return se
}

// ObjectPath is the storage path of a slot's photo:
// <session>/<slot>-<unix seconds>.<ext>.
func ObjectPath(sessionID string, slot Slot, scannedAt time.Time, contentType string) string {
	return fmt.Sprintf("%s/%s-%d%s", sessionID, slot, scannedAt.Unix(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
