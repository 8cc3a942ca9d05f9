package mockbackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/backend"
	"github.com/oukeidos/skinscan/internal/submission"
)

const sessionID = "0192f0c4-6a4e-7b7c-9d3e-0a1b2c3d4e5f"

var png = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}

func startServer(t *testing.T, opts Options) (*Server, *backend.Client) {
	t.Helper()
	srv := New(opts)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	c, err := backend.NewClient(backend.Config{URL: ts.URL, Key: "local-key", Bucket: "scans", Function: "analyze-skin"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return srv, c
}

func fullRequest() submission.Request {
	return submission.Request{
		SessionID: sessionID,
		Images: [3]*submission.Image{
			{Name: "front.png", Data: png},
			{Name: "left.png", Data: png},
			{Name: "right.png", Data: png},
		},
	}
}

func TestSubmissionAgainstMock(t *testing.T) {
	srv, c := startServer(t, Options{Key: "local-key"})

	res := submission.New(c, c, nil).Run(context.Background(), fullRequest())
	if !res.Outcome.OK() {
		t.Fatalf("submission failed: %v", apperrors.Detail(res.Outcome.Err))
	}
	if got := len(srv.Objects()); got != 3 {
		t.Fatalf("stored %d objects, want 3: %v", got, srv.Objects())
	}
	for _, key := range srv.Objects() {
		if !strings.HasPrefix(key, "scans/"+sessionID+"/") || !strings.HasSuffix(key, ".png") {
			t.Errorf("unexpected object key %q", key)
		}
	}
	if srv.Invocations() != 1 {
		t.Fatalf("invocations = %d, want 1", srv.Invocations())
	}
	if res.Outcome.Payload.ScanID != "mock-"+sessionID {
		t.Fatalf("payload = %+v", res.Outcome.Payload)
	}
}

func TestInjectedUploadFailure(t *testing.T) {
	srv, c := startServer(t, Options{FailUploadsMatching: "left-"})

	res := submission.New(c, c, nil).Run(context.Background(), fullRequest())
	if !apperrors.HasKind(res.Outcome.Err, apperrors.KindUpload) {
		t.Fatalf("err = %v, want upload failure", res.Outcome.Err)
	}
	if srv.Invocations() != 0 {
		t.Fatalf("function invoked after upload failure")
	}
	if got := len(srv.Objects()); got != 2 {
		t.Fatalf("other uploads should still land, got %v", srv.Objects())
	}
}

func TestInjectedAnalysisFailures(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		kind apperrors.Kind
	}{
		{"status 500", Options{AnalysisStatus: http.StatusInternalServerError}, apperrors.KindInvocation},
		{"error payload", Options{AnalysisError: "no face detected"}, apperrors.KindInvocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, c := startServer(t, tc.opts)
			res := submission.New(c, c, nil).Run(context.Background(), fullRequest())
			if res.Outcome.OK() {
				t.Fatal("expected failure")
			}
			if kind, _ := apperrors.KindOf(res.Outcome.Err); kind != tc.kind {
				t.Fatalf("kind = %q, want %q", kind, tc.kind)
			}
		})
	}
}

func TestRequireKey(t *testing.T) {
	_, c := startServer(t, Options{Key: "other-key"})
	err := c.Upload(context.Background(), sessionID+"/front-1.png", png, "image/png")
	if !apperrors.HasKind(err, apperrors.KindAuth) {
		t.Fatalf("err = %v, want auth", err)
	}
}

func TestAnalysisLatencyHonoursContext(t *testing.T) {
	_, c := startServer(t, Options{AnalysisLatency: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := c.Analyze(ctx, sessionID, []string{"x"}); err == nil {
		t.Fatal("expected error after cancel")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("cancel not honoured")
	}
}

func TestFabricateIsSchemaValid(t *testing.T) {
	p := Fabricate(sessionID, 3)
	data, err := jsonBytes(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := analysis.Parse(data); err != nil {
		t.Fatalf("fabricated payload rejected: %v", err)
	}
	if again := Fabricate(sessionID, 3); again.SkinType != p.SkinType {
		t.Fatalf("fabricate is not stable")
	}
}

func jsonBytes(v any) ([]byte, error) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, v)
	return rec.Body.Bytes(), nil
}
