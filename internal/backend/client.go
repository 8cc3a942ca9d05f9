// Package backend talks to the hosted backend: object storage for the scan
// photos and the edge function that runs the skin analysis.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/oukeidos/skinscan/internal/analysis"
	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/oukeidos/skinscan/internal/httpclient"
	"github.com/oukeidos/skinscan/internal/version"
)

// Config locates the backend project.
type Config struct {
	URL      string
	Key      string
	Bucket   string
	Function string
}

// Validate checks the config before any request is made. Function may be
// empty when the client only uploads photos for another analyzer.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("backend url is empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("backend url must be http or https: %s", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend url has no host: %s", c.URL)
	}
	if strings.TrimSpace(c.Key) == "" {
		return fmt.Errorf("backend key is empty")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("storage bucket is empty")
	}
	return nil
}

// AnalyzeRequest is the body sent to the analysis function.
type AnalyzeRequest struct {
	SessionID  string   `json:"sessionId"`
	ImagePaths []string `json:"imagePaths"`
}

type errorEnvelope struct {
	StatusCode any    `json:"statusCode,omitempty"`
	Error      any    `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e errorEnvelope) text() string {
	parts := make([]string, 0, 2)
	if e.Error != nil {
		parts = append(parts, fmt.Sprint(e.Error))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, ": ")
}

// Client implements submission.Uploader and submission.Analyzer.
type Client struct {
	baseURL  string
	key      string
	bucket   string
	function string

	uploadHTTP *http.Client
	invokeHTTP *http.Client
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.BadRequest(err)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		bucket:     cfg.Bucket,
		function:   cfg.Function,
		uploadHTTP: httpclient.UploadClient(),
		invokeHTTP: httpclient.InvokeClient(),
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("User-Agent", version.UserAgent())
}

// ObjectURL is the storage endpoint for objectPath.
func (c *Client) ObjectURL(objectPath string) string {
	segments := strings.Split(strings.Trim(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, url.PathEscape(c.bucket), strings.Join(segments, "/"))
}

// Upload stores one photo.
func (c *Client) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ObjectURL(objectPath), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("x-upsert", "true")

	body, resp, err := httpclient.DoAndRead(c.uploadHTTP, httpReq)
	if err != nil {
		return apperrors.New(
			apperrors.KindTransient,
			"Storage request failed due to a temporary network error.",
			fmt.Errorf("upload request failed: %w", err),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyError("storage", resp.StatusCode, resp.Status, parseErrorEnvelope(body))
	}
	slog.Debug("Storage upload accepted", "status", resp.Status, "remote_path", objectPath, "bytes", len(data))
	return nil
}

// Analyze invokes the analysis function. The request carries no client-side
// timeout; only ctx can abandon it.
func (c *Client) Analyze(ctx context.Context, sessionID string, imagePaths []string) (*analysis.Payload, error) {
	if strings.TrimSpace(c.function) == "" {
		return nil, apperrors.New(apperrors.KindBadRequest,
			"No analysis function is configured: set backend.function or use the gemini analyzer.", nil)
	}
	jsonData, err := json.Marshal(AnalyzeRequest{SessionID: sessionID, ImagePaths: imagePaths})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/functions/v1/%s", c.baseURL, url.PathEscape(c.function))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	body, resp, err := httpclient.DoAndRead(c.invokeHTTP, httpReq)
	if err != nil {
		return nil, apperrors.New(
			apperrors.KindTransient,
			"Analysis request failed due to a temporary network error.",
			fmt.Errorf("invoke request failed: %w", err),
		)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyError("function", resp.StatusCode, resp.Status, parseErrorEnvelope(body))
	}

	// A 200 carrying an error field is a function-level failure.
	if env := parseErrorEnvelope(body); env.Error != nil {
		return nil, apperrors.New(
			apperrors.KindInvocation,
			"The analysis service reported an error. Please try again.",
			fmt.Errorf("function error: %s", env.text()),
		)
	}

	payload, err := analysis.Parse(body)
	if err != nil {
		return nil, err
	}
	slog.Debug("Analysis function response", "status", resp.Status, "scan_id", payload.ScanID)
	return payload, nil
}

func parseErrorEnvelope(body []byte) errorEnvelope {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return errorEnvelope{}
	}
	return env
}

func classifyError(service string, statusCode int, status string, env errorEnvelope) error {
	cause := fmt.Errorf("%s status=%s error=%s", service, status, env.text())

	switch statusCode {
	case http.StatusTooManyRequests:
		return apperrors.New(
			apperrors.KindRateLimit,
			fmt.Sprintf("Backend %s rate limit exceeded (429): please try again later.", service),
			cause,
		)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(
			apperrors.KindAuth,
			fmt.Sprintf("Backend %s authentication failed (%d): please verify your backend key.", service, statusCode),
			cause,
		)
	case http.StatusNotFound:
		return apperrors.New(
			apperrors.KindBadRequest,
			fmt.Sprintf("Backend %s not found (404): check the bucket and function names.", service),
			cause,
		)
	case http.StatusRequestEntityTooLarge:
		return apperrors.New(
			apperrors.KindBadRequest,
			"Photo rejected as too large (413).",
			cause,
		)
	default:
		if statusCode >= 500 {
			return apperrors.New(
				apperrors.KindTransient,
				fmt.Sprintf("Backend %s error (%d): please try again later.", service, statusCode),
				cause,
			)
		}
		return apperrors.New(
			apperrors.KindBadRequest,
			fmt.Sprintf("Backend %s rejected the request (%d).", service, statusCode),
			cause,
		)
	}
}
