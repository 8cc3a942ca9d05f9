package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// UploadTimeout bounds a single storage upload. Photos are a few MB at most.
	UploadTimeout = 2 * time.Minute
	// MaxResponseBytes caps HTTP response bodies; analysis payloads are small JSON.
	MaxResponseBytes = 4 * 1024 * 1024

	MaxIdleConns          = 50
	MaxIdleConnsPerHost   = 10
	IdleConnTimeout       = 90 * time.Second
	TLSHandshakeTimeout   = 30 * time.Second
	ExpectContinueTimeout = 2 * time.Second
)

var (
	uploadOnce     sync.Once
	uploadClient   *http.Client
	invokeOnce     sync.Once
	invokeClient   *http.Client
	overrideClient *http.Client
)

// NewClient returns an http.Client sharing the tuned transport settings.
// A zero timeout means the request is bounded only by its context.
func NewClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          MaxIdleConns,
		MaxIdleConnsPerHost:   MaxIdleConnsPerHost,
		IdleConnTimeout:       IdleConnTimeout,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// UploadClient is used for storage uploads.
func UploadClient() *http.Client {
	if overrideClient != nil {
		return overrideClient
	}
	uploadOnce.Do(func() {
		uploadClient = NewClient(UploadTimeout)
	})
	return uploadClient
}

// InvokeClient is used for the analysis function call. It carries no
// client-side timeout: the analysis may take arbitrarily long and the caller
// decides when to give up through its context.
func InvokeClient() *http.Client {
	if overrideClient != nil {
		return overrideClient
	}
	invokeOnce.Do(func() {
		invokeClient = NewClient(0)
	})
	return invokeClient
}

// SetClientForTesting overrides both clients. It returns a restore function.
func SetClientForTesting(client *http.Client) func() {
	prev := overrideClient
	overrideClient = client
	return func() {
		overrideClient = prev
	}
}

// DoAndRead performs req, reads at most MaxResponseBytes of the body and always
// closes it.
func DoAndRead(client *http.Client, req *http.Request) ([]byte, *http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxResponseBytes {
		return nil, resp, fmt.Errorf("response body too large (limit %d bytes)", MaxResponseBytes)
	}

	limited := &io.LimitedReader{R: resp.Body, N: MaxResponseBytes + 1}
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseBytes {
		return nil, resp, fmt.Errorf("response body too large (limit %d bytes)", MaxResponseBytes)
	}
	return body, resp, nil
}
