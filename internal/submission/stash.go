package submission

import (
	"context"
	"sync"
)

// Stash is an Uploader that keeps a copy of every uploaded object in memory,
// optionally forwarding to next. Analyzers that need the raw photos read them
// back through Image.
type Stash struct {
	next Uploader

	mu    sync.RWMutex
	blobs map[string]stashed
}

type stashed struct {
	data        []byte
	contentType string
}

// NewStash wraps next. A nil next keeps the photos local only.
func NewStash(next Uploader) *Stash {
	return &Stash{next: next, blobs: make(map[string]stashed)}
}

// Upload forwards to the wrapped uploader and records the object when that succeeds.
func (s *Stash) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if s.next != nil {
		if err := s.next.Upload(ctx, objectPath, data, contentType); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.blobs[objectPath] = stashed{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

// Image returns a stashed object.
func (s *Stash) Image(objectPath string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[objectPath]
	return b.data, b.contentType, ok
}
