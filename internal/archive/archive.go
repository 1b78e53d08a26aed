// Package archive durably stores raw API responses in object storage, keyed
// by docket then comment id. Archival is best-effort: failures are logged and
// swallowed so they never abort ingestion.
package archive

import (
	"bytes"
	"context"
	"io"
	"path"

	"go.uber.org/zap"
)

// BlobStore persists one object and confirms it is visible before returning.
type BlobStore interface {
	PutObject(ctx context.Context, objectPath string, contentType string, r io.Reader) (string, error)
}

// Sink writes raw comment payloads under <prefix>/<docketID>/<commentID>.json.
type Sink struct {
	store  BlobStore
	prefix string
	logger *zap.Logger
}

// NewSink builds a Sink. A nil store disables archival entirely.
func NewSink(store BlobStore, prefix string, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{store: store, prefix: prefix, logger: logger}
}

// Archive stores one raw detail response. Errors are logged, never returned.
func (s *Sink) Archive(ctx context.Context, docketID, commentID string, payload []byte) {
	if s.store == nil {
		return
	}
	objectPath := path.Join(s.prefix, docketID, commentID+".json")
	uri, err := s.store.PutObject(ctx, objectPath, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("archive write failed",
			zap.String("comment_id", commentID),
			zap.String("path", objectPath),
			zap.Error(err))
		return
	}
	s.logger.Debug("archived raw response", zap.String("uri", uri))
}
