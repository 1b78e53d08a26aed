// Package fetch retrieves full comment detail records across a rotated pool
// of API keys, archiving each raw response as it arrives.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

// CommentGetter fetches one comment's detail record.
type CommentGetter interface {
	GetComment(ctx context.Context, commentID, apiKey string) (*regulations.Detail, error)
}

// Archiver stores one raw detail response, best-effort.
type Archiver interface {
	Archive(ctx context.Context, docketID, commentID string, payload []byte)
}

// Fetcher walks an id list sequentially, one credential block at a time.
type Fetcher struct {
	getter  CommentGetter
	rotator *regulations.Rotator
	sink    Archiver
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs a Fetcher. delay is the fixed pause between consecutive
// detail requests.
func New(getter CommentGetter, rotator *regulations.Rotator, sink Archiver, delay time.Duration, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Fetcher{
		getter:  getter,
		rotator: rotator,
		sink:    sink,
		limiter: limiter,
		logger:  logger,
	}
}

// FetchDetails fetches each id in order, archiving every raw response. A
// request failure abandons the remainder of the current credential block
// rather than the whole run, so the result can be a subset of the requested
// ids; callers reconcile against the input set. Only context cancellation is
// returned as an error.
func (f *Fetcher) FetchDetails(ctx context.Context, ids []string) ([]*regulations.Detail, error) {
	details := make([]*regulations.Detail, 0, len(ids))
	block := f.rotator.BlockSize()

	for start := 0; start < len(ids); start += block {
		end := start + block
		if end > len(ids) {
			end = len(ids)
		}
		key := f.rotator.KeyFor(start)

		for n := start; n < end; n++ {
			detail, err := f.getter.GetComment(ctx, ids[n], key)
			if err != nil {
				if ctx.Err() != nil {
					return details, ctx.Err()
				}
				f.logger.Warn("detail fetch failed, abandoning credential block",
					zap.String("comment_id", ids[n]),
					zap.Int("block_start", start),
					zap.Error(err))
				break
			}
			details = append(details, detail)
			f.sink.Archive(ctx, detail.DocketID, detail.ID, detail.Raw)

			if err := f.limiter.Wait(ctx); err != nil {
				return details, err
			}
		}
	}

	if len(details) < len(ids) {
		f.logger.Warn("detail fetch incomplete",
			zap.Int("requested", len(ids)),
			zap.Int("fetched", len(details)))
	}
	return details, nil
}
