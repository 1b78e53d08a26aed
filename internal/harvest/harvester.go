// Package harvest discovers the comment ids posted on a target date by
// paging the sorted listing endpoint and advancing a last-modified watermark
// past the API's page-depth ceiling.
package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

// probePageSize is the size of the initial request that only reads the
// API-reported total element count.
const probePageSize = 5

const watermarkLayout = "2006-01-02 15:04:05"

// Lister pages the comment listing endpoint.
type Lister interface {
	ListComments(ctx context.Context, q regulations.ListQuery) (*regulations.ListPage, error)
}

// Config bounds the harvester's pagination.
type Config struct {
	PageSize int
	MaxPages int
	Skew     time.Duration
}

// Harvester walks the listing endpoint for one date.
type Harvester struct {
	lister Lister
	apiKey string
	cfg    Config
	logger *zap.Logger
}

// New constructs a Harvester that lists with the given API key.
func New(lister Lister, apiKey string, cfg Config, logger *zap.Logger) *Harvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{lister: lister, apiKey: apiKey, cfg: cfg, logger: logger}
}

// HarvestIDs returns every comment id posted on date, deduplicated in
// first-seen order, plus the API-reported total. The listing endpoint only
// exposes PageSize*MaxPages results per filter, so after each exhausted sweep
// the trailing lastModifiedDate, rewound by the skew interval, becomes a new
// lower-bound filter and pagination restarts from page 1. A harvested count
// that falls short of the reported total is a warning, not a failure.
func (h *Harvester) HarvestIDs(ctx context.Context, date string) ([]string, int, error) {
	probe, err := h.lister.ListComments(ctx, regulations.ListQuery{
		PostedDate: date,
		PageSize:   probePageSize,
		PageNumber: 1,
		APIKey:     h.apiKey,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("probe listing for %s: %w", date, err)
	}

	total := probe.Meta.TotalElements
	if total == 0 {
		h.logger.Info("no comments posted", zap.String("date", date))
		return nil, 0, nil
	}

	ceiling := h.cfg.PageSize * h.cfg.MaxPages
	rounds := (total+ceiling-1)/ceiling + 1

	var ids []string

	trailing, _, err := h.sweep(ctx, date, "", &ids)
	if err != nil {
		return nil, 0, err
	}

	watermark := ""
	if trailing != "" {
		watermark, err = rewind(trailing, h.cfg.Skew)
		if err != nil {
			h.logger.Warn("unparseable lastModifiedDate, stopping sweeps",
				zap.String("value", trailing), zap.Error(err))
			rounds = 0
		}
	} else {
		rounds = 0
	}

	for round := 0; round < rounds; round++ {
		trailing, added, err := h.sweep(ctx, date, watermark, &ids)
		if err != nil {
			return nil, 0, err
		}
		if added == 0 || trailing == "" {
			break
		}
		next, err := rewind(trailing, h.cfg.Skew)
		if err != nil {
			h.logger.Warn("unparseable lastModifiedDate, stopping sweeps",
				zap.String("value", trailing), zap.Error(err))
			break
		}
		watermark = next
	}

	unique := dedupe(ids)
	if len(unique) != total {
		h.logger.Warn("harvest count does not match API total",
			zap.String("date", date),
			zap.Int("harvested", len(unique)),
			zap.Int("reported", total))
	} else {
		h.logger.Info("harvest complete", zap.String("date", date), zap.Int("ids", len(unique)))
	}
	return unique, total, nil
}

// sweep pages 1..MaxPages under the current watermark, appending ids to acc.
// It returns the trailing lastModifiedDate of the last non-empty page and how
// many ids the sweep added. An empty page ends the sweep early.
func (h *Harvester) sweep(ctx context.Context, date, watermark string, acc *[]string) (string, int, error) {
	trailing := ""
	added := 0
	for page := 1; page <= h.cfg.MaxPages; page++ {
		result, err := h.lister.ListComments(ctx, regulations.ListQuery{
			PostedDate:    date,
			ModifiedSince: watermark,
			PageSize:      h.cfg.PageSize,
			PageNumber:    page,
			APIKey:        h.apiKey,
		})
		if err != nil {
			return "", 0, fmt.Errorf("list page %d for %s: %w", page, date, err)
		}
		if len(result.Data) == 0 {
			break
		}
		for _, item := range result.Data {
			*acc = append(*acc, item.ID)
		}
		added += len(result.Data)
		trailing = result.Data[len(result.Data)-1].Attributes.LastModifiedDate
	}
	return trailing, added, nil
}

// rewind converts an API lastModifiedDate (RFC 3339, Z suffix) into the
// space-separated filter form, shifted back by skew to absorb the timezone
// offset between response timestamps and filter evaluation.
func rewind(lastModified string, skew time.Duration) (string, error) {
	ts, err := time.Parse(time.RFC3339, lastModified)
	if err != nil {
		return "", fmt.Errorf("parse watermark %q: %w", lastModified, err)
	}
	return ts.Add(-skew).Format(watermarkLayout), nil
}

// dedupe removes duplicate ids while preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
