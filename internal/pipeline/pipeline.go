// Package pipeline drives one scrape run end to end, from picking the
// target date through persisting records and publishing the run summary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/metrics"
	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/normalize"
	"github.com/commonsdocs/reggov-scraper/internal/notify"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Harvester collects the comment IDs posted on a date.
type Harvester interface {
	HarvestIDs(ctx context.Context, date string) ([]string, int, error)
}

// Fetcher retrieves full comment payloads for harvested IDs.
type Fetcher interface {
	FetchDetails(ctx context.Context, ids []string) ([]*regulations.Detail, error)
}

// Extractor enriches comment payloads with attachment text in place.
type Extractor interface {
	Extract(ctx context.Context, details []*regulations.Detail)
}

// Resolver fetches docket and document metadata referenced by comments.
type Resolver interface {
	Dockets(ctx context.Context, comments []model.CommentRecord) ([]model.DocketRecord, error)
	Documents(ctx context.Context, comments []model.CommentRecord) ([]model.DocumentRecord, error)
}

// Store persists scraped records and tracks run completion.
type Store interface {
	InsertComments(ctx context.Context, comments []model.CommentRecord) error
	UpsertDockets(ctx context.Context, dockets []model.DocketRecord) error
	UpsertDocuments(ctx context.Context, documents []model.DocumentRecord) error
	InsertStatus(ctx context.Context, status model.StatusRecord) error
	NextDate(ctx context.Context, fallback string) (string, error)
}

// Notifier announces run outcomes.
type Notifier interface {
	RunCompleted(ctx context.Context, summary notify.RunSummary)
	HarvestShortfall(ctx context.Context, alert notify.HarvestAlert)
}

// Pipeline wires the scrape stages together.
type Pipeline struct {
	harvester Harvester
	fetcher   Fetcher
	extractor Extractor
	resolver  Resolver
	store     Store
	notifier  Notifier
	logger    *zap.Logger
	startDate string

	now func() time.Time
}

// New builds a Pipeline. startDate seeds the status ledger when it is empty.
func New(harvester Harvester, fetcher Fetcher, extractor Extractor, resolver Resolver, store Store, notifier Notifier, startDate string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Pipeline{
		harvester: harvester,
		fetcher:   fetcher,
		extractor: extractor,
		resolver:  resolver,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		startDate: startDate,
		now:       time.Now,
	}
}

// Run scrapes the next unprocessed date, walking backward from the oldest
// ledger entry.
func (p *Pipeline) Run(ctx context.Context) error {
	date, err := p.store.NextDate(ctx, p.startDate)
	if err != nil {
		return fmt.Errorf("pick next date: %w", err)
	}
	return p.RunDate(ctx, date)
}

// RunDate scrapes one specific date. A date with zero comments still writes
// a status row so the ledger keeps moving.
func (p *Pipeline) RunDate(ctx context.Context, date string) error {
	log := p.logger.With(zap.String("data_date", date))
	log.Info("starting scrape run")

	ids, total, err := p.harvester.HarvestIDs(ctx, date)
	if err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("harvest %s: %w", date, err)
	}

	if len(ids) == 0 {
		log.Info("no comments posted, recording empty run")
		return p.finish(ctx, date, nil, nil, nil, "empty")
	}

	if len(ids) < total {
		log.Warn("harvest fell short of reported total",
			zap.Int("harvested", len(ids)),
			zap.Int("reported", total),
		)
		metrics.ObserveShortfall()
		p.notifier.HarvestShortfall(ctx, notify.HarvestAlert{
			DataDate:  date,
			Harvested: len(ids),
			Reported:  total,
		})
	}

	details, err := p.fetcher.FetchDetails(ctx, ids)
	if err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("fetch details for %s: %w", date, err)
	}
	log.Info("fetched comment details",
		zap.Int("harvested", len(ids)),
		zap.Int("fetched", len(details)),
	)

	p.extractor.Extract(ctx, details)
	comments := normalize.Normalize(details)
	for _, c := range comments {
		metrics.ObserveExtraction(c.AttachmentRead)
	}

	dockets, err := p.resolver.Dockets(ctx, comments)
	if err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("resolve dockets for %s: %w", date, err)
	}
	documents, err := p.resolver.Documents(ctx, comments)
	if err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("resolve documents for %s: %w", date, err)
	}

	return p.finish(ctx, date, comments, dockets, documents, "completed")
}

// finish persists all records, writes the status row last, and publishes
// the run summary. The status row only lands after every record write
// succeeded, so a crashed run is retried from scratch.
func (p *Pipeline) finish(ctx context.Context, date string, comments []model.CommentRecord, dockets []model.DocketRecord, documents []model.DocumentRecord, outcome string) error {
	if err := p.store.InsertComments(ctx, comments); err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("insert comments for %s: %w", date, err)
	}
	if err := p.store.UpsertDockets(ctx, dockets); err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("upsert dockets for %s: %w", date, err)
	}
	if err := p.store.UpsertDocuments(ctx, documents); err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("upsert documents for %s: %w", date, err)
	}

	now := p.now()
	status := model.StatusRecord{
		Date:              now.Format(dateLayout),
		DataDate:          date,
		NumberOfComments:  len(comments),
		NumberOfDockets:   len(dockets),
		NumberOfDocuments: len(documents),
		ScrapeTimestamp:   now.Format(timestampLayout),
	}
	if err := p.store.InsertStatus(ctx, status); err != nil {
		metrics.ObserveRun("failed")
		return fmt.Errorf("record status for %s: %w", date, err)
	}

	metrics.ObserveIngest(len(comments), len(dockets), len(documents))
	metrics.ObserveRun(outcome)

	p.notifier.RunCompleted(ctx, notify.RunSummary{
		DataDate:  date,
		Comments:  len(comments),
		Dockets:   len(dockets),
		Documents: len(documents),
		ScrapedAt: status.ScrapeTimestamp,
	})

	p.logger.Info("scrape run finished",
		zap.String("data_date", date),
		zap.String("outcome", outcome),
		zap.Int("comments", len(comments)),
		zap.Int("dockets", len(dockets)),
		zap.Int("documents", len(documents)),
	)
	return nil
}
