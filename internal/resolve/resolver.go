// Package resolve derives the unique dockets and documents referenced by a
// batch of comments and fetches their metadata, best-effort: a failing id is
// logged and skipped, never fatal.
package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

// MetadataClient fetches docket and document metadata by id.
type MetadataClient interface {
	GetDocket(ctx context.Context, docketID, apiKey string) (*regulations.DocketDetail, error)
	GetDocument(ctx context.Context, documentID, apiKey string) (*regulations.DocumentDetail, error)
}

// Resolver fetches referenced entity metadata one id at a time.
type Resolver struct {
	client  MetadataClient
	apiKey  string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs a Resolver. delay is the fixed pause between metadata
// requests.
func New(client MetadataClient, apiKey string, delay time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Resolver{client: client, apiKey: apiKey, limiter: limiter, logger: logger}
}

// Dockets resolves metadata for every docket the comments reference. Each
// referenced id is fetched exactly once regardless of how many comments
// share it.
func (r *Resolver) Dockets(ctx context.Context, comments []model.CommentRecord) ([]model.DocketRecord, error) {
	ids := uniqueIDs(comments, func(c model.CommentRecord) string { return c.DocketID })
	dockets := make([]model.DocketRecord, 0, len(ids))

	for _, id := range ids {
		detail, err := r.client.GetDocket(ctx, id, r.apiKey)
		if err != nil {
			if ctx.Err() != nil {
				return dockets, ctx.Err()
			}
			r.logger.Warn("docket resolution failed, skipping",
				zap.String("docket_id", id), zap.Error(err))
			continue
		}
		dockets = append(dockets, projectDocket(detail))

		if err := r.limiter.Wait(ctx); err != nil {
			return dockets, err
		}
	}
	return dockets, nil
}

// Documents resolves metadata for every document the comments reference.
func (r *Resolver) Documents(ctx context.Context, comments []model.CommentRecord) ([]model.DocumentRecord, error) {
	ids := uniqueIDs(comments, func(c model.CommentRecord) string { return c.DocumentID })
	documents := make([]model.DocumentRecord, 0, len(ids))

	for _, id := range ids {
		detail, err := r.client.GetDocument(ctx, id, r.apiKey)
		if err != nil {
			if ctx.Err() != nil {
				return documents, ctx.Err()
			}
			r.logger.Warn("document resolution failed, skipping",
				zap.String("document_id", id), zap.Error(err))
			continue
		}
		documents = append(documents, projectDocument(detail))

		if err := r.limiter.Wait(ctx); err != nil {
			return documents, err
		}
	}
	return documents, nil
}

func projectDocket(d *regulations.DocketDetail) model.DocketRecord {
	attrs := d.Data.Attributes
	return model.DocketRecord{
		DocketID:      d.Data.ID,
		AgencyID:      attrs.AgencyID,
		Title:         attrs.Title,
		DocketType:    attrs.DocketType,
		Keywords:      attrs.Keywords,
		Abstract:      attrs.DkAbstract,
		Category:      attrs.Category,
		ModifyDate:    attrs.ModifyDate,
		EffectiveDate: attrs.EffectiveDate,
		Organization:  attrs.Organization,
		Program:       attrs.Program,
		RIN:           attrs.RIN,
		ObjectID:      attrs.ObjectID,
		DocketURL:     d.Data.Links.Self,
	}
}

func projectDocument(d *regulations.DocumentDetail) model.DocumentRecord {
	attrs := d.Data.Attributes
	var attachments []string
	for _, f := range attrs.FileFormats {
		if f.FileURL != "" {
			attachments = append(attachments, f.FileURL)
		}
	}
	return model.DocumentRecord{
		DocumentID:         d.Data.ID,
		OriginalDocumentID: attrs.OriginalDocumentID,
		DocumentType:       attrs.DocumentType,
		Subtype:            attrs.Subtype,
		DocketID:           attrs.DocketID,
		AgencyID:           attrs.AgencyID,
		Title:              attrs.Title,
		Abstract:           attrs.DocAbstract,
		Topics:             attrs.Topics,
		Subject:            attrs.Subject,
		CommentStartDate:   attrs.CommentStartDate,
		CommentEndDate:     attrs.CommentEndDate,
		EffectiveDate:      attrs.EffectiveDate,
		ImplementationDate: attrs.ImplementationDate,
		ModifiedDate:       attrs.ModifyDate,
		OpenForComment:     attrs.OpenForComment,
		AllowLateComments:  attrs.AllowLateComments,
		ObjectID:           attrs.ObjectID,
		Withdrawn:          attrs.Withdrawn,
		DocumentURL:        d.Data.Links.Self,
		Attachments:        attachments,
	}
}

// uniqueIDs extracts non-empty referenced ids, first-seen order preserved.
func uniqueIDs(comments []model.CommentRecord, key func(model.CommentRecord) string) []string {
	seen := make(map[string]struct{}, len(comments))
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		id := key(c)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
