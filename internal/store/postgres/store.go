// Package postgres persists scraped records with the conflict policies the
// schema demands: comments are immutable facts (insert-or-ignore), dockets
// and documents are mutable metadata (upsert), and the status ledger keeps
// the first successful attempt per date.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/normalize"
)

const dateLayout = "2006-01-02"

const insertCommentSQL = `
INSERT INTO comments (
	comment_id,
	docket_id,
	agency_id,
	title,
	comment,
	comment_pdf_extracted,
	commenter_first_name,
	commenter_last_name,
	commenter_organization,
	commenter_address1,
	commenter_address2,
	commenter_zip,
	commenter_city,
	commenter_state_province_region,
	commenter_country,
	commenter_email,
	receive_date,
	posted_date,
	postmark_date,
	duplicate_comments,
	attachment_read,
	attachment_url,
	withdrawn,
	api_url,
	full_text,
	document_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
ON CONFLICT (comment_id) DO NOTHING`

const upsertDocketSQL = `
INSERT INTO dockets (
	docket_id,
	agency_id,
	title,
	docket_type,
	keywords,
	abstract,
	category,
	modify_date,
	effective_date,
	organization,
	program,
	rin,
	object_id,
	docket_url
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (docket_id) DO UPDATE SET
	agency_id = EXCLUDED.agency_id,
	title = EXCLUDED.title,
	docket_type = EXCLUDED.docket_type,
	keywords = EXCLUDED.keywords,
	abstract = EXCLUDED.abstract,
	category = EXCLUDED.category,
	modify_date = EXCLUDED.modify_date,
	effective_date = EXCLUDED.effective_date,
	organization = EXCLUDED.organization,
	program = EXCLUDED.program,
	rin = EXCLUDED.rin,
	object_id = EXCLUDED.object_id,
	docket_url = EXCLUDED.docket_url`

const upsertDocumentSQL = `
INSERT INTO documents (
	document_id,
	original_document_id,
	document_type,
	subtype,
	docket_id,
	agency_id,
	title,
	abstract,
	topics,
	subject,
	comment_start_date,
	comment_end_date,
	effective_date,
	implementation_date,
	modified_date,
	open_for_comment,
	allow_late_comment,
	object_id,
	withdrawn,
	document_url,
	attachments
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
ON CONFLICT (document_id) DO UPDATE SET
	original_document_id = EXCLUDED.original_document_id,
	document_type = EXCLUDED.document_type,
	subtype = EXCLUDED.subtype,
	docket_id = EXCLUDED.docket_id,
	agency_id = EXCLUDED.agency_id,
	title = EXCLUDED.title,
	abstract = EXCLUDED.abstract,
	topics = EXCLUDED.topics,
	subject = EXCLUDED.subject,
	comment_start_date = EXCLUDED.comment_start_date,
	comment_end_date = EXCLUDED.comment_end_date,
	effective_date = EXCLUDED.effective_date,
	implementation_date = EXCLUDED.implementation_date,
	modified_date = EXCLUDED.modified_date,
	open_for_comment = EXCLUDED.open_for_comment,
	allow_late_comment = EXCLUDED.allow_late_comment,
	object_id = EXCLUDED.object_id,
	withdrawn = EXCLUDED.withdrawn,
	document_url = EXCLUDED.document_url,
	attachments = EXCLUDED.attachments`

const insertStatusSQL = `
INSERT INTO status (
	date,
	data_date,
	number_of_comments,
	number_of_dockets,
	scrape_timestamp,
	number_of_documents
) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (data_date) DO NOTHING`

const minDataDateSQL = `SELECT MIN(data_date) FROM status`

// Conn is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN      string
	MaxConns int32
}

// Store writes scrape output to Postgres.
type Store struct {
	conn Conn
}

// New connects a pgx pool and verifies it with a ping.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{conn: pool}, nil
}

// NewWithConn constructs a store from an existing connection (for tests).
func NewWithConn(conn Conn) (*Store, error) {
	if conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	return &Store{conn: conn}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
}

// InsertComments writes comment rows with insert-or-ignore semantics; a
// re-scrape of an already-persisted id is a no-op.
func (s *Store) InsertComments(ctx context.Context, comments []model.CommentRecord) error {
	clean := normalize.CleanString
	for _, c := range comments {
		_, err := s.conn.Exec(ctx, insertCommentSQL,
			clean(c.CommentID),
			clean(c.DocketID),
			clean(c.AgencyID),
			clean(c.Title),
			clean(c.Comment),
			clean(c.CommentPDFExtracted),
			clean(c.CommenterFirstName),
			clean(c.CommenterLastName),
			clean(c.CommenterOrg),
			clean(c.CommenterAddress1),
			clean(c.CommenterAddress2),
			clean(c.CommenterZip),
			clean(c.CommenterCity),
			clean(c.CommenterStateRegion),
			clean(c.CommenterCountry),
			clean(c.CommenterEmail),
			clean(c.ReceiveDate),
			clean(c.PostedDate),
			clean(c.PostmarkDate),
			c.DuplicateComments,
			clean(c.AttachmentRead),
			clean(c.AttachmentURL),
			c.Withdrawn,
			clean(c.APIURL),
			clean(c.FullText),
			c.DocumentID,
		)
		if err != nil {
			return fmt.Errorf("insert comment %s: %w", c.CommentID, err)
		}
	}
	return nil
}

// UpsertDockets writes docket rows, overwriting every non-key column so the
// stored row always reflects the latest fetch.
func (s *Store) UpsertDockets(ctx context.Context, dockets []model.DocketRecord) error {
	clean := normalize.CleanString
	for _, d := range dockets {
		_, err := s.conn.Exec(ctx, upsertDocketSQL,
			d.DocketID,
			d.AgencyID,
			clean(d.Title),
			clean(d.DocketType),
			d.Keywords,
			clean(d.Abstract),
			d.Category,
			d.ModifyDate,
			d.EffectiveDate,
			clean(d.Organization),
			clean(d.Program),
			d.RIN,
			d.ObjectID,
			d.DocketURL,
		)
		if err != nil {
			return fmt.Errorf("upsert docket %s: %w", d.DocketID, err)
		}
	}
	return nil
}

// UpsertDocuments writes document rows with the same overwrite policy as
// dockets.
func (s *Store) UpsertDocuments(ctx context.Context, documents []model.DocumentRecord) error {
	for _, d := range documents {
		_, err := s.conn.Exec(ctx, upsertDocumentSQL,
			d.DocumentID,
			d.OriginalDocumentID,
			d.DocumentType,
			d.Subtype,
			d.DocketID,
			d.AgencyID,
			d.Title,
			d.Abstract,
			d.Topics,
			d.Subject,
			d.CommentStartDate,
			d.CommentEndDate,
			d.EffectiveDate,
			d.ImplementationDate,
			d.ModifiedDate,
			d.OpenForComment,
			d.AllowLateComments,
			d.ObjectID,
			d.Withdrawn,
			d.DocumentURL,
			d.Attachments,
		)
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", d.DocumentID, err)
		}
	}
	return nil
}

// InsertStatus records the run's completion marker; only the first attempt
// per data date survives.
func (s *Store) InsertStatus(ctx context.Context, status model.StatusRecord) error {
	_, err := s.conn.Exec(ctx, insertStatusSQL,
		status.Date,
		status.DataDate,
		status.NumberOfComments,
		status.NumberOfDockets,
		status.ScrapeTimestamp,
		status.NumberOfDocuments,
	)
	if err != nil {
		return fmt.Errorf("insert status for %s: %w", status.DataDate, err)
	}
	return nil
}

// NextDate computes the next date to process: the earliest recorded ledger
// date minus one day. An empty ledger falls back to the configured start.
func (s *Store) NextDate(ctx context.Context, fallback string) (string, error) {
	var earliest *string
	if err := s.conn.QueryRow(ctx, minDataDateSQL).Scan(&earliest); err != nil {
		return "", fmt.Errorf("read status ledger: %w", err)
	}
	if earliest == nil || *earliest == "" {
		if fallback == "" {
			return "", fmt.Errorf("status ledger is empty and no start date is configured")
		}
		return fallback, nil
	}
	ts, err := time.Parse(dateLayout, *earliest)
	if err != nil {
		return "", fmt.Errorf("parse ledger date %q: %w", *earliest, err)
	}
	return ts.AddDate(0, 0, -1).Format(dateLayout), nil
}
