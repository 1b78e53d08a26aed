package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/notify"
	"github.com/commonsdocs/reggov-scraper/internal/notify/memory"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

type fakeHarvester struct {
	gotDate string
	ids     []string
	total   int
	err     error
}

func (h *fakeHarvester) HarvestIDs(_ context.Context, date string) ([]string, int, error) {
	h.gotDate = date
	return h.ids, h.total, h.err
}

type fakeFetcher struct {
	gotIDs  []string
	details []*regulations.Detail
	err     error
}

func (f *fakeFetcher) FetchDetails(_ context.Context, ids []string) ([]*regulations.Detail, error) {
	f.gotIDs = ids
	return f.details, f.err
}

type fakeExtractor struct {
	called int
}

func (e *fakeExtractor) Extract(_ context.Context, _ []*regulations.Detail) {
	e.called++
}

type fakeResolver struct {
	dockets   []model.DocketRecord
	documents []model.DocumentRecord
	err       error
}

func (r *fakeResolver) Dockets(_ context.Context, _ []model.CommentRecord) ([]model.DocketRecord, error) {
	return r.dockets, r.err
}

func (r *fakeResolver) Documents(_ context.Context, _ []model.CommentRecord) ([]model.DocumentRecord, error) {
	return r.documents, r.err
}

type fakeStore struct {
	nextDate   string
	nextErr    error
	commentErr error

	comments  []model.CommentRecord
	dockets   []model.DocketRecord
	documents []model.DocumentRecord
	statuses  []model.StatusRecord
}

func (s *fakeStore) InsertComments(_ context.Context, comments []model.CommentRecord) error {
	if s.commentErr != nil {
		return s.commentErr
	}
	s.comments = append(s.comments, comments...)
	return nil
}

func (s *fakeStore) UpsertDockets(_ context.Context, dockets []model.DocketRecord) error {
	s.dockets = append(s.dockets, dockets...)
	return nil
}

func (s *fakeStore) UpsertDocuments(_ context.Context, documents []model.DocumentRecord) error {
	s.documents = append(s.documents, documents...)
	return nil
}

func (s *fakeStore) InsertStatus(_ context.Context, status model.StatusRecord) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) NextDate(_ context.Context, fallback string) (string, error) {
	if s.nextErr != nil {
		return "", s.nextErr
	}
	if s.nextDate == "" {
		return fallback, nil
	}
	return s.nextDate, nil
}

func commentDetail(id, docketID, documentID, text string) *regulations.Detail {
	body := map[string]any{
		"data": map[string]any{
			"id": id,
			"attributes": map[string]any{
				"commentOnDocumentId": documentID,
				"docketId":            docketID,
				"agencyId":            "EPA",
				"comment":             text,
			},
			"links": map[string]any{
				"self": "https://api.regulations.gov/v4/comments/" + id,
			},
		},
	}
	return &regulations.Detail{ID: id, DocketID: docketID, Body: body}
}

func newTestPipeline(h Harvester, f Fetcher, e Extractor, r Resolver, s Store, n Notifier, startDate string) *Pipeline {
	p := New(h, f, e, r, s, n, startDate, zap.NewNop())
	p.now = func() time.Time {
		return time.Date(2024, 3, 2, 6, 30, 0, 0, time.UTC)
	}
	return p
}

func TestRunDateCompletes(t *testing.T) {
	harvester := &fakeHarvester{
		ids:   []string{"EPA-2024-0001-0002", "EPA-2024-0001-0003"},
		total: 2,
	}
	fetcher := &fakeFetcher{
		details: []*regulations.Detail{
			commentDetail("EPA-2024-0001-0002", "EPA-2024-0001", "EPA-2024-0001-0001", "first"),
			commentDetail("EPA-2024-0001-0003", "EPA-2024-0001", "EPA-2024-0001-0001", "second"),
		},
	}
	extractor := &fakeExtractor{}
	resolver := &fakeResolver{
		dockets:   []model.DocketRecord{{DocketID: "EPA-2024-0001"}},
		documents: []model.DocumentRecord{{DocumentID: "EPA-2024-0001-0001"}},
	}
	store := &fakeStore{}
	pub := memory.New()
	p := newTestPipeline(harvester, fetcher, extractor, resolver, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.RunDate(context.Background(), "2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, harvester.ids, fetcher.gotIDs)
	assert.Equal(t, 1, extractor.called)

	require.Len(t, store.comments, 2)
	assert.Equal(t, "EPA-2024-0001-0002", store.comments[0].CommentID)
	assert.Equal(t, "first", store.comments[0].Comment)
	require.Len(t, store.dockets, 1)
	require.Len(t, store.documents, 1)

	require.Len(t, store.statuses, 1)
	status := store.statuses[0]
	assert.Equal(t, "2024-03-01", status.DataDate)
	assert.Equal(t, "2024-03-02", status.Date)
	assert.Equal(t, "2024-03-02 06:30:00", status.ScrapeTimestamp)
	assert.Equal(t, 2, status.NumberOfComments)
	assert.Equal(t, 1, status.NumberOfDockets)
	assert.Equal(t, 1, status.NumberOfDocuments)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	summary, ok := msgs[0].Payload.(notify.RunSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Comments)
	assert.Equal(t, "2024-03-01", summary.DataDate)
}

func TestRunDateZeroCommentsWritesEmptyStatus(t *testing.T) {
	harvester := &fakeHarvester{ids: nil, total: 0}
	fetcher := &fakeFetcher{}
	store := &fakeStore{}
	pub := memory.New()
	p := newTestPipeline(harvester, fetcher, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.RunDate(context.Background(), "2024-03-01")
	require.NoError(t, err)

	assert.Nil(t, fetcher.gotIDs)
	assert.Empty(t, store.comments)

	require.Len(t, store.statuses, 1)
	status := store.statuses[0]
	assert.Equal(t, "2024-03-01", status.DataDate)
	assert.Zero(t, status.NumberOfComments)
	assert.Zero(t, status.NumberOfDockets)
	assert.Zero(t, status.NumberOfDocuments)

	require.Len(t, pub.Messages(), 1)
}

func TestRunDateShortfallRaisesAlert(t *testing.T) {
	harvester := &fakeHarvester{
		ids:   []string{"EPA-2024-0001-0002"},
		total: 5,
	}
	fetcher := &fakeFetcher{
		details: []*regulations.Detail{
			commentDetail("EPA-2024-0001-0002", "EPA-2024-0001", "EPA-2024-0001-0001", "only one"),
		},
	}
	store := &fakeStore{}
	pub := memory.New()
	p := newTestPipeline(harvester, fetcher, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.RunDate(context.Background(), "2024-03-01")
	require.NoError(t, err)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	alert, ok := msgs[0].Payload.(notify.HarvestAlert)
	require.True(t, ok)
	assert.Equal(t, 1, alert.Harvested)
	assert.Equal(t, 5, alert.Reported)

	// The run still completes and records its status.
	require.Len(t, store.statuses, 1)
}

func TestRunWalksBackwardFromLedger(t *testing.T) {
	harvester := &fakeHarvester{}
	store := &fakeStore{nextDate: "2024-02-29"}
	pub := memory.New()
	p := newTestPipeline(harvester, &fakeFetcher{}, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", harvester.gotDate)
}

func TestRunUsesFallbackOnEmptyLedger(t *testing.T) {
	harvester := &fakeHarvester{}
	store := &fakeStore{}
	pub := memory.New()
	p := newTestPipeline(harvester, &fakeFetcher{}, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", harvester.gotDate)
}

func TestHarvestErrorAborts(t *testing.T) {
	harvester := &fakeHarvester{err: errors.New("api down")}
	store := &fakeStore{}
	pub := memory.New()
	p := newTestPipeline(harvester, &fakeFetcher{}, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.RunDate(context.Background(), "2024-03-01")
	require.Error(t, err)
	assert.Empty(t, store.statuses)
	assert.Empty(t, pub.Messages())
}

func TestCommentInsertErrorSkipsStatus(t *testing.T) {
	harvester := &fakeHarvester{ids: []string{"EPA-2024-0001-0002"}, total: 1}
	fetcher := &fakeFetcher{
		details: []*regulations.Detail{
			commentDetail("EPA-2024-0001-0002", "EPA-2024-0001", "EPA-2024-0001-0001", "text"),
		},
	}
	store := &fakeStore{commentErr: errors.New("connection reset")}
	pub := memory.New()
	p := newTestPipeline(harvester, fetcher, &fakeExtractor{}, &fakeResolver{}, store, notify.New(pub, "runs", zap.NewNop()), "2024-03-01")

	err := p.RunDate(context.Background(), "2024-03-01")
	require.Error(t, err)
	assert.Empty(t, store.statuses)
	assert.Empty(t, pub.Messages())
}
