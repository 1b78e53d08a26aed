package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

type fakeDownloader struct {
	failOn map[string]bool
	calls  []string
}

func (d *fakeDownloader) Download(_ context.Context, fileURL string) ([]byte, error) {
	d.calls = append(d.calls, fileURL)
	if d.failOn[fileURL] {
		return nil, fmt.Errorf("download failed: %s", fileURL)
	}
	return []byte("%PDF-stub " + fileURL), nil
}

type fakeConverter struct {
	inputs []string
}

func (c *fakeConverter) ToPDF(_ context.Context, inputPath string) (string, error) {
	c.inputs = append(c.inputs, inputPath)
	out := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
	if err := os.WriteFile(out, []byte("%PDF-converted"), 0o600); err != nil {
		return "", err
	}
	return out, nil
}

func detailWithFiles(commentID string, fileURLs ...string) *regulations.Detail {
	var formats []any
	for _, u := range fileURLs {
		formats = append(formats, map[string]any{"fileUrl": u})
	}
	body := map[string]any{
		"data": map[string]any{
			"id":         commentID,
			"attributes": map[string]any{"comment": "original text"},
		},
	}
	if len(formats) > 0 {
		body["included"] = []any{
			map[string]any{"attributes": map[string]any{"fileFormats": formats}},
		}
	}
	return &regulations.Detail{ID: commentID, Body: body}
}

func annotations(t *testing.T, d *regulations.Detail) (text, status, urls string) {
	t.Helper()
	attrs := d.Body["data"].(map[string]any)["attributes"].(map[string]any)
	text, _ = attrs[keyExtractedText].(string)
	status, _ = attrs[keyAttachmentRead].(string)
	urls, _ = attrs[keyAttachmentsURL].(string)
	return text, status, urls
}

func newTestExtractor(t *testing.T, dl Downloader, conv Converter, pages func(string, int) ([]string, error)) *Extractor {
	t.Helper()
	e := New(dl, conv, Config{PageCap: 3, TempDir: t.TempDir()}, nil)
	if pages != nil {
		e.pageTexts = pages
	}
	return e
}

func TestExtractNoAttachmentSection(t *testing.T) {
	t.Parallel()

	d := detailWithFiles("D-1-00001")
	e := newTestExtractor(t, &fakeDownloader{}, &fakeConverter{}, nil)
	e.Extract(context.Background(), []*regulations.Detail{d})

	text, status, urls := annotations(t, d)
	assert.Empty(t, text)
	assert.Equal(t, model.AttachmentNone, status)
	assert.Empty(t, urls)
}

func TestExtractConcatenatesPagesAcrossAttachments(t *testing.T) {
	t.Parallel()

	d := detailWithFiles("D-1-00001",
		"https://downloads.example.gov/a.pdf",
		"https://downloads.example.gov/b.pdf")
	dl := &fakeDownloader{}
	e := newTestExtractor(t, dl, &fakeConverter{}, func(path string, pageCap int) ([]string, error) {
		require.Equal(t, 3, pageCap)
		return []string{"page one", "page two"}, nil
	})
	e.Extract(context.Background(), []*regulations.Detail{d})

	text, status, urls := annotations(t, d)
	assert.Equal(t, model.AttachmentExtracted, status)
	assert.Equal(t, "https://downloads.example.gov/a.pdf https://downloads.example.gov/b.pdf", urls)
	assert.Equal(t, 4, strings.Count(text, "page "))
	assert.Contains(t, text, "\n \npage one")
	assert.Len(t, dl.calls, 2)
}

func TestExtractIsolatesFailingSibling(t *testing.T) {
	t.Parallel()

	d := detailWithFiles("D-1-00001",
		"https://downloads.example.gov/one.pdf",
		"https://downloads.example.gov/two.pdf",
		"https://downloads.example.gov/three.pdf")
	dl := &fakeDownloader{failOn: map[string]bool{"https://downloads.example.gov/two.pdf": true}}
	e := newTestExtractor(t, dl, &fakeConverter{}, func(path string, _ int) ([]string, error) {
		return []string{"text"}, nil
	})
	e.Extract(context.Background(), []*regulations.Detail{d})

	text, status, _ := annotations(t, d)
	// Attachments one and three still contribute text; the failure only
	// degrades the status annotation.
	assert.Equal(t, model.AttachmentFailed, status)
	assert.Equal(t, 2, strings.Count(text, "text"))
	assert.Len(t, dl.calls, 3)
}

func TestExtractConvertsWordProcessorFormats(t *testing.T) {
	t.Parallel()

	d := detailWithFiles("D-1-00001", "https://downloads.example.gov/statement.docx")
	conv := &fakeConverter{}
	e := newTestExtractor(t, &fakeDownloader{}, conv, func(path string, _ int) ([]string, error) {
		require.Equal(t, ".pdf", filepath.Ext(path))
		return []string{"converted text"}, nil
	})
	e.Extract(context.Background(), []*regulations.Detail{d})

	_, status, _ := annotations(t, d)
	assert.Equal(t, model.AttachmentExtracted, status)
	require.Len(t, conv.inputs, 1)
	assert.Equal(t, ".docx", filepath.Ext(conv.inputs[0]))
}

func TestExtractRemovesTempFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	d := detailWithFiles("D-1-00001",
		"https://downloads.example.gov/a.pdf",
		"https://downloads.example.gov/b.docx")
	e := New(&fakeDownloader{}, &fakeConverter{}, Config{PageCap: 3, TempDir: tempDir}, nil)
	e.pageTexts = func(string, int) ([]string, error) { return []string{"x"}, nil }

	e.Extract(context.Background(), []*regulations.Detail{d})

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must not accumulate")
}

func TestExtractUnreadablePDFMarksFailed(t *testing.T) {
	t.Parallel()

	d := detailWithFiles("D-1-00001", "https://downloads.example.gov/broken.pdf")
	e := newTestExtractor(t, &fakeDownloader{}, &fakeConverter{}, func(string, int) ([]string, error) {
		return nil, fmt.Errorf("malformed xref table")
	})
	e.Extract(context.Background(), []*regulations.Detail{d})

	text, status, urls := annotations(t, d)
	assert.Empty(t, text)
	assert.Equal(t, model.AttachmentFailed, status)
	assert.Equal(t, "https://downloads.example.gov/broken.pdf", urls)
}

func TestExtractIsolatesSiblingComments(t *testing.T) {
	t.Parallel()

	bad := detailWithFiles("D-1-00001", "https://downloads.example.gov/bad.pdf")
	good := detailWithFiles("D-1-00002", "https://downloads.example.gov/good.pdf")
	dl := &fakeDownloader{failOn: map[string]bool{"https://downloads.example.gov/bad.pdf": true}}
	e := newTestExtractor(t, dl, &fakeConverter{}, func(string, int) ([]string, error) {
		return []string{"fine"}, nil
	})
	e.Extract(context.Background(), []*regulations.Detail{bad, good})

	_, badStatus, _ := annotations(t, bad)
	goodText, goodStatus, _ := annotations(t, good)
	assert.Equal(t, model.AttachmentFailed, badStatus)
	assert.Equal(t, model.AttachmentExtracted, goodStatus)
	assert.Contains(t, goodText, "fine")
}
