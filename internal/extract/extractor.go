// Package extract downloads comment attachments, converts word-processor
// formats to PDF, and harvests text from the leading pages. Its central
// contract is partial-failure isolation: one unreadable file degrades the
// comment's annotation, never the batch.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

// Annotation keys written into the raw payload's attributes so the
// normalizer sees extraction output as ordinary fields.
const (
	keyExtractedText  = "pdf_extracted_text"
	keyAttachmentRead = "attachment_read"
	keyAttachmentsURL = "attachments_url"
)

// pageSeparator joins page texts across pages and attachments.
const pageSeparator = "\n \n"

// Downloader fetches one attachment by URL.
type Downloader interface {
	Download(ctx context.Context, fileURL string) ([]byte, error)
}

// HTTPDownloader implements Downloader over a plain HTTP client.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader builds a Downloader with the given timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{Timeout: timeout}}
}

// Download fetches fileURL and returns the body.
func (d *HTTPDownloader) Download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read side
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %d", fileURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileURL, err)
	}
	return body, nil
}

// Config bounds extraction cost.
type Config struct {
	PageCap int
	TempDir string // empty means os.TempDir()
}

// Extractor annotates raw comment details with attachment text.
type Extractor struct {
	downloader Downloader
	converter  Converter
	cfg        Config
	logger     *zap.Logger

	// seam for tests; production uses the pdf reader.
	pageTexts func(path string, pageCap int) ([]string, error)
}

// New constructs an Extractor.
func New(downloader Downloader, converter Converter, cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Extractor{
		downloader: downloader,
		converter:  converter,
		cfg:        cfg,
		logger:     logger,
		pageTexts:  pdfPageTexts,
	}
}

// Extract processes every attachment of every detail in place, writing the
// three extraction annotations into each payload's attributes. Sibling
// comments and sibling files are isolated from each other's failures.
func (e *Extractor) Extract(ctx context.Context, details []*regulations.Detail) {
	for _, detail := range details {
		e.extractComment(ctx, detail)
	}
}

func (e *Extractor) extractComment(ctx context.Context, detail *regulations.Detail) {
	fileURLs := attachmentURLs(detail.Body)
	if len(fileURLs) == 0 {
		annotate(detail.Body, "", model.AttachmentNone, "")
		return
	}

	var text strings.Builder
	failed := false
	for _, fileURL := range fileURLs {
		pages, err := e.extractFile(ctx, detail.ID, fileURL)
		if err != nil {
			failed = true
			e.logger.Warn("attachment extraction failed",
				zap.String("comment_id", detail.ID),
				zap.String("url", fileURL),
				zap.Error(err))
			continue
		}
		for _, page := range pages {
			text.WriteString(pageSeparator)
			text.WriteString(page)
		}
	}

	status := model.AttachmentExtracted
	if failed {
		status = model.AttachmentFailed
	}
	annotate(detail.Body, text.String(), status, strings.Join(fileURLs, " "))
}

// extractFile downloads one attachment, converts it to PDF if needed, and
// returns its leading page texts. All temp files are removed before return.
func (e *Extractor) extractFile(ctx context.Context, commentID, fileURL string) ([]string, error) {
	data, err := e.downloader.Download(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	ext := fileExt(fileURL)
	tmpPath := filepath.Join(e.cfg.TempDir, uuid.NewString()+ext)
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	temps := []string{tmpPath}
	defer func() {
		for _, p := range temps {
			if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
				e.logger.Warn("remove temp file", zap.String("path", p), zap.Error(rmErr))
			}
		}
	}()

	pdfPath := tmpPath
	if ext == ".doc" || ext == ".docx" {
		if e.converter == nil {
			return nil, fmt.Errorf("no converter configured for %s attachment on %s", ext, commentID)
		}
		converted, err := e.converter.ToPDF(ctx, tmpPath)
		if err != nil {
			return nil, fmt.Errorf("convert attachment for %s: %w", commentID, err)
		}
		temps = append(temps, converted)
		pdfPath = converted
	}

	pages, err := e.pageTexts(pdfPath, e.cfg.PageCap)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// attachmentURLs collects every included attachment's file URLs in order.
func attachmentURLs(body map[string]any) []string {
	included, ok := body["included"].([]any)
	if !ok {
		return nil
	}
	var urls []string
	for _, inc := range included {
		attachment, ok := inc.(map[string]any)
		if !ok {
			continue
		}
		attrs, ok := attachment["attributes"].(map[string]any)
		if !ok {
			continue
		}
		formats, ok := attrs["fileFormats"].([]any)
		if !ok {
			continue
		}
		for _, f := range formats {
			format, ok := f.(map[string]any)
			if !ok {
				continue
			}
			if fileURL, ok := format["fileUrl"].(string); ok && fileURL != "" {
				urls = append(urls, fileURL)
			}
		}
	}
	return urls
}

// annotate writes the extraction outcome into the payload's attributes,
// creating the nested maps when the API response omits them.
func annotate(body map[string]any, text, status, urls string) {
	data, ok := body["data"].(map[string]any)
	if !ok {
		data = map[string]any{}
		body["data"] = data
	}
	attrs, ok := data["attributes"].(map[string]any)
	if !ok {
		attrs = map[string]any{}
		data["attributes"] = attrs
	}
	attrs[keyExtractedText] = text
	attrs[keyAttachmentRead] = status
	attrs[keyAttachmentsURL] = urls
}

// fileExt returns the lower-cased extension of a URL's path component.
func fileExt(fileURL string) string {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return strings.ToLower(filepath.Ext(fileURL))
	}
	return strings.ToLower(filepath.Ext(parsed.Path))
}
