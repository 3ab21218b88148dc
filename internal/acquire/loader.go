// Package acquire turns an uploaded file or a remote URL into the ordered
// page-image sequence the inference stage consumes.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"docstruct/internal/domain"
	"docstruct/internal/port"
)

// pdfMagic is the signature every PDF starts with.
var pdfMagic = []byte("%PDF")

// Loader resolves input bytes and produces page images. PDFs go through the
// rasterizer; plain images pass through as a single page.
type Loader struct {
	rasterizer port.Rasterizer
	client     *http.Client
	maxBytes   int64
}

// NewLoader creates a Loader. maxBytes caps both uploads and URL downloads.
func NewLoader(rasterizer port.Rasterizer, client *http.Client, maxBytes int64) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{rasterizer: rasterizer, client: client, maxBytes: maxBytes}
}

// FromBytes builds an InputDocument from already-loaded file content.
func (l *Loader) FromBytes(ctx context.Context, name string, data []byte) (*domain.InputDocument, error) {
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	return l.build(ctx, name, data)
}

// FromURL downloads the resource at rawURL and builds an InputDocument.
func (l *Loader) FromURL(ctx context.Context, rawURL string) (*domain.InputDocument, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid url %q", domain.ErrInputUnreachable, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInputUnreachable, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInputUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d from %s", domain.ErrInputUnreachable, resp.StatusCode, u.Host)
	}

	reader := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrInputUnreachable, err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	name := strings.TrimPrefix(u.Path, "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = u.Host
	}
	return l.build(ctx, name, data)
}

// build sniffs the content and produces the ordered page sequence.
func (l *Loader) build(ctx context.Context, name string, data []byte) (*domain.InputDocument, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	if bytes.HasPrefix(data, pdfMagic) {
		pages, err := l.rasterizer.Rasterize(ctx, data)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			return nil, domain.ErrEmptyDocument
		}
		log.Printf("acquire.Loader: %s rasterized into %d page(s)", name, len(pages))
		return &domain.InputDocument{Name: name, Pages: pages}, nil
	}

	detected := http.DetectContentType(data)
	if _, ok := domain.AllowedContentTypes[detected]; !ok || detected == "application/pdf" {
		return nil, fmt.Errorf("%w: detected %s", domain.ErrUnsupportedFormat, detected)
	}
	return &domain.InputDocument{
		Name:  name,
		Pages: []domain.PageImage{{PageNo: 1, Bytes: data, ContentType: detected}},
	}, nil
}
