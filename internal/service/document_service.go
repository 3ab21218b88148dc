package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docstruct/internal/acquire"
	"docstruct/internal/doctags"
	"docstruct/internal/domain"
	"docstruct/internal/port"
	"docstruct/internal/tableexport"
)

// ProcessInput is the DTO for one document submission. Exactly one of
// FileBytes or URL must be set.
type ProcessInput struct {
	FileName  string
	FileBytes []byte
	URL       string
	Format    domain.OutputFormat
}

// TableExportInput is the DTO for a table-only export.
type TableExportInput struct {
	FileName  string
	FileBytes []byte
	URL       string
	Format    domain.TableFormat
}

// DocumentService runs the full pipeline: acquisition, per-page inference,
// aggregation, conversion, artifact storage.
type DocumentService interface {
	Process(ctx context.Context, input *ProcessInput) (*domain.ProcessResult, error)
	ExportTables(ctx context.Context, input *TableExportInput) (*domain.TableExportResult, error)
	GetArtifact(ctx context.Context, key string) ([]byte, string, error)
}

type documentService struct {
	loader    *acquire.Loader
	model     port.PageInference
	storage   port.ObjectStorage
	prompt    string
	maxTokens int
}

// NewDocumentService creates a DocumentService implementation.
func NewDocumentService(
	loader *acquire.Loader,
	model port.PageInference,
	storage port.ObjectStorage,
	prompt string,
	maxTokens int,
) DocumentService {
	return &documentService{
		loader:    loader,
		model:     model,
		storage:   storage,
		prompt:    prompt,
		maxTokens: maxTokens,
	}
}

func (s *documentService) Process(ctx context.Context, input *ProcessInput) (*domain.ProcessResult, error) {
	doc, pages, processLog, modelUsed, err := s.runPipeline(ctx, input.FileName, input.FileBytes, input.URL)
	if err != nil {
		return nil, err
	}

	content, err := convert(doc, input.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	preview, err := previewHTML(content, input.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	key := artifactKey(input.Format.Extension())
	upload := port.UploadInput{
		Key:         key,
		Body:        strings.NewReader(content),
		ContentType: input.Format.ContentType(),
		Size:        int64(len(content)),
	}
	if err := s.storage.Upload(ctx, upload); err != nil {
		// The rendered output still reaches the caller; only the download is lost.
		log.Printf("service.DocumentService: storing artifact %s failed: %v", key, err)
		key = ""
	}

	return &domain.ProcessResult{
		DocumentName: doc.Name,
		Format:       input.Format,
		Content:      content,
		PreviewHTML:  preview,
		PageCount:    pages,
		Log:          processLog,
		ModelUsed:    modelUsed,
		ArtifactKey:  key,
	}, nil
}

func (s *documentService) ExportTables(ctx context.Context, input *TableExportInput) (*domain.TableExportResult, error) {
	doc, _, _, _, err := s.runPipeline(ctx, input.FileName, input.FileBytes, input.URL)
	if err != nil {
		return nil, err
	}

	tables := doc.Tables()
	var data []byte
	var contentType string
	switch input.Format {
	case domain.TableFormatCSV:
		data, err = tableexport.RenderCSV(tables)
		contentType = "text/csv; charset=utf-8"
	case domain.TableFormatXLSX:
		data, err = tableexport.RenderXLSX(tables)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("%w: unknown table format %q", domain.ErrConversionFailed, input.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	key := artifactKey(string(input.Format))
	upload := port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.storage.Upload(ctx, upload); err != nil {
		log.Printf("service.DocumentService: storing artifact %s failed: %v", key, err)
		key = ""
	}

	return &domain.TableExportResult{
		DocumentName: doc.Name,
		Format:       input.Format,
		Data:         data,
		TableCount:   len(tables),
		ArtifactKey:  key,
	}, nil
}

func (s *documentService) GetArtifact(ctx context.Context, key string) ([]byte, string, error) {
	return s.storage.Download(ctx, key)
}

// runPipeline performs acquisition, sequential per-page inference, and
// aggregation. Any page failure aborts the whole document.
func (s *documentService) runPipeline(ctx context.Context, fileName string, fileBytes []byte, rawURL string) (*doctags.Document, int, string, string, error) {
	input, err := s.acquireInput(ctx, fileName, fileBytes, rawURL)
	if err != nil {
		return nil, 0, "", "", err
	}

	var processLog strings.Builder
	pageTags := make([]string, 0, len(input.Pages))
	modelUsed := ""

	for i, page := range input.Pages {
		fmt.Fprintf(&processLog, "Processing page %d/%d...\n\n", i+1, len(input.Pages))
		start := time.Now()

		out, err := s.model.Infer(ctx, port.InferInput{
			ImageBytes:  page.Bytes,
			ContentType: page.ContentType,
			Prompt:      s.prompt,
			MaxTokens:   s.maxTokens,
		})
		if err != nil {
			return nil, 0, "", "", fmt.Errorf("%w: page %d: %v", domain.ErrInferenceFailed, page.PageNo, err)
		}
		if strings.TrimSpace(out.TagText) == "" {
			return nil, 0, "", "", fmt.Errorf("%w: page %d: model returned no tags", domain.ErrInferenceFailed, page.PageNo)
		}

		log.Printf("service.DocumentService: page %d/%d inferred in %s (%d tag bytes)",
			i+1, len(input.Pages), time.Since(start).Round(time.Millisecond), len(out.TagText))
		fmt.Fprintf(&processLog, "DocTags:\n\n%s\n\n", out.TagText)
		pageTags = append(pageTags, out.TagText)
		modelUsed = out.ModelUsed
	}

	aggregated := doctags.Aggregate(pageTags)
	doc := doctags.Parse(input.Name, aggregated)
	return doc, len(input.Pages), processLog.String(), modelUsed, nil
}

func (s *documentService) acquireInput(ctx context.Context, fileName string, fileBytes []byte, rawURL string) (*domain.InputDocument, error) {
	switch {
	case len(fileBytes) > 0:
		return s.loader.FromBytes(ctx, fileName, fileBytes)
	case strings.TrimSpace(rawURL) != "":
		return s.loader.FromURL(ctx, rawURL)
	default:
		return nil, domain.ErrMissingInput
	}
}

func convert(doc *doctags.Document, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.FormatMarkdown:
		return doctags.ExportMarkdown(doc), nil
	case domain.FormatHTML:
		return doctags.ExportHTML(doc)
	case domain.FormatJSON:
		return doctags.ExportJSON(doc)
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

// markdownRenderer converts Markdown output into preview HTML for the UI.
var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

func previewHTML(content string, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.FormatHTML:
		return content, nil
	case domain.FormatMarkdown:
		var buf bytes.Buffer
		if err := markdownRenderer.Convert([]byte(content), &buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", nil // JSON renders client-side
}

func artifactKey(ext string) string {
	return fmt.Sprintf("%s/%s.%s", time.Now().UTC().Format("2006/01/02"), uuid.New(), ext)
}
