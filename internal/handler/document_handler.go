package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"docstruct/internal/domain"
	"docstruct/internal/service"
)

// DocumentHandler handles document processing endpoints.
type DocumentHandler struct {
	docService     service.DocumentService
	maxUploadBytes int64
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxUploadBytes: maxUploadBytes}
}

// Process handles POST /api/v1/documents/process.
// Accepts multipart form data with either a "file" part or a "url" field,
// plus "format" (markdown | html | json).
func (h *DocumentHandler) Process(c *gin.Context) {
	format, ok := domain.ParseOutputFormat(strings.ToLower(c.PostForm("format")))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be one of: markdown, html, json")
		return
	}

	name, data, rawURL, err := h.readInput(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.docService.Process(c.Request.Context(), &service.ProcessInput{
		FileName:  name,
		FileBytes: data,
		URL:       rawURL,
		Format:    format,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"document_name": result.DocumentName,
		"format":        result.Format,
		"content":       result.Content,
		"preview_html":  result.PreviewHTML,
		"page_count":    result.PageCount,
		"log":           result.Log,
		"model_used":    result.ModelUsed,
		"artifact_key":  result.ArtifactKey,
	})
}

// ExportTables handles POST /api/v1/documents/tables.
// Accepts the same input as Process with "format" (csv | xlsx) and responds
// with the export data directly; the stored artifact's key, when one exists,
// rides along in the X-Artifact-Key header.
func (h *DocumentHandler) ExportTables(c *gin.Context) {
	format, ok := domain.ParseTableFormat(strings.ToLower(c.PostForm("format")))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be one of: csv, xlsx")
		return
	}

	name, data, rawURL, err := h.readInput(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	result, err := h.docService.ExportTables(c.Request.Context(), &service.TableExportInput{
		FileName:  name,
		FileBytes: data,
		URL:       rawURL,
		Format:    format,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == domain.TableFormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	base := strings.TrimSuffix(result.DocumentName, filepath.Ext(result.DocumentName))
	c.Header("Content-Disposition", `attachment; filename="`+base+"."+string(format)+`"`)
	if result.ArtifactKey != "" {
		c.Header("X-Artifact-Key", result.ArtifactKey)
	}
	c.Data(http.StatusOK, contentType, result.Data)
}

// artifactKeyPattern matches the date-prefixed UUID keys the service issues.
var artifactKeyPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.[a-z0-9]+$`)

// Download handles GET /api/v1/artifacts/*key.
func (h *DocumentHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !artifactKeyPattern.MatchString(key) {
		RespondError(c, http.StatusBadRequest, "INVALID_KEY", "malformed artifact key")
		return
	}

	data, contentType, err := h.docService.GetArtifact(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := key[strings.LastIndex(key, "/")+1:]
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// readInput extracts the uploaded file or the url field from the request.
func (h *DocumentHandler) readInput(c *gin.Context) (name string, data []byte, rawURL string, err error) {
	file, header, ferr := c.Request.FormFile("file")
	if ferr == nil {
		defer func() { _ = file.Close() }()
		if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
			return "", nil, "", domain.ErrFileTooLarge
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			return "", nil, "", fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
		}
		data, err = io.ReadAll(file)
		if err != nil {
			return "", nil, "", err
		}
		return header.Filename, data, "", nil
	}

	rawURL = strings.TrimSpace(c.PostForm("url"))
	if rawURL == "" {
		return "", nil, "", domain.ErrMissingInput
	}
	return "", nil, rawURL, nil
}
