package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstruct/internal/domain"
	"docstruct/internal/service"
	"docstruct/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func processRouter(svc service.DocumentService, maxUpload int64) *gin.Engine {
	h := NewDocumentHandler(svc, maxUpload)
	r := gin.New()
	r.POST("/api/v1/documents/process", h.Process)
	r.POST("/api/v1/documents/tables", h.ExportTables)
	r.GET("/api/v1/artifacts/*key", h.Download)
	return r
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestProcess_Success(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.MatchedBy(func(in *service.ProcessInput) bool {
		return in.FileName == "doc.pdf" && len(in.FileBytes) > 0 && in.Format == domain.FormatMarkdown
	})).Return(&domain.ProcessResult{
		DocumentName: "doc.pdf",
		Format:       domain.FormatMarkdown,
		Content:      "# Title",
		PreviewHTML:  "<h1>Title</h1>",
		PageCount:    3,
		ModelUsed:    "smoldocling",
		ArtifactKey:  "2026/08/29/0b3e0d1a-1111-2222-3333-444455556666.md",
	}, nil)

	body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, "doc.pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "doc.pdf", data["document_name"])
	assert.Equal(t, "# Title", data["content"])
	assert.Equal(t, float64(3), data["page_count"])
	assert.Equal(t, "smoldocling", data["model_used"])
	svc.AssertExpectations(t)
}

func TestProcess_URLInput(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.MatchedBy(func(in *service.ProcessInput) bool {
		return in.URL == "https://example.com/doc.pdf" && len(in.FileBytes) == 0
	})).Return(&domain.ProcessResult{DocumentName: "doc.pdf", Format: domain.FormatHTML}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"format": "html",
		"url":    "https://example.com/doc.pdf",
	}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestProcess_InvalidFormat(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	body, contentType := multipartBody(t, map[string]string{"format": "docx"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestProcess_MissingInput(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "MISSING_INPUT", resp.Error.Code)
}

func TestProcess_RejectsUnknownExtension(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	r := processRouter(svc, 0)

	for _, name := range []string{"notes.txt", "archive.zip", "noextension"} {
		body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, name, []byte("content"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, name)
		resp := decodeResponse(t, w)
		assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Error.Code, name)
	}
	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestProcess_AcceptsAllowedExtensions(t *testing.T) {
	for _, name := range []string{"scan.PNG", "photo.jpeg", "doc.pdf"} {
		svc := new(mocks.MockDocumentService)
		svc.On("Process", mock.Anything, mock.Anything).
			Return(&domain.ProcessResult{DocumentName: name, Format: domain.FormatMarkdown}, nil)

		body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, name, []byte("content"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		processRouter(svc, 0).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, name)
	}
}

func TestProcess_UploadTooLarge(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, "big.pdf", bytes.Repeat([]byte("x"), 64))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 16).ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)
}

func TestProcess_ServiceErrorMapped(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("Process", mock.Anything, mock.Anything).
		Return(nil, domain.ErrInferenceFailed)

	body, contentType := multipartBody(t, map[string]string{"format": "markdown"}, "doc.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/process", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "INFERENCE_FAILED", resp.Error.Code)
}

func TestExportTables_Success(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("ExportTables", mock.Anything, mock.MatchedBy(func(in *service.TableExportInput) bool {
		return in.Format == domain.TableFormatCSV
	})).Return(&domain.TableExportResult{
		DocumentName: "doc.pdf",
		Format:       domain.TableFormatCSV,
		Data:         []byte("A,B\n1,2\n"),
		TableCount:   1,
		ArtifactKey:  "2026/08/29/0b3e0d1a-1111-2222-3333-444455556666.csv",
	}, nil)

	body, contentType := multipartBody(t, map[string]string{"format": "csv"}, "doc.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/tables", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A,B\n1,2\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="doc.csv"`)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "2026/08/29/0b3e0d1a-1111-2222-3333-444455556666.csv", w.Header().Get("X-Artifact-Key"))
}

func TestExportTables_ImageInputFilename(t *testing.T) {
	svc := new(mocks.MockDocumentService)
	svc.On("ExportTables", mock.Anything, mock.Anything).Return(&domain.TableExportResult{
		DocumentName: "scan.png",
		Format:       domain.TableFormatXLSX,
		Data:         []byte("workbook"),
		TableCount:   1,
	}, nil)

	body, contentType := multipartBody(t, map[string]string{"format": "xlsx"}, "scan.png", []byte("\x89PNG\r\n\x1a\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/tables", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="scan.xlsx"`)
	// No stored artifact, no key header.
	assert.Empty(t, w.Header().Get("X-Artifact-Key"))
}

func TestExportTables_InvalidFormat(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	body, contentType := multipartBody(t, map[string]string{"format": "pdf"}, "doc.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/tables", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ExportTables", mock.Anything, mock.Anything)
}

func TestDownload_Success(t *testing.T) {
	key := "2026/08/29/0b3e0d1a-1111-2222-3333-444455556666.md"
	svc := new(mocks.MockDocumentService)
	svc.On("GetArtifact", mock.Anything, key).
		Return([]byte("# rendered"), "text/markdown; charset=utf-8", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+key, nil)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# rendered", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".md")
}

func TestDownload_MalformedKey(t *testing.T) {
	svc := new(mocks.MockDocumentService)

	for _, key := range []string{
		"../../etc/passwd",
		"not-a-key.md",
		"2026/08/29/short.md",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+key, nil)
		w := httptest.NewRecorder()
		processRouter(svc, 0).ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, key)
	}
	svc.AssertNotCalled(t, "GetArtifact", mock.Anything, mock.Anything)
}

func TestDownload_NotFound(t *testing.T) {
	key := "2026/08/29/0b3e0d1a-1111-2222-3333-444455556666.md"
	svc := new(mocks.MockDocumentService)
	svc.On("GetArtifact", mock.Anything, key).Return(nil, "", domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+key, nil)
	w := httptest.NewRecorder()
	processRouter(svc, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}
