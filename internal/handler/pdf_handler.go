package handler

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"pdf-toolkit/internal/config"
	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"
)

var (
	pdfExtensions   = map[string]bool{".pdf": true}
	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
)

// PDFHandler exposes the PDF manipulation endpoints. Each request runs the
// same sequence: consume one quota slot atomically, delegate the processing
// call, append the attempt to the operation ledger, stream the result.
type PDFHandler struct {
	container *config.Container
}

// NewPDFHandler creates a new PDF operations handler
func NewPDFHandler(container *config.Container) *PDFHandler {
	return &PDFHandler{container: container}
}

// Merge combines two or more uploaded PDFs into one.
func (h *PDFHandler) Merge(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	inputs, err := h.readUploads(w, r, "files", pdfExtensions)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if len(inputs) < 2 {
		writeError(w, http.StatusBadRequest, "Please upload at least 2 PDF files")
		return
	}

	if err := h.container.Entitlement.Consume(r.Context(), account.ID); err != nil {
		writeAppError(w, err)
		return
	}

	out, procErr := h.container.PDF.Merge(inputs)
	h.appendLedger(r, account, domain.OperationMerge, len(inputs), procErr == nil)
	if procErr != nil {
		writeAppError(w, procErr)
		return
	}

	servePDF(w, out, fmt.Sprintf("merged_%s.pdf", timestamp()))
}

// Split returns a zip archive with one single-page PDF per page.
func (h *PDFHandler) Split(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	inputs, err := h.readUploads(w, r, "file", pdfExtensions)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if len(inputs) != 1 {
		writeError(w, http.StatusBadRequest, "Please upload a valid PDF file")
		return
	}

	if err := h.container.Entitlement.Consume(r.Context(), account.ID); err != nil {
		writeAppError(w, err)
		return
	}

	pages, procErr := h.container.PDF.SplitPages(inputs[0])
	h.appendLedger(r, account, domain.OperationSplit, len(pages), procErr == nil)
	if procErr != nil {
		writeAppError(w, procErr)
		return
	}

	archive, err := zipPages(pages)
	if err != nil {
		h.container.Logger.Error("Split archive failed", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "Failed to package split pages")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="split_%s.zip"`, timestamp()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// Compress rewrites a PDF through the optimizer.
func (h *PDFHandler) Compress(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	inputs, err := h.readUploads(w, r, "file", pdfExtensions)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if len(inputs) != 1 {
		writeError(w, http.StatusBadRequest, "Please upload a valid PDF file")
		return
	}
	quality := r.FormValue("quality")

	if err := h.container.Entitlement.Consume(r.Context(), account.ID); err != nil {
		writeAppError(w, err)
		return
	}

	out, procErr := h.container.PDF.Compress(inputs[0], quality)
	h.appendLedger(r, account, domain.OperationCompress, 1, procErr == nil)
	if procErr != nil {
		writeAppError(w, procErr)
		return
	}

	servePDF(w, out, fmt.Sprintf("compressed_%s.pdf", timestamp()))
}

// Convert builds a single PDF out of one or more uploaded images.
func (h *PDFHandler) Convert(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Account not found in context")
		return
	}

	inputs, err := h.readUploads(w, r, "files", imageExtensions)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "Please upload at least one image file")
		return
	}

	if err := h.container.Entitlement.Consume(r.Context(), account.ID); err != nil {
		writeAppError(w, err)
		return
	}

	out, procErr := h.container.PDF.ImagesToPDF(inputs)
	h.appendLedger(r, account, domain.OperationConvert, len(inputs), procErr == nil)
	if procErr != nil {
		writeAppError(w, procErr)
		return
	}

	servePDF(w, out, fmt.Sprintf("converted_%s.pdf", timestamp()))
}

// readUploads parses the multipart form and returns the raw bytes of each
// uploaded file under field, rejecting disallowed extensions. The whole
// request body is capped at the configured upload limit.
func (h *PDFHandler) readUploads(w http.ResponseWriter, r *http.Request, field string, allowed map[string]bool) ([][]byte, error) {
	maxBytes := h.container.Config.GetMaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, apperrors.NewValidationError("File upload too large or malformed")
	}

	headers := r.MultipartForm.File[field]
	inputs := make([][]byte, 0, len(headers))
	for _, header := range headers {
		if !allowedFile(header.Filename, allowed) {
			return nil, apperrors.NewValidationError("Invalid file type: " + filepath.Base(header.Filename))
		}
		data, err := readUpload(header)
		if err != nil {
			return nil, apperrors.NewValidationError("Failed to read uploaded file")
		}
		if !sniffUpload(header.Filename, data) {
			return nil, apperrors.NewValidationError("File content does not match its extension: " + filepath.Base(header.Filename))
		}
		inputs = append(inputs, data)
	}
	return inputs, nil
}

// appendLedger records the attempt. Best-effort: a ledger failure is logged,
// never surfaced to the client.
func (h *PDFHandler) appendLedger(r *http.Request, account *domain.Account, opType domain.OperationType, fileCount int, succeeded bool) {
	if fileCount < 1 {
		fileCount = 1
	}
	if _, err := h.container.Ledger.Append(r.Context(), account.ID, opType, fileCount, succeeded); err != nil {
		h.container.Logger.Error("Ledger append failed", err, "account_id", account.ID, "operation", opType)
	}
}

func allowedFile(filename string, allowed map[string]bool) bool {
	return allowed[strings.ToLower(filepath.Ext(filename))]
}

// sniffUpload checks the file's magic bytes against its claimed extension, so
// a renamed file cannot smuggle foreign content into the processor.
func sniffUpload(filename string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return bytes.HasPrefix(data, []byte("%PDF"))
	case ".png":
		return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
	case ".jpg", ".jpeg":
		return bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	default:
		return false
	}
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func servePDF(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func zipPages(pages [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, page := range pages {
		entry, err := zw.Create(fmt.Sprintf("page_%d.pdf", i+1))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(page); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}
