package service

import (
	"bytes"
	"fmt"
	"io"

	"pdf-toolkit/internal/domain"
	apperrors "pdf-toolkit/pkg/errors"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFService is a thin wrapper over pdfcpu. Every operation is a single
// library invocation on in-memory inputs; nothing is written to disk.
type PDFService struct {
	logger domain.Logger
}

// NewPDFService creates a new PDF processing service
func NewPDFService(logger domain.Logger) *PDFService {
	return &PDFService{logger: logger}
}

// Merge combines the inputs into a single PDF, in the order given.
func (s *PDFService) Merge(inputs [][]byte) ([]byte, error) {
	if len(inputs) < 2 {
		return nil, apperrors.NewValidationError("Merge requires at least 2 PDF files")
	}

	readers := make([]io.ReadSeeker, len(inputs))
	for i, input := range inputs {
		readers[i] = bytes.NewReader(input)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, nil); err != nil {
		return nil, apperrors.NewProcessingError("Failed to merge PDFs", err)
	}
	return out.Bytes(), nil
}

// SplitPages splits the input into one single-page PDF per page.
func (s *PDFService) SplitPages(input []byte) ([][]byte, error) {
	pageCount, err := api.PageCount(bytes.NewReader(input), nil)
	if err != nil {
		return nil, apperrors.NewProcessingError("Failed to read PDF", err)
	}
	if pageCount == 0 {
		return nil, apperrors.NewValidationError("PDF has no pages")
	}

	pages := make([][]byte, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		var out bytes.Buffer
		selected := []string{fmt.Sprintf("%d", page)}
		if err := api.Trim(bytes.NewReader(input), &out, selected, nil); err != nil {
			return nil, apperrors.NewProcessingError(fmt.Sprintf("Failed to extract page %d", page), err)
		}
		pages = append(pages, out.Bytes())
	}
	return pages, nil
}

// Compress rewrites the PDF with pdfcpu's optimizer. The quality hint is
// validated but currently advisory; pdfcpu's optimization is not tunable
// per level.
func (s *PDFService) Compress(input []byte, quality string) ([]byte, error) {
	switch quality {
	case "", "low", "medium", "high":
	default:
		return nil, apperrors.NewValidationError("Quality must be one of low, medium, high")
	}

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(input), &out, nil); err != nil {
		return nil, apperrors.NewProcessingError("Failed to compress PDF", err)
	}
	return out.Bytes(), nil
}

// ImagesToPDF converts one or more PNG/JPEG images into a single PDF with
// one image per page.
func (s *PDFService) ImagesToPDF(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, apperrors.NewValidationError("Convert requires at least 1 image file")
	}

	readers := make([]io.Reader, len(images))
	for i, img := range images {
		readers[i] = bytes.NewReader(img)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, nil, nil); err != nil {
		return nil, apperrors.NewProcessingError("Failed to convert images to PDF", err)
	}
	return out.Bytes(), nil
}
