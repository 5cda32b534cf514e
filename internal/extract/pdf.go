package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/maritime-assistant/sof-extractor/constants"
	"github.com/maritime-assistant/sof-extractor/internal/common"
)

// NativeTextReader reads the embedded text layer of a PDF.
type NativeTextReader interface {
	ReadText(path string) (string, error)
}

// OCRFallback recognizes text from a scanned PDF.
type OCRFallback interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PDFExtractor tries the native text layer first, fast and exact when the
// PDF has one, and falls back to recognition for scanned or image-only
// documents. The fallback decision is an explicit branch on the native
// result, never an implicit recover.
type PDFExtractor struct {
	native NativeTextReader
	ocr    OCRFallback
	log    *slog.Logger
}

func NewPDFExtractor(native NativeTextReader, ocr OCRFallback, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{native: native, ocr: ocr, log: logger}
}

// Extract applies the fallback chain:
//  1. native extraction error + OCR enabled  -> full OCR fallback
//  2. native extraction error + OCR disabled -> PDF extraction failure
//  3. whitespace-only native text + OCR on   -> OCR fallback
//  4. whitespace-only native text + OCR off  -> empty string (the caller's
//     no-extractable-text check catches this)
//  5. otherwise                              -> native text
func (e *PDFExtractor) Extract(ctx context.Context, path string, enableOCR bool) (TextExtractionResult, error) {
	start := time.Now()

	text, nerr := e.native.ReadText(path)
	if nerr != nil {
		if !enableOCR {
			return TextExtractionResult{SourceKind: constants.PDF},
				fmt.Errorf("%w: %v", common.ErrPDFExtraction, nerr)
		}
		e.log.Warn("extract.pdf.native_failed_falling_back_to_ocr", "path", path, "error", nerr)
		return e.viaOCR(ctx, path, start)
	}

	if strings.TrimSpace(text) == "" {
		if !enableOCR {
			return newResult(constants.PDF, "", false, time.Since(start)), nil
		}
		e.log.Info("extract.pdf.no_text_layer_falling_back_to_ocr", "path", path)
		return e.viaOCR(ctx, path, start)
	}

	e.log.Info("extract.pdf.native_ok", "path", path, "chars", len(text))
	return newResult(constants.PDF, text, false, time.Since(start)), nil
}

func (e *PDFExtractor) viaOCR(ctx context.Context, path string, start time.Time) (TextExtractionResult, error) {
	text, err := e.ocr.ExtractText(ctx, path)
	if err != nil {
		return TextExtractionResult{SourceKind: constants.PDF, UsedOCR: true}, err
	}
	return newResult(constants.PDF, text, true, time.Since(start)), nil
}

// FitzReader is the go-fitz backed native text reader.
type FitzReader struct{}

// ReadText concatenates the text layer of every non-empty page, newline
// separated. A page-level extraction error fails the read; the caller
// owns the fallback decision.
func (FitzReader) ReadText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", n+1, err)
		}
		if strings.TrimSpace(pageText) != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
