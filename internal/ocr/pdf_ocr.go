package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/maritime-assistant/sof-extractor/internal/common"
)

// PDFOCR extracts text from scanned PDFs: every page is rasterized,
// preprocessed and recognized, and page texts are joined with explicit
// "--- Page N ---" markers so the result stays traceable to source pages.
// The markers reach the event proposer as part of the document text, so the
// joined format is part of the contract.
type PDFOCR struct {
	cfg    common.OCRConfig
	engine *Engine
	log    *slog.Logger
}

func NewPDFOCR(cfg common.OCRConfig, engine *Engine, logger *slog.Logger) *PDFOCR {
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFOCR{cfg: cfg, engine: engine, log: logger}
}

// ExtractText OCRs the whole document. A failed page fails the document;
// there is no skip-and-continue. Rasterized page images live in a
// call-scoped temp dir removed on every exit path.
func (p *PDFOCR) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	start := time.Now()

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", common.ErrOCRExtraction, err)
	}
	defer doc.Close()

	tmpDir, err := os.MkdirTemp("", "sof-ocr-*")
	if err != nil {
		return "", fmt.Errorf("%w: temp dir: %v", common.ErrOCRExtraction, err)
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			p.log.Warn("ocr.tmpdir_cleanup_failed", "dir", tmpDir, "error", rerr)
		}
	}()

	numPages := doc.NumPage()
	var b strings.Builder
	for n := 0; n < numPages; n++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrOCRExtraction, err)
		}

		img, err := doc.ImageDPI(n, float64(p.cfg.DPI))
		if err != nil {
			return "", fmt.Errorf("%w: rasterize page %d: %v", common.ErrOCRExtraction, n+1, err)
		}

		pagePath := filepath.Join(tmpDir, fmt.Sprintf("page-%03d.png", n+1))
		if err := writePNG(pagePath, Preprocess(img)); err != nil {
			return "", fmt.Errorf("%w: write page %d image: %v", common.ErrOCRExtraction, n+1, err)
		}

		text, err := p.engine.Recognize(ctx, pagePath)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n+1, err)
		}

		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", n+1, text)
	}

	p.log.Info("ocr.pdf.ok",
		"path", pdfPath,
		"pages", numPages,
		"bytes", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(b.String()), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
