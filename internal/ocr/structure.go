package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/constants"
)

// structureConfidenceThreshold filters detailed-recognition tokens; scores
// are tesseract's 0-100 scale.
const structureConfidenceThreshold = 30

// Structure is the derived layout of one rasterized page.
type Structure struct {
	ConfidenceScores []Token `json:"confidence_scores"`
}

// Recommendation is advisory output only: presence of high-confidence
// tokens suggests model-assisted accuracy mode is worthwhile. It never
// gates processing.
type Recommendation struct {
	OCRRecommended bool   `json:"ocr_recommended"`
	ProcessingMode string `json:"processing_mode"`
}

// StructureAnalyzer derives per-token layout from the first page of a PDF.
type StructureAnalyzer struct {
	engine *Engine
	log    *slog.Logger
}

func NewStructureAnalyzer(engine *Engine, logger *slog.Logger) *StructureAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructureAnalyzer{engine: engine, log: logger}
}

// Analyze rasterizes page 1, runs detailed recognition, and keeps tokens
// above the confidence threshold in reading order. Non-PDF input is
// rejected; there is no raster path for other formats.
func (a *StructureAnalyzer) Analyze(ctx context.Context, path string) (Structure, Recommendation, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.PDF {
		return Structure{}, Recommendation{}, common.ErrStructureUnsupported
	}

	doc, err := fitz.New(path)
	if err != nil {
		return Structure{}, Recommendation{}, fmt.Errorf("%w: open pdf: %v", common.ErrOCRExtraction, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return Structure{}, Recommendation{}, fmt.Errorf("%w: document has no pages", common.ErrOCRExtraction)
	}

	img, err := doc.Image(0)
	if err != nil {
		return Structure{}, Recommendation{}, fmt.Errorf("%w: rasterize first page: %v", common.ErrOCRExtraction, err)
	}

	tmpDir, err := os.MkdirTemp("", "sof-struct-*")
	if err != nil {
		return Structure{}, Recommendation{}, fmt.Errorf("%w: temp dir: %v", common.ErrOCRExtraction, err)
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			a.log.Warn("structure.tmpdir_cleanup_failed", "dir", tmpDir, "error", rerr)
		}
	}()

	// The structure pass reads the raw raster; preprocessing is tuned for
	// plain recognition, not layout detection.
	pagePath := filepath.Join(tmpDir, "page-001.png")
	if err := writePNG(pagePath, img); err != nil {
		return Structure{}, Recommendation{}, fmt.Errorf("%w: write page image: %v", common.ErrOCRExtraction, err)
	}

	tokens, err := a.engine.RecognizeDetailed(ctx, pagePath)
	if err != nil {
		return Structure{}, Recommendation{}, err
	}

	structure := Structure{ConfidenceScores: FilterTokens(tokens, structureConfidenceThreshold)}

	rec := Recommendation{ProcessingMode: "cost-saving"}
	if len(structure.ConfidenceScores) > 0 {
		rec.OCRRecommended = true
		rec.ProcessingMode = "accuracy"
	}

	a.log.Info("structure.analyze.ok",
		"path", path,
		"tokens", len(tokens),
		"kept", len(structure.ConfidenceScores),
		"mode", rec.ProcessingMode,
	)
	return structure, rec, nil
}

// FilterTokens keeps tokens whose confidence is strictly above threshold
// and whose text is non-empty, preserving order.
func FilterTokens(tokens []Token, threshold float64) []Token {
	var kept []Token
	for _, t := range tokens {
		if t.Confidence > threshold && strings.TrimSpace(t.Text) != "" {
			kept = append(kept, t)
		}
	}
	return kept
}
