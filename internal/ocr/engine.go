package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/maritime-assistant/sof-extractor/internal/common"
)

// BBox is a token bounding box in pixel coordinates of the analyzed page.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Token is one recognized word with its confidence on a 0-100 scale.
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// Engine runs tesseract on a prepared page image. Plain recognition assumes
// a single uniform block of text (psm 6), which fits tabular SoF logs with
// recurring column structure.
type Engine struct {
	cfg    common.OCRConfig
	runner Runner
	log    *slog.Logger
}

func NewEngine(cfg common.OCRConfig, logger *slog.Logger) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, runner: execRunner{}, log: logger}
}

func (e *Engine) baseArgs(imagePath string) []string {
	args := []string{imagePath, "stdout", "-l", e.cfg.Languages}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// Recognize returns the recognized text for one page image.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := append(e.baseArgs(imagePath), "--psm", strconv.Itoa(e.cfg.PSM))
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", common.ErrOCRExtraction, err, truncate(string(errb), 512))
	}
	return strings.TrimSpace(string(out)), nil
}

// RecognizeDetailed runs tesseract in TSV mode and returns per-token
// bounding boxes and confidence scores in reading order.
func (e *Engine) RecognizeDetailed(ctx context.Context, imagePath string) ([]Token, error) {
	args := append(e.baseArgs(imagePath), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract tsv: %v: %s", common.ErrOCRExtraction, err, truncate(string(errb), 512))
	}
	return parseTSV(string(out)), nil
}

// parseTSV reads tesseract's TSV output. Columns:
// level page block par line word left top width height conf text
func parseTSV(tsv string) []Token {
	var tokens []Token
	lines := strings.Split(tsv, "\n")
	for i, ln := range lines {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue // non-word rows carry conf -1
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, _ := strconv.Atoi(cols[6])
		top, _ := strconv.Atoi(cols[7])
		width, _ := strconv.Atoi(cols[8])
		height, _ := strconv.Atoi(cols[9])
		tokens = append(tokens, Token{
			Text:       text,
			Confidence: conf,
			BBox:       BBox{X: left, Y: top, Width: width, Height: height},
		})
	}
	return tokens
}
