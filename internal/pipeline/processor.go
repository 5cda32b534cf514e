package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maritime-assistant/sof-extractor/constants"
	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/events"
	"github.com/maritime-assistant/sof-extractor/internal/extract"
	"github.com/maritime-assistant/sof-extractor/internal/llm"
)

// Processing modes. Accuracy delegates event extraction to the external
// proposer; cost-saving stays local.
const (
	ModeAccuracy   = "accuracy"
	ModeCostSaving = "cost-saving"
)

const rawTextPreviewLen = 1000

// Options for one processing call.
type Options struct {
	Mode         string
	PortTimezone string
	EnableOCR    bool
}

// Result is the sole externally visible artifact of one processing call.
type Result struct {
	ProcessingID string                  `json:"processing_id"`
	Filename     string                  `json:"filename"`
	Events       []events.CandidateEvent `json:"events"`
	Stats        events.Stats            `json:"stats"`
	Anomalies    []events.Anomaly        `json:"anomalies"`
	RawText      string                  `json:"raw_text"`
}

// PDFTextExtractor extracts text from a PDF, optionally falling back to OCR.
type PDFTextExtractor interface {
	Extract(ctx context.Context, path string, enableOCR bool) (extract.TextExtractionResult, error)
}

// DocxTextExtractor extracts text from a word-processor document.
type DocxTextExtractor interface {
	Extract(ctx context.Context, path string) (extract.TextExtractionResult, error)
}

// HeuristicExtractor extracts candidate events without an external call.
type HeuristicExtractor interface {
	Extract(text, portTimezone string) []events.CandidateEvent
}

// Processor is the pipeline entry point: it dispatches by file kind,
// selects the extraction mode, and assembles the final result. Each call
// owns its data exclusively; nothing is shared across invocations.
type Processor struct {
	pdf        PDFTextExtractor
	docx       DocxTextExtractor
	proposer   llm.EventProposer
	heuristic  HeuristicExtractor
	normalizer *events.Normalizer
	log        *slog.Logger
	now        func() time.Time
}

func NewProcessor(
	pdf PDFTextExtractor,
	docx DocxTextExtractor,
	proposer llm.EventProposer,
	heuristic HeuristicExtractor,
	normalizer *events.Normalizer,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		pdf:        pdf,
		docx:       docx,
		proposer:   proposer,
		heuristic:  heuristic,
		normalizer: normalizer,
		log:        logger,
		now:        time.Now,
	}
}

// Process runs the full pipeline for one document. It returns either a
// complete Result or a single typed failure; there is no partial-success
// shape. The input file is only read, never moved or deleted.
func (p *Processor) Process(ctx context.Context, path string, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Mode == "" {
		opts.Mode = ModeAccuracy
	}
	if opts.PortTimezone == "" {
		opts.PortTimezone = "UTC"
	}

	ext := filepath.Ext(path)
	var (
		res extract.TextExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = p.pdf.Extract(ctx, path, opts.EnableOCR)
	case constants.DOCX:
		res, err = p.docx.Extract(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	text := res.Text
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrNoExtractableText
	}
	p.log.Info("pipeline.extract.ok",
		"path", path,
		"kind", res.SourceKind,
		"used_ocr", res.UsedOCR,
		"chars", res.Chars,
	)

	var candidates []events.CandidateEvent
	anomalies := []events.Anomaly{}
	if opts.Mode == ModeAccuracy {
		proposal, perr := p.proposer.Propose(ctx, text, opts.PortTimezone)
		if perr != nil {
			return nil, perr
		}
		if proposal.Structured {
			candidates = proposal.Events
			if proposal.Anomalies != nil {
				anomalies = proposal.Anomalies
			}
		} else {
			p.log.Warn("pipeline.proposer.freeform_reply", "reply_len", len(proposal.Freeform))
		}
	} else {
		candidates = p.heuristic.Extract(text, opts.PortTimezone)
	}

	final := p.normalizer.Normalize(candidates)

	lowConf := 0
	for _, ev := range final {
		if ev.Confidence != nil && *ev.Confidence < events.LowConfidenceThreshold {
			lowConf++
		}
	}

	result := &Result{
		ProcessingID: uuid.New().String(),
		Filename:     filepath.Base(path),
		Events:       final,
		Stats: events.Stats{
			TotalEvents:        len(final),
			LowConfidenceCount: lowConf,
			ProcessingTime:     events.Canonical(p.now()),
			TextLength:         len(text),
			Mode:               opts.Mode,
		},
		Anomalies: anomalies,
		RawText:   truncatePreview(text),
	}

	p.log.Info("pipeline.process.ok",
		"processing_id", result.ProcessingID,
		"mode", opts.Mode,
		"events", len(final),
		"anomalies", len(anomalies),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// truncatePreview keeps the first 1000 characters of the extracted text,
// marking truncation so consumers know the preview is partial.
func truncatePreview(text string) string {
	r := []rune(text)
	if len(r) <= rawTextPreviewLen {
		return text
	}
	return string(r[:rawTextPreviewLen]) + "..."
}
