package extract

import "time"

// TextExtractionResult is the outcome of Stage 1: file -> clean text.
type TextExtractionResult struct {
	Text       string
	SourceKind string // constants.PDF | constants.DOCX
	UsedOCR    bool
	Chars      int
	Duration   time.Duration
}

func newResult(kind, text string, usedOCR bool, elapsed time.Duration) TextExtractionResult {
	return TextExtractionResult{
		Text:       text,
		SourceKind: kind,
		UsedOCR:    usedOCR,
		Chars:      len(text),
		Duration:   elapsed,
	}
}
