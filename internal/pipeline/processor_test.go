package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maritime-assistant/sof-extractor/constants"
	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/events"
	"github.com/maritime-assistant/sof-extractor/internal/extract"
	"github.com/maritime-assistant/sof-extractor/internal/llm"
)

type stubPDF struct {
	text  string
	err   error
	calls int
}

func (s *stubPDF) Extract(_ context.Context, _ string, _ bool) (extract.TextExtractionResult, error) {
	s.calls++
	return extract.TextExtractionResult{Text: s.text, SourceKind: constants.PDF, Chars: len(s.text)}, s.err
}

type stubDocx struct {
	text  string
	calls int
}

func (s *stubDocx) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	s.calls++
	return extract.TextExtractionResult{Text: s.text, SourceKind: constants.DOCX, Chars: len(s.text)}, nil
}

type stubProposer struct {
	proposal llm.Proposal
	err      error

	calls   int
	gotText string
	gotTZ   string
}

func (s *stubProposer) Propose(_ context.Context, text, tz string) (llm.Proposal, error) {
	s.calls++
	s.gotText = text
	s.gotTZ = tz
	return s.proposal, s.err
}

type stubHeuristic struct {
	events []events.CandidateEvent
	calls  int
}

func (s *stubHeuristic) Extract(string, string) []events.CandidateEvent {
	s.calls++
	return s.events
}

func newTestProcessor(pdf *stubPDF, docx *stubDocx, proposer *stubProposer, heuristic *stubHeuristic) *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProcessor(pdf, docx, proposer, heuristic, events.NewNormalizer(logger), logger)
	p.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return p
}

func structuredProposal(evs []events.CandidateEvent, anomalies []events.Anomaly) llm.Proposal {
	return llm.Proposal{Structured: true, Events: evs, Anomalies: anomalies}
}

func TestProcessRejectsUnsupportedFormat(t *testing.T) {
	p := newTestProcessor(&stubPDF{}, &stubDocx{}, &stubProposer{}, &stubHeuristic{})

	_, err := p.Process(context.Background(), "notes.txt", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestProcessRejectsWhitespaceOnlyText(t *testing.T) {
	p := newTestProcessor(&stubPDF{text: "  \n  "}, &stubDocx{}, &stubProposer{}, &stubHeuristic{})

	_, err := p.Process(context.Background(), "scan.pdf", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoExtractableText)
}

func TestProcessAccuracyMode(t *testing.T) {
	conf := 0.95
	proposer := &stubProposer{proposal: structuredProposal(
		[]events.CandidateEvent{{
			EventName:    "Arrived at berth",
			StartTimeISO: "2024-03-15T06:30:00Z",
			Confidence:   &conf,
		}},
		[]events.Anomaly{{Type: "illegible", Message: "row 4 smudged"}},
	)}
	heuristic := &stubHeuristic{}
	p := newTestProcessor(&stubPDF{text: "Arrived at berth 0630"}, &stubDocx{}, proposer, heuristic)

	res, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, proposer.calls)
	assert.Equal(t, 0, heuristic.calls)
	assert.Equal(t, "UTC", proposer.gotTZ)

	require.Len(t, res.Events, 1)
	assert.Equal(t, "Arrived at berth", res.Events[0].EventName)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, "illegible", res.Anomalies[0].Type)

	assert.NotEmpty(t, res.ProcessingID)
	assert.Equal(t, "sof.pdf", res.Filename)
	assert.Equal(t, ModeAccuracy, res.Stats.Mode)
	assert.Equal(t, 1, res.Stats.TotalEvents)
	assert.Equal(t, 0, res.Stats.LowConfidenceCount)
	assert.Equal(t, len("Arrived at berth 0630"), res.Stats.TextLength)
	assert.Equal(t, "2024-03-15T12:00:00Z", res.Stats.ProcessingTime)
}

func TestProcessCostSavingMode(t *testing.T) {
	conf := 0.7
	proposer := &stubProposer{}
	heuristic := &stubHeuristic{events: []events.CandidateEvent{{
		EventName:    "Commenced loading 14:30",
		StartTimeISO: "2024-03-15T12:00:00Z",
		RowIndex:     3,
		Page:         1,
		Confidence:   &conf,
	}}}
	p := newTestProcessor(&stubPDF{text: "Commenced loading 14:30"}, &stubDocx{}, proposer, heuristic)

	res, err := p.Process(context.Background(), "sof.pdf", Options{Mode: ModeCostSaving})

	require.NoError(t, err)
	assert.Equal(t, 0, proposer.calls)
	assert.Equal(t, 1, heuristic.calls)
	require.Len(t, res.Events, 1)
	assert.Equal(t, ModeCostSaving, res.Stats.Mode)
	assert.Equal(t, 1, res.Stats.LowConfidenceCount)
}

func TestProcessSurfacesProposerError(t *testing.T) {
	proposer := &stubProposer{err: common.WrapError(common.ErrProposer, "service unavailable")}
	p := newTestProcessor(&stubPDF{text: "some text"}, &stubDocx{}, proposer, &stubHeuristic{})

	_, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrProposer)
}

func TestProcessFreeformReplyYieldsNoEvents(t *testing.T) {
	proposer := &stubProposer{proposal: llm.Proposal{Freeform: "no events found"}}
	p := newTestProcessor(&stubPDF{text: "some text"}, &stubDocx{}, proposer, &stubHeuristic{})

	res, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.NotNil(t, res.Anomalies)
	assert.Empty(t, res.Anomalies)
	assert.Equal(t, 0, res.Stats.TotalEvents)
}

func TestProcessDispatchesDocx(t *testing.T) {
	docx := &stubDocx{text: "Arrived at berth\t0630"}
	proposer := &stubProposer{proposal: structuredProposal(nil, nil)}
	p := newTestProcessor(&stubPDF{}, docx, proposer, &stubHeuristic{})

	res, err := p.Process(context.Background(), "sof.docx", Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, docx.calls)
	assert.Equal(t, "sof.docx", res.Filename)
	assert.Equal(t, "Arrived at berth\t0630", proposer.gotText)
}

func TestProcessLegacyDocMapsToDocx(t *testing.T) {
	docx := &stubDocx{text: "some text"}
	proposer := &stubProposer{proposal: structuredProposal(nil, nil)}
	p := newTestProcessor(&stubPDF{}, docx, proposer, &stubHeuristic{})

	_, err := p.Process(context.Background(), "sof.doc", Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, docx.calls)
}

func TestProcessTimezoneOptionReachesProposer(t *testing.T) {
	proposer := &stubProposer{proposal: structuredProposal(nil, nil)}
	p := newTestProcessor(&stubPDF{text: "text"}, &stubDocx{}, proposer, &stubHeuristic{})

	_, err := p.Process(context.Background(), "sof.pdf", Options{PortTimezone: "Asia/Singapore"})

	require.NoError(t, err)
	assert.Equal(t, "Asia/Singapore", proposer.gotTZ)
}

func TestProcessRawTextPreviewTruncated(t *testing.T) {
	long := strings.Repeat("a", 1500)
	proposer := &stubProposer{proposal: structuredProposal(nil, nil)}
	p := newTestProcessor(&stubPDF{text: long}, &stubDocx{}, proposer, &stubHeuristic{})

	res, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.NoError(t, err)
	assert.Len(t, res.RawText, 1003)
	assert.True(t, strings.HasSuffix(res.RawText, "..."))
	assert.Equal(t, 1500, res.Stats.TextLength)
}

func TestProcessShortTextKeptVerbatim(t *testing.T) {
	proposer := &stubProposer{proposal: structuredProposal(nil, nil)}
	p := newTestProcessor(&stubPDF{text: "short text"}, &stubDocx{}, proposer, &stubHeuristic{})

	res, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.NoError(t, err)
	assert.Equal(t, "short text", res.RawText)
}

func TestProcessPropagatesExtractionError(t *testing.T) {
	pdf := &stubPDF{err: errors.New("corrupt file")}
	p := newTestProcessor(pdf, &stubDocx{}, &stubProposer{}, &stubHeuristic{})

	_, err := p.Process(context.Background(), "sof.pdf", Options{})

	require.Error(t, err)
	assert.Equal(t, "corrupt file", err.Error())
}
