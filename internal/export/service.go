package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/events"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// CSVHeader is the fixed column order of CSV (and XLSX) exports.
var CSVHeader = []string{
	"event_name", "start_time_iso", "end_time_iso",
	"duration_minutes", "page", "row_index", "confidence",
}

type jsonEnvelope struct {
	Events      []events.CandidateEvent `json:"events"`
	ExportedAt  string                  `json:"exported_at"`
	TotalEvents int                     `json:"total_events"`
}

// Service serializes a finalized event list. Unknown formats are rejected
// before any I/O happens.
type Service struct {
	log *slog.Logger
	now func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{log: logger, now: time.Now}
}

// Export renders the events in the target format and returns the bytes.
func (s *Service) Export(evs []events.CandidateEvent, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return s.exportCSV(evs)
	case FormatJSON:
		return s.exportJSON(evs)
	case FormatXLSX:
		return s.exportXLSX(evs)
	default:
		return nil, fmt.Errorf("%w: format must be one of csv, json, xlsx; got %q", common.ErrExport, format)
	}
}

// Filename builds the export file name, defaulting to a timestamped base
// when none is given.
func (s *Service) Filename(base, format string) string {
	if base == "" {
		base = "sof_events_" + s.now().UTC().Format("20060102_150405")
	}
	return base + "." + format
}

func (s *Service) exportCSV(evs []events.CandidateEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
	}
	for _, ev := range evs {
		if err := w.Write(csvRow(ev)); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
	}
	s.log.Info("export.csv.ok", "rows", len(evs), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *Service) exportJSON(evs []events.CandidateEvent) ([]byte, error) {
	env := jsonEnvelope{
		Events:      evs,
		ExportedAt:  s.now().UTC().Format(time.RFC3339),
		TotalEvents: len(evs),
	}
	if env.Events == nil {
		env.Events = []events.CandidateEvent{}
	}
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
	}
	s.log.Info("export.json.ok", "rows", len(evs), "bytes", len(b))
	return b, nil
}

func (s *Service) exportXLSX(evs []events.CandidateEvent) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Events"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExport, err)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for i, h := range CSVHeader {
		write(i+1, 1, h)
	}
	for i, ev := range evs {
		row := i + 2
		for col, v := range csvRow(ev) {
			write(col+1, row, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // event name
	_ = f.SetColWidth(sheet, "B", "C", 22) // timestamps
	_ = f.SetColWidth(sheet, "D", "G", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx write: %v", common.ErrExport, err)
	}
	s.log.Info("export.xlsx.ok", "rows", len(evs), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func csvRow(ev events.CandidateEvent) []string {
	end := ""
	if ev.EndTimeISO != nil {
		end = *ev.EndTimeISO
	}
	duration := ""
	if ev.DurationMinutes != nil {
		duration = strconv.Itoa(*ev.DurationMinutes)
	}
	confidence := ""
	if ev.Confidence != nil {
		confidence = strconv.FormatFloat(*ev.Confidence, 'g', -1, 64)
	}
	return []string{
		ev.EventName,
		ev.StartTimeISO,
		end,
		duration,
		strconv.Itoa(ev.Page),
		strconv.Itoa(ev.RowIndex),
		confidence,
	}
}
