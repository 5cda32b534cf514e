package events

import (
	"log/slog"
	"time"
)

const (
	defaultConfidence = 0.8
	defaultPage       = 1
)

// Normalizer validates and repairs candidate events before they are
// considered final. It repairs fields record by record and never fails a
// batch: a malformed timestamp degrades that field, not the run.
type Normalizer struct {
	log *slog.Logger
	now func() time.Time
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{log: logger, now: time.Now}
}

// Normalize returns the validated sequence, preserving input order among
// surviving records. Records without an event name are dropped. An
// unparseable start time is replaced with the current processing time; an
// unparseable end time becomes absent. duration_minutes is recomputed from
// scratch and set only when both ends parse and the delta is positive.
func (n *Normalizer) Normalize(in []CandidateEvent) []CandidateEvent {
	out := make([]CandidateEvent, 0, len(in))

	for _, ev := range in {
		if ev.EventName == "" {
			continue
		}

		startRaw := ev.StartTimeISO
		if startRaw != "" {
			if t, err := ParseTimestamp(startRaw); err == nil {
				ev.StartTimeISO = Canonical(t)
			} else {
				ev.StartTimeISO = Canonical(n.now())
				n.log.Warn("normalize.start_time_substituted",
					"event_name", ev.EventName,
					"raw_start", startRaw,
				)
			}
		}

		ev.DurationMinutes = nil
		if ev.EndTimeISO != nil && *ev.EndTimeISO != "" {
			if end, err := ParseTimestamp(*ev.EndTimeISO); err == nil {
				iso := Canonical(end)
				ev.EndTimeISO = &iso
				if startRaw != "" {
					// Duration is computed against the originally supplied
					// start; if that never parsed, the end is discarded too
					// rather than paired with a substituted start.
					if start, serr := ParseTimestamp(startRaw); serr == nil {
						if d := end.Sub(start); d > 0 {
							mins := int(d.Minutes())
							ev.DurationMinutes = &mins
						}
					} else {
						ev.EndTimeISO = nil
					}
				}
			} else {
				ev.EndTimeISO = nil
			}
		} else {
			ev.EndTimeISO = nil
		}

		if ev.Confidence == nil {
			c := defaultConfidence
			ev.Confidence = &c
		}
		if ev.Page == 0 {
			ev.Page = defaultPage
		}
		if ev.RowIndex == 0 {
			ev.RowIndex = len(out) + 1
		}

		out = append(out, ev)
	}

	return out
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-ish instant. Offsets and a trailing Z
// are honored; naive timestamps are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			} else {
				lastErr = err
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// Canonical renders an instant as a UTC RFC 3339 string.
func Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
