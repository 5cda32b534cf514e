package events

import (
	"regexp"
	"strings"
	"time"
)

const (
	// MaxHeuristicEvents caps heuristic output per document.
	MaxHeuristicEvents = 20

	heuristicConfidence = 0.7
	maxEventNameLen     = 100
)

// Maritime milestone keywords. A line qualifies when any pattern matches
// its lowercased text and a clock-time or date token is also present.
var eventPatterns = []*regexp.Regexp{
	regexp.MustCompile(`arrived|arrival|berthed|anchored`),
	regexp.MustCompile(`commenced|started|began`),
	regexp.MustCompile(`completed|finished|ended`),
	regexp.MustCompile(`sailed|departed|left`),
	regexp.MustCompile(`loading|discharging|cargo`),
	regexp.MustCompile(`notice.*readiness|nor|n\.o\.r`),
	regexp.MustCompile(`pilot|tug|mooring`),
	regexp.MustCompile(`weather|delay|waiting`),
}

var (
	reClockTime = regexp.MustCompile(`(\d{1,2}[:.]?\d{2})\s*(hrs?|hours?)?`)
	reDateToken = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
)

// HeuristicExtractor produces candidate events from raw text with no
// external model call. It trades recall and timestamp accuracy for zero
// service cost: matched lines get a processing-time start stamp and a
// fixed confidence.
type HeuristicExtractor struct {
	now func() time.Time
}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{now: time.Now}
}

// Extract scans text line by line and returns at most MaxHeuristicEvents
// candidates. row_index is the 1-based line number of the matched line;
// non-matching lines leave gaps rather than renumbering.
//
// portTimezone is accepted for interface parity with the external proposer
// but is not applied to the default start stamps, which are processing-time
// UTC. That mirrors the long-standing behavior callers see today.
func (h *HeuristicExtractor) Extract(text, portTimezone string) []CandidateEvent {
	_ = portTimezone

	var out []CandidateEvent
	stamp := Canonical(h.now())

	for i, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		if lower == "" {
			continue
		}

		for _, pat := range eventPatterns {
			if !pat.MatchString(lower) {
				continue
			}
			if reClockTime.MatchString(line) || reDateToken.MatchString(line) {
				conf := heuristicConfidence
				out = append(out, CandidateEvent{
					EventName:    truncateRunes(strings.TrimSpace(line), maxEventNameLen),
					StartTimeISO: stamp,
					Page:         1,
					RowIndex:     i + 1,
					Confidence:   &conf,
				})
			}
			break
		}

		if len(out) == MaxHeuristicEvents {
			break
		}
	}

	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
