package llm

import (
	"encoding/json"
	"strings"

	"github.com/maritime-assistant/sof-extractor/internal/events"
)

type envelope struct {
	Events    []events.CandidateEvent `json:"events"`
	Anomalies []events.Anomaly        `json:"anomalies"`
}

// ParseProposal is a best-effort typed parse of a model reply. A reply that
// decodes as an events envelope becomes the structured variant; anything
// else is kept verbatim as freeform text. Markdown code fences around the
// JSON are unwrapped first.
func ParseProposal(content string) Proposal {
	body := StripCodeFence(content)

	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return Proposal{Freeform: content}
	}
	return Proposal{
		Structured: true,
		Events:     env.Events,
		Anomalies:  env.Anomalies,
	}
}

// StripCodeFence unwraps a reply wrapped in a markdown code fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
