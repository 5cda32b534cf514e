package llm

import (
	"context"

	"github.com/maritime-assistant/sof-extractor/internal/events"
)

// EventProposer is the external collaborator that turns document text into
// candidate events and anomalies. Implementations must fail loudly when
// unreachable or misconfigured; callers do not retry.
type EventProposer interface {
	Propose(ctx context.Context, text, portTimezone string) (Proposal, error)
}

// Proposal is the typed outcome of parsing a proposer reply. Exactly one
// variant is populated: a structured events envelope, or the raw reply text
// when the model did not return one.
type Proposal struct {
	Structured bool
	Events     []events.CandidateEvent
	Anomalies  []events.Anomaly
	Freeform   string
}
