package events

// CandidateEvent is a timestamped operational event proposed by either the
// external event proposer or the heuristic extractor. Pointer fields
// distinguish absent from zero until normalization fills the defaults.
type CandidateEvent struct {
	EventName       string   `json:"event_name"`
	StartTimeISO    string   `json:"start_time_iso,omitempty"`
	EndTimeISO      *string  `json:"end_time_iso"`
	DurationMinutes *int     `json:"duration_minutes"`
	Page            int      `json:"page"`
	RowIndex        int      `json:"row_index"`
	Confidence      *float64 `json:"confidence"`
}

// Anomaly is reported by the event proposer and passed through unchanged.
type Anomaly struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	RowIndex *int   `json:"row_index,omitempty"`
}

// Stats summarizes one processing run.
type Stats struct {
	TotalEvents        int    `json:"total_events"`
	LowConfidenceCount int    `json:"low_confidence_count"`
	ProcessingTime     string `json:"processing_time"`
	TextLength         int    `json:"text_length"`
	Mode               string `json:"mode"`
}

// LowConfidenceThreshold is the confidence below which an event counts as
// low-confidence in Stats.
const LowConfidenceThreshold = 0.85
