package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maritime-assistant/sof-extractor/internal/common"
	"github.com/maritime-assistant/sof-extractor/internal/llm"
)

// Propose implements llm.EventProposer against the OpenRouter
// chat/completions API. A missing key or transport failure is surfaced to
// the caller verbatim; there is no retry and no silent empty result.
func (c *Client) Propose(ctx context.Context, text, portTimezone string) (llm.Proposal, error) {
	if c.cfg.APIKey == "" {
		return llm.Proposal{}, fmt.Errorf("%w: api key not configured", common.ErrProposer)
	}

	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("proposer.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(text),
		"timezone", portTimezone,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(text, portTimezone)},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"HTTP-Referer":  "https://maritime-assistant.com",
		"X-Title":       "Maritime Assistant",
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("proposer.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Proposal{}, fmt.Errorf("%w: %v", common.ErrProposer, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("proposer.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return llm.Proposal{}, fmt.Errorf("%w: decode response: %v", common.ErrProposer, err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("proposer.extract.no_choices", "req_id", rid, "raw", string(raw))
		return llm.Proposal{}, fmt.Errorf("%w: no choices in response", common.ErrProposer)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	proposal := llm.ParseProposal(content)

	if proposal.Structured {
		// Envelope-shape check only; field repair is the normalizer's job.
		// A reply that fails here was never an events envelope, so it
		// degrades to the freeform variant instead of failing the run.
		if verr := llm.ValidateJSONAgainstSchema(llm.BuildEventsEnvelopeSchema(), []byte(llm.StripCodeFence(content))); verr != nil {
			c.logger.Warn("proposer.extract.envelope_mismatch",
				"req_id", rid, "error", verr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			proposal = llm.Proposal{Freeform: content}
		}
	}

	c.logger.Info("proposer.extract.ok",
		"req_id", rid,
		"structured", proposal.Structured,
		"events", len(proposal.Events),
		"anomalies", len(proposal.Anomalies),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return proposal, nil
}

func buildPrompt(text, portTimezone string) string {
	var b strings.Builder
	b.WriteString("You are a maritime document processing expert. Extract all events from this Statement of Facts document.\n\n")
	b.WriteString("Port Timezone: ")
	b.WriteString(portTimezone)
	b.WriteString("\n\nDocument Text:\n")
	b.WriteString(text)
	b.WriteString(`

Extract ALL events with their timestamps. Return a JSON object with this exact structure:
{
    "events": [
        {
            "event_name": "Event description",
            "start_time_iso": "2024-01-15T08:30:00Z",
            "end_time_iso": "2024-01-15T10:30:00Z or null",
            "duration_minutes": 120 or null,
            "page": 1,
            "row_index": 1,
            "confidence": 0.95
        }
    ],
    "anomalies": [
        {
            "type": "Time Gap",
            "message": "Description of anomaly",
            "row_index": 1
        }
    ]
}

Important:
- Extract ALL events, no matter how minor
- Use ISO 8601 format for timestamps
- Calculate duration_minutes if both start and end times exist
- Assign confidence scores (0.0-1.0) based on clarity
- Detect anomalies like time gaps, overlaps, or unclear entries
- Be template-agnostic - work with any SoF format`)
	return b.String()
}
