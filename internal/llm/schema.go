package llm

// BuildEventsEnvelopeSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map describing the events envelope the proposer must return.
// It is embedded in the prompt and used locally to check that a reply is
// an envelope at all; field-level repair belongs to the normalizer.
func BuildEventsEnvelopeSchema() map[string]any {
	eventProps := map[string]any{
		"event_name":       map[string]any{"type": "string"},
		"start_time_iso":   map[string]any{"type": []string{"string", "null"}},
		"end_time_iso":     map[string]any{"type": []string{"string", "null"}},
		"duration_minutes": map[string]any{"type": []string{"integer", "null"}},
		"page":             map[string]any{"type": "integer", "minimum": 1},
		"row_index":        map[string]any{"type": "integer", "minimum": 1},
		"confidence":       map[string]any{"type": "number", "minimum": 0, "maximum": 1},
	}

	anomalyProps := map[string]any{
		"type":      map[string]any{"type": "string"},
		"message":   map[string]any{"type": "string"},
		"row_index": map[string]any{"type": []string{"integer", "null"}},
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"events": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": eventProps,
					"required":   []string{"event_name"},
				},
			},
			"anomalies": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": anomalyProps,
					"required":   []string{"type", "message"},
				},
			},
		},
		"required": []string{"events"},
	}
}
