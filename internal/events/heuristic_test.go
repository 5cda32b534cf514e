package events

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedHeuristic(at time.Time) *HeuristicExtractor {
	h := NewHeuristicExtractor()
	h.now = func() time.Time { return at }
	return h
}

func TestHeuristicExtractMatchesMilestoneLines(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	text := strings.Join([]string{
		"Vessel arrived at berth 0630 hrs",
		"Master signed the documents",
		"Commenced loading 14:30",
	}, "\n")

	out := h.Extract(text, "UTC")

	require.Len(t, out, 2)
	assert.Equal(t, "Vessel arrived at berth 0630 hrs", out[0].EventName)
	assert.Equal(t, 1, out[0].RowIndex)
	assert.Equal(t, "Commenced loading 14:30", out[1].EventName)
	assert.Equal(t, 3, out[1].RowIndex)

	for _, ev := range out {
		assert.Equal(t, "2024-03-15T12:00:00Z", ev.StartTimeISO)
		assert.Equal(t, 1, ev.Page)
		require.NotNil(t, ev.Confidence)
		assert.Equal(t, 0.7, *ev.Confidence)
	}
}

func TestHeuristicExtractRequiresTimeOrDateToken(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := h.Extract("Vessel arrived at berth during the night", "UTC")
	assert.Empty(t, out)
}

func TestHeuristicExtractAcceptsDateToken(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := h.Extract("Pilot on board 15/03/2024", "UTC")
	require.Len(t, out, 1)
	assert.Equal(t, "Pilot on board 15/03/2024", out[0].EventName)
}

func TestHeuristicExtractCapsOutput(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	lines := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		lines = append(lines, "Arrived 0630 hrs")
	}

	out := h.Extract(strings.Join(lines, "\n"), "UTC")
	assert.Len(t, out, MaxHeuristicEvents)
}

func TestHeuristicExtractTruncatesLongNames(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	line := "Arrived 0630 hrs " + strings.Repeat("x", 200)
	out := h.Extract(line, "UTC")

	require.Len(t, out, 1)
	assert.Len(t, []rune(out[0].EventName), 100)
}

func TestHeuristicExtractSkipsBlankLines(t *testing.T) {
	h := fixedHeuristic(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := h.Extract("\n\n   \nArrived 0630\n", "UTC")
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].RowIndex)
}
