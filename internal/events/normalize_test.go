package events

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNormalizer(at time.Time) *Normalizer {
	n := NewNormalizer(silentLogger())
	n.now = func() time.Time { return at }
	return n
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }

func TestNormalizeDropsNamelessRecords(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{
		{EventName: ""},
		{EventName: "Arrived at berth"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Arrived at berth", out[0].EventName)
}

func TestNormalizeCanonicalizesStartTime(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{
		{EventName: "a", StartTimeISO: "2024-03-15 06:30:00"},
		{EventName: "b", StartTimeISO: "2024-03-15T08:30:00+02:00"},
		{EventName: "c", StartTimeISO: "2024-03-15"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, "2024-03-15T06:30:00Z", out[0].StartTimeISO)
	assert.Equal(t, "2024-03-15T06:30:00Z", out[1].StartTimeISO)
	assert.Equal(t, "2024-03-15T00:00:00Z", out[2].StartTimeISO)
}

func TestNormalizeSubstitutesUnparseableStart(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	n := fixedNormalizer(now)

	out := n.Normalize([]CandidateEvent{
		{EventName: "a", StartTimeISO: "yesterday morning"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "2024-03-15T12:00:00Z", out[0].StartTimeISO)
}

func TestNormalizeAbsentStartStaysAbsent(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{EventName: "a"}})

	require.Len(t, out, 1)
	assert.Empty(t, out[0].StartTimeISO)
}

func TestNormalizeComputesDuration(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:    "Loading",
		StartTimeISO: "2024-03-15T06:00:00Z",
		EndTimeISO:   strPtr("2024-03-15T07:30:00Z"),
	}})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].EndTimeISO)
	assert.Equal(t, "2024-03-15T07:30:00Z", *out[0].EndTimeISO)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 90, *out[0].DurationMinutes)
}

func TestNormalizeDurationZeroForSubMinuteDelta(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:    "a",
		StartTimeISO: "2024-03-15T06:00:00Z",
		EndTimeISO:   strPtr("2024-03-15T06:00:30Z"),
	}})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 0, *out[0].DurationMinutes)
}

func TestNormalizeNoDurationWhenEndPrecedesStart(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:    "a",
		StartTimeISO: "2024-03-15T08:00:00Z",
		EndTimeISO:   strPtr("2024-03-15T07:00:00Z"),
	}})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].EndTimeISO)
	assert.Nil(t, out[0].DurationMinutes)
}

func TestNormalizeDropsUnparseableEnd(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:    "a",
		StartTimeISO: "2024-03-15T06:00:00Z",
		EndTimeISO:   strPtr("late afternoon"),
	}})

	require.Len(t, out, 1)
	assert.Nil(t, out[0].EndTimeISO)
	assert.Nil(t, out[0].DurationMinutes)
}

func TestNormalizeDropsEndWhenStartWasSubstituted(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:    "a",
		StartTimeISO: "not a timestamp",
		EndTimeISO:   strPtr("2024-03-15T07:00:00Z"),
	}})

	require.Len(t, out, 1)
	assert.Equal(t, "2024-03-15T12:00:00Z", out[0].StartTimeISO)
	assert.Nil(t, out[0].EndTimeISO)
	assert.Nil(t, out[0].DurationMinutes)
}

func TestNormalizeOverwritesSuppliedDuration(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{{
		EventName:       "a",
		StartTimeISO:    "2024-03-15T06:00:00Z",
		EndTimeISO:      strPtr("2024-03-15T06:45:00Z"),
		DurationMinutes: intPtr(999),
	}})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].DurationMinutes)
	assert.Equal(t, 45, *out[0].DurationMinutes)
}

func TestNormalizeDefaults(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{
		{EventName: "first"},
		{EventName: "second", Page: 3, RowIndex: 17, Confidence: f64Ptr(0.42)},
	})

	require.Len(t, out, 2)
	require.NotNil(t, out[0].Confidence)
	assert.Equal(t, 0.8, *out[0].Confidence)
	assert.Equal(t, 1, out[0].Page)
	assert.Equal(t, 1, out[0].RowIndex)

	assert.Equal(t, 0.42, *out[1].Confidence)
	assert.Equal(t, 3, out[1].Page)
	assert.Equal(t, 17, out[1].RowIndex)
}

func TestNormalizeRowIndexCountsSurvivors(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	out := n.Normalize([]CandidateEvent{
		{EventName: ""},
		{EventName: "a"},
		{EventName: "b"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].RowIndex)
	assert.Equal(t, 2, out[1].RowIndex)
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("15/03/2024 0630")
	assert.Error(t, err)
}

func TestCanonicalConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("AST", 3*3600)
	got := Canonical(time.Date(2024, 3, 15, 9, 30, 0, 0, loc))
	assert.Equal(t, "2024-03-15T06:30:00Z", got)
}
