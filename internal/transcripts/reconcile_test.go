package transcripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
)

func f64(v float64) *float64 { return &v }

func dur(s string) *models.DurationText {
	d := models.DurationText(s)
	return &d
}

func TestReconcile_ExplicitWins(t *testing.T) {
	r := &models.InterviewRecord{
		DurationMinutes: dur("12.50"),
		StartTimeUnix:   f64(1000),
		EndTimeUnix:     f64(1600),
		LastUpdatedUnix: f64(5000),
	}
	d := Reconcile(r)
	require.True(t, d.Defined)
	assert.Equal(t, 12.5, d.Minutes)
	assert.Equal(t, SourceExplicit, d.Source)
	assert.Empty(t, d.Warnings)
}

func TestReconcile_EndTimeFallback(t *testing.T) {
	r := &models.InterviewRecord{Username: "alice", StartTimeUnix: f64(1000), EndTimeUnix: f64(1600)}
	d := Reconcile(r)
	assert.Equal(t, 10.0, d.Minutes)
	assert.Equal(t, SourceEndTime, d.Source)
	assert.False(t, d.Approximate())
}

func TestReconcile_LastUpdatedFallback(t *testing.T) {
	r := &models.InterviewRecord{StartTimeUnix: f64(1000), LastUpdatedUnix: f64(1300)}
	d := Reconcile(r)
	assert.Equal(t, 5.0, d.Minutes)
	assert.Equal(t, SourceLastUpdated, d.Source)
	assert.True(t, d.Approximate())
}

func TestReconcile_InvalidExplicitFallsThrough(t *testing.T) {
	r := &models.InterviewRecord{
		DurationMinutes: dur("abc"),
		StartTimeUnix:   f64(0.5),
		EndTimeUnix:     f64(600.5),
	}
	d := Reconcile(r)
	assert.Equal(t, SourceEndTime, d.Source)
	assert.Equal(t, 10.0, d.Minutes)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "invalid duration_minutes")
}

func TestReconcile_BlankExplicitIsAbsent(t *testing.T) {
	r := &models.InterviewRecord{DurationMinutes: dur(""), StartTimeUnix: f64(0), LastUpdatedUnix: f64(120)}
	d := Reconcile(r)
	assert.Equal(t, SourceLastUpdated, d.Source)
	assert.Equal(t, 2.0, d.Minutes)
	assert.Empty(t, d.Warnings)
}

func TestReconcile_NegativeComputedPassesThrough(t *testing.T) {
	r := &models.InterviewRecord{StartTimeUnix: f64(1600), EndTimeUnix: f64(1000)}
	d := Reconcile(r)
	assert.Equal(t, -10.0, d.Minutes)
	assert.True(t, d.Defined)
	assert.Len(t, d.Warnings, 1)
}

func TestReconcile_Undefined(t *testing.T) {
	d := Reconcile(&models.InterviewRecord{Username: "bob"})
	assert.False(t, d.Defined)
	assert.Equal(t, SourceNone, d.Source)

	d = Reconcile(&models.InterviewRecord{EndTimeUnix: f64(100)})
	assert.False(t, d.Defined)
}

func TestReconcile_NonFiniteExplicitFallsThrough(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf", "+Inf"} {
		t.Run(raw, func(t *testing.T) {
			r := &models.InterviewRecord{
				DurationMinutes: dur(raw),
				StartTimeUnix:   f64(1000),
				EndTimeUnix:     f64(1600),
			}
			d := Reconcile(r)
			assert.Equal(t, SourceEndTime, d.Source)
			assert.Equal(t, 10.0, d.Minutes)
			require.Len(t, d.Warnings, 1)
			assert.Contains(t, d.Warnings[0], "non-finite duration_minutes")
		})
	}
}
