package transcripts

import (
	"fmt"
	"math"

	"github.com/yoockh/yoointerview/internal/models"
)

// Source names which field a reconciled duration came from.
type Source string

const (
	SourceExplicit    Source = "duration_minutes"
	SourceEndTime     Source = "end_time_unix"
	SourceLastUpdated Source = "last_updated_unix"
	SourceNone        Source = "none"
)

// Duration is the reconciled elapsed time of one interview.
type Duration struct {
	Minutes float64
	Source  Source
	// Defined is false when no timestamp source was usable.
	Defined  bool
	Warnings []string
}

// Approximate reports whether the value reflects last activity rather than an explicit end.
func (d Duration) Approximate() bool { return d.Source == SourceLastUpdated }

// Reconcile picks the first applicable source: explicit duration_minutes,
// then end - start, then last_updated - start.
func Reconcile(r *models.InterviewRecord) Duration {
	var warnings []string

	if r.DurationMinutes != nil {
		v, present, err := r.DurationMinutes.Float()
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("invalid duration_minutes value %q", r.DurationMinutes.String()))
		case present && (math.IsNaN(v) || math.IsInf(v, 0)):
			warnings = append(warnings, fmt.Sprintf("non-finite duration_minutes value %q", r.DurationMinutes.String()))
		case present && v < 0:
			warnings = append(warnings, fmt.Sprintf("negative duration_minutes value %q", r.DurationMinutes.String()))
		case present:
			return Duration{Minutes: v, Source: SourceExplicit, Defined: true}
		}
	}

	if r.StartTimeUnix != nil && r.EndTimeUnix != nil {
		return computed(*r.EndTimeUnix-*r.StartTimeUnix, SourceEndTime, warnings)
	}
	if r.StartTimeUnix != nil && r.LastUpdatedUnix != nil {
		return computed(*r.LastUpdatedUnix-*r.StartTimeUnix, SourceLastUpdated, warnings)
	}
	return Duration{Source: SourceNone, Warnings: warnings}
}

// Computed negatives are kept as-is and flagged.
func computed(seconds float64, src Source, warnings []string) Duration {
	minutes := seconds / 60
	if minutes < 0 {
		warnings = append(warnings, fmt.Sprintf("negative duration from %s (%.2f minutes), possible clock skew", src, minutes))
	}
	return Duration{Minutes: minutes, Source: src, Defined: true, Warnings: warnings}
}
