package transcripts

import (
	"fmt"
	"io"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

type RecordRef struct {
	Username     string
	StartTimeUTC string
}

type NewestEntry struct {
	RecordRef
	DurationText   string
	HasEndTime     bool
	HasDuration    bool
	Duration       Duration
	IncludedByRule bool
}

// Diagnosis summarizes which duration sources a record set carries.
type Diagnosis struct {
	Total          int
	Threshold      float64
	HasStartTime   int
	HasLastUpdated int
	HasEndTime     int
	HasDuration    int

	ExplicitDurations []float64
	InvalidDurations  []RecordRef
	MissingDuration   []RecordRef

	// counts of records reaching Threshold under each rule
	LegacyRuleCount  int
	CurrentRuleCount int

	Newest []NewestEntry
}

// Diagnose inspects records against the export threshold. records is reordered newest first.
func Diagnose(records []models.InterviewRecord, threshold float64) Diagnosis {
	d := Diagnosis{Total: len(records), Threshold: threshold}

	for i := range records {
		r := &records[i]
		ref := RecordRef{Username: r.Username, StartTimeUTC: r.StartTimeUTC}

		if r.StartTimeUnix != nil {
			d.HasStartTime++
		}
		if r.LastUpdatedUnix != nil {
			d.HasLastUpdated++
		}
		if r.EndTimeUnix != nil {
			d.HasEndTime++
		}
		if r.DurationMinutes != nil {
			d.HasDuration++
			v, present, err := r.DurationMinutes.Float()
			if err != nil || !present {
				d.InvalidDurations = append(d.InvalidDurations, ref)
			} else {
				d.ExplicitDurations = append(d.ExplicitDurations, v)
			}
		} else {
			d.MissingDuration = append(d.MissingDuration, ref)
		}

		if r.StartTimeUnix != nil && r.LastUpdatedUnix != nil &&
			(*r.LastUpdatedUnix-*r.StartTimeUnix)/60 >= threshold {
			d.LegacyRuleCount++
		}
		if keepDuration(Reconcile(r), threshold) {
			d.CurrentRuleCount++
		}
	}

	SortNewestFirst(records)
	for i := 0; i < len(records) && i < 5; i++ {
		r := &records[i]
		rd := Reconcile(r)
		e := NewestEntry{
			RecordRef:      RecordRef{Username: r.Username, StartTimeUTC: r.StartTimeUTC},
			DurationText:   "N/A",
			HasEndTime:     r.EndTimeUnix != nil,
			HasDuration:    r.DurationMinutes != nil,
			Duration:       rd,
			IncludedByRule: keepDuration(rd, threshold),
		}
		if r.DurationMinutes != nil {
			e.DurationText = r.DurationMinutes.String()
		}
		d.Newest = append(d.Newest, e)
	}
	return d
}

func (d Diagnosis) durationStats() (min, max, avg float64) {
	if len(d.ExplicitDurations) == 0 {
		return 0, 0, 0
	}
	min, max = d.ExplicitDurations[0], d.ExplicitDurations[0]
	var sum float64
	for _, v := range d.ExplicitDurations {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(d.ExplicitDurations))
}

// WriteReport prints the diagnosis in the operator-facing text layout.
func (d Diagnosis) WriteReport(w io.Writer) {
	rule := strings.Repeat("=", 60)
	heading := func(title string) {
		fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", rule, title, rule)
	}
	pct := func(n int) float64 {
		if d.Total == 0 {
			return 0
		}
		return 100 * float64(n) / float64(d.Total)
	}

	heading("DATABASE DIAGNOSIS")
	fmt.Fprintf(w, "Total interviews in database: %d\n\n", d.Total)
	fmt.Fprintf(w, "Field presence:\n")
	fmt.Fprintf(w, "  - start_time_unix:     %d/%d (%.1f%%)\n", d.HasStartTime, d.Total, pct(d.HasStartTime))
	fmt.Fprintf(w, "  - last_updated_unix:   %d/%d (%.1f%%)\n", d.HasLastUpdated, d.Total, pct(d.HasLastUpdated))
	fmt.Fprintf(w, "  - end_time_unix:       %d/%d (%.1f%%)\n", d.HasEndTime, d.Total, pct(d.HasEndTime))
	fmt.Fprintf(w, "  - duration_minutes:    %d/%d (%.1f%%)\n", d.HasDuration, d.Total, pct(d.HasDuration))

	heading("DURATION ANALYSIS")
	if n := len(d.ExplicitDurations); n > 0 {
		min, max, avg := d.durationStats()
		atLeast := 0
		for _, v := range d.ExplicitDurations {
			if v >= d.Threshold {
				atLeast++
			}
		}
		fmt.Fprintf(w, "Interviews with duration_minutes field: %d\n", n)
		fmt.Fprintf(w, "  - Min duration: %.2f minutes\n", min)
		fmt.Fprintf(w, "  - Max duration: %.2f minutes\n", max)
		fmt.Fprintf(w, "  - Average duration: %.2f minutes\n", avg)
		fmt.Fprintf(w, "  - With duration >= %g minutes: %d\n", d.Threshold, atLeast)
	}
	for _, ref := range d.InvalidDurations {
		fmt.Fprintf(w, "  Warning: Invalid duration_minutes for %s at %s\n", ref.Username, ref.StartTimeUTC)
	}
	fmt.Fprintf(w, "\nInterviews WITHOUT duration_minutes field: %d\n", len(d.MissingDuration))
	if len(d.MissingDuration) > 0 {
		fmt.Fprintf(w, "\nFirst 10 interviews missing duration_minutes:\n")
		for i, ref := range d.MissingDuration {
			if i == 10 {
				fmt.Fprintf(w, "  ... and %d more\n", len(d.MissingDuration)-10)
				break
			}
			fmt.Fprintf(w, "  - %s at %s\n", ref.Username, ref.StartTimeUTC)
		}
	}

	heading("DOWNLOAD SCRIPT SIMULATION")
	fmt.Fprintf(w, "OLD logic (using last_updated_unix): %d interviews would be downloaded\n", d.LegacyRuleCount)
	fmt.Fprintf(w, "NEW logic (reconciled duration): %d interviews would be downloaded\n", d.CurrentRuleCount)
	fmt.Fprintf(w, "Difference: %d more interviews\n", d.CurrentRuleCount-d.LegacyRuleCount)

	heading("NEWEST 5 INTERVIEWS")
	for i, e := range d.Newest {
		fmt.Fprintf(w, "%d. %s - %s\n", i+1, e.Username, e.StartTimeUTC)
		fmt.Fprintf(w, "   Duration: %s minutes\n", e.DurationText)
		fmt.Fprintf(w, "   Has end_time_unix: %t\n", e.HasEndTime)
		fmt.Fprintf(w, "   Has duration_minutes: %t\n", e.HasDuration)
		switch {
		case e.IncludedByRule:
			fmt.Fprintf(w, "   Would be INCLUDED in download (%s)\n", e.Duration.Source)
		case e.Duration.Defined:
			fmt.Fprintf(w, "   Would be EXCLUDED (duration < %g min)\n", d.Threshold)
		default:
			fmt.Fprintf(w, "   Would be EXCLUDED (no duration information)\n")
		}
		fmt.Fprintln(w)
	}
}
