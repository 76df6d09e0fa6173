package transcripts

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
)

// DateLayout is the day/month/year form accepted for date bounds.
// Single-digit day and month are accepted.
const DateLayout = "2/1/2006"

const DefaultMinDuration = 8.0

type Options struct {
	ExcludeUsernames []string
	// inclusive calendar-date bounds, nil for unbounded
	StartDate   *time.Time
	EndDate     *time.Time
	MinDuration float64
}

// Entry is a surviving record with its reconciled duration.
type Entry struct {
	Record   models.InterviewRecord
	Duration Duration
}

type Result struct {
	Total              int
	ExcludedByUsername int
	ExcludedByDate     int
	ExcludedByDuration int
	Entries            []Entry
	Warnings           []string
}

// ParseDate parses a D/M/YYYY bound. Blank input is no bound.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SortNewestFirst orders by start_time_unix descending; a missing start sorts as 0.
func SortNewestFirst(records []models.InterviewRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return startOf(&records[i]) > startOf(&records[j])
	})
}

func startOf(r *models.InterviewRecord) float64 {
	if r.StartTimeUnix == nil {
		return 0
	}
	return *r.StartTimeUnix
}

// Filter sorts records newest first and applies username, date and duration
// predicates. The input slice is reordered in place.
func Filter(records []models.InterviewRecord, opts Options, log logrus.FieldLogger) Result {
	SortNewestFirst(records)

	excluded := make(map[string]struct{}, len(opts.ExcludeUsernames))
	for _, u := range opts.ExcludeUsernames {
		excluded[u] = struct{}{}
	}

	res := Result{Total: len(records)}
	warn := func(r *models.InterviewRecord, msg string) {
		res.Warnings = append(res.Warnings, msg+" for "+r.Username+" at "+r.StartTimeUTC)
		if log != nil {
			log.WithFields(logrus.Fields{
				"username":       r.Username,
				"start_time_utc": r.StartTimeUTC,
			}).Warn(msg)
		}
	}

	for i := range records {
		r := &records[i]

		if _, ok := excluded[r.Username]; ok {
			res.ExcludedByUsername++
			continue
		}

		in, err := withinDates(r, opts.StartDate, opts.EndDate)
		if err != nil {
			warn(r, "could not parse interview date")
		} else if !in {
			res.ExcludedByDate++
			continue
		}

		d := Reconcile(r)
		for _, w := range d.Warnings {
			warn(r, w)
		}
		if !keepDuration(d, opts.MinDuration) {
			res.ExcludedByDuration++
			continue
		}
		res.Entries = append(res.Entries, Entry{Record: *r, Duration: d})
	}
	return res
}

// withinDates reports whether the record's start date lies within the bounds.
// An error means the record date could not be parsed; callers keep such records.
func withinDates(r *models.InterviewRecord, start, end *time.Time) (bool, error) {
	if r.StartTimeUTC == "" || (start == nil && end == nil) {
		return true, nil
	}
	fields := strings.Fields(r.StartTimeUTC)
	if len(fields) == 0 {
		return true, errUnparsableDate
	}
	day, err := time.Parse(DateLayout, fields[0])
	if err != nil {
		return true, err
	}
	if start != nil && day.Before(*start) {
		return false, nil
	}
	if end != nil && day.After(*end) {
		return false, nil
	}
	return true, nil
}

func keepDuration(d Duration, min float64) bool {
	if !d.Defined {
		return min == 0
	}
	return d.Minutes >= min
}
