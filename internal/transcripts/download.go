package transcripts

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yoockh/yoointerview/internal/models"
)

// RenderDownload is the single-record text offered on the dashboard:
// every present metadata field, then the transcript.
func RenderDownload(r *models.InterviewRecord) string {
	var lines []string
	field := func(key, value string) {
		lines = append(lines, titleKey(key)+": "+value)
	}
	num := func(key string, v *float64) {
		if v != nil {
			field(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	str := func(key, v string) {
		if v != "" {
			field(key, v)
		}
	}

	str("username", r.Username)
	num("start_time_unix", r.StartTimeUnix)
	str("start_time_utc", r.StartTimeUTC)
	num("last_updated_unix", r.LastUpdatedUnix)
	str("last_updated_utc", r.LastUpdatedUTC)
	num("end_time_unix", r.EndTimeUnix)
	str("end_time_utc", r.EndTimeUTC)
	if r.DurationMinutes != nil {
		field("duration_minutes", r.DurationMinutes.String())
	}
	str("system_prompt", r.SystemPrompt)

	lines = append(lines, "\n---\nTranscript\n---")
	for _, m := range r.Transcript {
		lines = append(lines, "\n["+m.Role+"]\n"+m.Content)
	}
	return strings.Join(lines, "\n")
}

// DownloadFilename builds <username>_<start>_to_<end>.txt with path-unsafe characters replaced.
func DownloadFilename(r *models.InterviewRecord) string {
	user := r.Username
	if user == "" {
		user = "user"
	}
	return user + "_" + safeTimestamp(r.StartTimeUTC) + "_to_" + safeTimestamp(r.EndTimeUTC) + ".txt"
}

var unsafeChars = strings.NewReplacer("/", "-", ":", "-")

func safeTimestamp(s string) string {
	if s == "" {
		s = "unknown_time"
	}
	return unsafeChars.Replace(s)
}

// titleKey turns start_time_utc into "Start Time Utc".
func titleKey(key string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(key, "_", " "))
}
