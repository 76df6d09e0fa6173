package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Message roles. RoleSystem only lives in the in-memory session.
const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// TimestampLayout is the textual form of every *_utc field.
const TimestampLayout = "02/01/2006 15:04:05"

type Message struct {
	Role    string `bson:"role" json:"role"`
	Content string `bson:"content" json:"content"`
}

// InterviewRecord is one respondent session. Natural key: (username, start_time_unix).
type InterviewRecord struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`

	StartTimeUnix *float64 `bson:"start_time_unix,omitempty" json:"start_time_unix,omitempty"`
	StartTimeUTC  string   `bson:"start_time_utc,omitempty" json:"start_time_utc,omitempty"`

	LastUpdatedUnix *float64 `bson:"last_updated_unix,omitempty" json:"last_updated_unix,omitempty"`
	LastUpdatedUTC  string   `bson:"last_updated_utc,omitempty" json:"last_updated_utc,omitempty"`

	// absent while the session is active
	EndTimeUnix     *float64      `bson:"end_time_unix,omitempty" json:"end_time_unix,omitempty"`
	EndTimeUTC      string        `bson:"end_time_utc,omitempty" json:"end_time_utc,omitempty"`
	DurationMinutes *DurationText `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`

	Transcript   []Message `bson:"transcript" json:"transcript"`
	SystemPrompt string    `bson:"system_prompt,omitempty" json:"system_prompt,omitempty"`
}

// Completed reports whether the session was finalized with an explicit end.
func (r *InterviewRecord) Completed() bool {
	return r.EndTimeUnix != nil || r.DurationMinutes != nil
}

// InterviewUpsert is the write issued after every turn of a live session.
type InterviewUpsert struct {
	Username     string
	StartedAt    time.Time
	SystemPrompt string
	UpdatedAt    time.Time
	Transcript   []Message

	// set once the session is inactive
	EndedAt         *time.Time
	DurationMinutes *float64
}

// DurationText is duration_minutes as stored: decimal text with two places.
// Legacy documents carrying a numeric value decode into the same text form.
type DurationText string

func NewDurationText(minutes float64) DurationText {
	return DurationText(strconv.FormatFloat(minutes, 'f', 2, 64))
}

func (d DurationText) String() string { return string(d) }

// Float parses the stored text. Blank text is reported as absent.
func (d DurationText) Float() (float64, bool, error) {
	s := strings.TrimSpace(string(d))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}

func (d DurationText) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(d))
}

func (d *DurationText) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.String:
		*d = DurationText(v.StringValue())
	case bsontype.Double:
		*d = DurationText(strconv.FormatFloat(v.Double(), 'f', -1, 64))
	case bsontype.Int32:
		*d = DurationText(strconv.FormatInt(int64(v.Int32()), 10))
	case bsontype.Int64:
		*d = DurationText(strconv.FormatInt(v.Int64(), 10))
	case bsontype.Null, bsontype.Undefined:
		*d = ""
	default:
		return fmt.Errorf("duration_minutes: unsupported bson type %s", t)
	}
	return nil
}

// UnixSeconds renders t the way start/end/last-updated instants are stored.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// FromUnixSeconds is the inverse of UnixSeconds.
func FromUnixSeconds(v float64) time.Time {
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
