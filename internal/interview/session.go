package interview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
)

// Session holds one respondent's live conversation.
type Session struct {
	mu sync.Mutex

	id           string
	username     string
	systemPrompt string
	startedAt    time.Time
	endedAt      *time.Time
	lastSeen     time.Time
	messages     []models.Message
}

// NewSession starts a session: the message log begins with the system prompt.
func NewSession(username, systemPrompt string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		id:           uuid.NewString(),
		username:     username,
		systemPrompt: systemPrompt,
		startedAt:    now,
		lastSeen:     now,
		messages:     []models.Message{{Role: models.RoleSystem, Content: systemPrompt}},
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Username() string     { return s.username }
func (s *Session) SystemPrompt() string { return s.systemPrompt }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Append adds a message at the end. Still allowed after MarkInactive for closing messages.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, models.Message{Role: role, Content: content})
}

// MarkInactive ends the session. Only the first call records the end instant.
func (s *Session) MarkInactive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt != nil {
		return false
	}
	end := now.UTC()
	s.endedAt = &end
	return true
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt == nil
}

func (s *Session) EndedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt == nil {
		return time.Time{}, false
	}
	return *s.endedAt, true
}

// Messages returns a copy of the full log, system message included.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Transcript returns the persisted view: every message except system ones.
func (s *Session) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return withoutSystem(s.messages)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot builds the upsert for the current state. End fields are present
// once the session is inactive and always carry the same values.
func (s *Session) Snapshot(now time.Time) models.InterviewUpsert {
	s.mu.Lock()
	defer s.mu.Unlock()

	up := models.InterviewUpsert{
		Username:     s.username,
		StartedAt:    s.startedAt,
		SystemPrompt: s.systemPrompt,
		UpdatedAt:    now.UTC(),
		Transcript:   withoutSystem(s.messages),
	}
	if s.endedAt != nil {
		end := *s.endedAt
		minutes := end.Sub(s.startedAt).Minutes()
		up.EndedAt = &end
		up.DurationMinutes = &minutes
	}
	return up
}

func withoutSystem(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != models.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}
