package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/prompts"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
)

// InterviewView is what a respondent sees of a session.
type InterviewView struct {
	SessionID string           `json:"session_id"`
	Username  string           `json:"username"`
	Active    bool             `json:"active"`
	StartedAt time.Time        `json:"started_at"`
	Messages  []models.Message `json:"messages"`
	// LastReply is the interviewer turn produced by the call, closing message included.
	LastReply string `json:"last_reply,omitempty"`
}

type InterviewService interface {
	Start(ctx context.Context, username string) (*InterviewView, error)
	Get(ctx context.Context, sessionID, username string) (*InterviewView, error)
	// Reply appends the respondent message and streams the interviewer turn to onChunk.
	Reply(ctx context.Context, sessionID, username, content string, onChunk func(string)) (*InterviewView, error)
	ReplyVoice(ctx context.Context, sessionID, username string, audio []byte) (*InterviewView, error)
	Quit(ctx context.Context, sessionID, username string) (*InterviewView, error)
	// Evict writes the last state of a session dropped by the idle janitor.
	Evict(s *interview.Session)
}

type InterviewOptions struct {
	SystemPrompt string
	IsRepeatable func(username string) bool
	STTLanguage  string
}

type interviewService struct {
	repo     mongorepo.InterviewRepository
	archives pgrepo.ArchiveRepository // nil when Postgres is not configured
	model    llm.Provider
	speech   stt.Provider // nil when voice answers are disabled
	sessions *interview.Registry
	opts     InterviewOptions
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewInterviewService(
	repo mongorepo.InterviewRepository,
	archives pgrepo.ArchiveRepository,
	model llm.Provider,
	speech stt.Provider,
	sessions *interview.Registry,
	opts InterviewOptions,
	log logrus.FieldLogger,
) InterviewService {
	if opts.IsRepeatable == nil {
		opts.IsRepeatable = func(string) bool { return false }
	}
	return &interviewService{
		repo:     repo,
		archives: archives,
		model:    model,
		speech:   speech,
		sessions: sessions,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

func (s *interviewService) Start(ctx context.Context, username string) (*InterviewView, error) {
	const op = "InterviewService.Start"

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "username is required", nil)
	}

	if !s.opts.IsRepeatable(username) {
		done, err := s.repo.HasCompleted(ctx, username)
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "failed to check previous interviews", err)
		}
		if done {
			return nil, utils.E(utils.CodeConflict, op, "interview already completed", utils.ErrInterviewCompleted)
		}
	}

	sess := interview.NewSession(username, s.opts.SystemPrompt, s.now())
	reply, err := s.turn(ctx, sess, nil)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "interviewer is unavailable", err)
	}

	s.sessions.Put(sess)
	s.persist(ctx, sess)
	return s.view(sess, reply), nil
}

func (s *interviewService) Get(ctx context.Context, sessionID, username string) (*InterviewView, error) {
	const op = "InterviewService.Get"

	sess, err := s.owned(op, sessionID, username)
	if err != nil {
		return nil, err
	}
	return s.view(sess, ""), nil
}

func (s *interviewService) Reply(ctx context.Context, sessionID, username, content string, onChunk func(string)) (*InterviewView, error) {
	const op = "InterviewService.Reply"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}

	sess, err := s.owned(op, sessionID, username)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return nil, utils.E(utils.CodeConflict, op, "interview has ended", utils.ErrInterviewEnded)
	}

	sess.Append(models.RoleUser, content)
	s.persist(ctx, sess)

	reply, err := s.turn(ctx, sess, onChunk)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "interviewer is unavailable", err)
	}
	s.persist(ctx, sess)
	return s.view(sess, reply), nil
}

func (s *interviewService) ReplyVoice(ctx context.Context, sessionID, username string, audio []byte) (*InterviewView, error) {
	const op = "InterviewService.ReplyVoice"

	if s.speech == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "voice answers are disabled", nil)
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}
	if _, err := s.owned(op, sessionID, username); err != nil {
		return nil, err
	}

	text, conf, err := s.speech.Transcribe(ctx, audio, s.opts.STTLanguage)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no speech recognized", nil)
	}
	s.log.WithFields(logrus.Fields{"session_id": sessionID, "confidence": conf}).Debug("voice answer transcribed")

	return s.Reply(ctx, sessionID, username, text, nil)
}

func (s *interviewService) Quit(ctx context.Context, sessionID, username string) (*InterviewView, error) {
	const op = "InterviewService.Quit"

	sess, err := s.owned(op, sessionID, username)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return s.view(sess, ""), nil
	}

	sess.Append(models.RoleAssistant, prompts.CancelMessage)
	s.finish(ctx, sess)
	return s.view(sess, prompts.CancelMessage), nil
}

func (s *interviewService) Evict(sess *interview.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.persist(ctx, sess)
	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID(),
		"username":   sess.Username(),
		"active":     sess.Active(),
	}).Info("idle interview session evicted")
}

// turn asks the model for the next interviewer message. A turn carrying a
// closing code is replaced by the matching closing message and ends the session.
func (s *interviewService) turn(ctx context.Context, sess *interview.Session, onChunk func(string)) (string, error) {
	guard := &closingGuard{emit: onChunk}
	chunks, errs := s.model.StreamAnswer(ctx, llm.BuildPrompt(sess.Messages()))
	raw, err := llm.Collect(chunks, errs, guard.write)
	if err != nil {
		return "", err
	}

	if code, closing, ok := prompts.DetectClosing(raw); ok {
		sess.Append(models.RoleAssistant, closing)
		s.log.WithFields(logrus.Fields{"session_id": sess.ID(), "code": code}).Info("interview closed by interviewer")
		s.finish(ctx, sess)
		return closing, nil
	}

	guard.flush()
	reply := strings.TrimSpace(raw)
	sess.Append(models.RoleAssistant, reply)
	return reply, nil
}

// finish marks the session inactive, then persists and archives its final state.
func (s *interviewService) finish(ctx context.Context, sess *interview.Session) {
	sess.MarkInactive(s.now())
	s.persist(ctx, sess)
	s.archive(ctx, sess)
}

// persist is best-effort: one attempt, failures are logged and never surface.
func (s *interviewService) persist(ctx context.Context, sess *interview.Session) {
	snap := sess.Snapshot(s.now())
	if err := s.repo.Upsert(ctx, &snap); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sess.ID(),
			"username":   sess.Username(),
		}).Warn("failed to save interview")
	}
}

func (s *interviewService) archive(ctx context.Context, sess *interview.Session) {
	if s.archives == nil {
		return
	}
	snap := sess.Snapshot(s.now())
	if snap.EndedAt == nil {
		return
	}

	transcript, err := json.Marshal(snap.Transcript)
	if err != nil {
		s.log.WithError(err).Warn("failed to encode transcript for archive")
		return
	}

	row := &models.InterviewArchive{
		ID:              uuid.NewString(),
		Username:        snap.Username,
		StartTimeUnix:   models.UnixSeconds(snap.StartedAt),
		StartedAt:       snap.StartedAt,
		EndedAt:         *snap.EndedAt,
		DurationMinutes: *snap.DurationMinutes,
		SystemPrompt:    snap.SystemPrompt,
		Transcript:      datatypes.JSON(transcript),
		ArchivedAt:      s.now().UTC(),
	}
	if err := s.archives.SaveInterview(ctx, row); err != nil {
		s.log.WithError(err).WithField("username", snap.Username).Warn("failed to archive interview")
	}
}

func (s *interviewService) owned(op, sessionID, username string) (*interview.Session, error) {
	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", utils.ErrNotFound)
	}
	if sess.Username() != username {
		return nil, utils.E(utils.CodeForbidden, op, "session belongs to another user", utils.ErrNotSessionOwner)
	}
	return sess, nil
}

func (s *interviewService) view(sess *interview.Session, reply string) *InterviewView {
	return &InterviewView{
		SessionID: sess.ID(),
		Username:  sess.Username(),
		Active:    sess.Active(),
		StartedAt: sess.StartedAt(),
		Messages:  sess.Transcript(),
		LastReply: reply,
	}
}

// closingGuard forwards streamed text but holds back anything that could be
// the start of a closing code, and goes quiet once a code appears.
type closingGuard struct {
	emit    func(string)
	buf     strings.Builder
	sent    int
	stopped bool
}

func (g *closingGuard) write(chunk string) {
	g.buf.WriteString(chunk)
	if g.emit == nil || g.stopped {
		return
	}
	text := g.buf.String()
	if _, _, ok := prompts.DetectClosing(text); ok {
		g.stopped = true
		return
	}
	safe := len(text) - codePrefixLen(text)
	if safe > g.sent {
		g.emit(text[g.sent:safe])
		g.sent = safe
	}
}

func (g *closingGuard) flush() {
	if g.emit == nil || g.stopped {
		return
	}
	text := g.buf.String()
	if len(text) > g.sent {
		g.emit(text[g.sent:])
		g.sent = len(text)
	}
}

// codePrefixLen is the length of the longest suffix of text that is a proper prefix of a closing code.
func codePrefixLen(text string) int {
	best := 0
	for _, code := range []string{prompts.CodeProblematic, prompts.CodeEnd} {
		for n := len(code) - 1; n > best; n-- {
			if strings.HasSuffix(text, code[:n]) {
				best = n
				break
			}
		}
	}
	return best
}
