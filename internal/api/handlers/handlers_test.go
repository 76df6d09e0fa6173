package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

func init() { gin.SetMode(gin.TestMode) }

// stubInterviews owns a single session "s1" for alice.
type stubInterviews struct {
	active bool
	audio  []byte
	quits  int
}

func (s *stubInterviews) check(op, sessionID, username string) error {
	if sessionID != "s1" {
		return utils.E(utils.CodeNotFound, op, "session not found", nil)
	}
	if username != "alice" {
		return utils.E(utils.CodeForbidden, op, "session belongs to another user", nil)
	}
	return nil
}

func (s *stubInterviews) view(reply string) *services.InterviewView {
	return &services.InterviewView{SessionID: "s1", Username: "alice", Active: s.active, LastReply: reply}
}

func (s *stubInterviews) Start(_ context.Context, username string) (*services.InterviewView, error) {
	if username == "done" {
		return nil, utils.E(utils.CodeConflict, "Start", "interview already completed", nil)
	}
	s.active = true
	return s.view("Hello!"), nil
}

func (s *stubInterviews) Get(_ context.Context, sessionID, username string) (*services.InterviewView, error) {
	if err := s.check("Get", sessionID, username); err != nil {
		return nil, err
	}
	return s.view(""), nil
}

func (s *stubInterviews) Reply(_ context.Context, sessionID, username, content string, onChunk func(string)) (*services.InterviewView, error) {
	if err := s.check("Reply", sessionID, username); err != nil {
		return nil, err
	}
	if onChunk != nil {
		onChunk("You said: ")
		onChunk(content)
	}
	if content == "bye" {
		s.active = false
		return s.view("closing"), nil
	}
	return s.view("You said: " + content), nil
}

func (s *stubInterviews) ReplyVoice(ctx context.Context, sessionID, username string, audio []byte) (*services.InterviewView, error) {
	s.audio = audio
	return s.Reply(ctx, sessionID, username, "voice", nil)
}

func (s *stubInterviews) Quit(_ context.Context, sessionID, username string) (*services.InterviewView, error) {
	if err := s.check("Quit", sessionID, username); err != nil {
		return nil, err
	}
	s.quits++
	s.active = false
	return s.view("You have cancelled the interview."), nil
}

func (s *stubInterviews) Evict(*interview.Session) {}

func asUser(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("username", username)
		c.Next()
	}
}

func interviewRouter(svc services.InterviewService, username string) *gin.Engine {
	log, _ := logtest.NewNullLogger()
	h := NewInterviewHandler(svc)
	ws := NewWSHandler(svc, log, nil)

	r := gin.New()
	g := r.Group("/", asUser(username))
	g.POST("/interview/start", h.Start)
	g.GET("/interview/:session_id", h.Get)
	g.POST("/interview/:session_id/message", h.Message)
	g.POST("/interview/:session_id/voice", h.Voice)
	g.POST("/interview/:session_id/end", h.End)
	g.GET("/ws/interview/:session_id", ws.InterviewWS)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestInterviewHandler_Flow(t *testing.T) {
	svc := &stubInterviews{}
	r := interviewRouter(svc, "alice")

	w := do(r, http.MethodPost, "/interview/start", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var v services.InterviewView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "s1", v.SessionID)
	assert.True(t, v.Active)

	w = do(r, http.MethodPost, "/interview/s1/message", `{"content":"I teach"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "You said: I teach", v.LastReply)

	w = do(r, http.MethodPost, "/interview/s1/message", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/interview/s1/end", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.quits)

	w = do(r, http.MethodGet, "/interview/zzz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"session not found"}`, w.Body.String())
}

func TestInterviewHandler_ErrorsMapToStatus(t *testing.T) {
	r := interviewRouter(&stubInterviews{}, "done")
	w := do(r, http.MethodPost, "/interview/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	r = interviewRouter(&stubInterviews{}, "mallory")
	w = do(r, http.MethodGet, "/interview/s1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	unauth := gin.New()
	unauth.POST("/interview/start", NewInterviewHandler(&stubInterviews{}).Start)
	w = do(unauth, http.MethodPost, "/interview/start", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInterviewHandler_Voice(t *testing.T) {
	svc := &stubInterviews{active: true}
	r := interviewRouter(svc, "alice")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", "answer.wav")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("RIFF...."))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/interview/s1/voice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("RIFF...."), svc.audio)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/interview/s1/voice", bytes.NewReader([]byte{1, 2, 3}))
	req.Header.Set("Content-Type", "application/octet-stream")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{1, 2, 3}, svc.audio)
}

func TestWSHandler_StreamsChunksThenDone(t *testing.T) {
	svc := &stubInterviews{active: true}
	srv := httptest.NewServer(interviewRouter(svc, "alice"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interview/s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() wsServerMsg {
		var m wsServerMsg
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	require.NoError(t, conn.WriteJSON(wsClientMsg{Type: "message", Content: "hi"}))
	assert.Equal(t, wsServerMsg{Type: "chunk", Content: "You said: "}, read())
	assert.Equal(t, wsServerMsg{Type: "chunk", Content: "hi"}, read())
	done := read()
	assert.Equal(t, "done", done.Type)
	assert.Equal(t, "You said: hi", done.Content)
	require.NotNil(t, done.Active)
	assert.True(t, *done.Active)

	require.NoError(t, conn.WriteJSON(wsClientMsg{Type: "dance"}))
	assert.Equal(t, utils.CodeInvalidArgument, read().Code)

	require.NoError(t, conn.WriteJSON(wsClientMsg{Type: "message", Content: "bye"}))
	read()
	read()
	done = read()
	require.NotNil(t, done.Active)
	assert.False(t, *done.Active)
	assert.Equal(t, "closing", done.Content)
}

func TestWSHandler_RejectsForeignSession(t *testing.T) {
	srv := httptest.NewServer(interviewRouter(&stubInterviews{}, "mallory"))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interview/s1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthHandler_Login(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(services.NewAuthService(map[string]string{"alice": "pw"}, "secret", 0)).Login)

	w := do(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res services.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)

	w = do(r, http.MethodPost, "/auth/login", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// stubDashboard records the operator and index it was called with.
type stubDashboard struct {
	operator string
	index    int
	filter   string
}

func (s *stubDashboard) view(op string) (*services.DashboardView, error) {
	s.operator = op
	return &services.DashboardView{Index: s.index, Filter: s.filter, Total: 2}, nil
}

func (s *stubDashboard) View(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func (s *stubDashboard) SetFilter(_ context.Context, op, username string) (*services.DashboardView, error) {
	s.filter = username
	return s.view(op)
}

func (s *stubDashboard) Goto(_ context.Context, op string, index int) (*services.DashboardView, error) {
	if index > 1 {
		return nil, utils.E(utils.CodeInvalidArgument, "Goto", "position out of range", nil)
	}
	s.index = index
	return s.view(op)
}

func (s *stubDashboard) Next(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func (s *stubDashboard) Prev(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func (s *stubDashboard) RequestDelete(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func (s *stubDashboard) CancelDelete(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func (s *stubDashboard) ConfirmDelete(_ context.Context, op string) (*services.DashboardView, error) {
	return nil, utils.E(utils.CodeConflict, "ConfirmDelete", "no delete awaiting confirmation", nil)
}

func (s *stubDashboard) Download(_ context.Context, op string) (*services.Download, error) {
	s.operator = op
	return &services.Download{Filename: "alice_x_to_y.txt", Body: "Username: alice"}, nil
}

func (s *stubDashboard) Refresh(_ context.Context, op string) (*services.DashboardView, error) {
	return s.view(op)
}

func dashboardRouter(svc services.DashboardService) *gin.Engine {
	h := NewDashboardHandler(svc)
	r := gin.New()
	r.GET("/dashboard/view", h.View)
	r.POST("/dashboard/filter", h.Filter)
	r.POST("/dashboard/goto", h.Goto)
	r.POST("/dashboard/delete/confirm", h.ConfirmDelete)
	r.GET("/dashboard/download", h.Download)
	return r
}

func TestDashboardHandler_OperatorSession(t *testing.T) {
	svc := &stubDashboard{}
	r := dashboardRouter(svc)

	w := do(r, http.MethodGet, "/dashboard/view", "")
	require.Equal(t, http.StatusOK, w.Code)
	minted := w.Header().Get(OperatorHeader)
	assert.NotEmpty(t, minted)
	assert.Equal(t, minted, svc.operator)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dashboard/goto", strings.NewReader(`{"index":1}`))
	req.Header.Set(OperatorHeader, "op-7")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "op-7", svc.operator)
	assert.Equal(t, 1, svc.index)
}

func TestDashboardHandler_Errors(t *testing.T) {
	r := dashboardRouter(&stubDashboard{})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/dashboard/goto", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/dashboard/goto", `{"index":5}`).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/dashboard/delete/confirm", "").Code)
}

func TestDashboardHandler_FilterAndDownload(t *testing.T) {
	svc := &stubDashboard{}
	r := dashboardRouter(svc)

	w := do(r, http.MethodPost, "/dashboard/filter", `{"username":"bob"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", svc.filter)

	w = do(r, http.MethodGet, "/dashboard/download", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="alice_x_to_y.txt"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Username: alice", w.Body.String())
}
