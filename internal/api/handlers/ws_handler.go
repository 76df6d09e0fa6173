package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const wsReadTimeout = 10 * time.Minute

type WSHandler struct {
	svc      services.InterviewService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(svc services.InterviewService, log logrus.FieldLogger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker allows every origin when the list is empty.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := map[string]struct{}{}
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

type wsClientMsg struct {
	Type    string `json:"type"` // message | end
	Content string `json:"content"`
}

type wsServerMsg struct {
	Type    string     `json:"type"` // chunk | done | error
	Content string     `json:"content,omitempty"`
	Active  *bool      `json:"active,omitempty"`
	Code    utils.Code `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v wsServerMsg) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	msg := "internal error"
	var ae *utils.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	return w.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeOf(err), Message: msg})
}

// InterviewWS streams interviewer turns chunk by chunk. Each client message
// produces zero or more "chunk" frames followed by one "done" frame.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if _, err := h.svc.Get(c.Request.Context(), sessionID, username); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()
	log := h.log.WithFields(logrus.Fields{"session_id": sessionID, "username": username})

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			if websocket.IsUnexpectedCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(rerr).Debug("websocket closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		var view *services.InterviewView
		switch msg.Type {
		case "message":
			view, err = h.svc.Reply(ctx, sessionID, username, msg.Content, func(chunk string) {
				_ = wc.writeJSON(wsServerMsg{Type: "chunk", Content: chunk})
			})
		case "end":
			view, err = h.svc.Quit(ctx, sessionID, username)
		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
			continue
		}
		if err != nil {
			if werr := wc.writeError(err); werr != nil {
				return
			}
			continue
		}

		active := view.Active
		if werr := wc.writeJSON(wsServerMsg{Type: "done", Content: view.LastReply, Active: &active}); werr != nil {
			return
		}
		if !active {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview ended"),
				time.Now().Add(time.Second))
			return
		}
	}
}
