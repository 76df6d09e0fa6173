package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

// maxAudioBytes bounds one recorded answer (about a minute of 16kHz LINEAR16).
const maxAudioBytes = 10 << 20

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	v, err := h.svc.Start(c.Request.Context(), username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	v, err := h.svc.Get(c.Request.Context(), c.Param("session_id"), username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *InterviewHandler) Message(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Message", "invalid request body", err))
		return
	}

	v, err := h.svc.Reply(c.Request.Context(), c.Param("session_id"), username, req.Content, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Voice accepts the recording as a multipart "audio" file or as the raw request body.
func (h *InterviewHandler) Voice(c *gin.Context) {
	const op = "InterviewHandler.Voice"

	username, ok := requireUsername(c)
	if !ok {
		return
	}

	audio, err := readAudio(c)
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid audio upload", err))
		return
	}

	v, err := h.svc.ReplyVoice(c.Request.Context(), c.Param("session_id"), username, audio)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *InterviewHandler) End(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	v, err := h.svc.Quit(c.Request.Context(), c.Param("session_id"), username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func readAudio(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioBytes)

	if fh, err := c.FormFile("audio"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}
