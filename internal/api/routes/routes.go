package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
	Dashboard *handlers.DashboardHandler

	JWTSecret         string
	DashboardPassword string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/login", d.Auth.Login)

	// Respondent routes (JWT)
	respondent := r.Group("/")
	respondent.Use(middleware.JWTAuth(d.JWTSecret), middleware.RequireRespondent())

	respondent.POST("/interview/start", d.Interview.Start)
	respondent.GET("/interview/:session_id", d.Interview.Get)
	respondent.POST("/interview/:session_id/message", d.Interview.Message)
	respondent.POST("/interview/:session_id/voice", d.Interview.Voice)
	respondent.POST("/interview/:session_id/end", d.Interview.End)

	// WebSocket
	respondent.GET("/ws/interview/:session_id", d.WS.InterviewWS)

	// Researcher dashboard (shared password)
	dash := r.Group("/dashboard")
	dash.Use(middleware.DashboardAuth(d.DashboardPassword), middleware.RequireResearcher())

	dash.GET("/view", d.Dashboard.View)
	dash.POST("/filter", d.Dashboard.Filter)
	dash.POST("/goto", d.Dashboard.Goto)
	dash.POST("/next", d.Dashboard.Next)
	dash.POST("/prev", d.Dashboard.Prev)
	dash.POST("/delete", d.Dashboard.RequestDelete)
	dash.POST("/delete/confirm", d.Dashboard.ConfirmDelete)
	dash.POST("/delete/cancel", d.Dashboard.CancelDelete)
	dash.GET("/download", d.Dashboard.Download)
	dash.POST("/refresh", d.Dashboard.Refresh)
}
