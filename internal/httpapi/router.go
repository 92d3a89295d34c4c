package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
	"github.com/continuum-ai/continuum/internal/httpapi/handlers"
	"github.com/continuum-ai/continuum/internal/httpapi/middleware"
)

// NewRouter wires the UI shell's control surface. Everything except
// ping and the token exchange sits behind bearer auth.
func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/ping", h.Ping)
	r.POST("/auth/token", h.ExchangeToken)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.APISecret))

	// sessions
	authGroup.GET("/sessions", h.ListSessions)
	authGroup.POST("/sessions", h.CreateSession)
	authGroup.DELETE("/sessions/:id", h.DeleteSession)
	authGroup.PATCH("/sessions/:id", h.RenameSession)
	authGroup.POST("/sessions/active", h.SetActiveSession)
	authGroup.POST("/sessions/:id/messages", h.AppendMessage)
	authGroup.POST("/sessions/:id/summarize", h.SummarizeSession)
	authGroup.POST("/sessions/filter", h.FilterSessions)
	authGroup.GET("/sessions/health", h.SessionHealth)
	authGroup.POST("/sessions/save", h.SaveSessions)

	// downloads
	authGroup.GET("/downloads", h.ListDownloads)
	authGroup.POST("/downloads", h.StartDownload)
	authGroup.POST("/downloads/queue", h.QueueModel)
	authGroup.POST("/downloads/:id/pause", h.PauseDownload)
	authGroup.POST("/downloads/:id/resume", h.ResumeDownload)
	authGroup.POST("/downloads/:id/cancel", h.CancelDownload)
	authGroup.POST("/downloads/clear-finished", h.ClearFinishedDownloads)
	authGroup.GET("/downloads/storage", h.CheckStorage)

	// privacy
	authGroup.GET("/privacy", h.GetPrivacy)
	authGroup.POST("/privacy/mode", h.SetPrivacyMode)
	authGroup.GET("/privacy/network-log", h.NetworkLog)
	authGroup.DELETE("/privacy/network-log", h.ClearNetworkLog)
	authGroup.POST("/privacy/dashboard/toggle", h.ToggleDashboard)

	// system
	authGroup.GET("/system", h.SystemInfo)
	authGroup.GET("/models", h.ListModels)
	authGroup.POST("/models/verify", h.VerifyModel)

	return r
}
