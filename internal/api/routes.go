package api

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, a *app) {
	// Writes. Each commits before the response is written.
	router.POST("/start_session", a.handleStartSession)
	router.POST("/add_focus", a.handleAddFocus)
	router.POST("/meltdown", a.handleMeltdown)
	router.POST("/clear_meltdown", a.handleClearMeltdown)
	router.POST("/end_session", a.handleEndSession)
	router.POST("/delete_sessions", a.handleDeleteSessions)

	// Reads.
	router.GET("/latest", a.handleLatest)
	router.GET("/history", a.handleHistory)
	router.GET("/session_summary", a.handleSessionSummary)
	router.GET("/healthz", a.handleHealth)
}
