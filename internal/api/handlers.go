package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/neume/monitor/internal/config"
	"github.com/neume/monitor/internal/db"
	"github.com/neume/monitor/internal/history"
	"github.com/neume/monitor/internal/ingest"
	"github.com/neume/monitor/internal/session"
	"github.com/neume/monitor/internal/status"
	"github.com/neume/monitor/internal/validate"
)

// respondError writes validation failures as 400 and anything else as 500.
// Store errors are logged but not echoed to the client. They are never
// retried here; the client retries.
func respondError(c *gin.Context, err error) {
	if validate.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("api: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *app) handleStartSession(c *gin.Context) {
	s, err := session.Start(a.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": s.ID})
}

func (a *app) handleAddFocus(c *gin.Context) {
	b := readBody(c)
	sessionID, err := b.requiredID("session_id")
	if err != nil {
		respondError(c, err)
		return
	}
	score, err := b.requiredInt("focus_score")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := ingest.CheckFocusScore(score); err != nil {
		respondError(c, err)
		return
	}
	if _, err := ingest.AddFocus(a.db, sessionID, int(score), b.optionalString("timestamp")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (a *app) handleMeltdown(c *gin.Context) {
	b := readBody(c)
	sessionID, err := b.requiredID("session_id")
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := ingest.LogMeltdown(a.db, sessionID, b.optionalString("timestamp"), b.optionalString("notes")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (a *app) handleClearMeltdown(c *gin.Context) {
	b := readBody(c)
	sessionID, err := b.requiredID("session_id")
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := ingest.ClearMeltdown(a.db, sessionID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (a *app) handleEndSession(c *gin.Context) {
	b := readBody(c)
	sessionID, err := b.requiredID("session_id")
	if err != nil {
		respondError(c, err)
		return
	}
	// Unknown or already finished sessions are a silent no-op.
	if _, err := session.End(a.db, sessionID, b.flag("interrupted")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (a *app) handleDeleteSessions(c *gin.Context) {
	b := readBody(c)
	fromID, err := b.requiredID("from_id")
	if err != nil {
		respondError(c, err)
		return
	}
	toID, err := b.requiredID("to_id")
	if err != nil {
		respondError(c, err)
		return
	}
	deleted, err := session.DeleteRange(a.db, fromID, toID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}

func (a *app) handleLatest(c *gin.Context) {
	cur, err := status.Latest(a.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cur)
}

func (a *app) handleHistory(c *gin.Context) {
	limit := a.historyLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > config.MaxHistoryLimit {
			respondError(c, validate.Invalid("limit", "limit must be an integer between 1 and %d", config.MaxHistoryLimit))
			return
		}
		limit = n
	}
	report, err := history.Build(a.db, limit, a.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *app) handleSessionSummary(c *gin.Context) {
	sum, err := history.LatestSummary(a.db, a.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (a *app) handleHealth(c *gin.Context) {
	if err := db.Ping(a.db); err != nil {
		log.Printf("api: health: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	respondOK(c)
}
