package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sobako/babywatch/app/cfg"
)

const manualRunTimeout = 5 * time.Minute

// Run handles the manual trigger: GET /run?job=<name>&token=<secret>.
// A missing or wrong token is rejected before any job work happens.
func (h *Handler) Run(c *gin.Context) {
	token := c.Query("token")
	authorized := h.runToken != "" && token != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(h.runToken)) == 1
	if !authorized {
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	job := strings.ToLower(c.Query("job"))
	if !h.scheduler.HasJob(job) {
		c.String(http.StatusBadRequest, "bad job")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), manualRunTimeout)
	defer cancel()

	if err := h.scheduler.RunJob(ctx, job); err != nil {
		slog.Error("Manual job run failed", "job", job, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "job": job, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "job": job})
}

// HealthCheck reports liveness only; it deliberately avoids touching the
// store.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": cfg.Get().Version,
	})
}

// GetStats returns catalog counts for observability.
func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	sourceCount, err := h.sources.GetSourceCount(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	unprocessed, err := h.events.GetUnprocessedCount(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	babyCount, err := h.babies.GetBabyCount(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources":            sourceCount,
		"unprocessed_events": unprocessed,
		"babies":             babyCount,
		"jobs":               h.scheduler.Jobs(),
	})
}
