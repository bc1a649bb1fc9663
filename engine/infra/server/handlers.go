package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/toxichat/toxichat/engine/llm"
	"github.com/toxichat/toxichat/pkg/logger"
)

// ChatService is the conversation entry point the HTTP layer drives.
type ChatService interface {
	Converse(ctx context.Context, message string) (*llm.Result, error)
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

// handleMessage runs one conversation. Orchestration failures still answer
// HTTP 200: the frontend renders the error text as a chat message, matching
// the contract it was built against.
func (s *Server) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":    false,
			"text":       "Error: text is required",
			"tool_calls": []llm.ToolCallRecord{},
		})
		return
	}

	result, err := s.chat.Converse(c.Request.Context(), req.Text)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("conversation failed", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"text":          "Error: " + err.Error(),
			"error_details": err.Error(),
			"tool_calls":    []llm.ToolCallRecord{},
		})
		return
	}

	toolCalls := result.ToolCalls
	if toolCalls == nil {
		toolCalls = []llm.ToolCallRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"text":       result.Text,
		"tool_calls": toolCalls,
		"iterations": result.Rounds,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	counts := s.cache.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"models_loaded":   true,
		"tools_available": s.tools,
		"cache_status": gin.H{
			"working_models":  counts.Working,
			"quota_exhausted": counts.QuotaExhausted,
			"rate_limited":    counts.RateLimited,
			"not_found":       counts.NotFound,
			"other_errors":    counts.OtherErrors,
		},
		"primary_model":  shortModelName(s.primary),
		"fallback_model": shortModelName(s.fallback),
	})
}

func (s *Server) handleCacheStatus(c *gin.Context) {
	snap := s.cache.SnapshotStatus()
	c.JSON(http.StatusOK, gin.H{
		"working_models":  snap.Working,
		"quota_exhausted": snap.QuotaExhausted,
		"rate_limited":    snap.RateLimited,
		"not_found":       snap.NotFound,
		"other_errors":    snap.OtherErrors,
		"cache_expiration_settings": gin.H{
			"quota_exhausted": int(s.ttls.QuotaExhausted.Seconds()),
			"rate_limited":    int(s.ttls.RateLimited.Seconds()),
			"other_errors":    int(s.ttls.Other.Seconds()),
		},
	})
}

func (s *Server) handleCacheReset(c *gin.Context) {
	s.cache.Reset()
	logger.FromContext(c.Request.Context()).Info("endpoint cache reset")
	c.JSON(http.StatusOK, gin.H{
		"message": "Model cache reset successfully",
		"status":  "success",
	})
}

// cacheBuckets maps the public bucket vocabulary onto internal names.
var cacheBuckets = map[string]string{
	"quota_exhausted": string(llm.FailureQuotaExhausted),
	"rate_limited":    string(llm.FailureRateLimited),
	"not_found":       string(llm.FailureNotFound),
	"other_errors":    string(llm.FailureOther),
	"working":         "working",
}

func (s *Server) handleCacheClear(c *gin.Context) {
	bucket := c.Param("bucket")
	internal, ok := cacheBuckets[bucket]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid cache type. Available: " + strings.Join(bucketNames(), ", "),
			"status": "error",
		})
		return
	}
	if err := s.cache.ResetBucket(internal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": "error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cleared " + bucket + " cache",
		"status":  "success",
	})
}

func bucketNames() []string {
	return []string{"quota_exhausted", "rate_limited", "not_found", "other_errors", "working"}
}

func shortModelName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
