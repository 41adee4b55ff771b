package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"trendpub/internal/faults"
	"trendpub/internal/rpc"
	"trendpub/internal/scheduler"
	"trendpub/internal/workflow"
)

const recentArticleLimit = 20

func (s *Server) handleAdminPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", adminHTML)
}

// handleWorkflowRPC parses the JSON-RPC envelope and delegates to the
// method table. Transport faults (wrong verb, unparseable body) answer in
// the same envelope shape as dispatch faults.
func (s *Server) handleWorkflowRPC(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusBadRequest, rpc.ErrorResponse(faults.Validation("只支持 POST 请求")))
		return
	}

	var req rpc.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, rpc.ErrorResponse(faults.Validation("无效的 JSON-RPC 请求")))
		return
	}

	resp, status := s.deps.RPC.Handle(c.Request.Context(), &req)
	c.JSON(status, resp)
}

func (s *Server) handleGetConfig(c *gin.Context) {
	ctx := c.Request.Context()

	expr, err := scheduler.CronExpression(ctx, s.deps.ConfigStore)
	if err != nil {
		s.serverFault(c, err)
		return
	}
	assignments, err := s.deps.Assignments.All(ctx)
	if err != nil {
		s.serverFault(c, err)
		return
	}

	dailyWorkflows := make(map[string]*workflow.Type, 7)
	for day, t := range assignments {
		dailyWorkflows[strconv.Itoa(int(day))] = t
	}

	c.JSON(http.StatusOK, gin.H{
		"cronExpression": expr,
		"dailyWorkflows": dailyWorkflows,
	})
}

func (s *Server) handleGetArticles(c *gin.Context) {
	items, err := s.deps.Articles.Recent(c.Request.Context(), recentArticleLimit)
	if err != nil {
		s.serverFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) handleSetCron(c *gin.Context) {
	var body struct {
		CronExpression string `json:"cronExpression"`
	}
	// An unparseable body is treated like an empty one, matching the
	// missing-field error below.
	_ = c.ShouldBindJSON(&body)

	expr := strings.TrimSpace(body.CronExpression)
	if expr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 cronExpression"})
		return
	}

	// Persisted verbatim; syntax is validated at the next scheduler start,
	// not here.
	if err := s.deps.ConfigStore.Set(c.Request.Context(), scheduler.CronExpressionKey, expr); err != nil {
		s.serverFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cronExpression": expr})
}

// handleSetDailyWorkflows applies a partial update over the seven weekday
// keys. Only keys 1-7 are ever read; absent or blank entries leave the
// existing assignment in place. The seven writes are not atomic.
func (s *Server) handleSetDailyWorkflows(c *gin.Context) {
	var body map[string]any
	_ = c.ShouldBindJSON(&body)

	source := body
	if nested, ok := body["dailyWorkflows"].(map[string]any); ok {
		source = nested
	}

	for day := scheduler.Weekday(1); day <= 7; day++ {
		raw, ok := source[strconv.Itoa(int(day))].(string)
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if err := s.deps.Assignments.Assign(c.Request.Context(), day, workflow.Type(value)); err != nil {
			s.serverFault(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleTrigger(c *gin.Context) {
	var body map[string]any
	_ = c.ShouldBindJSON(&body)

	workflowType, _ := body["workflowType"].(string)
	if workflowType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 workflowType"})
		return
	}

	// Awaits the workflow synchronously; the response is not written until
	// the run finishes or fails.
	if err := s.deps.Trigger.Trigger(c.Request.Context(), workflow.Type(workflowType), nil); err != nil {
		status := http.StatusInternalServerError
		if faults.IsClient(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, rpc.ErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleUnknownPath(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"jsonrpc": rpc.Version,
		"error": gin.H{
			"code":    rpc.CodeMethodNotFound,
			"message": "无效的API路径",
			"data": gin.H{
				"path":         normalizePath(c.Request.URL.Path),
				"expectedPath": "api/workflow 或 admin/*",
			},
		},
	})
}

func (s *Server) serverFault(c *gin.Context, err error) {
	s.logger.Error("请求处理错误: %v", err)
	c.JSON(http.StatusInternalServerError, rpc.ErrorResponse(err))
}
