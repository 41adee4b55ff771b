// Package server is the authenticated admin HTTP gateway. It routes the
// console page, the JSON-RPC workflow API, and the admin configuration
// endpoints, and owns the outermost error boundary.
package server

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trendpub/internal/logging"
	"trendpub/internal/rpc"
	"trendpub/internal/scheduler"
	"trendpub/internal/storage"
	"trendpub/internal/workflow"
)

//go:embed admin.html
var adminHTML []byte

// apiKeyConfigKey is the config-store key holding the admin shared secret.
const apiKeyConfigKey = "SERVER_API_KEY"

// ArticleSource is the ledger subset the gateway reads.
type ArticleSource interface {
	Recent(ctx context.Context, limit int) ([]storage.Article, error)
}

// WorkflowTrigger is the manual trigger path.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, t workflow.Type, payload map[string]any) error
}

// Config holds server configuration.
type Config struct {
	Addr       string
	EnableCORS bool
	Debug      bool
	// FallbackAPIKey authenticates requests when no SERVER_API_KEY has been
	// persisted yet. When both are empty every authenticated route is denied.
	FallbackAPIKey string
}

// Deps are the collaborators the gateway composes.
type Deps struct {
	ConfigStore scheduler.ConfigSource
	Articles    ArticleSource
	Assignments *scheduler.Assignments
	Trigger     WorkflowTrigger
	RPC         *rpc.Server
	Logger      logging.Logger
}

// Server wires the gin engine and the http.Server around the admin routes.
type Server struct {
	config     Config
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
}

// New builds the gateway. Routes are fixed at construction.
func New(config Config, deps Deps) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.OrNop(deps.Logger)

	engine := gin.New()
	engine.Use(recovery(logger))
	if config.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		config: config,
		deps:   deps,
		engine: engine,
		logger: logger,
	}
	s.engine.Use(s.requireBearerToken())
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // manual triggers await the workflow synchronously
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/admin", s.handleAdminPage)
	s.engine.Any("/api/workflow", s.handleWorkflowRPC)
	s.engine.GET("/admin/config", s.handleGetConfig)
	s.engine.GET("/admin/articles", s.handleGetArticles)
	s.engine.POST("/admin/config/cron", s.handleSetCron)
	s.engine.POST("/admin/config/daily-workflows", s.handleSetDailyWorkflows)
	s.engine.POST("/admin/trigger", s.handleTrigger)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.NoRoute(s.handleUnknownPath)
}

// Handler exposes the routing tree, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("JSON-RPC 服务器运行在 http://localhost%s", s.config.Addr)
	s.logger.Info("支持的方法: %v", s.deps.RPC.Methods())
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// recovery converts panics anywhere in routing into the server-fault
// envelope instead of killing the connection.
func recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("请求处理错误: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"jsonrpc": rpc.Version,
			"error": gin.H{
				"code":    rpc.CodeServerError,
				"message": "服务器内部错误",
				"data":    gin.H{"error": fmt.Sprint(recovered)},
			},
		})
	})
}
