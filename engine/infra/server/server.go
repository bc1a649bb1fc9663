package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toxichat/toxichat/engine/llm"
	"github.com/toxichat/toxichat/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Config holds the HTTP listener settings.
type Config struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

// Deps are the wired services the HTTP layer exposes.
type Deps struct {
	Chat    ChatService
	Cache   *llm.StatusCache
	TTLs    llm.TTLConfig
	Metrics http.Handler
	// Tools are the advertised tool names, for the health endpoint.
	Tools []string
	// Primary and Fallback are the resolved endpoint names.
	Primary  string
	Fallback string
}

// Server is the HTTP front of the chat service.
type Server struct {
	config Config
	chat   ChatService
	cache  *llm.StatusCache
	ttls   llm.TTLConfig
	tools  []string

	primary  string
	fallback string
	metrics  http.Handler
	log      logger.Logger
}

// NewServer wires the HTTP layer.
func NewServer(cfg Config, deps Deps, log logger.Logger) (*Server, error) {
	if deps.Chat == nil {
		return nil, fmt.Errorf("server requires a chat service")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("server requires a status cache")
	}
	return &Server{
		config:   cfg,
		chat:     deps.Chat,
		cache:    deps.Cache,
		ttls:     deps.TTLs,
		tools:    deps.Tools,
		primary:  deps.Primary,
		fallback: deps.Fallback,
		metrics:  deps.Metrics,
		log:      log,
	}, nil
}

// Router builds the gin engine with middleware and routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware(s.log))
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(s.config.CORSAllowedOrigins))

	router.POST("/message", s.handleMessage)
	router.GET("/health", s.handleHealth)
	router.GET("/cache/status", s.handleCacheStatus)
	router.POST("/cache/reset", s.handleCacheReset)
	router.POST("/cache/clear/:bucket", s.handleCacheClear)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}
	return router
}

// Run serves until the context is canceled or a termination signal arrives,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
