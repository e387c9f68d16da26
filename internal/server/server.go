// Package server assembles the gin engine and owns its lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sivira/snsdm/internal/config"
	"github.com/sivira/snsdm/internal/handler"
	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/server/middleware"
	"github.com/sivira/snsdm/internal/service"
)

const maxRequestBodyBytes = 1 << 20 // 1 MiB

// Handlers groups the HTTP handlers mounted on the router.
type Handlers struct {
	Connect *handler.ConnectHandler
	Account *handler.AccountHandler
	Rule    *handler.RuleHandler
	DM      *handler.DMHandler
}

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	cfg  *config.Config
	http *http.Server
}

// New builds the router and returns a ready-to-run server.
func New(cfg *config.Config, authSvc *service.AuthService, rdb *redis.Client, h Handlers) *Server {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLog(),
		middleware.CORS(cfg.CORS),
		middleware.RequestBodyLimit(maxRequestBodyBytes),
	)

	limiter := middleware.NewRateLimiter(rdb)
	connectLimit := limiter.Limit("connect", int64(cfg.RateLimit.ConnectPerMinute), time.Minute)

	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	// OAuth 回调由外部 SNS 跳转而来,不走 JWT
	router.GET("/callback/:provider", connectLimit, h.Connect.Callback)

	api := router.Group("/api/v1")
	api.Use(middleware.NewJWTAuthMiddleware(authSvc))
	{
		api.POST("/sns/connect", connectLimit, h.Connect.Connect)
		api.POST("/sns/accounts", h.Account.ListAccounts)
		api.POST("/sns/disconnect", h.Account.Disconnect)

		api.POST("/hashtags", h.Rule.RegisterHashtag)
		api.GET("/hashtags", h.Rule.ListHashtags)
		api.PUT("/hashtags/:id", h.Rule.UpdateHashtag)
		api.DELETE("/hashtags/:id", h.Rule.DeleteHashtag)

		api.POST("/posts", h.Rule.RegisterPost)
		api.GET("/posts", h.Rule.ListPosts)
		api.PUT("/posts/:id", h.Rule.UpdatePost)
		api.DELETE("/posts/:id", h.Rule.DeletePost)

		api.POST("/dm/hashtag", h.DM.RunHashtag)
		api.POST("/dm/reply", h.DM.RunReply)
		api.GET("/dm/logs", h.DM.ListLogs)
	}

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is canceled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.L().With(zap.String("component", "server")).
			Info("listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.L().With(zap.String("component", "server")).Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}
