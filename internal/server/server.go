package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesrecon/internal/api"
	"salesrecon/internal/config"
	"salesrecon/internal/importer"
	"salesrecon/internal/middleware"
	"salesrecon/internal/store"
)

// Version 服务版本
const Version = "1.0.0"

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	http   *http.Server
	store  *store.Store
	api    *api.Handler
	logger *zap.Logger
}

// NewServer 创建服务器；data.run_log 关闭时不打开 SQLite
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var sqliteStore *store.Store
	if cfg.Data.RunLog {
		dataDir, err := config.EnsureDataDir(cfg)
		if err != nil {
			return nil, fmt.Errorf("prepare data directory: %w", err)
		}
		sqliteStore, err = store.New(filepath.Join(dataDir, "recon.db"))
		if err != nil {
			return nil, fmt.Errorf("initialize run log database: %w", err)
		}
	}

	coordinator := importer.NewCoordinator(sqliteStore, logger)
	apiHandler := api.NewHandler(coordinator, sqliteStore, api.Settings{
		Version: Version,
		Inputs: importer.InputOptions{
			InventoryHeaderRow: cfg.Inputs.InventoryHeaderRow,
			ReturnsSheet:       cfg.Inputs.ReturnsSheet,
			Encoding:           cfg.Inputs.Encoding,
		},
		FuzzyMaxDistance: cfg.Match.FuzzyMaxDistance,
		BrandSubtotals:   cfg.Recon.BrandSubtotals,
		ResultTTL:        time.Duration(cfg.Recon.ResultTTL) * time.Minute,
	}, logger)

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		api:    apiHandler,
		logger: logger,
	}
	s.setupRoutes(cfg)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(cfg *config.AppConfig) {
	s.router.Use(
		middleware.RequestLogger(s.logger),
		middleware.Recovery(s.logger),
		middleware.CORS(),
	)

	// API 路由
	apiGroup := s.router.Group("/api")
	apiGroup.Use(
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst), s.logger),
		middleware.MaxBodySize(cfg.MaxUploadBytes()),
	)
	s.api.RegisterRoutes(apiGroup)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到关闭
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭并释放数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if s.store != nil {
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
