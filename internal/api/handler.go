package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesrecon/internal/importer"
	"salesrecon/internal/store"
)

// Settings 对账接口的默认参数
type Settings struct {
	Version          string
	Inputs           importer.InputOptions
	FuzzyMaxDistance int
	BrandSubtotals   bool
	// ResultTTL 会话结果保留时长
	ResultTTL time.Duration
}

// Handler API 处理器
type Handler struct {
	coordinator *importer.Coordinator
	store       *store.Store
	results     *resultStore
	settings    Settings
	logger      *zap.Logger
	startedAt   time.Time
}

// NewHandler 创建 API 处理器，store 为 nil 时不提供运行记录
func NewHandler(coordinator *importer.Coordinator, store *store.Store, settings Settings, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.ResultTTL <= 0 {
		settings.ResultTTL = 30 * time.Minute
	}
	return &Handler{
		coordinator: coordinator,
		store:       store,
		results:     newResultStore(),
		settings:    settings,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 对账
	router.POST("/runs", h.CreateRun)
	router.POST("/runs/stream", h.CreateRunStream)
	router.GET("/runs", h.ListRuns)

	// 结果表
	router.GET("/runs/:id/tables/:table", h.GetTable)
	router.GET("/runs/:id/tables/:table/download", h.DownloadTable)
}
