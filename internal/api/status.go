package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"salesrecon/internal/importer"
	"salesrecon/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Version        string                 `json:"version"`
	Uptime         string                 `json:"uptime"`
	ActiveSessions int                    `json:"activeSessions"` // 未过期的会话结果数
	RunLog         bool                   `json:"runLog"`         // 是否记录运行日志
	Defaults       importer.InputOptions  `json:"defaults"`
	LastInputs     *importer.InputOptions `json:"lastInputs,omitempty"` // 最近一次使用的读取选项
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Version:        h.settings.Version,
		Uptime:         time.Since(h.startedAt).Round(time.Second).String(),
		ActiveSessions: h.results.len(),
		RunLog:         h.store != nil,
		Defaults:       h.settings.Inputs,
	}
	if h.store != nil {
		last := importer.InputOptions(h.store.GetInputDefaults(store.InputDefaults(h.settings.Inputs)))
		resp.LastInputs = &last
	}
	c.JSON(http.StatusOK, resp)
}
