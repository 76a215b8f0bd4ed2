package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesrecon/internal/importer"
	"salesrecon/internal/logger"
	"salesrecon/internal/model"
	"salesrecon/internal/service/recon"
)

// 上传表单字段
var uploadFields = []string{
	recon.InputSales,
	recon.InputProductMaster,
	recon.InputInventory,
	recon.InputReturns,
}

// requestError 请求参数错误，返回 400
type requestError struct {
	field string
	msg   string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

// RunSummary 一次对账的摘要
type RunSummary struct {
	RunID     string            `json:"runId"`
	Counts    map[string]int    `json:"counts"`
	Warnings  []model.Warning   `json:"warnings"`
	Tables    map[string]string `json:"tables"` // 表名 -> 下载地址
	ExpiresAt time.Time         `json:"expiresAt"`
}

// RunResponse 同步对账响应
type RunResponse struct {
	RunSummary
	Results map[string]TableView `json:"results"`
}

// parseRunForm 解析 multipart 表单为对账选项
func (h *Handler) parseRunForm(c *gin.Context) (importer.RunOptions, error) {
	opts := importer.RunOptions{
		RunID:            uuid.NewString(),
		Inputs:           h.settings.Inputs,
		FuzzyMaxDistance: h.settings.FuzzyMaxDistance,
		BrandSubtotals:   h.settings.BrandSubtotals,
	}

	sources := make([]importer.Source, len(uploadFields))
	for i, field := range uploadFields {
		fh, err := c.FormFile(field)
		if err != nil {
			return opts, &requestError{field: field, msg: "file is required"}
		}
		sources[i] = importer.Source{
			Filename: fh.Filename,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	opts.Sales, opts.ProductMaster, opts.Inventory, opts.Returns = sources[0], sources[1], sources[2], sources[3]

	if v := strings.TrimSpace(c.PostForm("inventoryHeaderRow")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, &requestError{field: "inventoryHeaderRow", msg: "must be a non-negative integer"}
		}
		opts.Inputs.InventoryHeaderRow = n
	}
	if v := strings.TrimSpace(c.PostForm("returnsSheet")); v != "" {
		opts.Inputs.ReturnsSheet = v
	}
	if v := strings.TrimSpace(c.PostForm("encoding")); v != "" {
		opts.Inputs.Encoding = v
	}
	if v := strings.TrimSpace(c.PostForm("brandSubtotals")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, &requestError{field: "brandSubtotals", msg: "must be a boolean"}
		}
		opts.BrandSubtotals = b
	}
	return opts, nil
}

// CreateRun 上传四个文件并同步执行对账
// POST /api/runs
func (h *Handler) CreateRun(c *gin.Context) {
	opts, err := h.parseRunForm(c)
	if err != nil {
		respondRequestError(c, err)
		return
	}

	report, err := h.coordinator.RunSync(c.Request.Context(), opts, nil)
	if err != nil {
		respondRunError(c, err)
		return
	}

	summary := h.keep(c, report)
	results := make(map[string]TableView, len(model.TableNames))
	for _, name := range model.TableNames {
		if t, ok := report.Result.Table(name); ok {
			results[name] = newTableView(t)
		}
	}
	c.JSON(http.StatusOK, RunResponse{RunSummary: summary, Results: results})
}

// CreateRunStream 上传四个文件并以 SSE 推送对账进度
// POST /api/runs/stream
func (h *Handler) CreateRunStream(c *gin.Context) {
	opts, err := h.parseRunForm(c)
	if err != nil {
		respondRequestError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for event := range h.coordinator.Run(c.Request.Context(), opts) {
		if event.Type == importer.EventDone {
			if report, ok := event.Data.(*importer.RunReport); ok {
				event.Data = h.keep(c, report)
			}
		}

		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// keep 缓存结果并生成摘要
func (h *Handler) keep(c *gin.Context, report *importer.RunReport) RunSummary {
	expiresAt := h.results.put(report.RunID, report.Result, h.settings.ResultTTL)

	prefix := apiPrefix(c)
	tables := make(map[string]string, len(model.TableNames))
	for _, name := range model.TableNames {
		tables[name] = fmt.Sprintf("%s/runs/%s/tables/%s/download", prefix, report.RunID, name)
	}

	logger.FromContext(c.Request.Context(), h.logger).Info("run result cached",
		zap.String("run_id", report.RunID),
		zap.Time("expires_at", expiresAt),
	)
	return RunSummary{
		RunID:     report.RunID,
		Counts:    report.Counts,
		Warnings:  report.Warnings,
		Tables:    tables,
		ExpiresAt: expiresAt,
	}
}

// ListRuns 最近的运行记录
// GET /api/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "runs": []any{}})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	logs, err := h.store.ListRunLogs(c.Request.Context(), limit)
	if err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Error("list run logs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	if logs == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": true, "runs": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "runs": logs})
}

func respondRequestError(c *gin.Context, err error) {
	var re *requestError
	if errors.As(err, &re) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": re.Error(), "field": re.field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
}

// respondRunError 结构性失败返回 422
func respondRunError(c *gin.Context, err error) {
	var pe *recon.PipelineError
	if errors.As(err, &pe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "reconciliation failed",
			"detail": err.Error(),
			"stage":  pe.Stage,
			"input":  pe.Input,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed", "detail": err.Error()})
}

func apiPrefix(c *gin.Context) string {
	path := c.FullPath()
	if i := strings.Index(path, "/runs"); i >= 0 {
		return path[:i]
	}
	return "/api"
}
