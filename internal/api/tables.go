package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesrecon/internal/logger"
	"salesrecon/internal/model"
	"salesrecon/internal/service/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TableView 结果表的 JSON 视图
type TableView struct {
	Name     string          `json:"name"`
	Columns  []string        `json:"columns"`
	Rows     [][]any         `json:"rows"`
	RowKinds []model.RowKind `json:"rowKinds"`
}

func newTableView(t *model.Table) TableView {
	kinds := make([]model.RowKind, len(t.Rows))
	for i, r := range t.Rows {
		kinds[i] = r.Kind
	}
	return TableView{
		Name:     t.Name,
		Columns:  t.Columns,
		Rows:     t.Records(),
		RowKinds: kinds,
	}
}

// lookupTable 按运行 ID 与表名取结果表，失败时已写出响应
func (h *Handler) lookupTable(c *gin.Context) (*model.Table, bool) {
	result, ok := h.results.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found or expired"})
		return nil, false
	}
	t, ok := result.Table(c.Param("table"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table", "tables": model.TableNames})
		return nil, false
	}
	return t, true
}

// GetTable 结果表 JSON
// GET /api/runs/:id/tables/:table
func (h *Handler) GetTable(c *gin.Context) {
	t, ok := h.lookupTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newTableView(t))
}

// DownloadTable 以单工作表 xlsx 下载结果表
// GET /api/runs/:id/tables/:table/download
func (h *Handler) DownloadTable(c *gin.Context) {
	t, ok := h.lookupTable(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteTable(&buf, t); err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Error("build workbook failed",
			zap.String("run_id", c.Param("id")),
			zap.String("table", t.Name),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(model.ExportFilename(t.Name)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func buildContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
