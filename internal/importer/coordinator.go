package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesrecon/internal/model"
	"salesrecon/internal/service/excel"
	"salesrecon/internal/service/recon"
	"salesrecon/internal/store"
)

// 进度事件类型
const (
	EventStart   = "start"
	EventStage   = "stage"
	EventWarning = "warning"
	EventDone    = "done"
	EventError   = "error"
)

// Coordinator 对账协调器：读取四个输入文件、执行对账并记录运行日志
type Coordinator struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCoordinator 创建对账协调器，store 为 nil 时不记录运行日志
func NewCoordinator(store *store.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:  store,
		logger: logger,
	}
}

// Source 输入文件
type Source struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// FileSource 磁盘文件输入
func FileSource(path string) Source {
	return Source{
		Filename: filepath.Base(path),
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource 内存输入
func BytesSource(filename string, data []byte) Source {
	return Source{
		Filename: filename,
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// InputOptions 输入文件读取选项
type InputOptions struct {
	InventoryHeaderRow int    `json:"inventoryHeaderRow"`
	ReturnsSheet       string `json:"returnsSheet"`
	Encoding           string `json:"encoding"`
}

// DefaultInputOptions 默认读取选项：库存表第二行为表头，退货表读取 Sheet1
func DefaultInputOptions() InputOptions {
	return InputOptions{
		InventoryHeaderRow: 1,
		ReturnsSheet:       "Sheet1",
		Encoding:           "utf-8",
	}
}

// RunOptions 对账选项
type RunOptions struct {
	// RunID 为空时自动生成
	RunID         string
	Sales         Source
	ProductMaster Source
	Inventory     Source
	Returns       Source

	Inputs           InputOptions
	FuzzyMaxDistance int
	BrandSubtotals   bool
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/stage/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// RunReport 完成事件携带的数据
type RunReport struct {
	RunID    string          `json:"runId"`
	Result   *recon.Result   `json:"-"`
	Counts   map[string]int  `json:"counts"`
	Warnings []model.Warning `json:"warnings"`
	Duration time.Duration   `json:"duration"`
}

// ErrorInfo 错误事件携带的数据
type ErrorInfo struct {
	RunID string `json:"runId"`
	Stage string `json:"stage"`
	Input string `json:"input,omitempty"`
}

// Run 执行对账，返回进度通道；通道在 done 或 error 事件之后关闭
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		_, _ = c.run(ctx, opts, progressChan)
	}()

	return progressChan
}

// RunSync 同步执行对账，progress 可为 nil
func (c *Coordinator) RunSync(ctx context.Context, opts RunOptions, progress func(ProgressEvent)) (*RunReport, error) {
	ch := make(chan ProgressEvent, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range ch {
			if progress != nil {
				progress(evt)
			}
		}
	}()

	report, err := c.run(ctx, opts, ch)
	close(ch)
	<-done
	return report, err
}

func (c *Coordinator) run(ctx context.Context, opts RunOptions, progressChan chan ProgressEvent) (*RunReport, error) {
	startTime := time.Now()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := c.logger.With(zap.String("run_id", opts.RunID))

	files := store.RunFiles{
		Sales:         opts.Sales.Filename,
		ProductMaster: opts.ProductMaster.Filename,
		Inventory:     opts.Inventory.Filename,
		Returns:       opts.Returns.Filename,
	}

	// 发送开始事件
	c.sendProgress(ctx, progressChan, ProgressEvent{
		Type:      EventStart,
		Message:   "reconciliation started",
		Data:      map[string]interface{}{"runId": opts.RunID, "files": files},
		Timestamp: time.Now(),
	})
	log.Info("reconciliation started",
		zap.String("sales", files.Sales),
		zap.String("product_master", files.ProductMaster),
		zap.String("inventory", files.Inventory),
		zap.String("returns", files.Returns),
	)

	if c.store != nil {
		if err := c.store.CreateRunLog(ctx, opts.RunID, files); err != nil {
			log.Warn("run log unavailable", zap.Error(err))
		}
	}

	fail := func(err error) (*RunReport, error) {
		info := ErrorInfo{RunID: opts.RunID, Stage: recon.StageLoad}
		var pe *recon.PipelineError
		if errors.As(err, &pe) {
			info.Stage = pe.Stage
			info.Input = pe.Input
		}
		log.Error("reconciliation failed", zap.String("stage", info.Stage), zap.Error(err))
		c.sendProgress(ctx, progressChan, ProgressEvent{
			Type:      EventError,
			Message:   err.Error(),
			Data:      info,
			Timestamp: time.Now(),
		})
		if c.store != nil {
			// 调用方取消时仍需落库
			if e := c.store.FailRunLog(context.WithoutCancel(ctx), opts.RunID, info.Stage, err.Error()); e != nil {
				log.Warn("failed to record run failure", zap.Error(e))
			}
		}
		return nil, err
	}

	c.sendStage(ctx, progressChan, recon.StageLoad)
	inputs, err := c.loadInputs(opts)
	if err != nil {
		return fail(err)
	}

	result, err := recon.Run(ctx, inputs, recon.Options{
		FuzzyMaxDistance: opts.FuzzyMaxDistance,
		BrandSubtotals:   opts.BrandSubtotals,
		Logger:           log,
		Progress:         func(stage string) { c.sendStage(ctx, progressChan, stage) },
	})
	if err != nil {
		return fail(err)
	}

	for _, w := range result.Warnings {
		c.sendProgress(ctx, progressChan, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("%s: %s %s", w.Input, w.Column, w.Message),
			Data:      w,
			Timestamp: time.Now(),
		})
	}

	counts := result.RowCounts()
	if c.store != nil {
		rc := store.RunCounts{
			Sales:      counts[model.TableSales],
			SalesPivot: counts[model.TableSalesPivot],
			Inventory:  counts[model.TableInventory],
			Returns:    counts[model.TableReturns],
			Reconciled: counts[model.TableReconciled],
		}
		if err := c.store.CompleteRunLog(context.WithoutCancel(ctx), opts.RunID, rc, len(result.Warnings)); err != nil {
			log.Warn("failed to record run completion", zap.Error(err))
		}
		if err := c.store.SetInputDefaults(store.InputDefaults(opts.Inputs)); err != nil {
			log.Warn("failed to remember input options", zap.Error(err))
		}
	}

	report := &RunReport{
		RunID:    opts.RunID,
		Result:   result,
		Counts:   counts,
		Warnings: result.Warnings,
		Duration: time.Since(startTime),
	}
	log.Info("reconciliation done",
		zap.Int("reconciled_rows", counts[model.TableReconciled]),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", report.Duration),
	)

	// 发送完成事件
	c.sendProgress(ctx, progressChan, ProgressEvent{
		Type:      EventDone,
		Message:   "reconciliation finished",
		Data:      report,
		Timestamp: time.Now(),
	})
	return report, nil
}

// loadInputs 按输入类型的读取规则加载四张表
func (c *Coordinator) loadInputs(opts RunOptions) (recon.Inputs, error) {
	var in recon.Inputs
	enc := opts.Inputs.Encoding

	specs := []struct {
		name string
		src  Source
		opts excel.LoadOptions
		dst  **model.Table
	}{
		{recon.InputSales, opts.Sales, excel.LoadOptions{Encoding: enc}, &in.Sales},
		{recon.InputProductMaster, opts.ProductMaster, excel.LoadOptions{Encoding: enc}, &in.ProductMaster},
		{recon.InputInventory, opts.Inventory, excel.LoadOptions{Encoding: enc, HeaderRow: opts.Inputs.InventoryHeaderRow}, &in.Inventory},
		{recon.InputReturns, opts.Returns, excel.LoadOptions{Encoding: enc, Sheet: opts.Inputs.ReturnsSheet}, &in.Returns},
	}

	for _, s := range specs {
		if s.src.Open == nil {
			return in, recon.Fail(recon.StageLoad, s.name, recon.ErrMissingInput)
		}
		t, err := loadSource(s.src, s.opts)
		if err != nil {
			return in, recon.Fail(recon.StageLoad, s.name, err)
		}
		*s.dst = t
	}
	return in, nil
}

func loadSource(src Source, opts excel.LoadOptions) (*model.Table, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Filename, err)
	}
	defer rc.Close()
	return excel.LoadTable(rc, src.Filename, opts)
}

func (c *Coordinator) sendStage(ctx context.Context, ch chan ProgressEvent, stage string) {
	c.sendProgress(ctx, ch, ProgressEvent{
		Type:      EventStage,
		Message:   stage,
		Data:      map[string]string{"stage": stage},
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件；通道已满时丢弃过程事件，终止事件等待消费方
func (c *Coordinator) sendProgress(ctx context.Context, ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
		return
	default:
	}
	if event.Type != EventDone && event.Type != EventError {
		return
	}
	select {
	case ch <- event:
	case <-ctx.Done():
	}
}
