package recon

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"salesrecon/internal/model"
	"salesrecon/internal/parser"
)

// Inputs 四张原始输入表
type Inputs struct {
	Sales         *model.Table
	ProductMaster *model.Table
	Inventory     *model.Table
	Returns       *model.Table
}

func (in Inputs) table(name string) *model.Table {
	switch name {
	case InputSales:
		return in.Sales
	case InputProductMaster:
		return in.ProductMaster
	case InputInventory:
		return in.Inventory
	case InputReturns:
		return in.Returns
	}
	return nil
}

// Options 流水线选项
type Options struct {
	FuzzyMaxDistance int
	BrandSubtotals   bool
	Logger           *zap.Logger
	// Progress 每进入一个阶段回调一次，可为 nil
	Progress func(stage string)
}

// Result 一次对账的全部产物
type Result struct {
	Sales      *model.Table    `json:"-"`
	SalesPivot *model.Table    `json:"-"`
	Inventory  *model.Table    `json:"-"`
	Returns    *model.Table    `json:"-"`
	Reconciled *model.Table    `json:"-"`
	Warnings   []model.Warning `json:"warnings"`
}

// Table 按名称取结果表
func (r *Result) Table(name string) (*model.Table, bool) {
	var t *model.Table
	switch name {
	case model.TableSales:
		t = r.Sales
	case model.TableSalesPivot:
		t = r.SalesPivot
	case model.TableInventory:
		t = r.Inventory
	case model.TableReturns:
		t = r.Returns
	case model.TableReconciled:
		t = r.Reconciled
	}
	return t, t != nil
}

// RowCounts 各结果表行数
func (r *Result) RowCounts() map[string]int {
	out := make(map[string]int, len(model.TableNames))
	for _, name := range model.TableNames {
		if t, ok := r.Table(name); ok {
			out[name] = len(t.Rows)
		}
	}
	return out
}

// Run 执行 归一化 -> 汇总 -> 对账。
// 任一阶段出现结构性错误即中止并返回 *PipelineError，不产出部分结果。
func Run(ctx context.Context, in Inputs, opts Options) (res *Result, err error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	stage := StageNormalize

	defer func() {
		if p := recover(); p != nil {
			log.Error("reconciliation panicked", zap.String("stage", stage), zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			res = nil
			err = Fail(stage, "", fmt.Errorf("unexpected failure: %v", p))
		}
	}()

	enter := func(s string) error {
		stage = s
		if err := ctx.Err(); err != nil {
			return Fail(s, "", err)
		}
		if opts.Progress != nil {
			opts.Progress(s)
		}
		log.Debug("reconciliation stage", zap.String("stage", s))
		return nil
	}

	for _, name := range InputNames {
		if in.table(name) == nil {
			return nil, Fail(StageNormalize, name, ErrMissingInput)
		}
	}

	if err := enter(StageNormalize); err != nil {
		return nil, err
	}
	norm := NewNormalizer(parser.NewResolver(opts.FuzzyMaxDistance))
	sales := norm.NormalizeSales(in.Sales)
	pm := norm.NormalizeProductMaster(in.ProductMaster)
	invIn := norm.NormalizeInventory(in.Inventory)
	retIn := norm.NormalizeReturns(in.Returns)

	if err := enter(StageSales); err != nil {
		return nil, err
	}
	sales = JoinProductMaster(sales, pm)
	pivot := AggregateSales(sales, SalesOptions{BrandSubtotals: opts.BrandSubtotals})

	if err := enter(StageInventory); err != nil {
		return nil, err
	}
	inv := AggregateInventory(invIn)

	if err := enter(StageReturns); err != nil {
		return nil, err
	}
	ret := AggregateReturns(retIn)

	if err := enter(StageReconcile); err != nil {
		return nil, err
	}
	reconciled := Reconcile(pivot, inv, ret)

	warnings := norm.Warnings()
	for _, w := range warnings {
		log.Warn("input degraded to default",
			zap.String("input", w.Input),
			zap.String("kind", string(w.Kind)),
			zap.String("column", w.Column),
			zap.String("message", w.Message),
			zap.Int("rows", w.Count),
		)
	}

	return &Result{
		Sales:      sales,
		SalesPivot: pivot,
		Inventory:  inv.Table,
		Returns:    ret.Table,
		Reconciled: reconciled,
		Warnings:   warnings,
	}, nil
}
