package recon

import (
	"errors"
	"fmt"
)

// 流水线阶段
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageSales     = "sales"
	StageInventory = "inventory"
	StageReturns   = "returns"
	StageReconcile = "reconcile"
)

// 输入表标识
const (
	InputSales         = "sales"
	InputProductMaster = "productMaster"
	InputInventory     = "inventory"
	InputReturns       = "returns"
)

// InputNames 四张输入表（处理顺序）
var InputNames = []string{InputSales, InputProductMaster, InputInventory, InputReturns}

// ErrMissingInput 缺少输入表
var ErrMissingInput = errors.New("input table missing")

// PipelineError 不可恢复的流水线错误，整次运行中止、不产出任何结果
type PipelineError struct {
	Stage string
	Input string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Input, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Fail 构造 PipelineError
func Fail(stage, input string, err error) error {
	return &PipelineError{Stage: stage, Input: input, Err: err}
}
