package model

// WarningKind 可恢复异常类型
type WarningKind string

const (
	WarnMissingColumn  WarningKind = "missing_column"  // 缺列：已通过别名/位置/默认值恢复
	WarnTypeCoercion   WarningKind = "type_coercion"   // 非数值：按 0 处理
	WarnPositionalPick WarningKind = "positional_pick" // 按列位置兜底
	WarnDroppedRows    WarningKind = "dropped_rows"    // 关键字段为空的行不参与汇总
)

// Warning 归一化过程中被吸收的异常（不会中断流水线）
type Warning struct {
	Input   string      `json:"input"`
	Kind    WarningKind `json:"kind"`
	Column  string      `json:"column"`
	Message string      `json:"message"`
	Count   int         `json:"count,omitempty"`
}
