package model

// 规范列名
const (
	ColProductID      = "Product Id"
	ColFinalSaleUnits = "Final Sale Units"
	ColBrand          = "Brand"
	ColBrandManager   = "Brand Manager"
	ColSalesBrand     = "Brand1" // 销售报表自带的品牌列，避免与商品主数据冲突
	ColInventory      = "Inventory"
	ColClosed         = "closed"
	ColInTransit      = "in_transit"
	ColGrandTotal     = GrandTotalLabel
)

// 退货状态
const (
	StatusClosed    = "closed"
	StatusInTransit = "in_transit"
)

// UnknownBrand 缺少品牌时的默认值
const UnknownBrand = "Unknown"

// 结果表名
const (
	TableSales      = "sales"
	TableSalesPivot = "sales_pivot"
	TableInventory  = "inventory"
	TableReturns    = "returns"
	TableReconciled = "reconciled"
)

// TableNames 所有结果表（展示顺序）
var TableNames = []string{
	TableSales,
	TableInventory,
	TableReturns,
	TableReconciled,
	TableSalesPivot,
}

// ExportFilename 结果表下载文件名
func ExportFilename(table string) string {
	switch table {
	case TableSales:
		return "sales_report.xlsx"
	case TableInventory:
		return "inventory.xlsx"
	case TableReturns:
		return "returns_pivot.xlsx"
	case TableReconciled:
		return "sales_vs_inventory_vs_returns.xlsx"
	case TableSalesPivot:
		return "sales_pivot.xlsx"
	default:
		return table + ".xlsx"
	}
}
