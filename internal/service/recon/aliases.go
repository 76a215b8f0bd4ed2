package recon

// 各输入表的候选列名（按优先级排列）
var (
	salesIDAliases    = []string{"Product Id", "FSN", "FNS", "ProductID", "Identifier"}
	salesUnitsAliases = []string{"Final Sale Units"}

	pmIDAliases      = []string{"FNS", "FSN", "Product Id", "ProductID", "Identifier"}
	pmManagerAliases = []string{"Brand Manager", "BrandManager", "BM"}
	pmBrandAliases   = []string{"Brand", "Brand Name"}

	inventoryIDAliases  = []string{"Flipkart's Identifier of the product", "FSN", "Product Id", "Identifier", "SKU"}
	inventoryQtyAliases = []string{"Current stock count for your product", "Stock", "Inventory", "Quantity", "Qty"}

	returnsIDAliases     = []string{"FSN", "FNS", "Product Id", "Identifier"}
	returnsStatusAliases = []string{"Completion Status", "Status", "Return Status"}
	returnsQtyAliases    = []string{"Quantity", "Qty", "Units"}
)

// 商品主数据的固定版式：第 1 列为商品标识，第 5 列为品牌经理，第 6 列为品牌
const (
	pmIDPosition      = 0
	pmManagerPosition = 4
	pmBrandPosition   = 5
)

// 缺列时合成的默认列名
const (
	defaultReturnsStatusColumn = "Completion Status"
	defaultReturnsQtyColumn    = "Quantity"
	defaultInventoryIDColumn   = "Flipkart's Identifier of the product"
	defaultInventoryQtyColumn  = "Current stock count for your product"
)

// statusSynonyms 退货状态同义词
var statusSynonyms = map[string]string{
	"delivered": "closed",
	"open":      "in_transit",
}
