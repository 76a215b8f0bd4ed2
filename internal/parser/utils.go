package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// maxExponent 文本数值允许的十进制指数绝对值，超出按非数值处理
const maxExponent = 18

// NormalizeColumnName 规范化列名：去除首尾空白、换行与制表符，压缩连续空白
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")
	name = strings.ReplaceAll(name, "\t", " ")
	return whitespaceRe.ReplaceAllString(name, " ")
}

// ParseNumber 尽力把文本解析为数值
// 支持千分位、科学计数法、会计负数 "(12)"；失败或指数超出 ±18 返回 (0, false)
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	// 1e200000000 之类的值在后续取整/求和时会展开成巨型整数
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
