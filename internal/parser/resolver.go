package parser

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// MatchRule 列命中的规则
type MatchRule string

const (
	MatchNone     MatchRule = "none"
	MatchExact    MatchRule = "exact"
	MatchFold     MatchRule = "fold"     // 忽略大小写
	MatchFuzzy    MatchRule = "fuzzy"    // 编辑距离
	MatchPosition MatchRule = "position" // 按列位置兜底
)

// Resolution 列解析结果
type Resolution struct {
	Column string    `json:"column"`
	Rule   MatchRule `json:"rule"`
}

// Found 是否命中
func (r Resolution) Found() bool {
	return r.Rule != MatchNone
}

// Resolver 列名解析器：按候选别名顺序在表头中查找列
type Resolver struct {
	// FuzzyMaxDistance 大于 0 时启用编辑距离匹配
	FuzzyMaxDistance int
}

// NewResolver 创建列名解析器
func NewResolver(fuzzyMaxDistance int) *Resolver {
	if fuzzyMaxDistance < 0 {
		fuzzyMaxDistance = 0
	}
	return &Resolver{FuzzyMaxDistance: fuzzyMaxDistance}
}

// Resolve 先大小写敏感精确匹配，再忽略大小写匹配，返回第一个命中的实际列名
func Resolve(columns, candidates []string) (string, bool) {
	r := Resolver{}
	res := r.Resolve(columns, candidates)
	return res.Column, res.Found()
}

// Resolve 解析列名；未命中时 Rule 为 MatchNone
func (r *Resolver) Resolve(columns, candidates []string) Resolution {
	for _, cand := range candidates {
		for _, col := range columns {
			if col == cand {
				return Resolution{Column: col, Rule: MatchExact}
			}
		}
	}

	for _, cand := range candidates {
		want := strings.ToLower(strings.TrimSpace(cand))
		for _, col := range columns {
			if strings.ToLower(strings.TrimSpace(col)) == want {
				return Resolution{Column: col, Rule: MatchFold}
			}
		}
	}

	if r.FuzzyMaxDistance > 0 {
		if col, ok := r.fuzzy(columns, candidates); ok {
			return Resolution{Column: col, Rule: MatchFuzzy}
		}
	}

	return Resolution{Rule: MatchNone}
}

// ResolveOr 解析失败时按位置兜底；position 为负数时从末尾计数（-1 为最后一列）
func (r *Resolver) ResolveOr(columns, candidates []string, position int) Resolution {
	if res := r.Resolve(columns, candidates); res.Found() {
		return res
	}
	idx := position
	if idx < 0 {
		idx = len(columns) + position
	}
	if idx < 0 || idx >= len(columns) {
		return Resolution{Rule: MatchNone}
	}
	return Resolution{Column: columns[idx], Rule: MatchPosition}
}

// fuzzy 在距离阈值内挑选距离最小的列；距离相同时候选顺序靠前者优先
func (r *Resolver) fuzzy(columns, candidates []string) (string, bool) {
	best := ""
	bestDist := r.FuzzyMaxDistance + 1
	for _, cand := range candidates {
		want := []rune(foldHeader(cand))
		for _, col := range columns {
			got := []rune(foldHeader(col))
			if len(got) == 0 {
				continue
			}
			d := levenshtein.DistanceForStrings(want, got, levenshtein.DefaultOptions)
			if d < bestDist {
				best = col
				bestDist = d
			}
		}
	}
	return best, best != ""
}

func foldHeader(s string) string {
	return strings.ToLower(NormalizeColumnName(s))
}
