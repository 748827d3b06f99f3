// Package facet はナビゲーション用の集計値（分類ごとの件数、人気タグ）を提供する。
//
// 集計は常に絞り込み前のカタログ全体に対して行う。絞り込み中でも全体の件数を
// 見せるためであり、現在の表示結果の件数ではない。
package facet

import "github.com/hitoshi/kbase/internal/model"

// CountsByCategory は分類ごとの資料件数を返す。
// categories に含まれる分類は資料が0件でもキーとして含める。
// 未知の分類を参照する資料もその分類IDで数える。
func CountsByCategory(items []model.Item, categories []model.Category) map[model.CategoryID]int {
	counts := make(map[model.CategoryID]int, len(categories))
	for _, c := range categories {
		counts[c.ID] = 0
	}
	for i := range items {
		counts[items[i].Category]++
	}
	return counts
}

// PopularTags はタグ一覧の先頭 limit 件を返す。
//
// 名前に反して出現頻度による順位付けは行わない。universe はカタログを走査して
// 最初に出現した順に重複を除いたもので、その先頭を切り出すだけである。
// 頻度順に変える場合は表示仕様の確認が必要。
func PopularTags(universe []string, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	if limit > len(universe) {
		limit = len(universe)
	}
	out := make([]string, limit)
	copy(out, universe[:limit])
	return out
}

// CategoryCount は分類ごとの件数を表示順で保持する。
type CategoryCount struct {
	Category model.Category
	Count    int
}

// Summary はナビゲーション表示用の集計結果。
type Summary struct {
	Categories  []CategoryCount
	PopularTags []string
	Total       int
}

// Summarize は分類の表示順に件数を並べ、人気タグを添えた Summary を返す。
func Summarize(categories []model.Category, items []model.Item, universe []string, tagLimit int) Summary {
	counts := CountsByCategory(items, categories)

	cc := make([]CategoryCount, len(categories))
	for i, c := range categories {
		cc[i] = CategoryCount{Category: c, Count: counts[c.ID]}
	}

	return Summary{
		Categories:  cc,
		PopularTags: PopularTags(universe, tagLimit),
		Total:       len(items),
	}
}
