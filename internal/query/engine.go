// Package query はカタログを絞り込み・並べ替える検索エンジンを提供する。
//
// Apply は (items, state) の純粋関数であり、副作用を持たず入力スライスも変更しない。
// 状態が変わるたびに全件を再計算する前提で、結果のキャッシュは行わない。
package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/model"
)

// Engine はタイトル順ソートに使うロケールを保持する検索エンジン。
// Collator はゴルーチンセーフではないため、Apply の呼び出しごとに生成する。
type Engine struct {
	locale language.Tag
}

// NewEngine は指定ロケールで照合する Engine を生成する。
func NewEngine(locale language.Tag) *Engine {
	return &Engine{locale: locale}
}

// defaultEngine はロケール非依存（ルート照合）の Engine。
var defaultEngine = NewEngine(language.Und)

// Apply はルート照合の Engine で絞り込みと並べ替えを行う。
func Apply(items []model.Item, state filter.State) []model.Item {
	return defaultEngine.Apply(items, state)
}

// Locale は照合に使うロケールを返す。
func (e *Engine) Locale() language.Tag {
	return e.locale
}

// Apply は state に従って items を絞り込み、安定ソートした新しいスライスを返す。
//
// 絞り込みは 分類 → サブ分類 → タグ（いずれか一致）→ 検索 の順に適用する。
// 各段は独立した述語の論理積なので、順序は結果に影響しない。
// 一致がなければ空スライスを返す（エラーではない）。
func (e *Engine) Apply(items []model.Item, state filter.State) []model.Item {
	query := strings.ToLower(state.SearchQuery)

	result := make([]model.Item, 0, len(items))
	for i := range items {
		item := &items[i]
		if !matchCategory(item, state.Category) {
			continue
		}
		if !matchSubcategory(item, state.Subcategory) {
			continue
		}
		if !matchAnyTag(item, state.Tags) {
			continue
		}
		if !matchSearch(item, query) {
			continue
		}
		result = append(result, *item)
	}

	e.sort(result, state.SortBy)
	return result
}

// matchCategory は分類が all または一致する場合に真を返す。
func matchCategory(item *model.Item, c model.CategoryID) bool {
	return c == model.CategoryAll || item.Category == c
}

// matchSubcategory はサブ分類が all または一致する場合に真を返す。
func matchSubcategory(item *model.Item, sub string) bool {
	return sub == model.All || item.Subcategory == sub
}

// matchAnyTag は選択タグが空、または資料が選択タグのいずれかを持つ場合に真を返す。
// 複数タグの選択は結果を広げる（all-of ではなく any-of）。
func matchAnyTag(item *model.Item, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, tag := range selected {
		if item.HasTag(tag) {
			return true
		}
	}
	return false
}

// matchSearch は小文字化済みの query がタイトル、説明、いずれかのタグの部分文字列である場合に真を返す。
// 最小文字数の制限はなく、1文字でも絞り込む。
func matchSearch(item *model.Item, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// sort は並び順に従って安定ソートする。同順位の資料は絞り込み後の相対順を保つ。
// 未知の並び順の場合は並べ替えない。
func (e *Engine) sort(items []model.Item, key model.SortKey) {
	switch key {
	case model.SortNewest:
		slices.SortStableFunc(items, func(a, b model.Item) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case model.SortPopular:
		slices.SortStableFunc(items, func(a, b model.Item) int {
			return cmp.Compare(b.Views, a.Views)
		})
	case model.SortRating:
		slices.SortStableFunc(items, func(a, b model.Item) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case model.SortName:
		col := collate.New(e.locale)
		slices.SortStableFunc(items, func(a, b model.Item) int {
			return col.CompareString(a.Title, b.Title)
		})
	}
}
