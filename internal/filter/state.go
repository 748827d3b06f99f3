// Package filter はユーザーの絞り込み状態（FilterState）とその状態遷移を提供する。
//
// State は値オブジェクトであり、すべての遷移は新しい State を返す。
// 受け取った State を変更することはなく、返却値がレシーバのタグスライスを
// 共有することもない。
package filter

import "github.com/hitoshi/kbase/internal/model"

// State は現在の絞り込み・並び順・表示モードのスナップショット。
// 隠れたフィールドは持たず、この値そのものが状態である。
type State struct {
	Category    model.CategoryID
	Subcategory string
	Tags        []string // 選択順を保持する
	SearchQuery string
	SortBy      model.SortKey
	ViewMode    model.ViewMode
}

// Default は初期状態（all / all / タグなし / 検索なし / newest / grid）を返す。
func Default() State {
	return State{
		Category:    model.CategoryAll,
		Subcategory: model.All,
		Tags:        []string{},
		SearchQuery: "",
		SortBy:      model.SortNewest,
		ViewMode:    model.ViewGrid,
	}
}

// clone はタグスライスを複製した State を返す。
func (s State) clone() State {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	s.Tags = tags
	return s
}

// SetCategory は分類を変更し、サブ分類を all に戻す。
// サブ分類の選択肢は分類ごとに異なるため、分類変更後は意味を失う。
func (s State) SetCategory(c model.CategoryID) State {
	next := s.clone()
	next.Category = c
	next.Subcategory = model.All
	return next
}

// SetSubcategory はサブ分類を変更する。分類は変更しない。
func (s State) SetSubcategory(sub string) State {
	next := s.clone()
	next.Subcategory = sub
	return next
}

// ToggleTag は選択済みならタグを外し、未選択なら末尾に追加する。
func (s State) ToggleTag(tag string) State {
	next := State{
		Category:    s.Category,
		Subcategory: s.Subcategory,
		Tags:        make([]string, 0, len(s.Tags)+1),
		SearchQuery: s.SearchQuery,
		SortBy:      s.SortBy,
		ViewMode:    s.ViewMode,
	}

	removed := false
	for _, t := range s.Tags {
		if t == tag {
			removed = true
			continue
		}
		next.Tags = append(next.Tags, t)
	}
	if !removed {
		next.Tags = append(next.Tags, tag)
	}
	return next
}

// ClearTags は選択タグを空にする。
func (s State) ClearTags() State {
	next := s
	next.Tags = []string{}
	return next
}

// SetSearchQuery は検索文字列をそのまま置き換える。
// トリムや正規化は行わない（照合時にのみ小文字化する）。
func (s State) SetSearchQuery(q string) State {
	next := s.clone()
	next.SearchQuery = q
	return next
}

// SetSortBy は並び順を置き換える。
func (s State) SetSortBy(k model.SortKey) State {
	next := s.clone()
	next.SortBy = k
	return next
}

// SetViewMode は表示モードを置き換える。
func (s State) SetViewMode(m model.ViewMode) State {
	next := s.clone()
	next.ViewMode = m
	return next
}

// HasTag はタグが選択済みかどうかを返す。
func (s State) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsUnfiltered は分類・タグ・検索のいずれも指定されていないかどうかを返す。
// サブ分類は分類が all の場合に意味を持たないため判定に含めない。
func (s State) IsUnfiltered() bool {
	return s.Category == model.CategoryAll && len(s.Tags) == 0 && s.SearchQuery == ""
}
