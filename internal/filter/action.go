package filter

import "github.com/hitoshi/kbase/internal/model"

// ActionType はユーザー操作に対応する状態遷移の種別。
type ActionType string

const (
	ActionSetCategory    ActionType = "set_category"
	ActionSetSubcategory ActionType = "set_subcategory"
	ActionToggleTag      ActionType = "toggle_tag"
	ActionClearTags      ActionType = "clear_tags"
	ActionSetSearchQuery ActionType = "set_search_query"
	ActionSetSortBy      ActionType = "set_sort_by"
	ActionSetViewMode    ActionType = "set_view_mode"
	ActionReset          ActionType = "reset"
)

// Action は表示層から届く1回分の状態遷移要求。
type Action struct {
	Type  ActionType
	Value string
}

// Dispatch は遷移要求を1つの遷移に対応付けて新しい State を返す。
//
// 未知の操作種別、並び順、表示モードは *model.APIError を返す。
// 未知の分類・サブ分類は受け付ける（一致する資料がないだけで、エラーではない）。
// エラー時は元の State をそのまま返す。
func (s State) Dispatch(a Action) (State, error) {
	switch a.Type {
	case ActionSetCategory:
		return s.SetCategory(model.CategoryID(a.Value)), nil
	case ActionSetSubcategory:
		return s.SetSubcategory(a.Value), nil
	case ActionToggleTag:
		return s.ToggleTag(a.Value), nil
	case ActionClearTags:
		return s.ClearTags(), nil
	case ActionSetSearchQuery:
		return s.SetSearchQuery(a.Value), nil
	case ActionSetSortBy:
		key, err := ParseSortKey(a.Value)
		if err != nil {
			return s, err
		}
		return s.SetSortBy(key), nil
	case ActionSetViewMode:
		mode, err := ParseViewMode(a.Value)
		if err != nil {
			return s, err
		}
		return s.SetViewMode(mode), nil
	case ActionReset:
		return Default(), nil
	default:
		return s, model.NewInvalidActionError(string(a.Type))
	}
}

// ParseSortKey は文字列を並び順に変換する。
func ParseSortKey(v string) (model.SortKey, error) {
	key := model.SortKey(v)
	if !key.Valid() {
		return "", model.NewInvalidSortError(v)
	}
	return key, nil
}

// ParseViewMode は文字列を表示モードに変換する。
func ParseViewMode(v string) (model.ViewMode, error) {
	mode := model.ViewMode(v)
	if !mode.Valid() {
		return "", model.NewInvalidViewModeError(v)
	}
	return mode, nil
}

// Params は URL クエリや CLI フラグから組み立てる絞り込み条件。
// 空文字列のフィールドは既定値のままとする。
type Params struct {
	Category    string
	Subcategory string
	Tags        []string
	SearchQuery string
	SortBy      string
	ViewMode    string
}

// FromParams は既定状態から遷移を順に適用して State を組み立てる。
// 分類を先に適用するため、サブ分類の指定は分類変更でリセットされない。
func FromParams(p Params) (State, error) {
	s := Default()

	if p.Category != "" {
		s = s.SetCategory(model.CategoryID(p.Category))
	}
	if p.Subcategory != "" {
		s = s.SetSubcategory(p.Subcategory)
	}
	for _, tag := range p.Tags {
		if tag == "" || s.HasTag(tag) {
			continue
		}
		s = s.ToggleTag(tag)
	}
	s = s.SetSearchQuery(p.SearchQuery)

	if p.SortBy != "" {
		key, err := ParseSortKey(p.SortBy)
		if err != nil {
			return Default(), err
		}
		s = s.SetSortBy(key)
	}
	if p.ViewMode != "" {
		mode, err := ParseViewMode(p.ViewMode)
		if err != nil {
			return Default(), err
		}
		s = s.SetViewMode(mode)
	}

	return s, nil
}
