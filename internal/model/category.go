package model

// Category はナレッジ分類の定義を表す。
// Icon と Color は表示層向けの記号名で、エンジンは参照しない。
type Category struct {
	ID            CategoryID
	Name          string
	NameEn        string
	Description   string
	Icon          string
	Color         string
	Subcategories []string
}

// HasSubcategory はサブ分類がこの分類に属するかどうかを返す。
func (c *Category) HasSubcategory(sub string) bool {
	for _, s := range c.Subcategories {
		if s == sub {
			return true
		}
	}
	return false
}

// SuggestionType は検索候補の種別を表す。
type SuggestionType string

const (
	SuggestionItem     SuggestionType = "item"
	SuggestionTag      SuggestionType = "tag"
	SuggestionCategory SuggestionType = "category"
)

// SearchSuggestion は検索ボックスに提示する候補を表す。
type SearchSuggestion struct {
	ID       string
	Title    string
	Category string
	Type     SuggestionType
}
