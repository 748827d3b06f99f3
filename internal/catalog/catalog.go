// Package catalog は起動時に1回だけ構築される不変のナレッジカタログを提供する。
//
// Catalog は分類定義、資料一覧、および資料から導出したタグ一覧を保持する。
// 構築後に変更されることはなく、検索エンジンと表示層に参照として貸し出す。
// 返却するスライスは呼び出し側で変更してはならない。
package catalog

import (
	"fmt"

	"github.com/hitoshi/kbase/internal/model"
)

// Catalog は分類・資料・タグ一覧の不変コレクション。
type Catalog struct {
	categories    []model.Category
	items         []model.Item
	tags          []string
	itemIndex     map[string]int
	categoryIndex map[model.CategoryID]int
}

// New は分類と資料からカタログを構築する。
// 資料IDの重複、未定義の分類を参照する資料、分類IDの重複はエラーとする。
// サブ分類の不一致や評価値の範囲外は Lint で警告として報告し、エラーにはしない。
func New(categories []model.Category, items []model.Item) (*Catalog, error) {
	c := &Catalog{
		categories:    categories,
		items:         items,
		itemIndex:     make(map[string]int, len(items)),
		categoryIndex: make(map[model.CategoryID]int, len(categories)),
	}

	for i, cat := range categories {
		if _, dup := c.categoryIndex[cat.ID]; dup {
			return nil, fmt.Errorf("分類IDが重複しています: %s", cat.ID)
		}
		c.categoryIndex[cat.ID] = i
	}

	for i, item := range items {
		if _, dup := c.itemIndex[item.ID]; dup {
			return nil, fmt.Errorf("資料IDが重複しています: %s", item.ID)
		}
		if _, ok := c.categoryIndex[item.Category]; !ok {
			return nil, fmt.Errorf("資料 %s が未定義の分類を参照しています: %s", item.ID, item.Category)
		}
		c.itemIndex[item.ID] = i
	}

	c.tags = buildTagUniverse(items)

	return c, nil
}

// buildTagUniverse は資料をカタログ順に走査し、最初に出現した順で重複を除いたタグ一覧を返す。
func buildTagUniverse(items []model.Item) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, item := range items {
		for _, tag := range item.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// Categories は分類定義を表示順で返す。
func (c *Catalog) Categories() []model.Category {
	return c.categories
}

// Items は資料をカタログ順で返す。
func (c *Catalog) Items() []model.Item {
	return c.items
}

// Tags はタグ一覧を最初に出現した順で返す。
func (c *Catalog) Tags() []string {
	return c.tags
}

// Len は資料件数を返す。
func (c *Catalog) Len() int {
	return len(c.items)
}

// Item は指定IDの資料を返す。見つからない場合はfalseを返す。
func (c *Catalog) Item(id string) (model.Item, bool) {
	i, ok := c.itemIndex[id]
	if !ok {
		return model.Item{}, false
	}
	return c.items[i], true
}

// Category は指定IDの分類を返す。all や未知の分類の場合はfalseを返す。
func (c *Catalog) Category(id model.CategoryID) (model.Category, bool) {
	i, ok := c.categoryIndex[id]
	if !ok {
		return model.Category{}, false
	}
	return c.categories[i], true
}

// Lint はカタログの不整合のうちエラーにしないものを警告文として返す。
func (c *Catalog) Lint() []string {
	var warnings []string
	for _, item := range c.items {
		cat, _ := c.Category(item.Category)
		if item.Subcategory != "" && item.Subcategory != model.All && !cat.HasSubcategory(item.Subcategory) {
			warnings = append(warnings, fmt.Sprintf("資料 %s のサブ分類 %q は分類 %s に定義されていません", item.ID, item.Subcategory, item.Category))
		}
		if item.Rating < 0 || item.Rating > 5 {
			warnings = append(warnings, fmt.Sprintf("資料 %s の評価値 %.2f が0〜5の範囲外です", item.ID, item.Rating))
		}
	}
	return warnings
}
