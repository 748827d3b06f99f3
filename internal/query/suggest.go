package query

import (
	"strings"

	"github.com/hitoshi/kbase/internal/model"
)

// Suggest は検索ボックス向けの候補を返す。
// 分類名（中文名・英語名）、タグ、資料タイトルの順に、q を大文字小文字を区別せず
// 部分一致で照合し、最大 limit 件を返す。q が空または limit<=0 の場合は空を返す。
func Suggest(categories []model.Category, tags []string, items []model.Item, q string, limit int) []model.SearchSuggestion {
	out := []model.SearchSuggestion{}
	query := strings.ToLower(q)
	if query == "" || limit <= 0 {
		return out
	}

	for i := range categories {
		c := &categories[i]
		if containsFold(c.Name, query) || containsFold(c.NameEn, query) {
			out = append(out, model.SearchSuggestion{
				ID:       string(c.ID),
				Title:    c.Name,
				Category: string(c.ID),
				Type:     model.SuggestionCategory,
			})
			if len(out) >= limit {
				return out
			}
		}
	}

	for _, tag := range tags {
		if containsFold(tag, query) {
			out = append(out, model.SearchSuggestion{
				ID:    tag,
				Title: tag,
				Type:  model.SuggestionTag,
			})
			if len(out) >= limit {
				return out
			}
		}
	}

	for i := range items {
		item := &items[i]
		if containsFold(item.Title, query) {
			out = append(out, model.SearchSuggestion{
				ID:       item.ID,
				Title:    item.Title,
				Category: string(item.Category),
				Type:     model.SuggestionItem,
			})
			if len(out) >= limit {
				return out
			}
		}
	}

	return out
}

// containsFold は s を小文字化して小文字化済みの query を含むかどうかを返す。
func containsFold(s, query string) bool {
	return strings.Contains(strings.ToLower(s), query)
}
