package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/kbase/internal/browse"
	"github.com/hitoshi/kbase/internal/facet"
	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/model"
)

// defaultSuggestionLimit は検索候補の既定の最大件数。
const defaultSuggestionLimit = 8

// CatalogServiceInterface はカタログ参照ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// Categories は分類ごとの件数を表示順で返す。
	Categories() []facet.CategoryCount
	// PopularTags はタグ一覧の先頭 limit 件を返す。
	PopularTags(limit int) ([]string, error)
	// DefaultTagLimit は既定の人気タグ件数を返す。
	DefaultTagLimit() int
	// Query はセッションに依存しない検索を行う。
	Query(p filter.Params) (*browse.Result, error)
	// Item は資料詳細を返す。
	Item(id string) (*browse.ItemDetail, error)
	// Suggest は検索候補を返す。
	Suggest(q string, limit int) ([]model.SearchSuggestion, error)
}

// CatalogHandler はカタログ参照のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListCategories は分類一覧と件数を返す。
// GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	counts := h.service.Categories()

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	writeJSON(w, http.StatusOK, categoryListResponse{
		Categories: toCategoryCountResponses(counts),
		Total:      total,
	})
}

// ListTags は人気タグを返す。
// GET /api/tags?limit=N
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.service.DefaultTagLimit())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	tags, err := h.service.PopularTags(limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagListResponse{Tags: tags})
}

// ListItems は絞り込み条件をクエリパラメータで受け取り、結果を返す。
// GET /api/items?category=&subcategory=&tag=&tag=&q=&sort=&view=
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := filter.Params{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Tags:        q["tag"],
		SearchQuery: q.Get("q"),
		SortBy:      q.Get("sort"),
		ViewMode:    q.Get("view"),
	}

	result, err := h.service.Query(params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemListResponse{
		State: toStateResponse(result.State),
		Items: toItemSummaryResponses(result.Items),
		Total: result.Total,
	})
}

// GetItem は資料詳細を返す。
// GET /api/items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	detail, err := h.service.Item(itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemDetailResponse(detail))
}

// ListSuggestions は検索候補を返す。
// GET /api/suggestions?q=&limit=
func (h *CatalogHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultSuggestionLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	suggestions, err := h.service.Suggest(r.URL.Query().Get("q"), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestionListResponse{
		Suggestions: toSuggestionResponses(suggestions),
	})
}
