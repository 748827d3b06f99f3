package handler

import (
	"time"

	"github.com/hitoshi/kbase/internal/browse"
	"github.com/hitoshi/kbase/internal/facet"
	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/model"
)

// --- レスポンス型 ---

// categoryResponse は分類定義のレスポンス。
type categoryResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NameEn        string   `json:"name_en"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color"`
	Subcategories []string `json:"subcategories"`
}

// categoryCountResponse は分類と件数のレスポンス。
type categoryCountResponse struct {
	categoryResponse
	Count int `json:"count"`
}

// categoryListResponse は分類一覧のレスポンス。
type categoryListResponse struct {
	Categories []categoryCountResponse `json:"categories"`
	Total      int                     `json:"total"`
}

// tagListResponse は人気タグのレスポンス。
type tagListResponse struct {
	Tags []string `json:"tags"`
}

// stateResponse は絞り込み状態のレスポンス。
type stateResponse struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Tags        []string `json:"tags"`
	SearchQuery string   `json:"search_query"`
	SortBy      string   `json:"sort_by"`
	ViewMode    string   `json:"view_mode"`
}

// itemSummaryResponse は資料一覧のサマリーレスポンス。
type itemSummaryResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory"`
	Tags          []string  `json:"tags"`
	ExtraTagCount int       `json:"extra_tag_count"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Views         int       `json:"views"`
	Downloads     int       `json:"downloads"`
	Rating        float64   `json:"rating"`
	FileType      string    `json:"file_type"`
	FileSize      string    `json:"file_size"`
	FileKind      string    `json:"file_kind"`
	Thumbnail     string    `json:"thumbnail"`
	HasImage      bool      `json:"has_image"`
	ExternalURL   string    `json:"external_url,omitempty"`
}

// itemListResponse はステートレス検索のレスポンス。
type itemListResponse struct {
	State stateResponse         `json:"state"`
	Items []itemSummaryResponse `json:"items"`
	Total int                   `json:"total"`
}

// itemDetailResponse は資料詳細のレスポンス。
type itemDetailResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    categoryResponse `json:"category"`
	Subcategory string           `json:"subcategory"`
	Tags        []string         `json:"tags"`
	Author      string           `json:"author"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Views       int              `json:"views"`
	Downloads   int              `json:"downloads"`
	Rating      float64          `json:"rating"`
	FileType    string           `json:"file_type"`
	FileSize    string           `json:"file_size"`
	FileKind    string           `json:"file_kind"`
	Thumbnail   string           `json:"thumbnail"`
	HasImage    bool             `json:"has_image"`
	ExternalURL string           `json:"external_url,omitempty"`
	Content     string           `json:"content"` // サニタイズ済みHTML
	Excerpt     string           `json:"excerpt"`
}

// suggestionResponse は検索候補のレスポンス。
type suggestionResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type"`
}

// suggestionListResponse は検索候補一覧のレスポンス。
type suggestionListResponse struct {
	Suggestions []suggestionResponse `json:"suggestions"`
}

// facetsResponse はナビゲーション用の集計レスポンス。
type facetsResponse struct {
	Categories  []categoryCountResponse `json:"categories"`
	PopularTags []string                `json:"popular_tags"`
	Total       int                     `json:"total"`
}

// viewResponse はセッションの閲覧画面のレスポンス。
type viewResponse struct {
	State           stateResponse         `json:"state"`
	Items           []itemSummaryResponse `json:"items"`
	Total           int                   `json:"total"`
	Facets          facetsResponse        `json:"facets"`
	CurrentCategory *categoryResponse     `json:"current_category"`
	ShowOverview    bool                  `json:"show_overview"`
	ShowPopularTags bool                  `json:"show_popular_tags"`
}

// actionRequest は状態遷移リクエストのボディ。
type actionRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// --- 変換 ---

func toCategoryResponse(c *model.Category) categoryResponse {
	subs := c.Subcategories
	if subs == nil {
		subs = []string{}
	}
	return categoryResponse{
		ID:            string(c.ID),
		Name:          c.Name,
		NameEn:        c.NameEn,
		Description:   c.Description,
		Icon:          c.Icon,
		Color:         c.Color,
		Subcategories: subs,
	}
}

func toCategoryCountResponses(counts []facet.CategoryCount) []categoryCountResponse {
	out := make([]categoryCountResponse, len(counts))
	for i := range counts {
		out[i] = categoryCountResponse{
			categoryResponse: toCategoryResponse(&counts[i].Category),
			Count:            counts[i].Count,
		}
	}
	return out
}

func toStateResponse(s filter.State) stateResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return stateResponse{
		Category:    string(s.Category),
		Subcategory: s.Subcategory,
		Tags:        tags,
		SearchQuery: s.SearchQuery,
		SortBy:      string(s.SortBy),
		ViewMode:    string(s.ViewMode),
	}
}

func toItemSummaryResponses(items []browse.ItemSummary) []itemSummaryResponse {
	out := make([]itemSummaryResponse, len(items))
	for i, item := range items {
		tags := item.Tags
		if tags == nil {
			tags = []string{}
		}
		out[i] = itemSummaryResponse{
			ID:            item.ID,
			Title:         item.Title,
			Description:   item.Description,
			Category:      string(item.Category),
			Subcategory:   item.Subcategory,
			Tags:          tags,
			ExtraTagCount: item.ExtraTagCount,
			Author:        item.Author,
			CreatedAt:     item.CreatedAt,
			UpdatedAt:     item.UpdatedAt,
			Views:         item.Views,
			Downloads:     item.Downloads,
			Rating:        item.Rating,
			FileType:      item.FileType,
			FileSize:      item.FileSize,
			FileKind:      string(item.FileKind),
			Thumbnail:     item.Thumbnail,
			HasImage:      item.HasImage,
			ExternalURL:   item.ExternalURL,
		}
	}
	return out
}

func toItemDetailResponse(d *browse.ItemDetail) itemDetailResponse {
	tags := d.Item.Tags
	if tags == nil {
		tags = []string{}
	}
	return itemDetailResponse{
		ID:          d.Item.ID,
		Title:       d.Item.Title,
		Description: d.Item.Description,
		Category:    toCategoryResponse(&d.Category),
		Subcategory: d.Item.Subcategory,
		Tags:        tags,
		Author:      d.Item.Author,
		CreatedAt:   d.Item.CreatedAt,
		UpdatedAt:   d.Item.UpdatedAt,
		Views:       d.Item.Views,
		Downloads:   d.Item.Downloads,
		Rating:      d.Item.Rating,
		FileType:    d.Item.FileType,
		FileSize:    d.Item.FileSize,
		FileKind:    string(d.FileKind),
		Thumbnail:   d.Item.Thumbnail,
		HasImage:    d.HasImage,
		ExternalURL: d.Item.ExternalURL,
		Content:     d.Content,
		Excerpt:     d.Excerpt,
	}
}

func toSuggestionResponses(suggestions []model.SearchSuggestion) []suggestionResponse {
	out := make([]suggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = suggestionResponse{
			ID:       s.ID,
			Title:    s.Title,
			Category: s.Category,
			Type:     string(s.Type),
		}
	}
	return out
}

func toViewResponse(v *browse.View) viewResponse {
	resp := viewResponse{
		State: toStateResponse(v.State),
		Items: toItemSummaryResponses(v.Items),
		Total: v.Total,
		Facets: facetsResponse{
			Categories:  toCategoryCountResponses(v.Facets.Categories),
			PopularTags: v.Facets.PopularTags,
			Total:       v.Facets.Total,
		},
		ShowOverview:    v.ShowOverview,
		ShowPopularTags: v.ShowPopularTags,
	}
	if resp.Facets.PopularTags == nil {
		resp.Facets.PopularTags = []string{}
	}
	if v.CurrentCategory != nil {
		c := toCategoryResponse(v.CurrentCategory)
		resp.CurrentCategory = &c
	}
	return resp
}
