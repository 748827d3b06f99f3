// Package browse は絞り込み状態・検索エンジン・集計を組み合わせた閲覧機能を提供する。
package browse

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/kbase/internal/catalog"
	"github.com/hitoshi/kbase/internal/facet"
	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/metrics"
	"github.com/hitoshi/kbase/internal/model"
	"github.com/hitoshi/kbase/internal/query"
	"github.com/hitoshi/kbase/internal/security"
	"github.com/hitoshi/kbase/internal/session"
)

const (
	// cardTagLimit は一覧カードに表示するタグ数。残りは件数だけ返す。
	cardTagLimit = 3
	// excerptLength は資料詳細の抜粋の最大文字数。
	excerptLength = 120
)

// Service は閲覧機能のサービス。
// カタログは不変のため、セッション状態以外はロックなしで参照する。
type Service struct {
	catalog   *catalog.Catalog
	engine    *query.Engine
	sessions  *session.Store
	sanitizer security.ContentSanitizerService
	metrics   metrics.MetricsCollector
	tagLimit  int
}

// NewService はServiceの新しいインスタンスを生成する。
// collector が nil の場合はメトリクスを記録しない。
func NewService(
	cat *catalog.Catalog,
	engine *query.Engine,
	sessions *session.Store,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	popularTagLimit int,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		catalog:   cat,
		engine:    engine,
		sessions:  sessions,
		sanitizer: sanitizer,
		metrics:   collector,
		tagLimit:  popularTagLimit,
	}
}

// ItemSummary は一覧表示用の資料情報。
type ItemSummary struct {
	ID            string
	Title         string
	Description   string
	Category      model.CategoryID
	Subcategory   string
	Tags          []string // 先頭 cardTagLimit 件
	ExtraTagCount int      // 表示しきれなかったタグ数
	Author        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Views         int
	Downloads     int
	Rating        float64
	FileType      string
	FileSize      string
	FileKind      catalog.FileKind
	Thumbnail     string
	HasImage      bool
	ExternalURL   string
}

// ItemDetail は資料詳細。Content はサニタイズ済みHTML。
type ItemDetail struct {
	Item     model.Item
	Category model.Category
	Content  string
	Excerpt  string
	FileKind catalog.FileKind
	HasImage bool
}

// Result は検索結果。
type Result struct {
	State filter.State
	Items []ItemSummary
	Total int
}

// View はセッションの絞り込み状態を適用した閲覧画面の内容。
type View struct {
	State           filter.State
	Items           []ItemSummary
	Total           int
	Facets          facet.Summary
	CurrentCategory *model.Category // 分類未選択または未知の分類の場合は nil
	ShowOverview    bool            // 分類一覧を表示するか
	ShowPopularTags bool            // 人気タグを表示するか
}

// Categories は分類ごとの件数を表示順で返す。件数は常にカタログ全体に対するもの。
func (s *Service) Categories() []facet.CategoryCount {
	return facet.Summarize(s.catalog.Categories(), s.catalog.Items(), nil, 0).Categories
}

// PopularTags はタグ一覧の先頭 limit 件を返す。
func (s *Service) PopularTags(limit int) ([]string, error) {
	if limit < 0 {
		return nil, model.NewInvalidLimitError(strconv.Itoa(limit))
	}
	return facet.PopularTags(s.catalog.Tags(), limit), nil
}

// DefaultTagLimit は設定された人気タグの件数を返す。
func (s *Service) DefaultTagLimit() int {
	return s.tagLimit
}

// Query はセッションに依存しない1回限りの検索を行う。
func (s *Service) Query(p filter.Params) (*Result, error) {
	state, err := filter.FromParams(p)
	if err != nil {
		return nil, err
	}
	items := s.run(state)
	return &Result{State: state, Items: items, Total: len(items)}, nil
}

// View はセッションの現在の状態で閲覧画面を組み立てる。
func (s *Service) View(sessionID string) *View {
	return s.buildView(s.sessions.Get(sessionID))
}

// Dispatch はセッションの状態に遷移を適用し、新しい閲覧画面を返す。
// 不正な遷移要求の場合は状態を変えずにエラーを返す。
func (s *Service) Dispatch(sessionID string, action filter.Action) (*View, error) {
	state, err := s.sessions.Update(sessionID, func(current filter.State) (filter.State, error) {
		return current.Dispatch(action)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(action.Type))
	slog.Debug("state transition applied",
		slog.String("session_id", sessionID),
		slog.String("action", string(action.Type)),
		slog.String("value", action.Value),
	)

	return s.buildView(state), nil
}

// Item は資料詳細を返す。本文はサニタイズし、プレーンテキストの抜粋を添える。
func (s *Service) Item(id string) (*ItemDetail, error) {
	item, ok := s.catalog.Item(id)
	if !ok {
		return nil, model.NewItemNotFoundError(id)
	}
	cat, _ := s.catalog.Category(item.Category)

	return &ItemDetail{
		Item:     item,
		Category: cat,
		Content:  s.sanitizer.Sanitize(item.Content),
		Excerpt:  catalog.Excerpt(item.Content, excerptLength),
		FileKind: catalog.KindOf(item.FileType),
		HasImage: catalog.IsImageURL(item.Thumbnail),
	}, nil
}

// Suggest は検索語に対する候補を返す。
func (s *Service) Suggest(q string, limit int) ([]model.SearchSuggestion, error) {
	if limit < 0 {
		return nil, model.NewInvalidLimitError(strconv.Itoa(limit))
	}
	return query.Suggest(s.catalog.Categories(), s.catalog.Tags(), s.catalog.Items(), q, limit), nil
}

// run は絞り込みと並べ替えを行い、結果件数とレイテンシを記録する。
func (s *Service) run(state filter.State) []ItemSummary {
	start := time.Now()
	items := s.engine.Apply(s.catalog.Items(), state)
	s.metrics.RecordQuery(string(state.SortBy), len(items), time.Since(start))

	summaries := make([]ItemSummary, len(items))
	for i := range items {
		summaries[i] = toSummary(&items[i])
	}
	return summaries
}

func (s *Service) buildView(state filter.State) *View {
	items := s.run(state)

	view := &View{
		State:           state,
		Items:           items,
		Total:           len(items),
		Facets:          facet.Summarize(s.catalog.Categories(), s.catalog.Items(), s.catalog.Tags(), s.tagLimit),
		ShowOverview:    state.IsUnfiltered(),
		ShowPopularTags: state.SearchQuery == "" && len(state.Tags) == 0,
	}
	if cat, ok := s.catalog.Category(state.Category); ok {
		view.CurrentCategory = &cat
	}
	return view
}

func toSummary(item *model.Item) ItemSummary {
	tags := item.Tags
	extra := 0
	if len(tags) > cardTagLimit {
		extra = len(tags) - cardTagLimit
		tags = tags[:cardTagLimit]
	}
	shown := make([]string, len(tags))
	copy(shown, tags)

	return ItemSummary{
		ID:            item.ID,
		Title:         item.Title,
		Description:   item.Description,
		Category:      item.Category,
		Subcategory:   item.Subcategory,
		Tags:          shown,
		ExtraTagCount: extra,
		Author:        item.Author,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
		Views:         item.Views,
		Downloads:     item.Downloads,
		Rating:        item.Rating,
		FileType:      item.FileType,
		FileSize:      item.FileSize,
		FileKind:      catalog.KindOf(item.FileType),
		Thumbnail:     item.Thumbnail,
		HasImage:      catalog.IsImageURL(item.Thumbnail),
		ExternalURL:   item.ExternalURL,
	}
}
