// Package model はドメインモデルを定義する。
package model

import "time"

// CategoryID はナレッジ分類の識別子を表す。
type CategoryID string

const (
	CategoryTheory         CategoryID = "theory"
	CategoryStandards      CategoryID = "standards"
	CategoryPapers         CategoryID = "papers"
	CategoryPatents        CategoryID = "patents"
	CategoryCasesPositive  CategoryID = "cases-positive"
	CategoryCasesNegative  CategoryID = "cases-negative"
	CategorySimulation     CategoryID = "simulation"
	CategorySoftwareGuides CategoryID = "software-guides"
)

// KnownCategoryIDs は固定の分類一覧を表示順で返す。
func KnownCategoryIDs() []CategoryID {
	return []CategoryID{
		CategoryTheory,
		CategoryStandards,
		CategoryPapers,
		CategoryPatents,
		CategoryCasesPositive,
		CategoryCasesNegative,
		CategorySimulation,
		CategorySoftwareGuides,
	}
}

// All は分類・サブ分類の「すべて」を表すセンチネル値。
const All = "all"

// CategoryAll は分類フィルタを無効にするセンチネル値。
const CategoryAll CategoryID = All

// Item はナレッジベースに収録された1件の資料を表す。
type Item struct {
	ID          string
	Title       string
	Description string
	Category    CategoryID
	Subcategory string
	Tags        []string // 表示順を保持する。照合時は集合として扱う
	Author      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Views       int
	Downloads   int
	Rating      float64 // 0〜5を想定するがエンジンでは検証しない
	FileType    string
	FileSize    string
	Thumbnail   string // 画像URLまたは任意のトークン
	Content     string // 未サニタイズのHTML
	ExternalURL string
}

// HasTag は記事が指定タグを持つかどうかを返す。
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SortKey は一覧の並び順を表す。
type SortKey string

const (
	// SortNewest は作成日時の新しい順。
	SortNewest SortKey = "newest"
	// SortPopular は閲覧数の多い順。
	SortPopular SortKey = "popular"
	// SortRating は評価の高い順。
	SortRating SortKey = "rating"
	// SortName はタイトルのロケール順。
	SortName SortKey = "name"
)

// ViewMode は一覧の表示密度を表す。
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// validSortKeys は有効な並び順のセット。
var validSortKeys = map[SortKey]bool{
	SortNewest:  true,
	SortPopular: true,
	SortRating:  true,
	SortName:    true,
}

// validViewModes は有効な表示モードのセット。
var validViewModes = map[ViewMode]bool{
	ViewGrid: true,
	ViewList: true,
}

// Valid は並び順が既知の値かどうかを返す。
func (k SortKey) Valid() bool { return validSortKeys[k] }

// Valid は表示モードが既知の値かどうかを返す。
func (m ViewMode) Valid() bool { return validViewModes[m] }
