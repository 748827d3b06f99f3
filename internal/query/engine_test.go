package query

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

// scenarioItems は2件だけの最小カタログ。
func scenarioItems() []model.Item {
	return []model.Item{
		{ID: "a", Title: "Alpha", Category: model.CategoryTheory, Tags: []string{"x"}, Views: 10, Rating: 4.5, CreatedAt: date("2024-01-01")},
		{ID: "b", Title: "Beta", Category: model.CategoryPapers, Tags: []string{"y"}, Views: 50, Rating: 3.0, CreatedAt: date("2024-06-01")},
	}
}

// sampleItems はプロパティ検証用の少し大きなカタログ。
func sampleItems() []model.Item {
	return []model.Item{
		{ID: "1", Title: "系统工程导论", Description: "Systems engineering basics", Category: model.CategoryTheory, Subcategory: "系统工程", Tags: []string{"SE", "入门"}, Views: 120, Rating: 4.8, CreatedAt: date("2024-03-01")},
		{ID: "2", Title: "ISO 26262 解读", Description: "Functional safety", Category: model.CategoryStandards, Subcategory: "国际标准", Tags: []string{"安全", "汽车"}, Views: 300, Rating: 4.2, CreatedAt: date("2024-05-10")},
		{ID: "3", Title: "apple orchard model", Description: "simulation of growth", Category: model.CategorySimulation, Subcategory: "建模", Tags: []string{"仿真"}, Views: 120, Rating: 4.2, CreatedAt: date("2024-03-01")},
		{ID: "4", Title: "Banana supply chain", Description: "A case study", Category: model.CategoryCasesPositive, Subcategory: "供应链", Tags: []string{"SE", "案例"}, Views: 80, Rating: 3.9, CreatedAt: date("2023-12-24")},
		{ID: "5", Title: "Failure of Project X", Description: "Lessons learned from SE mistakes", Category: model.CategoryCasesNegative, Subcategory: "项目管理", Tags: []string{"教训"}, Views: 80, Rating: 4.8, CreatedAt: date("2024-05-10")},
		{ID: "6", Title: "Patent: safety valve", Description: "", Category: model.CategoryPatents, Subcategory: "机械", Tags: []string{"安全"}, Views: 5, Rating: 2.0, CreatedAt: date("2022-01-01")},
	}
}

func TestApply_ConcreteScenario(t *testing.T) {
	items := scenarioItems()
	s := filter.Default()

	if got := ids(Apply(items, s)); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("newest = %v, want [b a]", got)
	}
	if got := ids(Apply(items, s.SetSortBy(model.SortPopular))); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("popular = %v, want [b a]", got)
	}
	if got := ids(Apply(items, s.SetSortBy(model.SortName))); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("name = %v, want [a b]", got)
	}
	if got := ids(Apply(items, s.ToggleTag("y"))); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("tags=[y] = %v, want [b]", got)
	}
	if got := ids(Apply(items, s.SetSearchQuery("alp"))); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("search=alp = %v, want [a]", got)
	}
	if got := Apply(items, s.SetCategory(model.CategoryPatents)); len(got) != 0 {
		t.Errorf("category=patents = %v, want empty", ids(got))
	}
}

func TestApply_DefaultsReturnWholeCatalog(t *testing.T) {
	items := sampleItems()
	for _, key := range []model.SortKey{model.SortNewest, model.SortPopular, model.SortRating, model.SortName} {
		got := Apply(items, filter.Default().SetSortBy(key))
		if len(got) != len(items) {
			t.Errorf("sort=%s: len = %d, want %d", key, len(got), len(items))
		}
	}
}

func TestApply_EmptyCatalog(t *testing.T) {
	got := Apply(nil, filter.Default())
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := sampleItems()
	before := ids(items)

	Apply(items, filter.Default().SetSortBy(model.SortName))
	Apply(items, filter.Default().SetSortBy(model.SortPopular))

	if got := ids(items); !reflect.DeepEqual(got, before) {
		t.Errorf("input order changed: %v, want %v", got, before)
	}
}

func TestApply_CategoryAndSubcategory(t *testing.T) {
	items := sampleItems()

	got := Apply(items, filter.Default().SetCategory(model.CategoryStandards))
	if !reflect.DeepEqual(ids(got), []string{"2"}) {
		t.Errorf("category=standards = %v, want [2]", ids(got))
	}

	got = Apply(items, filter.Default().SetCategory(model.CategoryStandards).SetSubcategory("国际标准"))
	if !reflect.DeepEqual(ids(got), []string{"2"}) {
		t.Errorf("subcategory match = %v, want [2]", ids(got))
	}

	// 分類に属さないサブ分類はエラーではなく0件になる
	got = Apply(items, filter.Default().SetCategory(model.CategoryStandards).SetSubcategory("建模"))
	if len(got) != 0 {
		t.Errorf("mismatched subcategory = %v, want empty", ids(got))
	}

	// 分類が all でもサブ分類だけで絞り込める
	got = Apply(items, filter.Default().SetSubcategory("建模"))
	if !reflect.DeepEqual(ids(got), []string{"3"}) {
		t.Errorf("subcategory only = %v, want [3]", ids(got))
	}
}

func TestApply_TagFilterIsAnyOf(t *testing.T) {
	items := sampleItems()
	selections := [][]string{
		{"SE"},
		{"安全"},
		{"SE", "安全"},
		{"仿真", "教训", "unknown"},
		{"unknown"},
	}

	for _, sel := range selections {
		t.Run(strings.Join(sel, ","), func(t *testing.T) {
			s := filter.Default()
			for _, tag := range sel {
				s = s.ToggleTag(tag)
			}
			got := Apply(items, s)

			inResult := map[string]bool{}
			for _, item := range got {
				inResult[item.ID] = true
				if !intersects(item.Tags, sel) {
					t.Errorf("item %s has tags %v, no intersection with %v", item.ID, item.Tags, sel)
				}
			}
			for _, item := range items {
				if intersects(item.Tags, sel) && !inResult[item.ID] {
					t.Errorf("item %s with tags %v missing from result", item.ID, item.Tags)
				}
			}
		})
	}
}

func TestApply_MultipleTagsBroaden(t *testing.T) {
	items := sampleItems()
	one := Apply(items, filter.Default().ToggleTag("SE"))
	two := Apply(items, filter.Default().ToggleTag("SE").ToggleTag("安全"))

	if len(two) <= len(one) {
		t.Errorf("selecting more tags should broaden: %d <= %d", len(two), len(one))
	}
}

func TestApply_Search(t *testing.T) {
	items := sampleItems()
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"2", "5", "1", "3", "4", "6"}},
		{"SAFETY", []string{"2", "6"}},           // 説明・タイトル、大文字小文字を区別しない
		{"se", []string{"5", "1", "4"}},          // タグ "SE" と説明
		{"安全", []string{"2", "6"}},               // タグ
		{"a", []string{"2", "5", "1", "3", "4", "6"}}, // 1文字でも有効
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(Apply(items, filter.Default().SetSearchQuery(tt.query)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("search %q = %v, want %v", tt.query, got, tt.want)
			}
			q := strings.ToLower(tt.query)
			for _, item := range Apply(items, filter.Default().SetSearchQuery(tt.query)) {
				if !matchSearch(&item, q) {
					t.Errorf("item %s does not contain %q", item.ID, tt.query)
				}
			}
		})
	}
}

func TestApply_SortOrders(t *testing.T) {
	items := sampleItems()

	got := Apply(items, filter.Default().SetSortBy(model.SortNewest))
	for i := 1; i < len(got); i++ {
		if got[i-1].CreatedAt.Before(got[i].CreatedAt) {
			t.Errorf("newest not non-increasing at %d", i)
		}
	}

	got = Apply(items, filter.Default().SetSortBy(model.SortPopular))
	for i := 1; i < len(got); i++ {
		if got[i-1].Views < got[i].Views {
			t.Errorf("popular not non-increasing at %d", i)
		}
	}

	got = Apply(items, filter.Default().SetSortBy(model.SortRating))
	for i := 1; i < len(got); i++ {
		if got[i-1].Rating < got[i].Rating {
			t.Errorf("rating not non-increasing at %d", i)
		}
	}
}

func TestApply_SortIsStable(t *testing.T) {
	items := sampleItems()

	// 1 と 3 は閲覧数・作成日が同じ、4 と 5 は閲覧数が同じ、1 と 5 は評価が同じ
	tests := []struct {
		key  model.SortKey
		want []string
	}{
		{model.SortNewest, []string{"2", "5", "1", "3", "4", "6"}},
		{model.SortPopular, []string{"2", "1", "3", "4", "5", "6"}},
		{model.SortRating, []string{"1", "5", "2", "3", "4", "6"}},
	}
	for _, tt := range tests {
		got := ids(Apply(items, filter.Default().SetSortBy(tt.key)))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("sort=%s = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestApply_NameUsesCollation(t *testing.T) {
	items := []model.Item{
		{ID: "B", Title: "Banana"},
		{ID: "a", Title: "apple"},
		{ID: "c", Title: "cherry"},
	}

	got := ids(Apply(items, filter.Default().SetSortBy(model.SortName)))
	// バイト順なら "Banana" が先頭になる
	if !reflect.DeepEqual(got, []string{"a", "B", "c"}) {
		t.Errorf("name = %v, want [a B c]", got)
	}
}

func TestApply_NameStableForEqualTitles(t *testing.T) {
	items := []model.Item{
		{ID: "1", Title: "Same"},
		{ID: "2", Title: "Other"},
		{ID: "3", Title: "Same"},
	}
	got := ids(NewEngine(language.English).Apply(items, filter.Default().SetSortBy(model.SortName)))
	if !reflect.DeepEqual(got, []string{"2", "1", "3"}) {
		t.Errorf("name = %v, want [2 1 3]", got)
	}
}

func TestApply_UnknownSortKeepsCatalogOrder(t *testing.T) {
	items := sampleItems()
	s := filter.Default()
	s.SortBy = "unknown"

	got := ids(Apply(items, s))
	if !reflect.DeepEqual(got, ids(items)) {
		t.Errorf("unknown sort = %v, want catalog order", got)
	}
}

func TestApply_Idempotent(t *testing.T) {
	items := sampleItems()
	states := []filter.State{
		filter.Default(),
		filter.Default().SetSortBy(model.SortName).ToggleTag("SE"),
		filter.Default().SetSearchQuery("a").SetSortBy(model.SortRating),
	}
	for i, s := range states {
		first := Apply(items, s)
		second := Apply(items, s)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("state %d: results differ between calls", i)
		}
	}
}

func TestEngine_Locale(t *testing.T) {
	e := NewEngine(language.Chinese)
	if e.Locale() != language.Chinese {
		t.Errorf("Locale = %v, want %v", e.Locale(), language.Chinese)
	}
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func ExampleApply() {
	items := []model.Item{
		{ID: "a", Title: "Alpha", Category: model.CategoryTheory, Tags: []string{"x"}, Views: 10, CreatedAt: date("2024-01-01")},
		{ID: "b", Title: "Beta", Category: model.CategoryPapers, Tags: []string{"y"}, Views: 50, CreatedAt: date("2024-06-01")},
	}
	for _, item := range Apply(items, filter.Default()) {
		fmt.Println(item.ID)
	}
	// Output:
	// b
	// a
}
