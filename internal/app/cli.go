package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hitoshi/kbase/internal/browse"
	"github.com/hitoshi/kbase/internal/config"
	"github.com/hitoshi/kbase/internal/model"
	"github.com/hitoshi/kbase/internal/query"
	"github.com/hitoshi/kbase/internal/security"
	"github.com/hitoshi/kbase/internal/session"
)

// offlineService はHTTPサーバーを起動せずにカタログを参照するためのサービス一式。
type offlineService struct {
	service *browse.Service
	store   *session.Store
}

func (o *offlineService) close() {
	o.store.Stop()
}

// newOfflineService は設定とカタログを読み込み、メトリクスを記録しないサービスを組み立てる。
func newOfflineService(logOut io.Writer) (*offlineService, error) {
	cfg, err := Init(logOut)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(session.Config{
		MaxAge:          time.Duration(cfg.SessionMaxAge) * time.Second,
		CleanupInterval: cfg.SessionCleanupInterval,
	})
	svc := browse.NewService(cat, query.NewEngine(cfg.SortLocale), store,
		security.NewContentSanitizer(), nil, cfg.PopularTagLimit)

	return &offlineService{service: svc, store: store}, nil
}

// queryItemOutput は query --json の1件分の出力。
type queryItemOutput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Tags        []string  `json:"tags"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	Views       int       `json:"views"`
	Rating      float64   `json:"rating"`
	FileType    string    `json:"file_type"`
}

// queryOutput は query --json の出力。
type queryOutput struct {
	View  string            `json:"view"`
	Total int               `json:"total"`
	Items []queryItemOutput `json:"items"`
}

// runQuery は1回限りの検索を行い、表またはJSONで出力する。
// limit は表示件数のみを制限し、total は一致した全件数を示す。
func runQuery(w io.Writer, svc *browse.Service, opts queryOptions) error {
	result, err := svc.Query(opts.params)
	if err != nil {
		return err
	}

	items := result.Items
	if opts.limit > 0 && len(items) > opts.limit {
		items = items[:opts.limit]
	}

	if opts.json {
		out := queryOutput{
			View:  string(result.State.ViewMode),
			Total: result.Total,
			Items: make([]queryItemOutput, len(items)),
		}
		for i, item := range items {
			out.Items[i] = queryItemOutput{
				ID:          item.ID,
				Title:       item.Title,
				Category:    string(item.Category),
				Subcategory: item.Subcategory,
				Tags:        item.Tags,
				Author:      item.Author,
				CreatedAt:   item.CreatedAt,
				Views:       item.Views,
				Rating:      item.Rating,
				FileType:    item.FileType,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if result.State.ViewMode == model.ViewList {
		// リスト表示は1行に作成者とファイル情報まで出す
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSUBCATEGORY\tAUTHOR\tTYPE\tSIZE\tUPDATED")
		for _, item := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				item.ID, item.Title, item.Category, item.Subcategory, item.Author,
				item.FileType, item.FileSize, item.UpdatedAt.Format("2006-01-02"))
		}
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tVIEWS\tRATING\tCREATED\tTAGS")
		for _, item := range items {
			tags := strings.Join(item.Tags, ",")
			if item.ExtraTagCount > 0 {
				tags += fmt.Sprintf(" +%d", item.ExtraTagCount)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f\t%s\t%s\n",
				item.ID, item.Title, item.Category, item.Views, item.Rating,
				item.CreatedAt.Format("2006-01-02"), tags)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d of %d items\n", len(items), result.Total)
	return err
}

// runCategories は分類ごとの件数を出力する。
func runCategories(w io.Writer, svc *browse.Service) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNT\tSUBCATEGORIES")
	for _, cc := range svc.Categories() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			cc.Category.ID, cc.Category.Name, cc.Count, strings.Join(cc.Category.Subcategories, ", "))
	}
	return tw.Flush()
}

// runCheck はカタログを読み込んで検証し、整合性の警告を出力する。
// strict の場合は警告があればエラーを返す。
func runCheck(w io.Writer, cfg *config.Config, strict bool) error {
	cat, err := LoadCatalog(cfg)
	if err != nil {
		return err
	}

	warnings := cat.Lint()
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "%d items, %d categories, %d tags, %d warnings\n",
		cat.Len(), len(cat.Categories()), len(cat.Tags()), len(warnings))

	if strict && len(warnings) > 0 {
		return fmt.Errorf("catalog has %d warnings", len(warnings))
	}
	return nil
}
