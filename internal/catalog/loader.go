package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hitoshi/kbase/internal/model"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// timestampLayouts は createdAt/updatedAt に受け付ける書式。
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// catalogFile はカタログファイル（YAML または JSON）の構造。
// キー名は元データのJSON形式に合わせてcamelCaseとする。
type catalogFile struct {
	Categories []categoryRecord `yaml:"categories" validate:"required,min=1,dive"`
	Items      []itemRecord     `yaml:"items" validate:"dive"`
}

type categoryRecord struct {
	ID            string   `yaml:"id" validate:"required,category"`
	Name          string   `yaml:"name" validate:"required"`
	NameEn        string   `yaml:"nameEn"`
	Description   string   `yaml:"description"`
	Icon          string   `yaml:"icon"`
	Color         string   `yaml:"color"`
	Subcategories []string `yaml:"subcategories" validate:"dive,required"`
}

type itemRecord struct {
	ID          string   `yaml:"id" validate:"required"`
	Title       string   `yaml:"title" validate:"required"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category" validate:"required,category"`
	Subcategory string   `yaml:"subcategory"`
	Tags        []string `yaml:"tags" validate:"dive,required"`
	Author      string   `yaml:"author"`
	CreatedAt   string   `yaml:"createdAt" validate:"required,timestamp"`
	UpdatedAt   string   `yaml:"updatedAt" validate:"omitempty,timestamp"`
	Views       int      `yaml:"views" validate:"gte=0"`
	Downloads   int      `yaml:"downloads" validate:"gte=0"`
	Rating      float64  `yaml:"rating"`
	FileType    string   `yaml:"fileType"`
	FileSize    string   `yaml:"fileSize"`
	Thumbnail   string   `yaml:"thumbnail"`
	Content     string   `yaml:"content"`
	ExternalURL string   `yaml:"externalUrl" validate:"omitempty,url"`
}

// newValidator はカタログ用のカスタムルールを登録した validator を生成する。
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := parseTimestamp(value)
		return err == nil
	})

	known := make(map[string]bool)
	for _, id := range model.KnownCategoryIDs() {
		known[string(id)] = true
	}
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return known[value]
	})

	return v
}

// parseTimestamp は受け付ける書式のいずれかで日時を解析する。
// タイムゾーンのない書式はUTCとして扱う。
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("日時の形式が不正です: %q", s)
}

// Load はYAMLまたはJSON形式のカタログを読み込み、検証してから Catalog を構築する。
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("カタログが空です")
		}
		return nil, fmt.Errorf("カタログの解析に失敗しました: %w", err)
	}

	if err := newValidator().Struct(&file); err != nil {
		return nil, fmt.Errorf("カタログの検証に失敗しました: %w", describeValidation(err))
	}

	categories := make([]model.Category, len(file.Categories))
	for i, rec := range file.Categories {
		categories[i] = model.Category{
			ID:            model.CategoryID(rec.ID),
			Name:          rec.Name,
			NameEn:        rec.NameEn,
			Description:   rec.Description,
			Icon:          rec.Icon,
			Color:         rec.Color,
			Subcategories: nonNil(rec.Subcategories),
		}
	}

	items := make([]model.Item, len(file.Items))
	for i, rec := range file.Items {
		item, err := rec.toModel()
		if err != nil {
			return nil, fmt.Errorf("資料 %s の変換に失敗しました: %w", rec.ID, err)
		}
		items[i] = item
	}

	return New(categories, items)
}

// LoadFile は指定パスのカタログファイルを読み込む。
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("カタログファイルを開けません: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// LoadDefault はバイナリに埋め込まれた既定のカタログを読み込む。
func LoadDefault() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// toModel はファイル上のレコードをドメインモデルに変換する。
// updatedAt が省略された場合は createdAt と同じ値とする。
func (rec itemRecord) toModel() (model.Item, error) {
	createdAt, err := parseTimestamp(rec.CreatedAt)
	if err != nil {
		return model.Item{}, err
	}
	updatedAt := createdAt
	if rec.UpdatedAt != "" {
		updatedAt, err = parseTimestamp(rec.UpdatedAt)
		if err != nil {
			return model.Item{}, err
		}
	}

	return model.Item{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Category:    model.CategoryID(rec.Category),
		Subcategory: rec.Subcategory,
		Tags:        nonNil(rec.Tags),
		Author:      rec.Author,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Views:       rec.Views,
		Downloads:   rec.Downloads,
		Rating:      rec.Rating,
		FileType:    rec.FileType,
		FileSize:    rec.FileSize,
		Thumbnail:   rec.Thumbnail,
		Content:     rec.Content,
		ExternalURL: rec.ExternalURL,
	}, nil
}

// describeValidation は validator のエラーをフィールド単位の読みやすい文に変換する。
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s %v", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
