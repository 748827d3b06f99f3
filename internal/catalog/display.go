package catalog

import (
	"regexp"
	"strings"
)

// FileKind はファイル種別から表示用アイコンの種類を決める。
type FileKind string

const (
	FileKindDocument FileKind = "document"
	FileKindVideo    FileKind = "video"
	FileKindImage    FileKind = "image"
	FileKindArchive  FileKind = "archive"
	FileKindCode     FileKind = "code"
)

// fileKinds は拡張子（小文字）からアイコン種類への対応表。
var fileKinds = map[string]FileKind{
	"pdf":  FileKindDocument,
	"doc":  FileKindDocument,
	"docx": FileKindDocument,
	"mp4":  FileKindVideo,
	"avi":  FileKindVideo,
	"mov":  FileKindVideo,
	"jpg":  FileKindImage,
	"png":  FileKindImage,
	"gif":  FileKindImage,
	"zip":  FileKindArchive,
	"rar":  FileKindArchive,
	"7z":   FileKindArchive,
	"js":   FileKindCode,
	"ts":   FileKindCode,
	"html": FileKindCode,
	"css":  FileKindCode,
}

// KindOf はファイル種別に対応するアイコン種類を返す。未知の種別は document とする。
func KindOf(fileType string) FileKind {
	if k, ok := fileKinds[strings.ToLower(fileType)]; ok {
		return k
	}
	return FileKindDocument
}

var imageURLPattern = regexp.MustCompile(`(?i)^(https?://|/).+\.(png|jpe?g|gif|webp|svg)$`)

// IsImageURL はサムネイルが画像URLかどうかを返す。
// 画像URLでない値は表示層が生成するプレースホルダ用のトークンとして扱う。
func IsImageURL(thumbnail string) bool {
	if thumbnail == "" {
		return false
	}
	return imageURLPattern.MatchString(thumbnail)
}
