package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// skipTextElements は本文テキストとして扱わない要素。
var skipTextElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"title":  true,
}

// Excerpt はHTML本文からタグを除いたプレーンテキストを取り出し、
// 連続する空白を1つにまとめて最大 maxRunes 文字に切り詰める。
// 切り詰めた場合は末尾に "…" を付ける。maxRunes<=0 の場合は切り詰めない。
func Excerpt(content string, maxRunes int) string {
	if content == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skipDepth := 0

loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF 以外の解析エラーでもそこまでのテキストを使う
			break loop
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipTextElements[string(name)] {
				skipDepth++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipTextElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}

	text := collapseSpace(b.String())
	return truncateRunes(text, maxRunes)
}

// collapseSpace は連続する空白文字を1つの半角スペースにまとめ、前後の空白を除く。
func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
