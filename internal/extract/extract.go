// Package extract 从已解析的 HTML 文档中按声明式定位器读取字段。
//
// 约束：
// - 找不到元素是合法结果（返回 ok=false），从不返回 error；是否致命由调用方决定
// - 只读：同一份文档可以被多个 goroutine 同时读取
package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator 是声明式定位器：CSS 选择器 + 可选属性名。
//
// Attr 为空时读取元素文本（空白折叠）；Abs=true 时把属性值解析为绝对 URL。
type Locator struct {
	Selector string
	Attr     string
	Abs      bool
}

// Doc 是只读文档视图。
type Doc struct {
	root *goquery.Selection
	base *url.URL
}

// FromDocument 包装 goquery 文档；doc.Url 用作相对链接的解析基准（可为 nil）。
func FromDocument(doc *goquery.Document) Doc {
	if doc == nil {
		return Doc{root: &goquery.Selection{}}
	}
	return Doc{root: doc.Selection, base: doc.Url}
}

// Root 返回文档根选择集（调用方不得修改）。
func (d Doc) Root() *goquery.Selection { return d.root }

// Base 返回文档 URL（可能为 nil）。
func (d Doc) Base() *url.URL { return d.base }

// Find 返回匹配 selector 的全部节点。
func (d Doc) Find(selector string) *goquery.Selection { return d.root.Find(selector) }

// String 读取第一个匹配节点的值。
func (d Doc) String(loc Locator) (string, bool) {
	return Value(d.root, loc, d.base)
}

// StringOr 读取字段，缺失或为空时返回 def。
func (d Doc) StringOr(loc Locator, def string) string {
	if v, ok := d.String(loc); ok && v != "" {
		return v
	}
	return def
}

func (d Doc) Int(loc Locator) (int, bool) {
	v, ok := d.String(loc)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (d Doc) Float(loc Locator) (float64, bool) {
	v, ok := d.String(loc)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// All 按文档顺序返回所有匹配节点的值（跳过空值）。
func (d Doc) All(loc Locator) []string {
	var out []string
	d.root.Find(loc.Selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := nodeValue(s, loc, d.base); ok && v != "" {
			out = append(out, v)
		}
	})
	return out
}

// Scripts 返回所有 <script> 的文本（内嵌数据字面量只在这里查找）。
func (d Doc) Scripts() string {
	var b strings.Builder
	d.root.Find("script").Each(func(_ int, s *goquery.Selection) {
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})
	return b.String()
}

// Resolve 把 href 解析为绝对 URL；无法解析时原样返回。
func (d Doc) Resolve(href string) string { return resolveURL(d.base, href) }

// Value 在 root 下读取第一个匹配节点的值。
func Value(root *goquery.Selection, loc Locator, base *url.URL) (string, bool) {
	if root == nil || strings.TrimSpace(loc.Selector) == "" {
		return "", false
	}
	s := root.Find(loc.Selector).First()
	if s.Length() == 0 {
		return "", false
	}
	return nodeValue(s, loc, base)
}

func nodeValue(s *goquery.Selection, loc Locator, base *url.URL) (string, bool) {
	if loc.Attr == "" {
		return NormSpace(s.Text()), true
	}
	v, ok := s.Attr(loc.Attr)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if loc.Abs {
		v = resolveURL(base, v)
	}
	return v, true
}

// NormSpace 折叠连续空白。
func NormSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if base == nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ru).String()
}
