package record

import (
	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
)

// Layout 描述详情页的标记约定：每个字段一个定位器，内嵌数据用 Pattern 提取。
//
// 换站点只需要换 Layout；组装流程不变。
type Layout struct {
	// Source 参与 ID 兜底计算（文档缺少 id 时用 Source+Link 做稳定哈希）。
	Source   string
	Category domain.Category

	ID          extract.Locator
	Name        extract.Locator
	Link        extract.Locator
	Cover       extract.Locator
	Description extract.Locator
	Type        extract.Locator
	Genres      extract.Locator // 每个匹配节点一个 Tag，Attr 指向链接
	Stars       extract.Locator
	Votes       extract.Locator
	AltNames    extract.Locator

	StatusNode     string
	CompletedClass string
	ScheduleField  extract.Pattern

	TypeNode   string
	MovieClass string

	ChapterList       extract.Pattern
	ChapterLinkFrom   string // canonical 链接中替换为章节链接的片段
	ChapterLinkTo     string
	ThumbnailTemplate string // 支持 {series} / {chapter}

	RelatedItems string
}

// DefaultName 是标题缺失时的占位。
const DefaultName = "???"

// DefaultLayout 返回默认站点标记约定。
func DefaultLayout() Layout {
	return Layout{
		Source:   "animeflv",
		Category: domain.CategoryAnime,

		ID:          extract.Locator{Selector: ".Strs.RateIt", Attr: "data-id"},
		Name:        extract.Locator{Selector: "h1.Title"},
		Link:        extract.Locator{Selector: "link[rel=canonical]", Attr: "href"},
		Cover:       extract.Locator{Selector: "div.Image img", Attr: "src", Abs: true},
		Description: extract.Locator{Selector: "div.Description"},
		Type:        extract.Locator{Selector: "span.Type"},
		Genres:      extract.Locator{Selector: "nav.Nvgnrs a", Attr: "href"},
		Stars:       extract.Locator{Selector: "span#votes_prmd"},
		Votes:       extract.Locator{Selector: "span#votes_nmbr"},
		AltNames:    extract.Locator{Selector: ".TxtAlt"},

		StatusNode:     "p.AnmStts",
		CompletedClass: "A",
		ScheduleField:  extract.MustPattern(`anime_info = \[(.*)\];`),

		TypeNode:   "span.Type",
		MovieClass: "movie",

		ChapterList:       extract.MustPattern(`episodes = \[(\[.*\])\];`),
		ChapterLinkFrom:   "/anime/",
		ChapterLinkTo:     "/ver/",
		ThumbnailTemplate: "https://cdn.animeflv.net/screenshots/{series}/{chapter}/th_3.jpg",

		RelatedItems: "ul.ListAnmRel li",
	}
}
