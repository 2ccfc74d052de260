package domain

import "context"

// Chapter 描述一集/一章。
type Chapter struct {
	SeriesID   string
	SeriesLink string
	Link       string
	Number     float64 // 允许 12.5 这样的特别篇编号
	Thumbnail  string
	Comments   *int
}

// ChapterData 是章节数据的三态：nil（不存在）、SingleChapter、PagedChapters。
type ChapterData interface {
	chapterData()
}

// SingleChapter 用于剧场版等只有一集的条目。
type SingleChapter struct {
	Chapter Chapter
}

// PagedChapters 按页懒加载章节列表。
type PagedChapters struct {
	Pager ChapterPager
}

func (SingleChapter) chapterData() {}
func (PagedChapters) chapterData() {}

// ChapterPage 是一次分页加载的结果。
// PrevKey/NextKey 为 nil 表示没有上一页/下一页。
type ChapterPage struct {
	Key     int
	Items   []Chapter
	PrevKey *int
	NextKey *int
}

// ChapterPager 由分页驱动方（外部）按页号调用。
type ChapterPager interface {
	Len() int
	PageSize() int
	Load(ctx context.Context, key int) (ChapterPage, error)
}
