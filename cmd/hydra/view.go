package main

import (
	"github.com/John-Robertt/hydra/internal/domain"
)

// 输出视图：把领域类型（含封闭接口）展开为可直接编码的结构。

type recordView struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Link        string        `json:"link"`
	Category    string        `json:"category"`
	Type        string        `json:"type,omitempty"`
	Cover       string        `json:"cover,omitempty"`
	Description string        `json:"description,omitempty"`
	Genres      []tagView     `json:"genres"`
	Ranking     *rankingView  `json:"ranking,omitempty"`
	State       stateView     `json:"state"`
	Related     []relatedView `json:"related"`
	Chapters    chaptersView  `json:"chapters"`
	Sections    []sectionView `json:"sections,omitempty"`
}

type tagView struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

type rankingView struct {
	Stars float64 `json:"stars"`
	Votes int     `json:"votes"`
}

type stateView struct {
	Completed bool   `json:"completed"`
	Day       string `json:"day,omitempty"`
}

type relatedView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	Relation string `json:"relation"`
}

type chapterView struct {
	Link      string  `json:"link"`
	Number    float64 `json:"number"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Comments  *int    `json:"comments,omitempty"`
}

type chaptersView struct {
	Kind   string       `json:"kind"` // single / paged / none
	Total  int          `json:"total"`
	Single *chapterView `json:"single,omitempty"`
	Pages  []pageView   `json:"pages,omitempty"`
}

type pageView struct {
	Key   int           `json:"key"`
	Items []chapterView `json:"items"`
	Next  *int          `json:"next,omitempty"`
	Error string        `json:"error,omitempty"`
}

type sectionView struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Data  any    `json:"data"`
}

type optionView struct {
	Link    string            `json:"link"`
	Name    string            `json:"name,omitempty"`
	Quality string            `json:"quality,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type decodeView struct {
	Link    string       `json:"link"`
	OK      bool         `json:"ok"`
	Decoder string       `json:"decoder,omitempty"`
	Direct  bool         `json:"direct"`
	Error   string       `json:"error,omitempty"`
	Options []optionView `json:"options"`
}

func newRecordView(rec domain.InfoRecord) recordView {
	v := recordView{
		ID:          rec.ID,
		Name:        rec.Name,
		Link:        rec.Link,
		Category:    string(rec.Category),
		Type:        rec.Type,
		Cover:       rec.Cover,
		Description: rec.Description,
		Genres:      make([]tagView, 0, len(rec.Genres)),
		State:       stateView{Completed: rec.State.Completed},
		Related:     make([]relatedView, 0, len(rec.Related)),
		Chapters:    newChaptersView(rec.Chapters),
	}
	for _, g := range rec.Genres {
		v.Genres = append(v.Genres, tagView{Name: g.Name, Payload: g.Payload})
	}
	if rec.Ranking != nil {
		v.Ranking = &rankingView{Stars: rec.Ranking.Stars, Votes: rec.Ranking.Votes}
	}
	if rec.State.Day != nil {
		v.State.Day = rec.State.Day.String()
	}
	for _, r := range rec.Related {
		v.Related = append(v.Related, relatedView{ID: r.ID, Name: r.Name, Link: r.Link, Relation: r.Relation})
	}
	for _, s := range rec.Sections {
		v.Sections = append(v.Sections, newSectionView(s))
	}
	return v
}

func newChapterView(c domain.Chapter) chapterView {
	return chapterView{Link: c.Link, Number: c.Number, Thumbnail: c.Thumbnail, Comments: c.Comments}
}

func newChaptersView(data domain.ChapterData) chaptersView {
	switch d := data.(type) {
	case domain.SingleChapter:
		c := newChapterView(d.Chapter)
		return chaptersView{Kind: "single", Total: 1, Single: &c}
	case domain.PagedChapters:
		if d.Pager == nil {
			return chaptersView{Kind: "none"}
		}
		return chaptersView{Kind: "paged", Total: d.Pager.Len()}
	default:
		return chaptersView{Kind: "none"}
	}
}

func newPageView(p domain.ChapterPage) pageView {
	v := pageView{Key: p.Key, Items: make([]chapterView, 0, len(p.Items)), Next: p.NextKey}
	for _, c := range p.Items {
		v.Items = append(v.Items, newChapterView(c))
	}
	return v
}

type textView struct {
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
	Value  string `json:"value,omitempty"`
}

type collectionItemView struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

func newSectionView(s domain.Section) sectionView {
	v := sectionView{Title: s.Title}
	switch p := s.Payload.(type) {
	case domain.TextData:
		v.Kind = "text"
		v.Data = textView{Text: p.Text, Action: string(p.Action.Kind), Value: p.Action.Value}
	case domain.GalleryData:
		v.Kind = "gallery"
		items := make([]map[string]string, 0, len(p.Items))
		for _, it := range p.Items {
			items = append(items, map[string]string{"kind": string(it.Kind), "link": it.Link})
		}
		v.Data = items
	case domain.CollectionData:
		v.Kind = "collection"
		items := make([]collectionItemView, 0, len(p.Items))
		for _, it := range p.Items {
			cv := collectionItemView{Name: it.Name, Role: it.Role}
			if it.Image != nil {
				cv.Image = it.Image.Link
			}
			items = append(items, cv)
		}
		v.Data = items
	case domain.MusicData:
		v.Kind = "music"
		items := make([]map[string]string, 0, len(p.Items))
		for _, m := range p.Items {
			items = append(items, map[string]string{"name": m.Name, "link": m.Link, "kind": m.Kind})
		}
		v.Data = items
	case domain.YoutubeData:
		v.Kind = "youtube"
		v.Data = map[string]string{"video_id": p.VideoID}
	default:
		v.Kind = "unknown"
	}
	return v
}

// summary 是区块在表格中的单行摘要。
func (s sectionView) summary() string {
	switch d := s.Data.(type) {
	case textView:
		return d.Text
	case []map[string]string:
		return plural(len(d), "item")
	case []collectionItemView:
		return plural(len(d), "person")
	case map[string]string:
		return d["video_id"]
	}
	return ""
}

func newOptionViews(opts []domain.Option) []optionView {
	out := make([]optionView, 0, len(opts))
	for _, o := range opts {
		out = append(out, optionView{Link: o.DirectLink, Name: o.Name, Quality: string(o.Quality), Headers: o.Headers})
	}
	return out
}
