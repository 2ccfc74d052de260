package record

import (
	"log/slog"
	"strings"

	"github.com/John-Robertt/hydra/internal/chapters"
	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
)

// SplitChapterLiteral 把 "[1,x],[2,x]" 拆成 ["1","2"]：每个最内层方括号组一项，去掉组内最后一个字段。
// 外层包裹的方括号、组间空白与组外文本都被忽略；未闭合的组丢弃。
func SplitChapterLiteral(lit string) []string {
	var out []string
	start := -1
	for i, r := range lit {
		switch r {
		case '[':
			start = i + 1
		case ']':
			if start < 0 {
				continue
			}
			g := lit[start:i]
			start = -1
			if j := strings.LastIndex(g, ","); j >= 0 {
				g = g[:j]
			}
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}

// chapterContext 读取章节构造上下文；没有章节字面量时 ok=false（部分条目确实没有章节）。
func chapterContext(d extract.Doc, l Layout) (chapters.Context, bool) {
	if l.ChapterList == nil {
		return chapters.Context{}, false
	}
	lit, ok := l.ChapterList.Find(d.Scripts())
	if !ok {
		return chapters.Context{}, false
	}
	entries := SplitChapterLiteral(lit)
	if len(entries) == 0 {
		return chapters.Context{}, false
	}

	id, _ := d.String(l.ID)
	link, _ := d.String(l.Link)
	base := link
	if l.ChapterLinkFrom != "" {
		base = strings.Replace(link, l.ChapterLinkFrom, l.ChapterLinkTo, 1)
	}
	return chapters.Context{
		SeriesID:          id,
		SeriesLink:        link,
		ChapterLinkBase:   base + "-",
		ThumbnailTemplate: l.ThumbnailTemplate,
		Entries:           entries,
	}, true
}

func isMovie(d extract.Doc, l Layout) bool {
	if l.TypeNode == "" || l.MovieClass == "" {
		return false
	}
	return d.Find(l.TypeNode).First().HasClass(l.MovieClass)
}

// BuildChapters 构造章节数据：
// - 无字面量：nil
// - 剧场版：SingleChapter（取第一项）
// - 其它：PagedChapters，评论组件版本在首次翻页时探测
func BuildChapters(d extract.Doc, l Layout, bridge chapters.CommentBridge, logger *slog.Logger) domain.ChapterData {
	cc, ok := chapterContext(d, l)
	if !ok {
		return nil
	}
	if isMovie(d, l) {
		return domain.SingleChapter{Chapter: cc.Chapter(cc.Entries[0])}
	}
	return domain.PagedChapters{Pager: chapters.New(cc, bridge, logger)}
}
