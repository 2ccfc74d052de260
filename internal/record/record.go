// Package record 把一份详情页文档组装为 domain.InfoRecord。
//
// 各字段提取器彼此独立、只读共享同一份文档；需要网络的部分（关联条目、附加区块）并发执行，
// 任一部分失败只会让该部分缺失，不会中断整条记录的组装。
package record

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/hydra/internal/chapters"
	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
	"github.com/John-Robertt/hydra/internal/logging"
)

// Enricher 为条目构造附加区块（通常由外部元数据 API 提供）。
type Enricher interface {
	Build(ctx context.Context, title string, altNames []string) []domain.Section
}

// Assembler 组装 InfoRecord。零值字段表示对应能力关闭：
// Related=nil 不解析关联条目，Enricher=nil 不生成附加区块。
type Assembler struct {
	Layout         Layout
	Related        RecordFetcher
	RelatedTimeout time.Duration
	Enricher       Enricher
	Bridge         chapters.CommentBridge
	Logger         *slog.Logger
}

// Assemble 组装完整记录。仅在 doc 为 nil 时返回错误。
func (a *Assembler) Assemble(ctx context.Context, doc *goquery.Document) (domain.InfoRecord, error) {
	if doc == nil {
		return domain.InfoRecord{}, errors.New("document 不能为空")
	}
	logger := a.logger()
	d := extract.FromDocument(doc)
	rec := a.scalars(d)

	var (
		related  []domain.Related
		sections []domain.Section
	)
	var g errgroup.Group
	if a.Related != nil {
		links := FindRelated(d, a.Layout)
		g.Go(func() error {
			related = ResolveRelated(ctx, links, a.Related, a.RelatedTimeout, logger)
			return nil
		})
	}
	if a.Enricher != nil {
		altNames := d.All(a.Layout.AltNames)
		g.Go(func() error {
			sections = a.Enricher.Build(ctx, rec.Name, altNames)
			return nil
		})
	}
	rec.Chapters = BuildChapters(d, a.Layout, a.Bridge, logger)
	_ = g.Wait()

	rec.Related = related
	rec.Sections = sections
	logger.Debug("record assembled",
		"id", rec.ID,
		"link", rec.Link,
		"state", rec.State.String(),
		"related", len(rec.Related),
		"sections", len(rec.Sections),
	)
	return rec, nil
}

// AssembleShallow 只提取文档本地字段：不解析关联条目、不生成附加区块、不构造章节来源。
// 用于关联条目本身，保证解析不会递归。
func (a *Assembler) AssembleShallow(doc *goquery.Document) (domain.InfoRecord, error) {
	if doc == nil {
		return domain.InfoRecord{}, errors.New("document 不能为空")
	}
	return a.scalars(extract.FromDocument(doc)), nil
}

func (a *Assembler) scalars(d extract.Doc) domain.InfoRecord {
	l := a.Layout
	link, _ := d.String(l.Link)
	if link == "" && d.Base() != nil {
		link = d.Base().String()
	}

	rec := domain.InfoRecord{
		Name:     d.StringOr(l.Name, DefaultName),
		Link:     link,
		Category: l.Category,
		State:    DeriveSchedule(d, l),
		Genres:   genres(d, l),
		Ranking:  ranking(d, l),
	}
	if rec.Category == "" {
		rec.Category = domain.CategoryUnknown
	}
	if id, ok := d.Int(l.ID); ok {
		rec.ID = id
	} else {
		rec.ID = StableID(l.Source, link)
	}
	rec.Type, _ = d.String(l.Type)
	rec.Cover, _ = d.String(l.Cover)
	rec.Description, _ = d.String(l.Description)
	return rec
}

func genres(d extract.Doc, l Layout) []domain.Tag {
	var out []domain.Tag
	d.Find(l.Genres.Selector).Each(func(_ int, s *goquery.Selection) {
		name := extract.NormSpace(s.Text())
		if name == "" {
			return
		}
		payload := ""
		if l.Genres.Attr != "" {
			href, _ := s.Attr(l.Genres.Attr)
			payload = href[strings.LastIndex(href, "=")+1:]
		}
		out = append(out, domain.Tag{Name: name, Payload: payload, ListEnabled: true})
	})
	return out
}

// ranking 任意一项无法解析时返回 nil。
func ranking(d extract.Doc, l Layout) *domain.Ranking {
	stars, ok := d.Float(l.Stars)
	if !ok {
		return nil
	}
	votes, ok := d.Int(l.Votes)
	if !ok {
		return nil
	}
	return &domain.Ranking{Stars: stars, Votes: votes}
}

// StableID 在文档缺少数值 id 时按 source+link 计算稳定 id（非负）。
func StableID(source, link string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(source))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(link))
	return int(h.Sum32() & 0x7fffffff)
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.Discard()
	}
	return a.Logger.With("component", "record")
}

// DocumentSource 按链接提供已解析的文档。
type DocumentSource interface {
	Fetch(ctx context.Context, link string) (*goquery.Document, error)
}

// DocumentFetcher 用文档来源 + 浅层组装实现 RecordFetcher（关联条目专用）。
type DocumentFetcher struct {
	Docs      DocumentSource
	Assembler *Assembler
}

func (f DocumentFetcher) FetchRecord(ctx context.Context, link string) (*domain.InfoRecord, error) {
	if f.Docs == nil || f.Assembler == nil {
		return nil, errors.New("document fetcher 未初始化")
	}
	doc, err := f.Docs.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	rec, err := f.Assembler.AssembleShallow(doc)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Chapters 只构造章节数据；doc 为 nil 或没有章节时返回 nil。
func (a *Assembler) Chapters(doc *goquery.Document) domain.ChapterData {
	if doc == nil {
		return nil
	}
	return BuildChapters(extract.FromDocument(doc), a.Layout, a.Bridge, a.logger())
}
