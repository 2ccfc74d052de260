package record

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
	"github.com/John-Robertt/hydra/internal/logging"
)

// RecordFetcher 按链接获取一条 InfoRecord。
// 返回 (nil, nil) 表示“没有结果”；与返回 error 一样会被调用方丢弃。
type RecordFetcher interface {
	FetchRecord(ctx context.Context, link string) (*domain.InfoRecord, error)
}

// RelatedLink 是文档中发现的一条关联链接。
type RelatedLink struct {
	Link     string
	Relation string
}

// FindRelated 按文档顺序提取关联条目的链接与关系标签；同一链接只保留第一次出现。
func FindRelated(d extract.Doc, l Layout) []RelatedLink {
	if l.RelatedItems == "" {
		return nil
	}
	var (
		out  []RelatedLink
		seen = map[string]struct{}{}
	)
	d.Find(l.RelatedItems).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}
		link := d.Resolve(href)
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, RelatedLink{Link: link, Relation: relationLabel(ownText(s))})
	})
	return out
}

// ownText 只取节点自身的文本（不含子元素）。
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return b.String()
}

// relationLabel 去掉首尾空白与成对的外层圆括号："(Secuela)" -> "Secuela"。
func relationLabel(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// ResolveRelated 并发解析所有关联链接。
//
// 约束：
// - 每条链接独立超时（timeout<=0 表示不额外限制）；单条失败/无结果直接丢弃，不影响其它
// - 结果保持文档顺序
// - 不递归：解析出的记录不会再展开它自己的关联条目
func ResolveRelated(ctx context.Context, links []RelatedLink, fetcher RecordFetcher, timeout time.Duration, logger *slog.Logger) []domain.Related {
	if len(links) == 0 || fetcher == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Discard()
	}

	slots := make([]*domain.Related, len(links))
	var g errgroup.Group
	for i, rl := range links {
		g.Go(func() error {
			cctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			rec, err := fetcher.FetchRecord(cctx, rl.Link)
			if err != nil {
				logger.Debug("related title dropped", "link", rl.Link, "error", err)
				return nil
			}
			if rec == nil {
				logger.Debug("related title dropped", "link", rl.Link, "error", "no record")
				return nil
			}
			r := domain.Related{InfoRecord: *rec, Relation: rl.Relation}
			r.Link = rl.Link
			slots[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Related, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
