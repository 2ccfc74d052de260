// Package chapters 提供按页懒加载、带评论数的章节来源。
package chapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/logging"
)

// PageSize 是每页章节数（不做占位填充）。
const PageSize = 10

// CommentBridge 是第三方评论组件的桥接：先探测组件脚本版本，再按章节链接查询评论数。
type CommentBridge interface {
	ProbeVersion(ctx context.Context) (string, error)
	CommentCount(ctx context.Context, version, chapterLink string) (int, error)
}

// Context 是同一部作品所有章节共享的构造上下文。
//
// ThumbnailTemplate 支持 {series} 与 {chapter} 两个占位符。
type Context struct {
	SeriesID          string
	SeriesLink        string
	ChapterLinkBase   string
	ThumbnailTemplate string
	Entries           []string // 原始章节编号，保持文档顺序
}

// Chapter 按原始编号构造章节描述（不含评论数）。
func (c Context) Chapter(raw string) domain.Chapter {
	display, number, _ := FormatIndex(raw)
	return domain.Chapter{
		SeriesID:   c.SeriesID,
		SeriesLink: c.SeriesLink,
		Link:       c.ChapterLinkBase + display,
		Number:     number,
		Thumbnail:  c.Thumbnail(display),
	}
}

func (c Context) Thumbnail(display string) string {
	if c.ThumbnailTemplate == "" {
		return ""
	}
	return strings.NewReplacer("{series}", c.SeriesID, "{chapter}", display).Replace(c.ThumbnailTemplate)
}

// FormatIndex 按“最多一位小数”规则格式化章节编号：1 -> "1"，1.5 -> "1.5"（半数取偶）。
// 无法解析时原样返回 raw，number=0，ok=false。
func FormatIndex(raw string) (display string, number float64, ok bool) {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw, 0, false
	}
	r := math.RoundToEven(f*10) / 10
	return strconv.FormatFloat(r, 'f', -1, 64), f, true
}

// LoadError 表示某一页加载失败；已加载的页不受影响。
type LoadError struct {
	Key   int
	Stage string // "probe" / "comments"
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("chapters: page=%d stage=%s: %v", e.Key, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source 是分页章节来源。唯一的可变状态是探测到的组件版本：首次加载时获取，成功后不再变化。
type Source struct {
	ctx    Context
	bridge CommentBridge
	logger *slog.Logger

	mu      sync.Mutex
	version string
}

var _ domain.ChapterPager = (*Source)(nil)

func New(c Context, bridge CommentBridge, logger *slog.Logger) *Source {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Source{ctx: c, bridge: bridge, logger: logger.With("component", "chapters")}
}

func (s *Source) Len() int      { return len(s.ctx.Entries) }
func (s *Source) PageSize() int { return PageSize }

// Context 返回共享构造上下文的副本。
func (s *Source) Context() Context {
	c := s.ctx
	c.Entries = append([]string(nil), s.ctx.Entries...)
	return c
}

// Version 返回组件版本；尚未探测成功时发起一次探测。
// 探测失败不缓存，下次调用会重试。
func (s *Source) Version(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != "" {
		return s.version, nil
	}
	if s.bridge == nil {
		return "", errors.New("comment bridge 为空")
	}
	v, err := s.bridge.ProbeVersion(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", errors.New("评论组件版本为空")
	}
	s.version = v
	s.logger.Debug("comment widget version probed", "version", v)
	return v, nil
}

// Load 加载第 key 页（从 0 开始）。超出末尾返回空页且 NextKey=nil。
func (s *Source) Load(ctx context.Context, key int) (domain.ChapterPage, error) {
	if key < 0 {
		return domain.ChapterPage{}, &LoadError{Key: key, Stage: "key", Err: fmt.Errorf("非法页号：%d", key)}
	}

	version, err := s.Version(ctx)
	if err != nil {
		return domain.ChapterPage{}, &LoadError{Key: key, Stage: "probe", Err: err}
	}

	page := domain.ChapterPage{Key: key, Items: []domain.Chapter{}}
	if key > 0 {
		prev := key - 1
		page.PrevKey = &prev
	}

	start := key * PageSize
	n := len(s.ctx.Entries)
	if start >= n {
		return page, nil
	}
	end := min(start+PageSize, n)
	if end < n {
		next := key + 1
		page.NextKey = &next
	}

	items := make([]domain.Chapter, end-start)
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range s.ctx.Entries[start:end] {
		items[i] = s.ctx.Chapter(raw)
		g.Go(func() error {
			count, err := s.bridge.CommentCount(gctx, version, items[i].Link)
			if err != nil {
				return fmt.Errorf("评论数查询失败 %q：%w", items[i].Link, err)
			}
			items[i].Comments = &count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("chapter page load failed", "page", key, "error", err)
		return domain.ChapterPage{}, &LoadError{Key: key, Stage: "comments", Err: err}
	}

	page.Items = items
	return page, nil
}
