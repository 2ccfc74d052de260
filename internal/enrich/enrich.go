// Package enrich 为条目聚合外部元数据区块（基础信息、角色与制作人员、图库、主题曲）。
//
// 约束：
// - 任何外部调用失败只让对应区块缺失，Build 从不返回错误
// - 各组并发执行，但输出顺序固定，与完成先后无关
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/logging"
	"github.com/John-Robertt/hydra/internal/metadata"
)

// 区块标题。
const (
	TitleAltNames   = "Alternative names"
	TitleAired      = "Aired"
	TitleBroadcast  = "Broadcast"
	TitleTrailer    = "Trailer"
	TitleCharacters = "Characters"
	TitleStaff      = "Staff"
	TitleGallery    = "Gallery"
	TitleMusic      = "Music"
)

// DefaultTimeout 是每次外部调用（含标题搜索）的默认超时。
const DefaultTimeout = 2 * time.Second

// placeholderImage 是元数据服务用于“无图”的占位图片名片段。
const placeholderImage = "questionmark_"

// MetadataAPI 是条目元数据服务。Search 未命中时返回 found=false 且 err=nil。
type MetadataAPI interface {
	Search(ctx context.Context, title string) (id int, found bool, err error)
	Anime(ctx context.Context, id int) (metadata.Anime, error)
	Characters(ctx context.Context, id int) ([]metadata.Person, error)
	Staff(ctx context.Context, id int) ([]metadata.Person, error)
	Videos(ctx context.Context, id int) ([]metadata.Video, error)
	Pictures(ctx context.Context, id int) ([]metadata.Picture, error)
}

// MusicAPI 是主题曲索引服务，按 MetadataAPI 的条目 id 查询。
type MusicAPI interface {
	Themes(ctx context.Context, id int) ([]metadata.Theme, error)
}

// Aggregator 聚合附加区块。实现 record.Enricher。
type Aggregator struct {
	Metadata MetadataAPI
	Music    MusicAPI
	Toggles  Toggles
	Timeout  time.Duration // <=0 时使用 DefaultTimeout
	Logger   *slog.Logger
}

// Build 按开关生成附加区块。全部关闭时不发起任何调用并返回 nil。
func (a *Aggregator) Build(ctx context.Context, title string, altNames []string) []domain.Section {
	if !a.Toggles.Any() {
		return nil
	}
	logger := a.logger()

	var sections []domain.Section
	if s, ok := altNamesSection(altNames); ok {
		sections = append(sections, s)
	}
	if a.Metadata == nil || strings.TrimSpace(title) == "" {
		return sections
	}

	id, ok := a.search(ctx, title, logger)
	if !ok {
		return sections
	}

	var (
		basic, staff, gallery, music []domain.Section
		g                            errgroup.Group
	)
	if a.Toggles.BasicInfo {
		g.Go(func() error {
			basic = a.basicInfo(ctx, id, logger)
			return nil
		})
	}
	if a.Toggles.Staff {
		g.Go(func() error {
			staff = a.people(ctx, id, logger)
			return nil
		})
	}
	if a.Toggles.Gallery {
		g.Go(func() error {
			gallery = a.gallery(ctx, id, logger)
			return nil
		})
	}
	if a.Toggles.Music && a.Music != nil {
		g.Go(func() error {
			music = a.music(ctx, id, logger)
			return nil
		})
	}
	_ = g.Wait()

	for _, group := range [][]domain.Section{basic, staff, gallery, music} {
		sections = append(sections, group...)
	}
	return sections
}

func altNamesSection(altNames []string) (domain.Section, bool) {
	names := make([]string, 0, len(altNames))
	for _, n := range altNames {
		names = append(names, strings.TrimSpace(n))
	}
	joined := strings.Join(names, "\n")
	if strings.TrimSpace(joined) == "" {
		return domain.Section{}, false
	}
	return domain.Section{
		Title: TitleAltNames,
		Payload: domain.TextData{
			Text:   joined,
			Action: domain.ClickAction{Kind: domain.ClickClipboard, Value: joined},
		},
	}, true
}

func (a *Aggregator) search(ctx context.Context, title string, logger *slog.Logger) (int, bool) {
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()
	id, found, err := a.Metadata.Search(cctx, title)
	if err != nil {
		logger.Debug("metadata search failed", "title", title, "error", err)
		return 0, false
	}
	if !found {
		logger.Debug("metadata search no match", "title", title)
		return 0, false
	}
	return id, true
}

func (a *Aggregator) basicInfo(ctx context.Context, id int, logger *slog.Logger) []domain.Section {
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()
	info, err := a.Metadata.Anime(cctx, id)
	if err != nil {
		logger.Debug("basic info failed", "id", id, "error", err)
		return nil
	}

	var out []domain.Section
	if aired := strings.TrimSpace(info.Aired); aired != "" {
		label := TitleBroadcast
		if info.IsMovie() {
			label = TitleAired
		}
		out = append(out, domain.Section{Title: label, Payload: domain.TextData{Text: aired}})
	}
	if info.TrailerID != "" {
		out = append(out, domain.Section{Title: TitleTrailer, Payload: domain.YoutubeData{VideoID: info.TrailerID}})
	}
	return out
}

// people 角色与制作人员是两次独立调用，互不影响。
func (a *Aggregator) people(ctx context.Context, id int, logger *slog.Logger) []domain.Section {
	var (
		chars, staff []metadata.Person
		g            errgroup.Group
	)
	g.Go(func() error {
		cctx, cancel := a.withTimeout(ctx)
		defer cancel()
		res, err := a.Metadata.Characters(cctx, id)
		if err != nil {
			logger.Debug("characters failed", "id", id, "error", err)
			return nil
		}
		chars = res
		return nil
	})
	g.Go(func() error {
		cctx, cancel := a.withTimeout(ctx)
		defer cancel()
		res, err := a.Metadata.Staff(cctx, id)
		if err != nil {
			logger.Debug("staff failed", "id", id, "error", err)
			return nil
		}
		staff = res
		return nil
	})
	_ = g.Wait()

	var out []domain.Section
	if len(chars) > 0 {
		out = append(out, domain.Section{Title: TitleCharacters, Payload: collection(chars)})
	}
	if len(staff) > 0 {
		out = append(out, domain.Section{Title: TitleStaff, Payload: collection(staff)})
	}
	return out
}

func collection(people []metadata.Person) domain.CollectionData {
	items := make([]domain.CollectionItem, 0, len(people))
	for _, p := range people {
		item := domain.CollectionItem{Name: p.Name, Role: p.Role, Image: imageOrNil(p.ImageURL)}
		if p.URL != "" {
			item.Action = domain.ClickAction{Kind: domain.ClickWeb, Value: p.URL}
		}
		items = append(items, item)
	}
	return domain.CollectionData{Items: items}
}

func imageOrNil(link string) *domain.ImageItem {
	if link == "" || strings.Contains(link, placeholderImage) {
		return nil
	}
	return &domain.ImageItem{Link: link}
}

// gallery 宣传视频在前、图片在后；两次调用互不影响，全部为空时不生成区块。
func (a *Aggregator) gallery(ctx context.Context, id int, logger *slog.Logger) []domain.Section {
	var (
		videos   []metadata.Video
		pictures []metadata.Picture
		g        errgroup.Group
	)
	g.Go(func() error {
		cctx, cancel := a.withTimeout(ctx)
		defer cancel()
		res, err := a.Metadata.Videos(cctx, id)
		if err != nil {
			logger.Debug("videos failed", "id", id, "error", err)
			return nil
		}
		videos = res
		return nil
	})
	g.Go(func() error {
		cctx, cancel := a.withTimeout(ctx)
		defer cancel()
		res, err := a.Metadata.Pictures(cctx, id)
		if err != nil {
			logger.Debug("pictures failed", "id", id, "error", err)
			return nil
		}
		pictures = res
		return nil
	})
	_ = g.Wait()

	var items []domain.GalleryItem
	for _, v := range videos {
		if v.YoutubeID != "" {
			items = append(items, domain.GalleryItem{Kind: domain.GalleryYoutube, Link: v.YoutubeID})
		}
	}
	for _, p := range pictures {
		if p.Large != "" {
			items = append(items, domain.GalleryItem{Kind: domain.GalleryImage, Link: p.Large})
		}
	}
	if len(items) == 0 {
		return nil
	}
	return []domain.Section{{Title: TitleGallery, Payload: domain.GalleryData{Items: items}}}
}

func (a *Aggregator) music(ctx context.Context, id int, logger *slog.Logger) []domain.Section {
	cctx, cancel := a.withTimeout(ctx)
	defer cancel()
	themes, err := a.Music.Themes(cctx, id)
	if err != nil {
		logger.Debug("themes failed", "id", id, "error", err)
		return nil
	}
	items := make([]domain.Music, 0, len(themes))
	for _, th := range themes {
		items = append(items, domain.Music{Name: th.Name, Link: th.Link, Kind: th.Type.Label()})
	}
	if len(items) == 0 {
		return nil
	}
	return []domain.Section{{Title: TitleMusic, Payload: domain.MusicData{Items: items}}}
}

func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := a.Timeout
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.Discard()
	}
	return a.Logger.With("component", "enrich")
}
