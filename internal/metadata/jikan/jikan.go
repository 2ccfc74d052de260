// Package jikan 是 Jikan（MyAnimeList 非官方 API，v4）的只读客户端。
package jikan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/syncmap"

	"github.com/John-Robertt/hydra/internal/enrich"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
	"github.com/John-Robertt/hydra/internal/logging"
	"github.com/John-Robertt/hydra/internal/metadata"
)

// DefaultBaseURL 是公共 Jikan v4 端点。
const DefaultBaseURL = "https://api.jikan.moe/v4"

// Client 实现 enrich.MetadataAPI。
//
// 标题 -> id 的搜索结果缓存在 gokv.Store 中（默认进程内 syncmap），只缓存命中结果。
type Client struct {
	rc     *resty.Client
	cache  gokv.Store
	logger *slog.Logger
}

var _ enrich.MetadataAPI = (*Client)(nil)

// Option 调整 Client 构造。
type Option func(*Client)

// WithCache 替换搜索缓存（例如持久化实现）。
func WithCache(s gokv.Store) Option {
	return func(c *Client) {
		if s != nil {
			c.cache = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With("component", "jikan")
		}
	}
}

// New 基于 resty client 构造；rc 的 BaseURL 为空时使用 DefaultBaseURL。
func New(rc *resty.Client, opts ...Option) *Client {
	if rc == nil {
		rc = httpx.NewResty(nil, DefaultBaseURL)
	}
	if rc.BaseURL == "" {
		rc.SetBaseURL(DefaultBaseURL)
	}
	c := &Client{
		rc:     rc,
		cache:  syncmap.NewStore(syncmap.DefaultOptions),
		logger: logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close 释放缓存。
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}

func cacheKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// Search 按标题取第一条结果的 id。
func (c *Client) Search(ctx context.Context, title string) (int, bool, error) {
	key := cacheKey(title)
	if key == "" {
		return 0, false, nil
	}
	var id int
	if found, err := c.cache.Get(key, &id); err != nil {
		c.logger.Debug("search cache read failed", "title", title, "error", err)
	} else if found {
		return id, true, nil
	}

	var out searchResponse
	if err := c.get(ctx, "/anime", map[string]string{"q": title, "limit": "1"}, &out); err != nil {
		return 0, false, err
	}
	if len(out.Data) == 0 || out.Data[0].MalID <= 0 {
		return 0, false, nil
	}
	id = out.Data[0].MalID
	if err := c.cache.Set(key, id); err != nil {
		c.logger.Debug("search cache write failed", "title", title, "error", err)
	}
	return id, true, nil
}

func (c *Client) Anime(ctx context.Context, id int) (metadata.Anime, error) {
	var out animeResponse
	if err := c.get(ctx, animePath(id, ""), nil, &out); err != nil {
		return metadata.Anime{}, err
	}
	d := out.Data
	trailerID := d.Trailer.YoutubeID
	if trailerID == "" {
		trailerID = metadata.YoutubeID(d.Trailer.EmbedURL)
	}
	return metadata.Anime{
		ID:        d.MalID,
		Title:     d.Title,
		Type:      d.Type,
		Aired:     d.Aired.String,
		TrailerID: trailerID,
	}, nil
}

func (c *Client) Characters(ctx context.Context, id int) ([]metadata.Person, error) {
	var out charactersResponse
	if err := c.get(ctx, animePath(id, "characters"), nil, &out); err != nil {
		return nil, err
	}
	people := make([]metadata.Person, 0, len(out.Data))
	for _, e := range out.Data {
		people = append(people, metadata.Person{
			Name:     e.Character.Name,
			Role:     e.Role,
			ImageURL: e.Character.Images.JPG.ImageURL,
			URL:      e.Character.URL,
		})
	}
	return people, nil
}

func (c *Client) Staff(ctx context.Context, id int) ([]metadata.Person, error) {
	var out staffResponse
	if err := c.get(ctx, animePath(id, "staff"), nil, &out); err != nil {
		return nil, err
	}
	people := make([]metadata.Person, 0, len(out.Data))
	for _, e := range out.Data {
		role := ""
		if len(e.Positions) > 0 {
			role = e.Positions[0]
		}
		people = append(people, metadata.Person{
			Name:     e.Person.Name,
			Role:     role,
			ImageURL: e.Person.Images.JPG.ImageURL,
			URL:      e.Person.URL,
		})
	}
	return people, nil
}

func (c *Client) Videos(ctx context.Context, id int) ([]metadata.Video, error) {
	var out videosResponse
	if err := c.get(ctx, animePath(id, "videos"), nil, &out); err != nil {
		return nil, err
	}
	videos := make([]metadata.Video, 0, len(out.Data.Promo))
	for _, p := range out.Data.Promo {
		yt := p.Trailer.YoutubeID
		if yt == "" {
			yt = metadata.YoutubeID(p.Trailer.EmbedURL)
		}
		videos = append(videos, metadata.Video{Title: p.Title, YoutubeID: yt})
	}
	return videos, nil
}

func (c *Client) Pictures(ctx context.Context, id int) ([]metadata.Picture, error) {
	var out picturesResponse
	if err := c.get(ctx, animePath(id, "pictures"), nil, &out); err != nil {
		return nil, err
	}
	pics := make([]metadata.Picture, 0, len(out.Data))
	for _, p := range out.Data {
		large := p.JPG.LargeImageURL
		if large == "" {
			large = p.JPG.ImageURL
		}
		pics = append(pics, metadata.Picture{Large: large})
	}
	return pics, nil
}

func animePath(id int, sub string) string {
	p := "/anime/" + strconv.Itoa(id)
	if sub != "" {
		p += "/" + sub
	}
	return p
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.rc.R().SetContext(ctx).SetResult(out)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("jikan %s: %w", path, err)
	}
	if err := httpx.CheckResty(resp); err != nil {
		return fmt.Errorf("jikan %s: %w", path, err)
	}
	return nil
}
