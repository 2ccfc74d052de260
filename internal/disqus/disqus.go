// Package disqus 实现章节评论数查询：先从 embed.js 探测组件版本，再读取嵌入评论页里的线程数据。
package disqus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/John-Robertt/hydra/internal/chapters"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
	"github.com/John-Robertt/hydra/internal/logging"
)

const (
	DefaultForum       = "https-animeflv-net"
	DefaultEmbedURL    = "https://https-animeflv-net.disqus.com/embed.js"
	DefaultCommentsURL = "https://disqus.com/embed/comments/"
)

var versionRe = regexp.MustCompile(`load\.(\w+)\.js`)

// ErrNoVersion 表示 embed.js 中找不到版本号。
var ErrNoVersion = errors.New("disqus: embed.js 中没有版本号")

// Config 描述评论组件端点；空字段使用默认值。
type Config struct {
	Forum       string
	EmbedURL    string
	CommentsURL string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Forum) == "" {
		c.Forum = DefaultForum
	}
	if strings.TrimSpace(c.EmbedURL) == "" {
		c.EmbedURL = DefaultEmbedURL
	}
	if strings.TrimSpace(c.CommentsURL) == "" {
		c.CommentsURL = DefaultCommentsURL
	}
	return c
}

// Bridge 实现 chapters.CommentBridge。无内部状态，可并发使用。
type Bridge struct {
	rc     *resty.Client
	cfg    Config
	logger *slog.Logger
}

var _ chapters.CommentBridge = (*Bridge)(nil)

func New(rc *resty.Client, cfg Config, logger *slog.Logger) *Bridge {
	if rc == nil {
		rc = httpx.NewResty(nil, "")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bridge{rc: rc, cfg: cfg.withDefaults(), logger: logger.With("component", "disqus")}
}

// ProbeVersion 读取 embed.js 并提取 load.<version>.js 中的版本号。
func (b *Bridge) ProbeVersion(ctx context.Context) (string, error) {
	resp, err := b.rc.R().SetContext(ctx).SetHeader("Accept", "*/*").Get(b.cfg.EmbedURL)
	if err != nil {
		return "", fmt.Errorf("disqus embed.js: %w", err)
	}
	if err := httpx.CheckResty(resp); err != nil {
		return "", fmt.Errorf("disqus embed.js: %w", err)
	}
	m := versionRe.FindSubmatch(resp.Body())
	if m == nil {
		return "", ErrNoVersion
	}
	return string(m[1]), nil
}

type threadData struct {
	Response struct {
		Thread *struct {
			Posts int `json:"posts"`
		} `json:"thread"`
	} `json:"response"`
}

// CommentCount 返回章节链接对应线程的评论数；线程不存在时为 0。
func (b *Bridge) CommentCount(ctx context.Context, version, chapterLink string) (int, error) {
	if strings.TrimSpace(version) == "" {
		return 0, errors.New("disqus: version 不能为空")
	}
	resp, err := b.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		SetQueryParams(map[string]string{
			"base":    "default",
			"f":       b.cfg.Forum,
			"t_u":     chapterLink,
			"s_o":     "default",
			"version": version,
		}).
		Get(b.cfg.CommentsURL)
	if err != nil {
		return 0, fmt.Errorf("disqus comments: %w", err)
	}
	if err := httpx.CheckResty(resp); err != nil {
		return 0, fmt.Errorf("disqus comments: %w", err)
	}
	return parseThreadPosts(resp.Body())
}

func parseThreadPosts(html []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("disqus comments: 解析 HTML 失败：%w", err)
	}
	raw := strings.TrimSpace(doc.Find("script#disqus-threadData").First().Text())
	if raw == "" {
		return 0, errors.New("disqus comments: 缺少 threadData")
	}
	var td threadData
	if err := json.Unmarshal([]byte(raw), &td); err != nil {
		return 0, fmt.Errorf("disqus comments: threadData 不是合法 JSON：%w", err)
	}
	if td.Response.Thread == nil {
		return 0, nil
	}
	return td.Response.Thread.Posts, nil
}
