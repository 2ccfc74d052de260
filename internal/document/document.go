// Package document 按链接提供已解析的 HTML 文档：先查磁盘缓存，未命中再抓取。
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/hydra/internal/infra/cache"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
	"github.com/John-Robertt/hydra/internal/logging"
)

// maxBody 是单个文档允许的最大字节数。
const maxBody = 8 << 20

// challengeMarkers 出现在拦截/验证页中的特征片段。
var challengeMarkers = [][]byte{
	[]byte(`id="challenge-form"`),
	[]byte(`cf-browser-verification`),
	[]byte(`<title>Just a moment...</title>`),
}

// Provider 实现 record.DocumentSource。
type Provider struct {
	Client *http.Client
	Cache  *cache.Store // nil 表示不使用缓存
	Logger *slog.Logger
}

func New(c *http.Client, store *cache.Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Provider{Client: c, Cache: store, Logger: logger.With("component", "document")}
}

// Fetch 返回文档；doc.Url 为实际落地地址（用于解析相对链接）。
func (p *Provider) Fetch(ctx context.Context, link string) (*goquery.Document, error) {
	u, err := parseLink(link)
	if err != nil {
		return nil, err
	}
	logger := p.logger()

	if p.Cache != nil {
		body, ok, err := p.Cache.Read(u.String())
		switch {
		case err != nil:
			logger.Warn("document cache read failed", "link", u.String(), "error", err)
		case ok:
			logger.Debug("document cache hit", "link", u.String())
			return parse(body, u)
		}
	}

	body, final, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if p.Cache != nil {
		if err := p.Cache.Write(u.String(), body); err != nil && !errors.Is(err, cache.ErrReadOnly) {
			logger.Warn("document cache write failed", "link", u.String(), "error", err)
		}
	}
	return parse(body, final)
}

func (p *Provider) get(ctx context.Context, u *url.URL) ([]byte, *url.URL, error) {
	if p.Client == nil {
		return nil, nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, nil, err
	}
	if len(b) > maxBody {
		return nil, nil, fmt.Errorf("文档超过 %d 字节：%s", maxBody, u)
	}

	final := u
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
			if isChallenge(b) {
				return nil, nil, &httpx.BlockedError{URL: final.String(), Reason: "challenge"}
			}
		}
		return nil, nil, &httpx.HTTPStatusError{URL: u.String(), StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil, errors.New("empty response body")
	}
	if isChallenge(b) {
		return nil, nil, &httpx.BlockedError{URL: final.String(), Reason: "challenge"}
	}
	return b, final, nil
}

func isChallenge(b []byte) bool {
	for _, m := range challengeMarkers {
		if bytes.Contains(b, m) {
			return true
		}
	}
	return false
}

func parse(body []byte, u *url.URL) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败：%w", err)
	}
	doc.Url = u
	return doc, nil
}

func parseLink(link string) (*url.URL, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, errors.New("link 不能为空")
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("非法链接 %q：%w", link, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("非法链接 %q：仅支持 http/https", link)
	}
	return u, nil
}

func (p *Provider) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}
