// Package httpx 固化所有出站请求共享的网络策略：UA 池、代理、有界重试、总超时。
//
// 页面抓取直接使用 *http.Client；JSON API 客户端使用基于同一 client 的 resty.Client。
package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout  = 20 * time.Second
	defaultRetryMax = 2
)

// Options 是 client 构造参数。零值可用：直连、默认超时、默认重试。
type Options struct {
	ProxyURL string
	Timeout  time.Duration
	// RetryMax<0 表示不重试；0 使用默认值。
	RetryMax int
}

// Transport 在 Base 之上叠加随机 UA 与有界重试。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// RetryMax 是最大重试次数（不含首次尝试）。
	RetryMax int

	// DisableKeepAlives 为 true 时对每个请求设置 Close=true。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只重试可重放的请求：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && (req.Body == nil || req.Body == http.NoBody)
	limit := max(t.RetryMax, 0)
	if !canRetry {
		limit = 0
	}

	var lastErr error
	for attempt := 0; attempt <= limit; attempt++ {
		r := req.Clone(req.Context())
		if t.ua != nil && defaultUA(r.Header.Get("User-Agent")) {
			r.Header.Set("User-Agent", t.ua.random())
		}
		if t.DisableKeepAlives {
			r.Close = true
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// defaultUA 判断 UA 是否未由调用方指定；resty 会自动填入 go-resty/<version>。
func defaultUA(ua string) bool {
	return ua == "" || strings.HasPrefix(ua, "go-resty/")
}

// NewClient 构造共享 HTTP client。
//
// 规则：
// - ProxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 每个请求随机 UA（调用方显式设置的 UA 优先）
// - 有界重试 + 总超时
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	disableKeepAlives := false

	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy.url 必须包含 scheme 与 host")
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	retry := opts.RetryMax
	switch {
	case retry == 0:
		retry = defaultRetryMax
	case retry < 0:
		retry = 0
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: &Transport{
			Base:              base,
			ua:                globalUA,
			RetryMax:          retry,
			DisableKeepAlives: disableKeepAlives,
		},
		Timeout: timeout,
	}, nil
}

// NewResty 基于共享 client 构造 JSON API 客户端；baseURL 为空时调用方使用绝对 URL。
func NewResty(hc *http.Client, baseURL string) *resty.Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	c := resty.NewWithClient(hc).
		SetHeader("Accept", "application/json")
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	return c
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
