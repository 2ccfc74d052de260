package httpx

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// HTTPStatusError 表示对端返回了非 2xx 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d url=%s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d url=%s location=%s", e.StatusCode, e.URL, loc)
}

// CheckResty 把 resty 的非 2xx 响应转换为 *HTTPStatusError。
func CheckResty(resp *resty.Response) error {
	if resp == nil {
		return nil
	}
	if code := resp.StatusCode(); code >= 200 && code < 300 {
		return nil
	}
	e := &HTTPStatusError{StatusCode: resp.StatusCode()}
	if resp.Request != nil {
		e.URL = resp.Request.URL
	}
	if resp.RawResponse != nil {
		e.Location = resp.RawResponse.Header.Get("Location")
	}
	return e
}

// BlockedError 表示请求落在了验证/拦截页（需要浏览器执行 JS 或人工验证）。不尝试绕过。
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return "blocked"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}
