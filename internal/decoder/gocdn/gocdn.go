// Package gocdn 是一个示例 decoder：链接片段（最后一个 # 之后）交给解析端点换取直链。
package gocdn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/John-Robertt/hydra/internal/decoder"
	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
)

const (
	Name           = "gocdn"
	DefaultBaseURL = "https://streamium.xyz"
)

type response struct {
	File string `json:"file"`
}

type Decoder struct {
	rc *resty.Client
}

var _ decoder.Decoder = (*Decoder)(nil)

// New 构造；rc 的 BaseURL 为空时使用 DefaultBaseURL。
func New(rc *resty.Client) *Decoder {
	if rc == nil {
		rc = httpx.NewResty(nil, DefaultBaseURL)
	}
	if rc.BaseURL == "" {
		rc.SetBaseURL(DefaultBaseURL)
	}
	return &Decoder{rc: rc}
}

func (d *Decoder) Name() string { return Name }

func (d *Decoder) CanDecode(link string) bool { return strings.Contains(link, "gocdn") }

func (d *Decoder) Decode(ctx context.Context, item domain.SourceItem) ([]domain.Option, error) {
	v := fragment(item.Link)
	if v == "" {
		return nil, errors.New("gocdn: 链接缺少视频标识")
	}
	var out response
	resp, err := d.rc.R().
		SetContext(ctx).
		SetQueryParam("v", v).
		SetResult(&out).
		ForceContentType("application/json").
		Get("/gocdn.php")
	if err != nil {
		return nil, fmt.Errorf("gocdn: %w", err)
	}
	if err := httpx.CheckResty(resp); err != nil {
		return nil, fmt.Errorf("gocdn: %w", err)
	}
	if strings.TrimSpace(out.File) == "" {
		return nil, errors.New("gocdn: 响应缺少 file")
	}
	return []domain.Option{{DirectLink: out.File, Name: item.Name, Quality: item.Quality}}, nil
}

// fragment 返回最后一个 # 之后的部分；没有 # 时返回整个链接。
func fragment(link string) string {
	return strings.TrimSpace(link[strings.LastIndex(link, "#")+1:])
}
