// Package anusic 查询主题曲索引（按 MyAnimeList id）。
package anusic

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/John-Robertt/hydra/internal/enrich"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
	"github.com/John-Robertt/hydra/internal/metadata"
)

const DefaultBaseURL = "https://anusic-api.herokuapp.com/api/v1"

type themeSource struct {
	Link string `json:"link"`
}

type response struct {
	Data struct {
		Collections []struct {
			Themes []struct {
				Name    string        `json:"name"`
				Type    int           `json:"type"`
				Sources []themeSource `json:"sources"`
			} `json:"themes"`
		} `json:"collections"`
	} `json:"data"`
}

// Client 实现 enrich.MusicAPI。
type Client struct {
	rc *resty.Client
}

var _ enrich.MusicAPI = (*Client)(nil)

func New(rc *resty.Client) *Client {
	if rc == nil {
		rc = httpx.NewResty(nil, DefaultBaseURL)
	}
	if rc.BaseURL == "" {
		rc.SetBaseURL(DefaultBaseURL)
	}
	return &Client{rc: rc}
}

// Themes 按集合顺序展开全部主题曲；没有可播放来源的条目被跳过。
func (c *Client) Themes(ctx context.Context, id int) ([]metadata.Theme, error) {
	path := "/anime/" + strconv.Itoa(id)
	var out response
	resp, err := c.rc.R().SetContext(ctx).SetResult(&out).Get(path)
	if err != nil {
		return nil, fmt.Errorf("anusic %s: %w", path, err)
	}
	if err := httpx.CheckResty(resp); err != nil {
		return nil, fmt.Errorf("anusic %s: %w", path, err)
	}

	var themes []metadata.Theme
	for _, col := range out.Data.Collections {
		for _, th := range col.Themes {
			if len(th.Sources) == 0 || th.Sources[0].Link == "" {
				continue
			}
			themes = append(themes, metadata.Theme{
				Name: th.Name,
				Link: th.Sources[0].Link,
				Type: metadata.ThemeType(th.Type),
			})
		}
	}
	return themes, nil
}
