package decoder

import (
	"context"
	"errors"
	"regexp"

	"github.com/John-Robertt/hydra/internal/domain"
)

// DecodeFunc 是解码函数。
type DecodeFunc func(ctx context.Context, item domain.SourceItem) ([]domain.Option, error)

// PatternDecoder 用正则判断是否匹配，用 Fn 解码。
type PatternDecoder struct {
	Label   string
	Pattern *regexp.Regexp
	Fn      DecodeFunc
}

var _ Decoder = PatternDecoder{}

func (p PatternDecoder) Name() string { return p.Label }

func (p PatternDecoder) CanDecode(link string) bool {
	return p.Pattern != nil && p.Pattern.MatchString(link)
}

func (p PatternDecoder) Decode(ctx context.Context, item domain.SourceItem) ([]domain.Option, error) {
	if p.Fn == nil {
		return nil, errors.New("decode 函数为空")
	}
	return p.Fn(ctx, item)
}
