package decoder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/logging"
)

// Registry 是只读、有序的 decoder 注册表；顺序即匹配优先级。
type Registry struct {
	ordered []Decoder
	byName  map[string]Decoder
	logger  *slog.Logger
}

// NewRegistry 按给定顺序注册；name 不能为空且不能重复（忽略大小写）。
func NewRegistry(logger *slog.Logger, decoders ...Decoder) (Registry, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	byName := make(map[string]Decoder, len(decoders))
	ordered := make([]Decoder, 0, len(decoders))
	for _, d := range decoders {
		if d == nil {
			return Registry{}, fmt.Errorf("decoder 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(d.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("decoder.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 decoder：%q", name)
		}
		byName[name] = d
		ordered = append(ordered, d)
	}
	return Registry{ordered: ordered, byName: byName, logger: logger.With("component", "decoder")}, nil
}

func (r Registry) Get(name string) (Decoder, bool) {
	if r.byName == nil {
		return nil, false
	}
	d, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names 按优先级返回已注册的 decoder 名称。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.ordered))
	for _, d := range r.ordered {
		out = append(out, d.Name())
	}
	return out
}

// Supports 判断是否有 decoder 能处理 link。
func (r Registry) Supports(link string) bool {
	return find(link, r.ordered) != nil
}

// Resolve 使用注册顺序分派，并记录分派结果。
func (r Registry) Resolve(ctx context.Context, item domain.SourceItem) (domain.DecodeResult, error) {
	res, _, err := r.ResolveTrace(ctx, item)
	return res, err
}

func (r Registry) ResolveTrace(ctx context.Context, item domain.SourceItem) (domain.DecodeResult, Trace, error) {
	res, tr, err := ResolveTrace(ctx, item, r.ordered)
	logTrace(r.logger, item, tr, err)
	return res, tr, err
}
