// Package decoder 把需要解码的 SourceItem 解析为可直接播放的链接。
//
// 约束：
// - 按顺序扫描，第一个 CanDecode 为真的 decoder 负责解码，其余不再尝试
// - 没有任何 decoder 匹配时返回 ErrNotSupported（这不是解码失败）
// - decoder 返回错误、panic 或空列表，一律归为 Failed，不向上抛出
// - CanDecode panic 视为不匹配，继续询问下一个 decoder
// - NeedsDecoding=false 的条目不经过任何 decoder，链接原样作为唯一直链
package decoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/logging"
)

// Decoder 是可插拔的链接解码器。CanDecode 必须是纯函数且无副作用。
type Decoder interface {
	Name() string
	CanDecode(link string) bool
	Decode(ctx context.Context, item domain.SourceItem) ([]domain.Option, error)
}

// ErrNotSupported 表示没有 decoder 能处理该链接。
var ErrNotSupported = errors.New("没有可处理该链接的 decoder")

// Error 是一次解码失败的可追溯原因（只用于日志与追踪，不改变结果语义）。
type Error struct {
	Decoder string
	Stage   string // "decode" / "panic" / "empty"
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decoder=%s stage=%s: %v", e.Decoder, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Trace 记录一次分派的过程。
type Trace struct {
	Decoder string // 命中的 decoder；直出或未匹配时为空
	Direct  bool   // 条目无需解码，直接输出
	Err     error  // 失败原因；成功时为 nil
}

// Resolve 分派解码。
//
// 注意：SourceItem 的零值 NeedsDecoding=false 表示“已是直链”，此时不会询问任何 decoder，
// 即使链接本身能被某个 decoder 识别。需要解码的条目必须显式设置 NeedsDecoding=true。
func Resolve(ctx context.Context, item domain.SourceItem, decoders []Decoder) (domain.DecodeResult, error) {
	res, _, err := ResolveTrace(ctx, item, decoders)
	return res, err
}

// ResolveTrace 与 Resolve 相同，但额外返回分派轨迹（直出时 Trace.Direct=true）。
func ResolveTrace(ctx context.Context, item domain.SourceItem, decoders []Decoder) (domain.DecodeResult, Trace, error) {
	if !item.NeedsDecoding {
		return direct(item), Trace{Direct: true}, nil
	}

	d := find(item.Link, decoders)
	if d == nil {
		return domain.Failed(), Trace{}, ErrNotSupported
	}
	name := d.Name()

	opts, err := safeDecode(ctx, d, item)
	if err != nil {
		return domain.Failed(), Trace{Decoder: name, Err: err}, nil
	}
	if len(opts) == 0 {
		return domain.Failed(), Trace{Decoder: name, Err: &Error{Decoder: name, Stage: "empty", Err: errors.New("没有可用的直链")}}, nil
	}
	return domain.Succeeded(opts), Trace{Decoder: name}, nil
}

// direct 把无需解码的条目转换为单个 Option；链接为空时视为失败。
func direct(item domain.SourceItem) domain.DecodeResult {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.Failed()
	}
	return domain.Succeeded([]domain.Option{{DirectLink: link, Name: item.Name, Quality: item.Quality}})
}

func find(link string, decoders []Decoder) Decoder {
	for _, d := range decoders {
		if d != nil && safeCanDecode(d, link) {
			return d
		}
	}
	return nil
}

// safeCanDecode 把 CanDecode 的 panic 当作不匹配。
func safeCanDecode(d Decoder, link string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return d.CanDecode(link)
}

// safeDecode 把 decoder 的 panic 转换为错误。
func safeDecode(ctx context.Context, d Decoder, item domain.SourceItem) (opts []domain.Option, err error) {
	name := d.Name()
	defer func() {
		if r := recover(); r != nil {
			opts = nil
			err = &Error{Decoder: name, Stage: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()
	opts, err = d.Decode(ctx, item)
	if err != nil {
		return nil, &Error{Decoder: name, Stage: "decode", Err: err}
	}
	return opts, nil
}

func logTrace(logger *slog.Logger, item domain.SourceItem, tr Trace, err error) {
	if logger == nil {
		logger = logging.Discard()
	}
	switch {
	case err != nil:
		logger.Debug("no decoder for link", "link", item.Link)
	case tr.Err != nil:
		logger.Warn("decode failed", "decoder", tr.Decoder, "link", item.Link, "error", tr.Err)
	case tr.Direct:
		logger.Debug("direct source", "link", item.Link)
	default:
		logger.Debug("decoded", "decoder", tr.Decoder, "link", item.Link)
	}
}
