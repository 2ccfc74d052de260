package domain

import "fmt"

// Quality 是清晰度提示；空串表示未知。
type Quality string

const (
	Quality4K       Quality = "4k"
	QualityHigh     Quality = "high"
	QualityMedium   Quality = "medium"
	QualityLow      Quality = "low"
	QualityMultiple Quality = "multiple"
)

// SourceItem 是一个不透明的可播放引用（由外部提供，不可变）。
//
// NeedsDecoding 为 false（零值）时 Link 被视为直链，解码分派会原样返回它。
type SourceItem struct {
	Name          string
	Link          string
	Type          string
	Quality       Quality
	NeedsDecoding bool
	CanDownload   bool
	Payload       string
}

type SourceKind string

const (
	SourceVideo   SourceKind = "video"
	SourceGallery SourceKind = "gallery"
)

// SourceData 是一组 SourceItem；Gallery 额外携带与 Items 等长的请求头列表。
type SourceData struct {
	Kind    SourceKind
	Items   []SourceItem
	Headers []map[string]string
}

func NewVideoSource(items []SourceItem) SourceData {
	return SourceData{Kind: SourceVideo, Items: items}
}

// NewGallerySource 构造图库来源；headers 为空表示都不需要请求头，否则长度必须与 items 一致。
func NewGallerySource(items []SourceItem, headers []map[string]string) (SourceData, error) {
	if len(headers) > 0 && len(headers) != len(items) {
		return SourceData{}, fmt.Errorf("headers 数量（%d）与 items 数量（%d）不一致", len(headers), len(items))
	}
	return SourceData{Kind: SourceGallery, Items: items, Headers: headers}, nil
}

// HeadersAt 返回第 i 项的请求头；不存在时返回 nil。
func (d SourceData) HeadersAt(i int) map[string]string {
	if i < 0 || i >= len(d.Headers) {
		return nil
	}
	return d.Headers[i]
}

// Option 是解码得到的一个直链。
type Option struct {
	DirectLink string
	Name       string
	Quality    Quality
	Headers    map[string]string
}

// DecodeResult 是解码结果：成功（至少一个 Option）或失败。
//
// 不变量：成功结果的 Options 永远非空；只能通过 Succeeded/Failed 构造。
type DecodeResult struct {
	options []Option
}

// Succeeded 构造成功结果；opts 为空时返回 Failed()。
func Succeeded(opts []Option) DecodeResult {
	if len(opts) == 0 {
		return Failed()
	}
	return DecodeResult{options: append([]Option(nil), opts...)}
}

func Failed() DecodeResult { return DecodeResult{} }

func (r DecodeResult) OK() bool { return len(r.options) > 0 }

// Options 返回结果的副本（失败时为 nil）。
func (r DecodeResult) Options() []Option {
	if len(r.options) == 0 {
		return nil
	}
	return append([]Option(nil), r.options...)
}
