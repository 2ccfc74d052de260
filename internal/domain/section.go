package domain

// Section 是附加展示区块：标题 + 一种内容载荷。
type Section struct {
	Title   string
	Payload Payload
}

// Payload 是封闭集合：TextData / GalleryData / CollectionData / MusicData / YoutubeData。
type Payload interface {
	payload()
}

type ClickKind string

const (
	ClickClipboard ClickKind = "clipboard"
	ClickWeb       ClickKind = "web"
)

// ClickAction 描述点击行为；零值表示无动作。
type ClickAction struct {
	Kind  ClickKind
	Value string
}

type TextData struct {
	Text   string
	Action ClickAction
}

type GalleryKind string

const (
	GalleryImage   GalleryKind = "image"
	GalleryYoutube GalleryKind = "youtube"
)

// GalleryItem 是图库中的一项：图片链接或 YouTube 视频 id。
type GalleryItem struct {
	Kind GalleryKind
	Link string
}

type GalleryData struct {
	Items []GalleryItem
}

// ImageItem 是竖版图片引用。
type ImageItem struct {
	Link string
}

// CollectionItem 是人物/制作人员等带角色的条目；Image 为 nil 表示无图。
type CollectionItem struct {
	Name   string
	Role   string
	Image  *ImageItem
	Action ClickAction
}

type CollectionData struct {
	Items []CollectionItem
}

type Music struct {
	Name string
	Link string
	Kind string // "OP" / "ED"
}

type MusicData struct {
	Items []Music
}

type YoutubeData struct {
	VideoID string
}

func (TextData) payload()       {}
func (GalleryData) payload()    {}
func (CollectionData) payload() {}
func (MusicData) payload()      {}
func (YoutubeData) payload()    {}
