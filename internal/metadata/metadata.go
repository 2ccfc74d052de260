// Package metadata 定义外部元数据服务与聚合器之间共享的中立类型。
//
// 各客户端（jikan / anusic）把各自的 JSON 结构映射到这里，聚合器只依赖这些类型。
package metadata

import "strings"

// Anime 是条目的基础信息。
type Anime struct {
	ID        int
	Title     string
	Type      string // "TV" / "Movie" / ...
	Aired     string // 人类可读的放送区间
	TrailerID string // YouTube 视频 id；为空表示无预告片
}

// IsMovie 判断条目是否为剧场版。
func (a Anime) IsMovie() bool {
	return strings.EqualFold(strings.TrimSpace(a.Type), "movie")
}

// Person 是角色或制作人员。Role 对角色是 "Main"/"Supporting"，对制作人员是首个职位。
type Person struct {
	Name     string
	Role     string
	ImageURL string
	URL      string
}

// Picture 是一张图片的大图链接。
type Picture struct {
	Large string
}

// Video 是宣传视频；YoutubeID 可能为空（非 YouTube 来源）。
type Video struct {
	Title     string
	YoutubeID string
}

// ThemeType 区分片头与片尾。
type ThemeType int

const (
	ThemeOpening ThemeType = 0
	ThemeEnding  ThemeType = 1
)

// Label 返回 "OP" 或 "ED"；除 0 以外的取值都按片尾处理。
func (t ThemeType) Label() string {
	if t == ThemeOpening {
		return "OP"
	}
	return "ED"
}

// Theme 是一首主题曲。
type Theme struct {
	Name string
	Link string
	Type ThemeType
}

// YoutubeID 从嵌入链接中取视频 id："https://www.youtube.com/embed/abc?enablejsapi=1" -> "abc"。
// 不是嵌入链接时返回去掉查询串后的最后一段。
func YoutubeID(embedURL string) string {
	s := strings.TrimSpace(embedURL)
	if s == "" {
		return ""
	}
	if i := strings.LastIndex(s, "embed/"); i >= 0 {
		s = s[i+len("embed/"):]
	} else if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "?"); i >= 0 {
		s = s[:i]
	}
	return s
}
