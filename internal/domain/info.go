package domain

// Category 是媒体条目的大类（决定展示与下游处理方式）。
type Category string

const (
	CategoryAnime   Category = "anime"
	CategoryManga   Category = "manga"
	CategoryUnknown Category = "unknown"
)

// ParseCategory 把任意字符串规范化为已知 Category；无法识别时返回 CategoryUnknown。
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryAnime, CategoryManga:
		return Category(s)
	default:
		return CategoryUnknown
	}
}

// InfoRecord 是从一份详情页文档中组装出的完整条目信息。
//
// 不变量：
// - ID 稳定，只取决于来源与条目本身（不依赖解析时刻，也不随后续修改变化）
// - 一次解析产出一个新值；不对已有 InfoRecord 做原地修改
// - 缺失字段允许为空；Ranking/Chapters 为 nil 表示“不存在”
type InfoRecord struct {
	ID          int
	Name        string
	Link        string
	Category    Category
	Type        string
	Cover       string
	Description string

	Genres  []Tag
	Ranking *Ranking
	State   ScheduleState

	Related  []Related
	Chapters ChapterData
	Sections []Section
}

// Tag 是条目的一个分类标签。
type Tag struct {
	Name        string
	Payload     string
	ListEnabled bool
}

// Ranking 是评分信息；任意一项无法解析时整体缺失（InfoRecord.Ranking=nil）。
type Ranking struct {
	Stars float64
	Votes int
}

// Related 是关联条目：Link 为发现它时使用的链接（可能与其自身 canonical 不同）。
type Related struct {
	InfoRecord
	Relation string
}
