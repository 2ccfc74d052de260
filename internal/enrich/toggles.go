package enrich

// 偏好键名（外部偏好存储使用）。
const (
	PrefBasicInfo = "mal_basic_data"
	PrefStaff     = "mal_staff"
	PrefGallery   = "mal_gallery"
	PrefMusic     = "mal_music"
)

// Preferences 是外部偏好存储的只读视图。
type Preferences interface {
	Bool(key string, def bool) bool
}

// Toggles 是各组附加区块的开关。零值表示全部关闭。
type Toggles struct {
	BasicInfo bool
	Staff     bool
	Gallery   bool
	Music     bool
}

func (t Toggles) Any() bool {
	return t.BasicInfo || t.Staff || t.Gallery || t.Music
}

// AllToggles 打开全部分组。
func AllToggles() Toggles {
	return Toggles{BasicInfo: true, Staff: true, Gallery: true, Music: true}
}

// TogglesFrom 从偏好存储读取开关（缺省全部关闭）；p 为 nil 时全部关闭。
func TogglesFrom(p Preferences) Toggles {
	if p == nil {
		return Toggles{}
	}
	return Toggles{
		BasicInfo: p.Bool(PrefBasicInfo, false),
		Staff:     p.Bool(PrefStaff, false),
		Gallery:   p.Bool(PrefGallery, false),
		Music:     p.Bool(PrefMusic, false),
	}
}
