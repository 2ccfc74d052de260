package extract

import "regexp"

// Pattern 从半结构化文本（通常是内联脚本）中取出一段数据字面量。
// 站点标记一变，只需要替换 Pattern，不影响上层编排。
type Pattern interface {
	Find(text string) (string, bool)
}

// RegexPattern 返回正则第一个捕获组。
type RegexPattern struct {
	Re *regexp.Regexp
}

// MustPattern 编译正则；表达式必须至少包含一个捕获组。
func MustPattern(expr string) RegexPattern {
	re := regexp.MustCompile(expr)
	if re.NumSubexp() < 1 {
		panic("extract: pattern 需要至少一个捕获组：" + expr)
	}
	return RegexPattern{Re: re}
}

func (p RegexPattern) Find(text string) (string, bool) {
	if p.Re == nil {
		return "", false
	}
	m := p.Re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
