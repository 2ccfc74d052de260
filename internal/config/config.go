// Package config 负责发现、读取并校验配置（YAML 文件 + HYDRA_ 环境变量 + 内置默认值）。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/John-Robertt/hydra/internal/enrich"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileName 是自动发现时查找的配置文件名（不含扩展名）。
	FileName  = "hydra"
	EnvPrefix = "HYDRA"
)

type Config struct {
	Proxy   ProxyConfig    `mapstructure:"proxy"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Related RelatedConfig  `mapstructure:"related"`
	Enrich  EnrichConfig   `mapstructure:"enrich"`
	Jikan   EndpointConfig `mapstructure:"jikan"`
	Anusic  EndpointConfig `mapstructure:"anusic"`
	Disqus  DisqusConfig   `mapstructure:"disqus"`
	GoCDN   EndpointConfig `mapstructure:"gocdn"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Log     LogConfig      `mapstructure:"log"`

	// File 是实际读取的配置文件；只用默认值与环境变量时为空。
	File string `mapstructure:"-"`
}

type ProxyConfig struct {
	URL string `mapstructure:"url"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type RelatedConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type EnrichConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	BasicInfo bool          `mapstructure:"basic_info"`
	Staff     bool          `mapstructure:"staff"`
	Gallery   bool          `mapstructure:"gallery"`
	Music     bool          `mapstructure:"music"`
}

type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type DisqusConfig struct {
	Forum       string `mapstructure:"forum"`
	EmbedURL    string `mapstructure:"embed_url"`
	CommentsURL string `mapstructure:"comments_url"`
}

type CacheConfig struct {
	// Dir 为空表示不使用文档缓存。
	Dir      string        `mapstructure:"dir"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	ReadOnly bool          `mapstructure:"read_only"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy.url", "")
	v.SetDefault("http.timeout", "20s")
	v.SetDefault("related.timeout", "10s")
	v.SetDefault("enrich.timeout", "2s")
	v.SetDefault("enrich.basic_info", false)
	v.SetDefault("enrich.staff", false)
	v.SetDefault("enrich.gallery", false)
	v.SetDefault("enrich.music", false)
	v.SetDefault("jikan.base_url", "https://api.jikan.moe/v4")
	v.SetDefault("anusic.base_url", "https://anusic-api.herokuapp.com/api/v1")
	v.SetDefault("disqus.forum", "https-animeflv-net")
	v.SetDefault("disqus.embed_url", "https://https-animeflv-net.disqus.com/embed.js")
	v.SetDefault("disqus.comments_url", "https://disqus.com/embed/comments/")
	v.SetDefault("gocdn.base_url", "https://streamium.xyz")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_age", "24h")
	v.SetDefault("cache.read_only", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 读取配置。
//
// 发现规则：
// 1) path 非空：必须存在，否则 config_not_found
// 2) path 为空：依次查找 ./hydra.yaml 与 <用户配置目录>/hydra/hydra.yaml，找不到就只用默认值
//
// 优先级：环境变量（HYDRA_SECTION_KEY）> 配置文件 > 默认值。
func Load(path string) (Config, error) {
	dirs := []string{"."}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, "hydra"))
	}
	return load(path, dirs)
}

func load(path string, searchDirs []string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return Config{}, &Error{Code: ErrCodeNotFound, Path: path, Err: os.ErrNotExist}
			}
			return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, d := range searchDirs {
			v.AddConfigPath(d)
		}
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: cfg.File, Err: err}
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Proxy.URL = strings.TrimSpace(c.Proxy.URL)
	c.Jikan.BaseURL = strings.TrimRight(strings.TrimSpace(c.Jikan.BaseURL), "/")
	c.Anusic.BaseURL = strings.TrimRight(strings.TrimSpace(c.Anusic.BaseURL), "/")
	c.GoCDN.BaseURL = strings.TrimRight(strings.TrimSpace(c.GoCDN.BaseURL), "/")
	c.Disqus.Forum = strings.TrimSpace(c.Disqus.Forum)
	c.Disqus.EmbedURL = strings.TrimSpace(c.Disqus.EmbedURL)
	c.Disqus.CommentsURL = strings.TrimSpace(c.Disqus.CommentsURL)
	c.Cache.Dir = strings.TrimSpace(c.Cache.Dir)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate 校验字段取值。
func (c Config) Validate() error {
	if c.Proxy.URL != "" {
		if err := checkURL("proxy.url", c.Proxy.URL); err != nil {
			return err
		}
	}
	// 按固定顺序校验，多处错误时总是报告第一个。
	for _, f := range []struct{ key, url string }{
		{"jikan.base_url", c.Jikan.BaseURL},
		{"anusic.base_url", c.Anusic.BaseURL},
		{"gocdn.base_url", c.GoCDN.BaseURL},
		{"disqus.embed_url", c.Disqus.EmbedURL},
		{"disqus.comments_url", c.Disqus.CommentsURL},
	} {
		if err := checkURL(f.key, f.url); err != nil {
			return err
		}
	}
	if c.Disqus.Forum == "" {
		return errors.New("disqus.forum 不能为空")
	}
	for _, f := range []struct {
		key string
		d   time.Duration
	}{
		{"http.timeout", c.HTTP.Timeout},
		{"related.timeout", c.Related.Timeout},
		{"enrich.timeout", c.Enrich.Timeout},
	} {
		if f.d <= 0 {
			return fmt.Errorf("%s 必须为正数，实际 %s", f.key, f.d)
		}
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age 不能为负数，实际 %s", c.Cache.MaxAge)
	}
	switch c.Log.Format {
	case "text", "console", "json":
	default:
		return fmt.Errorf("log.format 只能是 text/console/json，实际 %q", c.Log.Format)
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s 无效：%w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s 必须是 http/https 地址：%q", key, raw)
	}
	return nil
}

// Prefs 是只读的偏好视图，实现 enrich.Preferences。
type Prefs map[string]bool

func (p Prefs) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Preferences 把 enrich.* 开关暴露为偏好键。
func (c Config) Preferences() Prefs {
	return Prefs{
		enrich.PrefBasicInfo: c.Enrich.BasicInfo,
		enrich.PrefStaff:     c.Enrich.Staff,
		enrich.PrefGallery:   c.Enrich.Gallery,
		enrich.PrefMusic:     c.Enrich.Music,
	}
}
