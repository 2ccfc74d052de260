package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/hydra/internal/config"
	"github.com/John-Robertt/hydra/internal/decoder"
	"github.com/John-Robertt/hydra/internal/decoder/gocdn"
	"github.com/John-Robertt/hydra/internal/disqus"
	"github.com/John-Robertt/hydra/internal/document"
	"github.com/John-Robertt/hydra/internal/enrich"
	"github.com/John-Robertt/hydra/internal/infra/cache"
	"github.com/John-Robertt/hydra/internal/infra/httpx"
	"github.com/John-Robertt/hydra/internal/logging"
	"github.com/John-Robertt/hydra/internal/metadata/anusic"
	"github.com/John-Robertt/hydra/internal/metadata/jikan"
	"github.com/John-Robertt/hydra/internal/record"
)

// services 是一次命令执行所需的全部组件。
type services struct {
	cfg       config.Config
	logger    *slog.Logger
	docs      *document.Provider
	assembler *record.Assembler
	decoders  decoder.Registry
	jikan     *jikan.Client
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	once sync.Once
	svc  *services
	err  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

// load 首次调用时加载配置并装配组件；日志写到命令的 stderr。
func (c *commandContext) load(cmd *cobra.Command) (*services, error) {
	c.once.Do(func() {
		c.svc, c.err = c.build(cmd)
	})
	return c.svc, c.err
}

func (c *commandContext) build(cmd *cobra.Command) (*services, error) {
	cfg, err := config.Load(flagValue(c.configFlag))
	if err != nil {
		return nil, err
	}
	if lvl := flagValue(c.logLevelFlag); lvl != "" {
		cfg.Log.Level = strings.ToLower(lvl)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	logger = logger.With("run_id", uuid.NewString())
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}

	hc, err := httpx.NewClient(httpx.Options{ProxyURL: cfg.Proxy.URL, Timeout: cfg.HTTP.Timeout})
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: cfg.File, Err: err}
	}

	var store *cache.Store
	if cfg.Cache.Dir != "" {
		s := cache.New(cfg.Cache.Dir, cfg.Cache.ReadOnly, cfg.Cache.MaxAge)
		store = &s
	}
	docs := document.New(hc, store, logger)

	bridge := disqus.New(httpx.NewResty(hc, ""), disqus.Config{
		Forum:       cfg.Disqus.Forum,
		EmbedURL:    cfg.Disqus.EmbedURL,
		CommentsURL: cfg.Disqus.CommentsURL,
	}, logger)

	jk := jikan.New(httpx.NewResty(hc, cfg.Jikan.BaseURL), jikan.WithLogger(logger))

	var enricher record.Enricher
	if toggles := enrich.TogglesFrom(cfg.Preferences()); toggles.Any() {
		enricher = &enrich.Aggregator{
			Metadata: jk,
			Music:    anusic.New(httpx.NewResty(hc, cfg.Anusic.BaseURL)),
			Toggles:  toggles,
			Timeout:  cfg.Enrich.Timeout,
			Logger:   logger,
		}
	}

	asm := &record.Assembler{
		Layout:         record.DefaultLayout(),
		RelatedTimeout: cfg.Related.Timeout,
		Enricher:       enricher,
		Bridge:         bridge,
		Logger:         logger,
	}
	asm.Related = record.DocumentFetcher{Docs: docs, Assembler: asm}

	reg, err := decoder.NewRegistry(logger, gocdn.New(httpx.NewResty(hc, cfg.GoCDN.BaseURL)))
	if err != nil {
		return nil, err
	}

	return &services{
		cfg:       cfg,
		logger:    logger,
		docs:      docs,
		assembler: asm,
		decoders:  reg,
		jikan:     jk,
	}, nil
}

func (c *commandContext) close() error {
	if c.svc == nil || c.svc.jikan == nil {
		return nil
	}
	if err := c.svc.jikan.Close(); err != nil {
		return errors.Join(errors.New("关闭元数据缓存失败"), err)
	}
	return nil
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
