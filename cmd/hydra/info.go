package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/hydra/internal/domain"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "解析详情页并输出条目信息",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 0 {
				return fmt.Errorf("--pages 不能为负数：%d", pages)
			}
			svc, err := ctx.load(cmd)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()

			doc, err := svc.docs.Fetch(runCtx, args[0])
			if err != nil {
				return fmt.Errorf("获取详情页失败：%w", err)
			}
			rec, err := svc.assembler.Assemble(runCtx, doc)
			if err != nil {
				return err
			}

			view := newRecordView(rec)
			if paged, ok := rec.Chapters.(domain.PagedChapters); ok && pages > 0 && paged.Pager != nil {
				view.Chapters.Pages = loadPages(cmd, paged.Pager, pages)
			}

			out := cmd.OutOrStdout()
			if !isTTY(out) {
				return writeJSON(out, view)
			}
			writeRecordTables(out, view)
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 0, "同时加载前 N 页章节（含评论数）")
	return cmd
}

// loadPages 顺序加载前 n 页；单页失败记录在该页上并停止继续翻页。
func loadPages(cmd *cobra.Command, pager domain.ChapterPager, n int) []pageView {
	out := make([]pageView, 0, n)
	key := 0
	for range n {
		page, err := pager.Load(cmd.Context(), key)
		if err != nil {
			msg := err.Error()
			if errors.Is(cmd.Context().Err(), context.Canceled) {
				msg = "已取消"
			}
			out = append(out, pageView{Key: key, Items: []chapterView{}, Error: msg})
			break
		}
		out = append(out, newPageView(page))
		if page.NextKey == nil {
			break
		}
		key = *page.NextKey
	}
	return out
}
