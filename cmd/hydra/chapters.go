package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/hydra/internal/domain"
)

func newChaptersCommand(ctx *commandContext) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "chapters <url>",
		Short: "加载详情页的一页章节（含评论数）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 0 {
				return fmt.Errorf("--page 不能为负数：%d", page)
			}
			svc, err := ctx.load(cmd)
			if err != nil {
				return err
			}
			doc, err := svc.docs.Fetch(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("获取详情页失败：%w", err)
			}

			var view pageView
			switch data := svc.assembler.Chapters(doc).(type) {
			case domain.SingleChapter:
				if page > 0 {
					view = pageView{Key: page, Items: []chapterView{}}
				} else {
					view = pageView{Key: 0, Items: []chapterView{newChapterView(data.Chapter)}}
				}
			case domain.PagedChapters:
				if data.Pager == nil {
					return errors.New("详情页中没有章节：" + args[0])
				}
				p, err := data.Pager.Load(cmd.Context(), page)
				if err != nil {
					return err
				}
				view = newPageView(p)
			default:
				return errors.New("详情页中没有章节：" + args[0])
			}

			out := cmd.OutOrStdout()
			if !isTTY(out) {
				return writeJSON(out, view)
			}
			rows := make([][]string, 0, len(view.Items))
			for _, c := range view.Items {
				rows = append(rows, []string{formatNumber(c.Number), c.Link, formatComments(c.Comments)})
			}
			fmt.Fprintln(out, renderTable("page "+strconv.Itoa(view.Key), []string{"#", "link", "comments"}, rows, 0, 2))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "页号（从 0 开始）")
	return cmd
}
