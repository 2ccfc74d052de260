package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// isTTY 判断 w 是否为交互终端；非 *os.File（测试缓冲区等）一律视为非终端。
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON 输出单个 JSON 文档（stdout 非终端时的唯一输出）。
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable 渲染圆角表格；rightCols 中的列右对齐（从 0 开始）。
func renderTable(title string, headers []string, rows [][]string, rightCols ...int) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	right := make(map[int]bool, len(rightCols))
	for _, c := range rightCols {
		right[c] = true
	}
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if right[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatComments(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeRecordTables(w io.Writer, v recordView) {
	rows := [][]string{
		{"id", strconv.Itoa(v.ID)},
		{"name", v.Name},
		{"link", v.Link},
		{"category", v.Category},
		{"type", orDash(v.Type)},
		{"state", stateLabel(v.State)},
		{"chapters", fmt.Sprintf("%s (%d)", v.Chapters.Kind, v.Chapters.Total)},
	}
	if v.Ranking != nil {
		rows = append(rows, []string{"ranking", fmt.Sprintf("%s (%d votes)", formatNumber(v.Ranking.Stars), v.Ranking.Votes)})
	}
	for _, g := range v.Genres {
		rows = append(rows, []string{"genre", g.Name})
	}
	fmt.Fprintln(w, renderTable("record", []string{"field", "value"}, rows))

	if len(v.Related) > 0 {
		rel := make([][]string, 0, len(v.Related))
		for _, r := range v.Related {
			rel = append(rel, []string{r.Relation, r.Name, r.Link})
		}
		fmt.Fprintln(w, renderTable("related", []string{"relation", "name", "link"}, rel))
	}

	var chapters [][]string
	if v.Chapters.Single != nil {
		c := v.Chapters.Single
		chapters = append(chapters, []string{formatNumber(c.Number), c.Link, formatComments(c.Comments)})
	}
	for _, p := range v.Chapters.Pages {
		if p.Error != "" {
			chapters = append(chapters, []string{"-", "page " + strconv.Itoa(p.Key) + ": " + p.Error, "-"})
			continue
		}
		for _, c := range p.Items {
			chapters = append(chapters, []string{formatNumber(c.Number), c.Link, formatComments(c.Comments)})
		}
	}
	if len(chapters) > 0 {
		fmt.Fprintln(w, renderTable("chapters", []string{"#", "link", "comments"}, chapters, 0, 2))
	}

	if len(v.Sections) > 0 {
		sec := make([][]string, 0, len(v.Sections))
		for _, s := range v.Sections {
			sec = append(sec, []string{s.Title, s.Kind, s.summary()})
		}
		fmt.Fprintln(w, renderTable("sections", []string{"title", "kind", "summary"}, sec))
	}
}

func stateLabel(s stateView) string {
	if s.Completed {
		return "completed"
	}
	if s.Day == "" {
		return "airing"
	}
	return "airing (" + s.Day + ")"
}

func writeDecodeTable(w io.Writer, v decodeView) {
	if !v.OK {
		msg := "解码失败"
		if v.Error != "" {
			msg += "：" + v.Error
		}
		fmt.Fprintln(w, msg)
		return
	}
	rows := make([][]string, 0, len(v.Options))
	for _, o := range v.Options {
		rows = append(rows, []string{orDash(o.Name), orDash(o.Quality), o.Link})
	}
	title := "direct"
	if !v.Direct {
		title = v.Decoder
	}
	fmt.Fprintln(w, renderTable(title, []string{"name", "quality", "link"}, rows))
}
