package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/hydra/internal/decoder"
	"github.com/John-Robertt/hydra/internal/domain"
)

const exitUnsupported = 3

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var (
		name   string
		direct bool
	)
	cmd := &cobra.Command{
		Use:   "decode <link>",
		Short: "把播放源链接解码为直链",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.load(cmd)
			if err != nil {
				return err
			}
			item := domain.SourceItem{
				Name:          name,
				Link:          strings.TrimSpace(args[0]),
				NeedsDecoding: !direct,
			}

			res, tr, err := svc.decoders.ResolveTrace(cmd.Context(), item)
			if errors.Is(err, decoder.ErrNotSupported) {
				return &exitError{code: exitUnsupported, err: errors.New("没有 decoder 支持该链接：" + item.Link)}
			}
			if err != nil {
				return err
			}

			view := decodeView{
				Link:    item.Link,
				OK:      res.OK(),
				Decoder: tr.Decoder,
				Direct:  tr.Direct,
				Options: newOptionViews(res.Options()),
			}
			if tr.Err != nil {
				view.Error = tr.Err.Error()
			}

			out := cmd.OutOrStdout()
			if isTTY(out) {
				writeDecodeTable(out, view)
			} else if err := writeJSON(out, view); err != nil {
				return err
			}
			if !view.OK {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "播放源名称（原样带入结果）")
	cmd.Flags().BoolVar(&direct, "direct", false, "链接本身即直链，不经过 decoder")
	return cmd
}
