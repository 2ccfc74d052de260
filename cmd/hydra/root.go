package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		logLevelFlag string
	)

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "hydra",
		Short:         "番剧详情页解析与播放源解码",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "配置文件路径（默认 ./hydra.yaml）")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "日志级别：debug|info|warn|error（覆盖配置）")

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return ctx.close()
	}

	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newChaptersCommand(ctx))
	rootCmd.AddCommand(newDecodeCommand(ctx))

	return rootCmd
}
