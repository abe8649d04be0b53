package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	playerOffline  bool
	playerNoBridge bool
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "启动主播放器",
	Long: `Start the main player. It owns audio output, restores the last session,
and takes commands on stdin (type "help").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, os.Stdout, appOptions{
			audio:   true,
			persist: true,
			remote:  !playerOffline,
			bridge:  !playerNoBridge,
		})
		if err != nil {
			return err
		}
		defer a.close()

		return newShell(a).Run(ctx, os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)
	playerCmd.Flags().BoolVar(&playerOffline, "offline", false, "不连接数据库和对象存储，只播放本地文件")
	playerCmd.Flags().BoolVar(&playerNoBridge, "no-bridge", false, "不连接 bridge，迷你播放器将无法同步")
}
