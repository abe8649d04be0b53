package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Zenith/cache"
	"Zenith/core/bridge"
	"Zenith/localstore"
	"Zenith/logger"
	"Zenith/server"

	"github.com/spf13/cobra"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "启动窗口间同步服务",
	Long: `Start the bridge every player surface connects to. The shared snapshot is
kept in Redis when it is reachable and in a local file otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var store bridge.SnapshotStore
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis 不可用，使用本地文件保存共享状态", logger.ErrorField(err))
			// the player keeps its own lock on zenith.db, so the bridge gets a separate file
			local, err := localstore.Open(dataPath(cfg, "bridge.db"))
			if err != nil {
				return err
			}
			defer local.Close()
			store = local
		} else {
			defer cache.CloseRedis()
			store = cache.NewSnapshotCache(cache.RedisClient)
		}

		hub := bridge.NewHub(store)
		go hub.Run(ctx)
		defer hub.Stop()

		return server.Run(ctx, cfg.BridgeAddr, hub)
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
}
