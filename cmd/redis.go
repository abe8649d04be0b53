package cmd

import (
	"context"
	"fmt"
	"time"

	"Zenith/cache"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并查看 bridge 保存的共享播放状态。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer cache.CloseRedis()
		fmt.Println("Redis连接成功！")

		ctx := context.Background()
		health, err := cache.TestRedis(ctx)
		if err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Printf("Redis基本操作测试成功！读写耗时 %s\n", health.Latency.Round(time.Microsecond))
		if health.SnapshotTTL > 0 {
			fmt.Printf("共享播放状态将在 %s 后过期\n", health.SnapshotTTL.Round(time.Second))
		}

		snapshots := cache.NewSnapshotCache(cache.RedisClient)
		if redisClearSnapshot {
			if err := snapshots.ClearSnapshot(ctx); err != nil {
				return err
			}
			fmt.Println("共享播放状态已清除")
			return nil
		}
		snap, err := snapshots.LoadSnapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Println("共享播放状态:", nowPlaying(snap))
		return nil
	},
}

var redisClearSnapshot bool

func init() {
	rootCmd.AddCommand(redisCmd)
	redisCmd.Flags().BoolVar(&redisClearSnapshot, "clear", false, "清除 bridge 保存的共享播放状态")
}
