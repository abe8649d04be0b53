package cmd

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"Zenith/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理存放歌曲和封面的MinIO存储桶，支持列出文件、查看统计信息、递归显示目录结构、删除目录等功能。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return fmt.Errorf("创建MinIO客户端失败: %w", err)
		}
		ctx := context.Background()
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		if minioDelete {
			if minioPrefix == "" {
				return fmt.Errorf("删除操作需要指定目录前缀")
			}
			n, err := store.RemovePrefix(ctx, minioPrefix)
			if err != nil {
				return err
			}
			fmt.Printf("已删除 %s 下的 %d 个文件\n", minioPrefix, n)
			return nil
		}

		objects, stats, err := store.List(ctx, minioPrefix, minioRecursive || minioStats)
		if err != nil {
			return err
		}

		if minioStats {
			fmt.Printf("\n文件总数: %d\n总大小: %s\n", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
			if !stats.LastModified.IsZero() {
				fmt.Printf("最后修改: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
			}
			classes := make([]string, 0, len(stats.ByType))
			for class := range stats.ByType {
				classes = append(classes, class)
			}
			sort.Strings(classes)
			for _, class := range classes {
				fmt.Printf("  %-8s %s\n", class, storage.FormatSize(stats.ByType[class]))
			}
			return nil
		}

		for _, obj := range objects {
			indent := ""
			if minioRecursive {
				depth := strings.Count(strings.TrimPrefix(obj.Key, minioPrefix), "/")
				indent = strings.Repeat("  ", depth)
			}
			name := obj.Key
			if minioRecursive {
				name = path.Base(obj.Key)
			}
			fmt.Printf("%s%-50s %10s  %s\n", indent, name, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\n共 %d 个文件\n", len(objects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示存储桶统计信息")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", false, "递归显示目录结构")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定目录及其下的所有文件")

	minioCmd.Example = `  # 列出所有文件
  zenith minio

  # 按前缀过滤文件
  zenith minio -p "<user-id>/"

  # 显示存储桶统计信息
  zenith minio -s

  # 递归显示目录结构
  zenith minio -r -p "<user-id>/covers/"

  # 删除目录及其下的所有文件
  zenith minio -d -p "<user-id>/"`
}
