package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"StreamVibe/config"
	"StreamVibe/core/upstream"

	"github.com/spf13/cobra"
)

var upstreamVideoID string

var upstreamCmd = &cobra.Command{
	Use:   "upstream",
	Short: "上游拉取测试",
	Long:  `对指定视频ID执行一次带重试的上游拉取，打印解析结果，用于排查凭证和网络问题。`,
	Run: func(cmd *cobra.Command, args []string) {
		if upstreamVideoID == "" {
			log.Fatal("请通过 --id 指定视频ID")
		}

		cfg := config.Load()
		client := upstream.NewClient(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		fmt.Printf("开始拉取 (ID: %s)...\n", upstreamVideoID)
		song, err := client.FetchSong(ctx, upstreamVideoID)
		if err != nil {
			log.Fatalf("拉取失败: %v", err)
		}
		if song == nil {
			fmt.Println("上游确认无内容")
			return
		}

		fmt.Printf("标题: %s\n", song.Title)
		fmt.Printf("作者: %s\n", song.Author)
		fmt.Printf("时长: %d秒\n", song.DurationSeconds)
		fmt.Printf("播放链接: %s\n", song.StreamURL())
	},
}

func init() {
	upstreamCmd.Flags().StringVar(&upstreamVideoID, "id", "", "要解析的视频ID")
	rootCmd.AddCommand(upstreamCmd)
}
