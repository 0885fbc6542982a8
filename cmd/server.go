package cmd

import (
	"StreamVibe/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动StreamVibe服务器",
	Long:  `启动流媒体解析HTTP服务器，提供 /play 解析重定向及用户API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
