package cmd

import (
	"fmt"
	"log"
	"os"

	"StreamVibe/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "streamvibe",
	Short: "StreamVibe resolves media identifiers into playable stream URLs.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting StreamVibe server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
