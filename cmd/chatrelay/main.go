package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Chat relay between a web chat UI and an AI analysis endpoint",
	Long: `chatrelay forwards user chat messages to an external AI analysis
endpoint, records every exchange in a conversation log store, and returns
the analysis payload to the caller. It serves the relay API, a websocket
chat gateway with an embedded chat page, and the admin dashboard API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
