package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string = "http://localhost:8080"
	output string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "echotune",
	Short: "EchoTune CLI - Query the recommendation engine",
	Long: `EchoTune CLI provides command-line access to the recommendation engine.
Fetch recommendations, inspect taste profiles, and submit feedback.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
