package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "chunkgpt",
	Short:         "Summarize text of any length with a chat completion model",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("chunkgpt:", err)
		os.Exit(1)
	}
}
