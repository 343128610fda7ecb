package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-oracle",
	Short: "A CLI for managing the Market Oracle services",
	Long:  `Market Oracle is a prediction market research assistant built around a multi-agent analyst council...`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
