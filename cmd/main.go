package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-intel-bot",
	Short: "A CLI for managing the market intelligence bot services",
	Long:  `Market Intel Bot ingests SEC filings, press feeds, macro series and earnings data and turns them into deduplicated, confidence-scored alerts.`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
