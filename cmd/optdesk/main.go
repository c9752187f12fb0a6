package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "optdesk",
	Short: "optdesk - index options signal engine and daily trade runner",
	Long: `optdesk turns an indicator snapshot into a bounded trading plan and drives
one options trade per day through entry, monitoring and exit.
Intended to be invoked by a scheduler every few minutes during market hours.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
