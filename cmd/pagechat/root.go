package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	dbPath    string
	ephemeral bool
	version   = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagechat",
	Short: "Chat with an assistant about the page you are reading",
	Long: `pagechat extracts the readable text of a web page and asks an
OpenAI-compatible chat model about it, keeping a running conversation.

Quick Start:
  pagechat key set                              # Save your API key
  pagechat chat --url https://example.com       # Interactive chat about a page
  pagechat ask --url https://example.com "tl;dr?"
  pagechat serve --addr :8787                   # HTTP API for a browser extension`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.Ltime)
		log.SetOutput(os.Stderr)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the key-value database (default: <config dir>/pagechat/pagechat.db)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep sessions and credentials in memory only")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// componentLogger returns the logger handed to components. Without
// --verbose their chatter is discarded so the transcript stays readable.
func componentLogger() *log.Logger {
	if verbose {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}
