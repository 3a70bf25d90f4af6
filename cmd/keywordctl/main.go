package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	emailFlag string
	rootCmd   = &cobra.Command{
		Use:   "keywordctl",
		Short: "CLI client for the keyword service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Keyword service base URL")
	rootCmd.PersistentFlags().StringVarP(&emailFlag, "email", "e", "", "Account email forwarded as the identity header")

	// search subcommand
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Run a keyword search",
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword, _ := cmd.Flags().GetString("keyword")
			return runSearch(apiFlag, keyword, emailFlag, os.Stdout)
		},
	}
	searchCmd.Flags().StringP("keyword", "k", "", "Keyword to analyze (required)")
	_ = searchCmd.MarkFlagRequired("keyword")
	rootCmd.AddCommand(searchCmd)

	// suggest subcommand
	suggestCmd := &cobra.Command{
		Use:   "suggest",
		Short: "Fetch autocomplete suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _ := cmd.Flags().GetString("query")
			return runSuggest(apiFlag, q, os.Stdout)
		},
	}
	suggestCmd.Flags().StringP("query", "q", "", "Query prefix (required)")
	_ = suggestCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(suggestCmd)

	// history subcommand
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List past searches for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if emailFlag == "" {
				return fmt.Errorf("--email required")
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return runHistory(apiFlag, emailFlag, limit, os.Stdout)
		},
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum entries to list")
	rootCmd.AddCommand(historyCmd)

	// evict subcommand (local, no server involved)
	evictCmd := &cobra.Command{
		Use:   "evict",
		Short: "Remove expired cache rows from the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvict(os.Stdout)
		},
	}
	rootCmd.AddCommand(evictCmd)

	// bulk subcommand (local fetch, one keyword per input line)
	bulkCmd := &cobra.Command{
		Use:   "bulk",
		Short: "Resolve a file of keywords through the fetcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			return runBulk(file, os.Stdout)
		},
	}
	bulkCmd.Flags().StringP("file", "f", "", "Path to a keywords file, one per line (required)")
	_ = bulkCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(bulkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
