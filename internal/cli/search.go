package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/installer"
)

var (
	searchBucketFilter string
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search installed packages",
	Long: `Search the installed packages by id, name, or module id.

The query is a case-insensitive substring. Use --bucket to keep only packages
with a module registered in that catalog bucket (plugins, start-plugins,
disabled-plugins).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchBucketFilter, "bucket", "", "Filter by catalog bucket")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	var bucket catalog.Bucket
	if searchBucketFilter != "" {
		b, err := parseBucket(searchBucketFilter)
		if err != nil {
			return err
		}
		bucket = b
	}

	pkgs, err := newInstaller(cmd).List(cmd.Context())
	if err != nil {
		return err
	}

	matches := []installer.Package{}
	for _, p := range pkgs {
		if matchesSearch(p, query, bucket) {
			matches = append(matches, p)
		}
	}

	if searchJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling search results: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if len(matches) == 0 {
		msg := "No packages found"
		if query != "" {
			msg += fmt.Sprintf(" matching %q", query)
		}
		if bucket != "" {
			msg += fmt.Sprintf(" with --bucket=%s", bucket)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}
	return printListTable(cmd, matches)
}

func parseBucket(name string) (catalog.Bucket, error) {
	names := make([]string, 0, len(catalog.Buckets))
	for _, b := range catalog.Buckets {
		if string(b) == name {
			return b, nil
		}
		names = append(names, string(b))
	}
	return "", errs.UserInput("search", "unknown bucket %q (known buckets: %s)", name, strings.Join(names, ", "))
}

// matchesSearch reports whether p matches every non-empty filter.
func matchesSearch(p installer.Package, query string, bucket catalog.Bucket) bool {
	if bucket != "" && !inBucket(p, bucket) {
		return false
	}
	if query == "" {
		return true
	}

	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.ID), q) || strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	for _, m := range p.Modules {
		if strings.Contains(strings.ToLower(m.ID), q) {
			return true
		}
	}
	return false
}

func inBucket(p installer.Package, bucket catalog.Bucket) bool {
	for _, m := range p.Modules {
		if m.Registered && m.Bucket == bucket {
			return true
		}
	}
	return false
}
