package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/descriptor"
	"github.com/wpm-labs/wpm/internal/errs"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate a package descriptor",
	Long:  `Validate the webida-package.json of the package in dir (default: current directory).`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	path := descriptor.Path(dir)

	result, err := descriptor.ValidateFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return errs.Data("validate", "no descriptor found at %s", path)
	}
	if err != nil {
		return errs.Data("validate", "%w", err)
	}

	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintf(out, "✓ %s is valid\n", path)
		return nil
	}

	fmt.Fprintf(out, "✗ %s has %d issue(s):\n", path, len(result.Issues))
	for _, issue := range result.Issues {
		loc := issue.Path
		if loc == "" {
			loc = "(root)"
		}
		fmt.Fprintf(out, "  %s: %s [%s]\n", loc, issue.Message, issue.Keyword)
	}
	return errs.Data("validate", "%s is invalid", path)
}
