package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/errs"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the catalog against the install directory",
	Long: `Report catalog entries whose package directory is gone, installed modules the
catalog does not register, broken descriptors, and directories left behind by
interrupted installs or removes. Nothing is changed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	findings, err := newInstaller(cmd).Doctor(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(findings) == 0 {
		fmt.Fprintln(out, "✓ No problems found")
		return nil
	}

	for _, f := range findings {
		fmt.Fprintf(out, "✗ %s: %s\n", f.Kind, f.Subject)
		fmt.Fprintf(out, "    %s\n", f.Detail)
	}
	return errs.Data("doctor", "%d problem(s) found", len(findings))
}
