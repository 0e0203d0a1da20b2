package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/errs"
)

var removeCmd = &cobra.Command{
	Use:     "remove <packageId>",
	Aliases: []string{"uninstall"},
	Short:   "Remove an installed package",
	Long: `Remove an installed package: its modules are unregistered from every catalog
bucket and <install-path>/<packageId> is deleted.`,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errs.UserInput("remove", "expected one package id, got %d", len(args))
	}

	res, err := newInstaller(cmd).Remove(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.DryRun {
		fmt.Fprintf(out, "Would remove %s (%s)\n", res.PackageID, res.Dir)
		fmt.Fprintf(out, "  would unregister %d catalog entries: %s\n", res.Entries, strings.Join(res.Modules, ", "))
		return nil
	}

	fmt.Fprintf(out, "✓ Removed %s (%d catalog entries)\n", res.PackageID, res.Entries)
	return nil
}
