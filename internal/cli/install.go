package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/catalog"
	"github.com/wpm-labs/wpm/internal/errs"
)

var installCmd = &cobra.Command{
	Use:   "install <source>",
	Short: "Install a package from a git URL or a local directory",
	Long: `Install a package into the install directory and register its modules in the catalog.

<source> is either an existing local directory, which is copied, or a git URL,
which is cloned into <tmp-path>/cloning and switched to --branch. The package
lands in <install-path>/<id>, where id comes from its webida-package.json.`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errs.UserInput("install", "expected one package source (git URL or local directory), got %d", len(args))
	}

	res, err := newInstaller(cmd).Install(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.DryRun {
		fmt.Fprintf(out, "Would install %s to %s\n", res.PackageID, res.Target)
		printBucketModules(out, res.Modules)
		return nil
	}

	fmt.Fprintf(out, "✓ Installed %s to %s\n", res.PackageID, res.Target)
	printBucketModules(out, res.Modules)
	return nil
}

func printBucketModules(w io.Writer, modules map[catalog.Bucket][]string) {
	for _, b := range catalog.Buckets {
		if len(modules[b]) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-16s %s\n", b.String()+":", strings.Join(modules[b], ", "))
	}
}
