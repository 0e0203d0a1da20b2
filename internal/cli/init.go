package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/config"
)

var initSave bool

func init() {
	initCmd.Flags().BoolVar(&initSave, "save", false, "Persist --conf and --install-path as defaults in the config file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the catalog and install directories",
	Long: `Create the catalog directory with an empty catalog file, and the install
directory. An existing catalog is checked but never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newInstaller(cmd).Init(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case opts.DryRun && res.CatalogCreated:
			fmt.Fprintf(out, "Would create %s\n", res.CatalogPath)
		case res.CatalogCreated:
			fmt.Fprintf(out, "✓ Created %s\n", res.CatalogPath)
		default:
			fmt.Fprintf(out, "✓ Catalog %s already exists\n", res.CatalogPath)
		}

		if initSave && !opts.DryRun {
			for key, value := range map[string]string{
				config.KeyConf:        opts.CatalogDir,
				config.KeyInstallPath: opts.InstallDir,
			} {
				if err := config.Set(key, value); err != nil {
					return fmt.Errorf("saving %s: %w", key, err)
				}
			}
			fmt.Fprintf(out, "✓ Saved defaults to %s\n", config.FilePath())
		}
		return nil
	},
}
