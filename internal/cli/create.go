package cli

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/scaffold"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var (
	createOutputDir   string
	createModules     []string
	createStarters    []string
	createDescription string
)

func init() {
	createCmd.Flags().StringVar(&createOutputDir, "output-dir", "", "Output directory (default: ./<id>)")
	createCmd.Flags().StringSliceVarP(&createModules, "module", "m", nil, "Module to declare as a plugin (repeatable, default: "+scaffold.DefaultModule+")")
	createCmd.Flags().StringSliceVar(&createStarters, "starter", nil, "Module that autostarts (repeatable, must also be a --module)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Package description")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Scaffold a new plugin package",
	Long: `Create a package skeleton with a ` + branding.DescriptorFile() + ` declaring its modules.

Examples:
  ` + branding.CLIName() + ` create my-tools
  ` + branding.CLIName() + ` create my-tools -m editor -m lint --starter editor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errs.UserInput("create", "expected one package id, got %d", len(args))
		}
		id := args[0]
		if !idPattern.MatchString(id) {
			return errs.UserInput("create", "invalid package id %q: must match %s", id, idPattern)
		}

		outDir := createOutputDir
		if outDir == "" {
			outDir = filepath.Join(".", id)
		}

		data := scaffold.NewData(id, createModules)
		if createStarters != nil {
			data.Starters = createStarters
		}
		if createDescription != "" {
			data.Description = createDescription
		}

		if opts.DryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "Would create package %s in %s\n", id, outDir)
			return nil
		}

		result, err := scaffold.Generate(data, outDir)
		if err != nil {
			return errs.UserInput("create", "%w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created package %s in %s\n", id, result.OutputDir)
		for _, f := range result.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  ⚠ %s\n", w)
		}
		return nil
	},
}
