package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/wpm-labs/wpm/internal/installer"
)

var (
	listJSON bool
	listYAML bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List the packages found under the install directory and whether the catalog
registers each of their modules.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "Output in YAML format")
	listCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	pkgs, err := newInstaller(cmd).List(cmd.Context())
	if err != nil {
		return err
	}
	if pkgs == nil {
		pkgs = []installer.Package{}
	}

	switch {
	case listJSON:
		data, err := json.MarshalIndent(pkgs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling package list: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	case listYAML:
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(pkgs); err != nil {
			return fmt.Errorf("marshaling package list: %w", err)
		}
		return enc.Close()
	}

	if len(pkgs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No packages installed in %s\n", opts.InstallDir)
		return nil
	}
	return printListTable(cmd, pkgs)
}

func printListTable(cmd *cobra.Command, pkgs []installer.Package) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tMODULES\tSTATUS")
	for _, p := range pkgs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Version, len(p.Modules), packageStatus(p))
	}
	return w.Flush()
}

func packageStatus(p installer.Package) string {
	if p.Error != "" {
		return "broken descriptor"
	}
	var missing []string
	for _, m := range p.Modules {
		if !m.Registered {
			missing = append(missing, m.ID)
		}
	}
	if len(missing) > 0 {
		return "unregistered: " + strings.Join(missing, ", ")
	}
	return "ok"
}
