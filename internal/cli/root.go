package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/config"
	"github.com/wpm-labs/wpm/internal/errs"
	"github.com/wpm-labs/wpm/internal/installer"
	"github.com/wpm-labs/wpm/internal/logging"
	"github.com/wpm-labs/wpm/internal/shell"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// opts and logger are set by the root command before any subcommand runs.
var (
	opts   config.Options
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs plugin packages from git repositories or local directories
and keeps the plugin catalog read by the host at startup in sync with the install directory.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(config.KeyConf, "c", "", "directory holding the plugin catalog (env "+branding.EnvVar("CONFIG_PATH")+")")
	pf.StringP(config.KeyCatalog, "a", "", "catalog file name (default "+branding.CatalogFile()+")")
	pf.StringP(config.KeyInstallPath, "i", "", "directory packages are installed into (default current directory)")
	pf.StringP(config.KeyTmpPath, "t", "", "temporary directory for clones (default OS temp directory)")
	pf.StringP(config.KeyBranch, "b", "", "branch checked out after cloning (default "+config.DefaultBranch+")")
	pf.Bool(config.KeyDebug, false, "enable debug logging")
	pf.Bool(config.KeyDryRun, false, "report what would change without touching the catalog or install directory")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errs.UserInput(cmd.Name(), "%w", err)
	})
}

// setup resolves options and builds the logger. Commands that must work with
// a broken config file skip option resolution.
func setup(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool(config.KeyDebug)
	l, err := newLogger(debug)
	if err != nil {
		return err
	}
	logger = l

	if cmd.Name() == "version" || (cmd.HasParent() && cmd.Parent().Name() == "config") {
		return nil
	}

	resolved, err := config.Resolve(cmd.Flags())
	if err != nil {
		return err
	}
	opts = resolved
	logger.Debug("resolved options",
		zap.String("catalog", opts.CatalogPath()),
		zap.String("install_dir", opts.InstallDir),
		zap.String("tmp_dir", opts.TmpDir),
		zap.String("branch", opts.Branch),
		zap.Bool("dry_run", opts.DryRun))
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg, err := logging.LoadConfig(branding.EnvPrefix())
	if err != nil {
		return nil, errs.UserInput("logging", "%w", err)
	}
	if debug {
		cfg.Level = "debug"
	}
	l, err := logging.New(cfg)
	if err != nil {
		return nil, errs.UserInput("logging", "%w", err)
	}
	return l, nil
}

// newInstaller wires the installer to git through a runner that streams to
// the command's stderr.
func newInstaller(cmd *cobra.Command) *installer.Installer {
	runner := shell.NewRunner(logger)
	runner.Stdout = cmd.ErrOrStderr()
	runner.Stderr = cmd.ErrOrStderr()
	return installer.New(opts, installer.NewGitFetcher(runner), logger)
}

// Execute runs the root command with build info injected via ldflags.
// Cancelling ctx stops the running command and any subprocess it started.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.ExecuteContext(ctx)
}
